// Package session holds the admin's session state machine.
//
// A Manager starts in StatusLoading, settles once into StatusAuthenticated or
// StatusAnonymous, and afterwards may only fall from Authenticated to
// Anonymous on its own. Getting back to Authenticated takes an explicit
// LogIn. Every transition that ends a session bumps an epoch; a resolution
// started under an older epoch is discarded when it completes.
package session

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/felixgeelhaar/stayadmin/internal/credential"
	"github.com/felixgeelhaar/stayadmin/internal/errors"
	"github.com/felixgeelhaar/stayadmin/internal/log"
	"github.com/felixgeelhaar/stayadmin/internal/metrics"
	"github.com/felixgeelhaar/stayadmin/internal/profile"
	"github.com/felixgeelhaar/stayadmin/internal/telemetry"
)

// Resolver turns a token into a profile.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*profile.Profile, error)
}

// CredentialStore persists the credential.
type CredentialStore interface {
	Save(ctx context.Context, token, role string) error
	Load(ctx context.Context) credential.Credential
	Clear(ctx context.Context) error
}

// Navigator moves the console to a route.
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, path string)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(ctx context.Context, path string) { f(ctx, path) }

// Homes names the landing routes used after login and logout.
type Homes struct {
	Admin   string
	Default string
	Public  string
}

// DefaultHomes returns the console's landing routes.
func DefaultHomes() Homes {
	return Homes{
		Admin:   "/admin/dashboard",
		Default: "/admin/dashboard",
		Public:  "/admin/login",
	}
}

// For returns the home route for role.
func (h Homes) For(role string) string {
	if role == credential.RoleAdmin {
		return h.Admin
	}
	return h.Default
}

// Options configures a Manager. Store and Resolver are required.
type Options struct {
	Store     CredentialStore
	Resolver  Resolver
	Navigator Navigator
	Homes     Homes
	Logger    *log.Logger
	Metrics   *metrics.Metrics

	// KeepOnUnreachable keeps an authenticated session when Refresh cannot
	// reach the identity endpoint. Rejections still end the session.
	KeepOnUnreachable bool

	Clock func() time.Time
}

// LoginRequest is the outcome of a successful login call.
type LoginRequest struct {
	Token string
	Role  string
	// Profile is adopted as-is when set, skipping the identity call.
	Profile *profile.Profile
}

// Manager owns the session state.
type Manager struct {
	store     CredentialStore
	resolver  Resolver
	navigator Navigator
	homes     Homes
	logger    *log.Logger
	metrics   *metrics.Metrics
	keep      bool
	now       func() time.Time

	// opMu serializes transitions together with their store writes.
	opMu  sync.Mutex
	epoch uint64

	mu   sync.RWMutex
	snap Snapshot

	startOnce sync.Once
	readyOnce sync.Once
	ready     chan struct{}

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// NewManager creates a manager in StatusLoading.
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Navigator == nil {
		opts.Navigator = NavigatorFunc(func(context.Context, string) {})
	}
	if opts.Homes == (Homes{}) {
		opts.Homes = DefaultHomes()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Manager{
		store:     opts.Store,
		resolver:  opts.Resolver,
		navigator: opts.Navigator,
		homes:     opts.Homes,
		logger:    opts.Logger.Component("session"),
		metrics:   opts.Metrics,
		keep:      opts.KeepOnUnreachable,
		now:       opts.Clock,
		snap:      Snapshot{Status: StatusLoading, Since: opts.Clock()},
		ready:     make(chan struct{}),
		subs:      make(map[int]func(Snapshot)),
	}
}

// Snapshot returns the current session view.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}

// Status returns the current status.
func (m *Manager) Status() Status {
	return m.Snapshot().Status
}

// Token returns the bearer token of an authenticated session, or "".
func (m *Manager) Token() string {
	s := m.Snapshot()
	if s.Status != StatusAuthenticated {
		return ""
	}
	return s.Token
}

// Ready is closed once the session has left StatusLoading.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Wait blocks until the session has left StatusLoading or ctx ends.
func (m *Manager) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-m.ready:
		return m.Snapshot(), nil
	case <-ctx.Done():
		return m.Snapshot(), ctx.Err()
	}
}

// Subscribe registers fn for every committed snapshot. fn runs while the
// transition is still held, so it must not call back into the Manager's
// transition methods. The returned func unregisters fn.
func (m *Manager) Subscribe(fn func(Snapshot)) (cancel func()) {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subs, id)
			m.subMu.Unlock()
		})
	}
}

// Start performs the initial resolution. Only the first call has any effect.
// A sentinel or missing token settles as Anonymous without a network call.
// If ctx ends before the identity endpoint answers, the session stays
// Loading and the stored credential is kept.
func (m *Manager) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		ctx, span := telemetry.StartSessionSpan(ctx, "start")
		defer span.End()

		m.opMu.Lock()
		epoch := m.epoch
		loading := m.Status() == StatusLoading
		m.opMu.Unlock()
		if !loading {
			return
		}

		cred := m.store.Load(ctx)
		if cred.Empty() {
			m.opMu.Lock()
			if m.epoch == epoch {
				m.resetLocked(ctx, "no-credential")
			}
			m.opMu.Unlock()
			telemetry.RecordSuccess(span, attribute.String("session.status", m.Status().String()))
			return
		}

		p, err := m.resolver.Resolve(ctx, cred.Token)

		m.opMu.Lock()
		defer m.opMu.Unlock()
		if m.epoch != epoch {
			m.logger.DebugContext(ctx, "initial resolution superseded")
			return
		}
		if err != nil && ctx.Err() != nil {
			// Shutting down says nothing about the credential.
			telemetry.RecordError(span, err)
			m.logger.DebugContext(ctx, "initial resolution abandoned; session stays loading")
			return
		}
		if err != nil {
			telemetry.RecordError(span, err)
			m.logger.InfoContext(ctx, "stored credential rejected",
				"token", credential.Fingerprint(cred.Token), "error", err)
			m.resetLocked(ctx, "start-failed")
			return
		}
		m.commitLocked(ctx, Snapshot{
			Status:  StatusAuthenticated,
			IsAdmin: cred.IsAdmin(),
			Role:    cred.Role,
			Profile: p,
			Token:   cred.Token,
		}, "start")
		telemetry.RecordSuccess(span, attribute.String("session.status", StatusAuthenticated.String()))
	})
}

// LogIn persists a fresh credential and authenticates. Without an inline
// profile the token is resolved first; if that fails the session ends and
// the error is returned, unless ctx ended or another transition happened
// while resolving. On success the console navigates to the role's home.
func (m *Manager) LogIn(ctx context.Context, req LoginRequest) error {
	ctx, span := telemetry.StartSessionSpan(ctx, "login")
	defer span.End()

	if !credential.Usable(req.Token) {
		err := errors.New(errors.ErrCodeAuthValidation, "login returned no usable token")
		telemetry.RecordError(span, err)
		return err
	}
	role := req.Role
	if role == "" {
		role = credential.DefaultRole
	}

	p := req.Profile
	if p.Empty() {
		m.opMu.Lock()
		epoch := m.epoch
		m.opMu.Unlock()

		resolved, err := m.resolver.Resolve(ctx, req.Token)
		if err != nil {
			telemetry.RecordError(span, err)
			m.opMu.Lock()
			switch {
			case ctx.Err() != nil:
				m.logger.DebugContext(ctx, "login abandoned", "error", err)
			case m.epoch != epoch:
				m.logger.DebugContext(ctx, "failed login superseded by a newer transition")
			default:
				m.resetLocked(ctx, "login-failed")
			}
			m.opMu.Unlock()
			return resolveError(err)
		}
		p = resolved
	}

	m.opMu.Lock()
	if err := m.store.Save(ctx, req.Token, role); err != nil {
		m.logger.WarnContext(ctx, "credential not persisted; session lasts for this process only", "error", err)
		m.metrics.ObserveCredential("save", false)
	} else {
		m.metrics.ObserveCredential("save", true)
	}
	m.epoch++
	m.commitLocked(ctx, Snapshot{
		Status:  StatusAuthenticated,
		IsAdmin: role == credential.RoleAdmin,
		Role:    role,
		Profile: p,
		Token:   req.Token,
	}, "login")
	m.opMu.Unlock()

	telemetry.RecordSuccess(span, attribute.String("session.role", role))
	m.navigator.Navigate(ctx, m.homes.For(role))
	return nil
}

// LogOut ends the session, clears the store and navigates to the public
// landing route.
func (m *Manager) LogOut(ctx context.Context) {
	m.opMu.Lock()
	m.resetLocked(ctx, "logout")
	m.opMu.Unlock()

	m.navigator.Navigate(ctx, m.homes.Public)
}

// HandleTokenExpired ends the session after the API refused token. It does
// not navigate; the route gate reacts to the status change. Reports for a
// token other than the current one, or when no session is held, are
// ignored, so concurrent 401s reset the session once. An empty token
// matches the current session.
func (m *Manager) HandleTokenExpired(ctx context.Context, token string) bool {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	cur := m.Snapshot()
	if cur.Status != StatusAuthenticated || (token != "" && token != cur.Token) {
		m.metrics.ObserveUnauthorized(false)
		return false
	}

	m.logger.InfoContext(ctx, "session token refused by the API",
		"token", credential.Fingerprint(cur.Token))
	m.resetLocked(ctx, "unauthorized")
	m.metrics.ObserveUnauthorized(true)
	return true
}

// Refresh re-validates the current token and adopts the returned profile.
// A rejection ends the session. When KeepOnUnreachable is set, a transport
// failure leaves the session as it is.
func (m *Manager) Refresh(ctx context.Context) error {
	ctx, span := telemetry.StartSessionSpan(ctx, "refresh")
	defer span.End()

	m.opMu.Lock()
	epoch := m.epoch
	cur := m.Snapshot()
	m.opMu.Unlock()

	if cur.Status != StatusAuthenticated {
		return errors.NewNotLoggedInError()
	}

	p, err := m.resolver.Resolve(ctx, cur.Token)

	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.epoch != epoch {
		m.logger.DebugContext(ctx, "refresh superseded by a newer transition")
		if err != nil {
			return resolveError(err)
		}
		return errors.New(errors.ErrCodeSessionReset, "session changed while refreshing")
	}

	if err != nil {
		telemetry.RecordError(span, err)
		if ctx.Err() != nil {
			m.logger.DebugContext(ctx, "refresh abandoned", "error", err)
			return resolveError(err)
		}
		if m.keep && profile.KindOf(err) == profile.KindUnreachable {
			m.logger.WarnContext(ctx, "identity endpoint unreachable; keeping session", "error", err)
			return resolveError(err)
		}
		m.resetLocked(ctx, "refresh-failed")
		return resolveError(err)
	}

	next := cur
	next.Profile = p
	m.commitLocked(ctx, next, "refresh")
	telemetry.RecordSuccess(span)
	return nil
}

// resetLocked moves to Anonymous and clears the store. Callers hold opMu.
func (m *Manager) resetLocked(ctx context.Context, reason string) {
	m.epoch++
	if err := m.store.Clear(ctx); err != nil {
		m.logger.WarnContext(ctx, "credential clear incomplete", "error", err)
		m.metrics.ObserveCredential("clear", false)
	} else {
		m.metrics.ObserveCredential("clear", true)
	}
	m.commitLocked(ctx, Snapshot{Status: StatusAnonymous}, reason)
}

// commitLocked publishes s. Callers hold opMu.
func (m *Manager) commitLocked(ctx context.Context, s Snapshot, reason string) {
	s.Since = m.now()

	m.mu.Lock()
	prev := m.snap
	m.snap = s
	m.mu.Unlock()

	m.readyOnce.Do(func() { close(m.ready) })

	if prev.Status != s.Status {
		m.metrics.ObserveTransition(prev.Status.String(), s.Status.String(), reason)
		m.logger.InfoContext(ctx, "session transition",
			"from", prev.Status.String(), "to", s.Status.String(), "reason", reason,
			"token", credential.Fingerprint(s.Token))
	}

	m.subMu.Lock()
	subs := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.subMu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}

func resolveError(err error) error {
	if profile.KindOf(err) == profile.KindUnreachable {
		return errors.Wrap(errors.ErrCodeAPIUnreachable, "identity endpoint unreachable", err)
	}
	return errors.Wrap(errors.ErrCodeAuthProfileRejected, "identity check failed", err)
}
