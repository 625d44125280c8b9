package credential

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/felixgeelhaar/stayadmin/internal/errors"
	"github.com/felixgeelhaar/stayadmin/internal/log"
)

// ErrUnusableToken is returned by Save for sentinel tokens.
var ErrUnusableToken = stderrors.New("credential: token is empty or a sentinel value")

// Backend is one persistence target for a Credential.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string
	// Write replaces the stored credential.
	Write(ctx context.Context, c Credential) error
	// Read returns the stored credential, or an empty one when nothing is stored.
	Read(ctx context.Context) (Credential, error)
	// Erase removes the stored credential. Erasing an empty backend is not an error.
	Erase(ctx context.Context) error
}

// Store fans writes out to every backend and reads them back in order.
type Store struct {
	backends []Backend
	logger   *log.Logger
}

// NewStore creates a store over backends, highest precedence first.
func NewStore(logger *log.Logger, backends ...Backend) *Store {
	if logger == nil {
		logger = log.Discard()
	}
	return &Store{
		backends: backends,
		logger:   logger.Component("credential"),
	}
}

// Backends returns the configured backends in precedence order.
func (s *Store) Backends() []Backend {
	out := make([]Backend, len(s.backends))
	copy(out, s.backends)
	return out
}

// Save writes token and role to every backend. An empty role becomes
// DefaultRole. A failing backend does not stop the others; an error is
// returned only when no backend accepted the write.
func (s *Store) Save(ctx context.Context, token, role string) error {
	if !Usable(token) {
		return ErrUnusableToken
	}
	c := Credential{Token: token, Role: role}.normalize()

	var errs []error
	for _, b := range s.backends {
		if err := b.Write(ctx, c); err != nil {
			s.logger.WarnContext(ctx, "credential write failed",
				"backend", b.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
		}
	}

	if len(s.backends) > 0 && len(errs) == len(s.backends) {
		return errors.Wrap(errors.ErrCodeCredentialWrite, "no credential backend accepted the write", stderrors.Join(errs...))
	}

	s.logger.DebugContext(ctx, "credential saved",
		"token", Fingerprint(c.Token), "role", c.Role)
	return nil
}

// Load returns the first usable credential found, or an empty Credential.
// Backend read failures are logged and skipped.
func (s *Store) Load(ctx context.Context) Credential {
	for _, b := range s.backends {
		c, err := b.Read(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "credential read failed",
				"backend", b.Name(), "error", err)
			continue
		}
		if c = c.normalize(); !c.Empty() {
			s.logger.DebugContext(ctx, "credential loaded",
				"backend", b.Name(), "token", Fingerprint(c.Token), "role", c.Role)
			return c
		}
	}
	return Credential{}
}

// Clear erases every backend. It is idempotent. The returned error joins
// backend failures and is informational.
func (s *Store) Clear(ctx context.Context) error {
	var errs []error
	for _, b := range s.backends {
		if err := b.Erase(ctx); err != nil {
			s.logger.WarnContext(ctx, "credential erase failed",
				"backend", b.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
		}
	}
	return stderrors.Join(errs...)
}
