package profile

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/felixgeelhaar/stayadmin/internal/credential"
	"github.com/felixgeelhaar/stayadmin/internal/log"
	"github.com/felixgeelhaar/stayadmin/internal/metrics"
	"github.com/felixgeelhaar/stayadmin/internal/platform"
	"github.com/felixgeelhaar/stayadmin/internal/telemetry"
)

// IdentityClient calls the identity endpoint.
type IdentityClient interface {
	Identity(ctx context.Context, token string) (*platform.Response, error)
}

// Resolver turns a token into a Profile with one identity call.
type Resolver struct {
	client  IdentityClient
	group   singleflight.Group
	logger  *log.Logger
	metrics *metrics.Metrics
}

// NewResolver creates a resolver. logger and m may be nil.
func NewResolver(client IdentityClient, logger *log.Logger, m *metrics.Metrics) *Resolver {
	if logger == nil {
		logger = log.Discard()
	}
	return &Resolver{
		client:  client,
		logger:  logger.Component("profile"),
		metrics: m,
	}
}

// Resolve returns the profile for token or an *AuthError. Concurrent calls
// for the same token share one request; a caller whose ctx ends stops
// waiting without cancelling the others.
func (r *Resolver) Resolve(ctx context.Context, token string) (*Profile, error) {
	if !credential.Usable(token) {
		return nil, &AuthError{Kind: KindRejected, Message: "no token"}
	}

	ch := r.group.DoChan(token, func() (any, error) {
		return r.resolve(context.WithoutCancel(ctx), token)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		p := *res.Val.(*Profile)
		return &p, nil
	case <-ctx.Done():
		return nil, &AuthError{Kind: KindUnreachable, Message: "resolve abandoned", Cause: ctx.Err()}
	}
}

func (r *Resolver) resolve(ctx context.Context, token string) (*Profile, error) {
	ctx, span := telemetry.StartSessionSpan(ctx, "resolve")
	defer span.End()

	start := time.Now()
	p, err := r.fetch(ctx, token)
	elapsed := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = KindOf(err).String()
		telemetry.RecordError(span, err)
		r.logger.InfoContext(ctx, "identity resolution failed",
			"token", credential.Fingerprint(token), "outcome", outcome, "error", err)
	} else {
		telemetry.RecordSuccess(span, attribute.String("profile.id", string(p.ID)))
		r.logger.DebugContext(ctx, "identity resolved",
			"token", credential.Fingerprint(token), "profile_id", string(p.ID))
	}
	r.metrics.ObserveResolution(outcome, elapsed)
	return p, err
}

func (r *Resolver) fetch(ctx context.Context, token string) (*Profile, error) {
	resp, err := r.client.Identity(ctx, token)
	if err != nil {
		switch platform.KindOf(err) {
		case platform.KindTransport:
			return nil, &AuthError{Kind: KindUnreachable, Cause: err}
		case platform.KindUnauthorized:
			return nil, &AuthError{Kind: KindRejected, Cause: err}
		default:
			return nil, &AuthError{Kind: KindMalformed, Cause: err}
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &AuthError{Kind: KindRejected, Message: fmt.Sprintf("identity endpoint answered HTTP %d", resp.StatusCode)}
	}
	if !resp.Envelope.Success() {
		msg := resp.Envelope.Message
		if msg == "" {
			msg = fmt.Sprintf("status %q", resp.Envelope.Status)
		}
		return nil, &AuthError{Kind: KindRejected, Message: msg}
	}

	raw := resp.Field("profile")
	if len(raw) == 0 {
		return nil, &AuthError{Kind: KindMalformed, Message: "success envelope without profile"}
	}
	return Parse(raw)
}
