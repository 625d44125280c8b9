package health

import (
	"context"

	"github.com/felixgeelhaar/stayadmin/internal/session"
)

// SessionSource exposes the session snapshot.
type SessionSource interface {
	Snapshot() session.Snapshot
}

// SessionChecker reports the admin session.
type SessionChecker struct {
	source SessionSource
}

// NewSessionChecker creates a checker for source.
func NewSessionChecker(source SessionSource) *SessionChecker {
	return &SessionChecker{source: source}
}

// Name returns the name of this health check.
func (c *SessionChecker) Name() string {
	return "admin-session"
}

// Check is Unhealthy while the initial resolution is pending, Degraded when
// nobody is logged in and Healthy for an authenticated session.
func (c *SessionChecker) Check(ctx context.Context) *Result {
	snap := c.source.Snapshot()
	switch snap.Status {
	case session.StatusAuthenticated:
		return Healthy("admin session active").
			WithDetail("status", snap.Status.String()).
			WithDetail("admin", snap.IsAdmin)
	case session.StatusAnonymous:
		return Degraded("no admin logged in").
			WithDetail("status", snap.Status.String())
	default:
		return Unhealthy("session still resolving").
			WithDetail("status", snap.Status.String())
	}
}
