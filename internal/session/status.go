package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/stayadmin/internal/profile"
)

// Status is the session's resolution state.
type Status int

const (
	// StatusLoading holds from construction until the first resolution settles.
	StatusLoading Status = iota
	// StatusAuthenticated means a token and a profile are held.
	StatusAuthenticated
	// StatusAnonymous means no credential is held.
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText writes the lowercase name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses the lowercase name.
func (s *Status) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "loading":
		*s = StatusLoading
	case "authenticated":
		*s = StatusAuthenticated
	case "anonymous":
		*s = StatusAnonymous
	default:
		return fmt.Errorf("unknown session status %q", text)
	}
	return nil
}

// Snapshot is an immutable view of the session. The profile pointer is
// shared between snapshots and must not be modified.
type Snapshot struct {
	Status  Status           `json:"status" yaml:"status"`
	IsAdmin bool             `json:"is_admin" yaml:"is_admin"`
	Role    string           `json:"role,omitempty" yaml:"role,omitempty"`
	Profile *profile.Profile `json:"profile,omitempty" yaml:"profile,omitempty"`
	Token   string           `json:"-" yaml:"-"`
	Since   time.Time        `json:"since" yaml:"since"`
}

// Authenticated reports whether the snapshot holds a session.
func (s Snapshot) Authenticated() bool {
	return s.Status == StatusAuthenticated
}
