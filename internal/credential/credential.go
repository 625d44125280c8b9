package credential

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zeebo/blake3"
)

const (
	// DefaultRole is assumed when a credential carries no role marker.
	DefaultRole = "student"
	// RoleAdmin marks an admin credential.
	RoleAdmin = "admin"
)

// Credential is the persisted pair of bearer token and role marker.
// The two fields are always written and cleared together.
type Credential struct {
	Token string
	Role  string
}

// Empty reports whether the credential holds no usable token.
func (c Credential) Empty() bool {
	return !Usable(c.Token)
}

// IsAdmin reports whether the role marker is the admin role.
func (c Credential) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// normalize fills the default role and blanks sentinel tokens.
func (c Credential) normalize() Credential {
	if !Usable(c.Token) {
		return Credential{}
	}
	if c.Role == "" {
		c.Role = DefaultRole
	}
	return c
}

// Usable reports whether token can be sent to the API. Empty strings and the
// literal strings "undefined" and "null" are treated as no token.
func Usable(token string) bool {
	switch strings.TrimSpace(token) {
	case "", "undefined", "null":
		return false
	}
	return true
}

// Fingerprint returns a short digest of token that is safe to log.
func Fingerprint(token string) string {
	if !Usable(token) {
		return "none"
	}
	sum := blake3.Sum256([]byte(token))
	return hex.EncodeToString(sum[:6])
}

// TokenInfo describes what can be learned from a token without the API.
type TokenInfo struct {
	Format    string    `json:"format" yaml:"format"`
	Subject   string    `json:"subject,omitempty" yaml:"subject,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

// Expired reports whether the token carries an expiry that has passed.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// Inspect looks inside token without verifying it. Bearer tokens are opaque
// to this package, so the result is informational only.
func Inspect(token string) TokenInfo {
	if !Usable(token) {
		return TokenInfo{Format: "none"}
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{Format: "opaque"}
	}

	info := TokenInfo{Format: "jwt", Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info
}
