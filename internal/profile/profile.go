// Package profile resolves a bearer token into the admin's identity.
package profile

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ID is an identifier the API sends either as a JSON number or a string.
type ID string

// UnmarshalJSON accepts numbers and strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric IDs as numbers.
func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Profile is the admin identity returned by the identity endpoint or inline
// by the login endpoint.
type Profile struct {
	ID              ID     `json:"id"`
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
	Status          string `json:"status,omitempty"`
	Role            string `json:"role,omitempty"`
	EmailVerifiedAt string `json:"email_verified_at,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`

	// Raw keeps the object exactly as received.
	Raw json.RawMessage `json:"-"`
}

// Empty reports whether the profile identifies nobody.
func (p *Profile) Empty() bool {
	return p == nil || (p.ID == "" && p.Name == "" && p.Email == "")
}

// DisplayName returns the name, falling back to the email.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if strings.TrimSpace(p.Name) != "" {
		return p.Name
	}
	return p.Email
}

// MarshalJSON writes the object as received when it is available.
func (p Profile) MarshalJSON() ([]byte, error) {
	if len(p.Raw) > 0 {
		return p.Raw, nil
	}
	type plain Profile
	return json.Marshal(plain(p))
}

// Parse decodes a profile object. A missing, non-object or empty profile
// is malformed.
func Parse(raw json.RawMessage) (*Profile, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, &AuthError{Kind: KindMalformed, Message: "profile is not an object"}
	}

	type plain Profile
	var p plain
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &AuthError{Kind: KindMalformed, Message: "profile does not decode", Cause: err}
	}

	out := Profile(p)
	if out.Empty() {
		return nil, &AuthError{Kind: KindMalformed, Message: "profile is empty"}
	}
	out.Raw = append(json.RawMessage(nil), raw...)
	return &out, nil
}
