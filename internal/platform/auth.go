package platform

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/felixgeelhaar/stayadmin/internal/errors"
)

// LoginRequest is the body posted to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is a successful login.
type LoginResult struct {
	// Token is the bearer token for every later call. The API names it
	// refreshToken, but no refresh exchange exists.
	Token string
	// Role is "admin" when the API returned an inline admin object,
	// otherwise the envelope's role field, which may be empty.
	Role string
	// Profile is the inline profile object, or nil when the API sent none.
	Profile json.RawMessage
	Message string
}

type loginEnvelope struct {
	RefreshToken string          `json:"refreshToken"`
	Role         string          `json:"role"`
	Admin        json.RawMessage `json:"admin"`
	Profile      json.RawMessage `json:"profile"`
}

// Login posts the admin's credentials and returns the bearer token.
// Errors are *errors.AppError values ready for display.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, errors.New(errors.ErrCodeAuthValidation, "email and password are required")
	}

	resp, err := c.Do(ctx, Request{
		Operation: "login",
		Method:    http.MethodPost,
		Path:      c.loginPath,
		Body:      LoginRequest{Email: email, Password: password},
	})
	if err != nil {
		switch KindOf(err) {
		case KindUnauthorized:
			return nil, errors.NewInvalidCredentialsError(email, err)
		case KindTransport:
			return nil, errors.NewAPIUnreachableError(c.baseURL, err)
		default:
			return nil, errors.Wrap(errors.ErrCodeAPIMalformed, "unexpected login response", err)
		}
	}

	if !resp.Envelope.Success() {
		reason := resp.Envelope.Message
		if reason == "" {
			reason = fmt.Sprintf("status %q (HTTP %d)", resp.Envelope.Status, resp.StatusCode)
		}
		return nil, errors.NewInvalidCredentialsError(email, stderrors.New(reason))
	}

	var env loginEnvelope
	if err := resp.Decode(&env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeAPIMalformed, "unexpected login response", err)
	}
	if env.RefreshToken == "" {
		return nil, errors.New(errors.ErrCodeAPIMalformed, "login response carries no token")
	}

	result := &LoginResult{
		Token:   env.RefreshToken,
		Role:    env.Role,
		Message: resp.Envelope.Message,
	}
	switch {
	case isObject(env.Admin):
		result.Profile = env.Admin
		result.Role = "admin"
	case isObject(env.Profile):
		result.Profile = env.Profile
	}
	return result, nil
}

// isObject reports whether raw is a JSON object with at least one field.
func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return false
	}
	var fields map[string]json.RawMessage
	return json.Unmarshal(raw, &fields) == nil && len(fields) > 0
}
