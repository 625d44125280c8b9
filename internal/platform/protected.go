package platform

import (
	"context"
	"net/http"

	"github.com/felixgeelhaar/stayadmin/internal/credential"
)

// TokenSource supplies the bearer token held by the live session.
type TokenSource interface {
	Token() string
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func() string

// Token implements TokenSource.
func (f TokenSourceFunc) Token() string { return f() }

// UnauthorizedFunc is told which token the API refused.
type UnauthorizedFunc func(ctx context.Context, token string)

// Protected sends page-level calls with the session's bearer token and
// routes 401-class answers to a single session reset hook.
type Protected struct {
	client         *Client
	tokens         TokenSource
	onUnauthorized UnauthorizedFunc
}

// NewProtected creates a protected request helper. onUnauthorized may be nil.
func NewProtected(client *Client, tokens TokenSource, onUnauthorized UnauthorizedFunc) *Protected {
	return &Protected{client: client, tokens: tokens, onUnauthorized: onUnauthorized}
}

// Do sends one request. The token is read from the session, never from
// storage. Without a usable token the call fails as unauthorized and no
// request is sent. When the API refuses the token, the reset hook runs
// before Do returns.
func (p *Protected) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	token := p.tokens.Token()
	if !credential.Usable(token) {
		return nil, &Error{Kind: KindUnauthorized, Method: method, Path: path, Message: "no session token"}
	}

	resp, err := p.client.Do(ctx, Request{
		Operation: "protected",
		Method:    method,
		Path:      path,
		Token:     token,
		Body:      body,
	})
	if IsUnauthorized(err) && p.onUnauthorized != nil {
		p.onUnauthorized(ctx, token)
	}
	return resp, err
}

// Get sends a GET request.
func (p *Protected) Get(ctx context.Context, path string) (*Response, error) {
	return p.Do(ctx, http.MethodGet, path, nil)
}

// Post sends a POST request with a JSON body.
func (p *Protected) Post(ctx context.Context, path string, body any) (*Response, error) {
	return p.Do(ctx, http.MethodPost, path, body)
}

// Put sends a PUT request with a JSON body.
func (p *Protected) Put(ctx context.Context, path string, body any) (*Response, error) {
	return p.Do(ctx, http.MethodPut, path, body)
}

// Delete sends a DELETE request.
func (p *Protected) Delete(ctx context.Context, path string) (*Response, error) {
	return p.Do(ctx, http.MethodDelete, path, nil)
}
