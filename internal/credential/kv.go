package credential

import (
	"context"
	stderrors "errors"
)

// Keys used by the key-value backend.
const (
	KeyAuthToken    = "authToken"
	KeyRefreshToken = "refreshToken"
	KeyAuthRole     = "authRole"
)

// ErrNotFound is returned by KV.Get for a missing key.
var ErrNotFound = stderrors.New("credential: key not found")

// KV is a string key-value store.
type KV interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores every pair in one operation.
	Set(ctx context.Context, pairs map[string]string) error
	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

// KVBackend stores a Credential under the authToken, refreshToken and
// authRole keys. refreshToken always mirrors authToken; no refresh
// exchange exists, but older clients read it.
type KVBackend struct {
	kv   KV
	name string
}

// NewKVBackend wraps kv as a credential backend.
func NewKVBackend(kv KV) *KVBackend {
	name := "kv"
	if n, ok := kv.(interface{ Name() string }); ok {
		name = n.Name()
	}
	return &KVBackend{kv: kv, name: name}
}

// Name implements Backend.
func (b *KVBackend) Name() string { return b.name }

// KV returns the underlying store.
func (b *KVBackend) KV() KV { return b.kv }

// Write implements Backend.
func (b *KVBackend) Write(ctx context.Context, c Credential) error {
	return b.kv.Set(ctx, map[string]string{
		KeyAuthToken:    c.Token,
		KeyRefreshToken: c.Token,
		KeyAuthRole:     c.Role,
	})
}

// Read implements Backend. A stored token without a role reads as DefaultRole.
func (b *KVBackend) Read(ctx context.Context) (Credential, error) {
	token, err := b.kv.Get(ctx, KeyAuthToken)
	if stderrors.Is(err, ErrNotFound) {
		return Credential{}, nil
	}
	if err != nil {
		return Credential{}, err
	}

	role, err := b.kv.Get(ctx, KeyAuthRole)
	if err != nil && !stderrors.Is(err, ErrNotFound) {
		return Credential{}, err
	}

	return Credential{Token: token, Role: role}.normalize(), nil
}

// Erase implements Backend.
func (b *KVBackend) Erase(ctx context.Context) error {
	return b.kv.Delete(ctx, KeyAuthToken, KeyRefreshToken, KeyAuthRole)
}
