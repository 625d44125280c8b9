package credential

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stayadmin/internal/errors"
)

// failingBackend rejects every operation.
type failingBackend struct{ name string }

func (f failingBackend) Name() string { return f.name }
func (f failingBackend) Write(context.Context, Credential) error {
	return stderrors.New("storage disabled")
}
func (f failingBackend) Read(context.Context) (Credential, error) {
	return Credential{}, stderrors.New("storage disabled")
}
func (f failingBackend) Erase(context.Context) error { return stderrors.New("storage disabled") }

func newTestStore(t *testing.T) (*Store, *MemoryKV, *CookieBackend) {
	t.Helper()
	kv := NewMemoryKV()
	cookies := NewCookieBackend(DefaultJarPath(t.TempDir()))
	return NewStore(nil, NewKVBackend(kv), cookies), kv, cookies
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _, cookies := newTestStore(t)

	require.NoError(t, store.Save(ctx, "tok-1", RoleAdmin))
	assert.Equal(t, Credential{Token: "tok-1", Role: RoleAdmin}, store.Load(ctx))

	fromCookie, err := cookies.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, Credential{Token: "tok-1", Role: RoleAdmin}, fromCookie)
}

func TestStoreSaveDefaultsRole(t *testing.T) {
	ctx := context.Background()
	store, kv, _ := newTestStore(t)

	require.NoError(t, store.Save(ctx, "tok-2", ""))
	assert.Equal(t, DefaultRole, store.Load(ctx).Role)

	role, err := kv.Get(ctx, KeyAuthRole)
	require.NoError(t, err)
	assert.Equal(t, DefaultRole, role)
}

func TestStoreSaveMirrorsRefreshToken(t *testing.T) {
	ctx := context.Background()
	store, kv, _ := newTestStore(t)

	require.NoError(t, store.Save(ctx, "tok-3", RoleAdmin))
	refresh, err := kv.Get(ctx, KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-3", refresh)
}

func TestStoreSaveRejectsSentinel(t *testing.T) {
	store, kv, _ := newTestStore(t)

	err := store.Save(context.Background(), "undefined", RoleAdmin)
	assert.ErrorIs(t, err, ErrUnusableToken)
	assert.Equal(t, 0, kv.Len())
}

func TestStoreLoadPrecedence(t *testing.T) {
	ctx := context.Background()
	store, kv, cookies := newTestStore(t)

	require.NoError(t, cookies.Write(ctx, Credential{Token: "from-cookie", Role: DefaultRole}))
	assert.Equal(t, "from-cookie", store.Load(ctx).Token, "cookie is used when the primary is empty")

	require.NoError(t, kv.Set(ctx, map[string]string{KeyAuthToken: "from-kv", KeyAuthRole: RoleAdmin}))
	assert.Equal(t, Credential{Token: "from-kv", Role: RoleAdmin}, store.Load(ctx))

	require.NoError(t, kv.Set(ctx, map[string]string{KeyAuthToken: "null"}))
	assert.Equal(t, "from-cookie", store.Load(ctx).Token, "a sentinel in the primary falls through")
}

func TestStoreLoadEmpty(t *testing.T) {
	store, _, _ := newTestStore(t)
	assert.Equal(t, Credential{}, store.Load(context.Background()))
}

func TestStoreClearIdempotent(t *testing.T) {
	ctx := context.Background()
	store, kv, _ := newTestStore(t)

	require.NoError(t, store.Save(ctx, "tok-4", RoleAdmin))

	for i := 0; i < 3; i++ {
		assert.NoError(t, store.Clear(ctx))
		assert.Equal(t, Credential{}, store.Load(ctx))
		assert.Equal(t, 0, kv.Len())
	}
}

func TestStoreToleratesFailingBackend(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	store := NewStore(nil, failingBackend{name: "broken"}, NewKVBackend(kv))

	require.NoError(t, store.Save(ctx, "tok-5", RoleAdmin))
	assert.Equal(t, "tok-5", store.Load(ctx).Token)
	assert.Error(t, store.Clear(ctx))
	assert.Equal(t, Credential{}, store.Load(ctx))
}

func TestStoreKeepsTokenTheCookieJarRefuses(t *testing.T) {
	ctx := context.Background()
	store, kv, cookies := newTestStore(t)

	require.NoError(t, store.Save(ctx, `tok"7;x`, RoleAdmin))
	assert.Equal(t, Credential{Token: `tok"7;x`, Role: RoleAdmin}, store.Load(ctx))

	fromKV, err := NewKVBackend(kv).Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `tok"7;x`, fromKV.Token)

	fromJar, err := cookies.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, Credential{}, fromJar)
}

func TestStoreAllBackendsFail(t *testing.T) {
	store := NewStore(nil, failingBackend{name: "a"}, failingBackend{name: "b"})

	err := store.Save(context.Background(), "tok-6", RoleAdmin)
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeCredentialWrite, appErr.Code)
	assert.Equal(t, Credential{}, store.Load(context.Background()))
}
