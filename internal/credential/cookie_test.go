package credential

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stayadmin/internal/errors"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCookieBackendWriteRead(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	path := DefaultJarPath(t.TempDir())
	b := NewCookieBackend(path, WithClock(fixedClock(now)))

	require.NoError(t, b.Write(ctx, Credential{Token: "42|abc", Role: RoleAdmin}))

	got, err := b.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, Credential{Token: "42|abc", Role: RoleAdmin}, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	jar := string(data)
	assert.Contains(t, jar, "iopt=42|abc; Path=/; Expires=")
	assert.Contains(t, jar, now.Add(CookieLifetime).Format(time.RFC1123)[:16])
}

func TestCookieBackendRefusesUnsafeValues(t *testing.T) {
	for _, token := range []string{`ab"cd`, "ab;cd", `ab\cd`, "ab cd", "ab,cd", "tök", "ab\x01"} {
		t.Run(token, func(t *testing.T) {
			ctx := context.Background()
			b := NewCookieBackend(DefaultJarPath(t.TempDir()))
			require.NoError(t, b.Write(ctx, Credential{Token: "old-token", Role: RoleAdmin}))

			err := b.Write(ctx, Credential{Token: token, Role: RoleAdmin})
			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, errors.ErrCodeCredentialBackend, appErr.Code)

			got, err := b.Read(ctx)
			require.NoError(t, err)
			assert.Equal(t, Credential{}, got, "the earlier login must not survive")
		})
	}
}

func TestCookieBackendEraseExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	path := DefaultJarPath(t.TempDir())
	b := NewCookieBackend(path, WithClock(fixedClock(now)))

	require.NoError(t, b.Write(ctx, Credential{Token: "tok", Role: RoleAdmin}))
	require.NoError(t, b.Erase(ctx))
	require.NoError(t, b.Erase(ctx))

	got, err := b.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, Credential{}, got)

	header, err := b.Header()
	require.NoError(t, err)
	assert.Empty(t, header)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "Expires="))
}

func TestCookieBackendKeepsForeignCookies(t *testing.T) {
	ctx := context.Background()
	path := DefaultJarPath(t.TempDir())
	require.NoError(t, os.WriteFile(path, []byte("theme=dark; Path=/\n"), 0o600))

	b := NewCookieBackend(path)
	require.NoError(t, b.Write(ctx, Credential{Token: "tok", Role: DefaultRole}))

	header, err := b.Header()
	require.NoError(t, err)
	assert.Equal(t, "theme=dark; iopt=tok; iopt-as=student", header)
}

func TestCookieBackendRoleDefault(t *testing.T) {
	path := DefaultJarPath(t.TempDir())
	require.NoError(t, os.WriteFile(path, []byte("iopt=tok; Path=/\n"), 0o600))

	got, err := NewCookieBackend(path).Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Credential{Token: "tok", Role: DefaultRole}, got)
}

func TestCookieBackendSentinel(t *testing.T) {
	path := DefaultJarPath(t.TempDir())
	require.NoError(t, os.WriteFile(path, []byte("iopt=undefined; Path=/\niopt-as=admin; Path=/\n"), 0o600))

	got, err := NewCookieBackend(path).Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Credential{}, got)
}

func TestCookieBackendLegacyJarLine(t *testing.T) {
	path := DefaultJarPath(t.TempDir())
	require.NoError(t, os.WriteFile(path, []byte("iopt=ab\"cd; Path=/\niopt-as=admin; Path=/\n"), 0o600))

	got, err := NewCookieBackend(path).Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Credential{Token: "ab\"cd", Role: RoleAdmin}, got)
}

func TestLookupCookie(t *testing.T) {
	tests := []struct {
		name   string
		header string
		key    string
		want   string
	}{
		{"parsed", "iopt=tok; iopt-as=admin", "iopt-as", "admin"},
		{"prefix does not match longer name", "iopt-as=admin; iopt=tok", "iopt", "tok"},
		{"missing", "theme=dark", "iopt", ""},
		{"empty header", "", "iopt", ""},
		{"legacy scan with leading spaces", "x=\"a b;   iopt=tok", "iopt", "tok"},
		{"legacy scan keeps remainder", "bad\"; iopt=a=b", "iopt", "a=b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LookupCookie(tt.header, tt.key))
		})
	}
}
