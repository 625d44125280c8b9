package profile

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stayadmin/internal/platform"
)

func identityServer(t *testing.T, status int, body string) (*platform.Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "Bearer abc123", r.Header.Get("Authorization"))
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return platform.NewClient(platform.Config{BaseURL: srv.URL}), &calls
}

func TestResolveSuccess(t *testing.T) {
	client, calls := identityServer(t, http.StatusOK, `{"status":"success","profile":{"id":1,"name":"A","email":"a@x.com"}}`)

	p, err := NewResolver(client, nil, nil).Resolve(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, ID("1"), p.ID)
	assert.Equal(t, "A", p.Name)
	assert.Equal(t, "a@x.com", p.Email)
	assert.Equal(t, int32(1), calls.Load())
}

func TestResolveFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   Kind
	}{
		{"business failure", http.StatusOK, `{"status":"error","message":"token revoked"}`, KindRejected},
		{"non 2xx json", http.StatusForbidden, `{"status":"success","profile":{"id":1}}`, KindRejected},
		{"http 401", http.StatusUnauthorized, `{}`, KindRejected},
		{"business unauthorized", http.StatusOK, `{"status":"unauthorized"}`, KindRejected},
		{"success without profile", http.StatusOK, `{"status":"success"}`, KindMalformed},
		{"success with empty profile", http.StatusOK, `{"status":"success","profile":{}}`, KindMalformed},
		{"success with null profile", http.StatusOK, `{"status":"success","profile":null}`, KindMalformed},
		{"not json", http.StatusOK, `<html>`, KindMalformed},
		{"bare array", http.StatusOK, `[]`, KindRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := identityServer(t, tt.status, tt.body)

			p, err := NewResolver(client, nil, nil).Resolve(context.Background(), "abc123")
			assert.Nil(t, p)
			assert.Equal(t, tt.kind, KindOf(err), "got %v", err)
			assert.ErrorIs(t, err, ErrAuthFailed)
		})
	}
}

func TestResolveUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewResolver(platform.NewClient(platform.Config{BaseURL: srv.URL}), nil, nil).
		Resolve(context.Background(), "abc123")
	assert.Equal(t, KindUnreachable, KindOf(err))
}

func TestResolveSentinelSkipsNetwork(t *testing.T) {
	client, calls := identityServer(t, http.StatusOK, `{}`)
	r := NewResolver(client, nil, nil)

	for _, token := range []string{"", "undefined", "null"} {
		_, err := r.Resolve(context.Background(), token)
		assert.Equal(t, KindRejected, KindOf(err))
	}
	assert.Equal(t, int32(0), calls.Load())
}

// gatedClient blocks every identity call until release is closed.
type gatedClient struct {
	calls   atomic.Int32
	release chan struct{}
}

func (g *gatedClient) Identity(ctx context.Context, token string) (*platform.Response, error) {
	g.calls.Add(1)
	<-g.release
	return &platform.Response{
		StatusCode: http.StatusOK,
		Envelope:   platform.Envelope{Status: "success"},
		Body:       []byte(`{"status":"success","profile":{"id":5,"email":"e@x.com"}}`),
	}, nil
}

func TestResolveCollapsesConcurrentCalls(t *testing.T) {
	client := &gatedClient{release: make(chan struct{})}
	r := NewResolver(client, nil, nil)

	var wg sync.WaitGroup
	results := make([]*Profile, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := r.Resolve(context.Background(), "abc123")
			assert.NoError(t, err)
			results[i] = p
		}(i)
	}

	require.Eventually(t, func() bool { return client.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(client.release)
	wg.Wait()

	assert.Equal(t, int32(1), client.calls.Load())
	for _, p := range results {
		require.NotNil(t, p)
		assert.Equal(t, ID("5"), p.ID)
	}
	assert.NotSame(t, results[0], results[1], "each caller gets its own copy")
}

func TestResolveAbandonedByContext(t *testing.T) {
	client := &gatedClient{release: make(chan struct{})}
	defer close(client.release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewResolver(client, nil, nil).Resolve(ctx, "abc123")
	assert.Equal(t, KindUnreachable, KindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
