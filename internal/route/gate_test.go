package route

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stayadmin/internal/metrics"
	"github.com/felixgeelhaar/stayadmin/internal/session"
)

func TestDecide(t *testing.T) {
	g := MustGate(DefaultTable(), nil)

	tests := []struct {
		name   string
		status session.Status
		path   string
		want   Decision
	}{
		{"loading protected path", session.StatusLoading, "/admin/dashboard", Decision{Placeholder: true}},
		{"loading login path", session.StatusLoading, "/admin/login", Decision{Placeholder: true}},
		{"authenticated dashboard", session.StatusAuthenticated, "/admin/dashboard", Decision{Tree: TreeProtected}},
		{"authenticated nested page", session.StatusAuthenticated, "/admin/apartments/42/edit", Decision{Tree: TreeProtected}},
		{"authenticated wildcard base", session.StatusAuthenticated, "/admin/bookings", Decision{Tree: TreeProtected}},
		{"authenticated trailing slash", session.StatusAuthenticated, "/admin/profile/", Decision{Tree: TreeProtected}},
		{"authenticated login path", session.StatusAuthenticated, "/admin/login", Decision{Tree: TreeProtected, Redirect: "/admin/dashboard"}},
		{"authenticated unknown path", session.StatusAuthenticated, "/nowhere", Decision{Tree: TreeProtected, Redirect: "/admin/dashboard"}},
		{"anonymous login path", session.StatusAnonymous, "/admin/login", Decision{Tree: TreePublic}},
		{"anonymous protected path", session.StatusAnonymous, "/admin/dashboard", Decision{Tree: TreePublic, Redirect: "/admin/login"}},
		{"anonymous unknown path", session.StatusAnonymous, "/", Decision{Tree: TreePublic, Redirect: "/admin/login"}},
		{"anonymous dotted path", session.StatusAnonymous, "/admin/login/../users", Decision{Tree: TreePublic, Redirect: "/admin/login"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Decide(tt.status, tt.path))
		})
	}
}

func TestSubtreesAreExclusive(t *testing.T) {
	g := MustGate(DefaultTable(), nil)
	paths := []string{"/", "/admin/login", "/admin/dashboard", "/admin/users/7", "/admin/shop", "/other"}

	for _, p := range paths {
		auth := g.Decide(session.StatusAuthenticated, p)
		anon := g.Decide(session.StatusAnonymous, p)
		assert.False(t, auth.Serve() && anon.Serve(), "%s is served by both subtrees", p)
	}
}

func TestNewGateRejectsInvalidTables(t *testing.T) {
	base := DefaultTable()

	tests := []struct {
		name   string
		mutate func(*Table)
	}{
		{"missing home", func(tb *Table) { tb.Home = "" }},
		{"same home and login", func(tb *Table) { tb.Home = tb.Login }},
		{"no public patterns", func(tb *Table) { tb.Public = nil }},
		{"relative pattern", func(tb *Table) { tb.Protected = append(tb.Protected, "admin/x") }},
		{"home outside protected", func(tb *Table) { tb.Home = "/admin/elsewhere" }},
		{"login outside public", func(tb *Table) { tb.Login = "/login" }},
		{"login also protected", func(tb *Table) { tb.Protected = append(tb.Protected, "/admin/*") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := base
			tb.Protected = append([]string(nil), base.Protected...)
			tb.Public = append([]string(nil), base.Public...)
			tt.mutate(&tb)

			_, err := NewGate(tb, nil)
			assert.Error(t, err)
		})
	}
}

type fixedStatus struct{ v atomic.Int32 }

func (f *fixedStatus) set(s session.Status) { f.v.Store(int32(s)) }

func (f *fixedStatus) Status() session.Status { return session.Status(f.v.Load()) }

func tagged(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(name))
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	g := MustGate(DefaultTable(), m)
	src := &fixedStatus{}
	h := g.Handler(src, tagged("protected"), tagged("public"))

	get := func(p string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		return rec
	}

	src.set(session.StatusLoading)
	rec := get("/admin/dashboard")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"status":"loading"}`, rec.Body.String())

	src.set(session.StatusAnonymous)
	rec = get("/admin/dashboard")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/login", rec.Header().Get("Location"))
	rec = get("/admin/login")
	assert.Equal(t, "public", rec.Body.String())

	src.set(session.StatusAuthenticated)
	rec = get("/admin/login")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))
	rec = get("/admin/statistics/revenue")
	assert.Equal(t, "protected", rec.Body.String())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RouteDecisions.WithLabelValues("none", "placeholder")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RouteDecisions.WithLabelValues("public", "redirect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RouteDecisions.WithLabelValues("protected", "serve")))
}

func TestTreeText(t *testing.T) {
	text, err := TreePublic.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "public", string(text))
	assert.True(t, strings.EqualFold(TreeNone.String(), "none"))
}
