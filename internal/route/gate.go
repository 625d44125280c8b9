// Package route decides which route subtree the console may show for the
// current session.
//
// The protected and public subtrees are mutually exclusive. While the session
// is loading neither is mounted and a placeholder is shown; afterwards any
// path outside the mounted subtree is redirected to its landing path.
package route

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/felixgeelhaar/stayadmin/internal/metrics"
	"github.com/felixgeelhaar/stayadmin/internal/session"
)

// Tree identifies a route subtree.
type Tree int

const (
	TreeNone Tree = iota
	TreeProtected
	TreePublic
)

func (t Tree) String() string {
	switch t {
	case TreeProtected:
		return "protected"
	case TreePublic:
		return "public"
	default:
		return "none"
	}
}

// MarshalText renders the tree name.
func (t Tree) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Decision is the gate's answer for one path.
type Decision struct {
	// Placeholder is set while the session is loading. No subtree is mounted.
	Placeholder bool `json:"placeholder"`
	// Tree is the mounted subtree.
	Tree Tree `json:"tree"`
	// Redirect is the path to send the console to, if any.
	Redirect string `json:"redirect,omitempty"`
}

// Serve reports whether the path is served by the mounted subtree.
func (d Decision) Serve() bool {
	return !d.Placeholder && d.Redirect == ""
}

func (d Decision) action() string {
	switch {
	case d.Placeholder:
		return "placeholder"
	case d.Redirect != "":
		return "redirect"
	default:
		return "serve"
	}
}

// StatusSource reports the current session status.
type StatusSource interface {
	Status() session.Status
}

// Gate maps a session status and a path to a Decision.
type Gate struct {
	table     Table
	protected *chi.Mux
	public    *chi.Mux
	metrics   *metrics.Metrics
}

// NewGate builds a gate for table.
func NewGate(table Table, m *metrics.Metrics) (*Gate, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	g := &Gate{
		table:     table,
		protected: matcher(table.Protected),
		public:    matcher(table.Public),
		metrics:   m,
	}
	if !g.match(g.protected, table.Home) {
		return nil, fmt.Errorf("home path %q is not in the protected subtree", table.Home)
	}
	if !g.match(g.public, table.Login) {
		return nil, fmt.Errorf("login path %q is not in the public subtree", table.Login)
	}
	if g.match(g.protected, table.Login) {
		return nil, fmt.Errorf("login path %q is also in the protected subtree", table.Login)
	}
	if g.match(g.public, table.Home) {
		return nil, fmt.Errorf("home path %q is also in the public subtree", table.Home)
	}
	return g, nil
}

// MustGate is NewGate that panics on an invalid table.
func MustGate(table Table, m *metrics.Metrics) *Gate {
	g, err := NewGate(table, m)
	if err != nil {
		panic(err)
	}
	return g
}

// Table returns the gate's route table.
func (g *Gate) Table() Table { return g.table }

func matcher(patterns []string) *chi.Mux {
	r := chi.NewRouter()
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	for _, p := range patterns {
		r.Handle(p, noop)
		if base, ok := strings.CutSuffix(p, "/*"); ok && base != "" {
			r.Handle(base, noop)
		}
	}
	return r
}

func (g *Gate) match(r *chi.Mux, p string) bool {
	return r.Match(chi.NewRouteContext(), http.MethodGet, p)
}

func clean(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// Decide returns the decision for path under status. It has no side effects.
func (g *Gate) Decide(status session.Status, p string) Decision {
	p = clean(p)
	switch status {
	case session.StatusAuthenticated:
		if p != g.table.Login && g.match(g.protected, p) {
			return Decision{Tree: TreeProtected}
		}
		return Decision{Tree: TreeProtected, Redirect: g.table.Home}
	case session.StatusAnonymous:
		if g.match(g.public, p) {
			return Decision{Tree: TreePublic}
		}
		return Decision{Tree: TreePublic, Redirect: g.table.Login}
	default:
		return Decision{Placeholder: true}
	}
}

// Handler applies the gate in front of the two subtrees. The status is read
// once per request.
func (g *Gate) Handler(source StatusSource, protected, public http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := g.Decide(source.Status(), r.URL.Path)
		g.metrics.ObserveRoute(d.Tree.String(), d.action())

		switch {
		case d.Placeholder:
			writePlaceholder(w)
		case d.Redirect != "":
			w.Header().Set("Cache-Control", "no-store")
			http.Redirect(w, r, d.Redirect, http.StatusFound)
		case d.Tree == TreeProtected:
			protected.ServeHTTP(w, r)
		default:
			public.ServeHTTP(w, r)
		}
	})
}

func writePlaceholder(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": session.StatusLoading.String()})
}
