package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestInitDefault(t *testing.T) {
	m := InitDefault()
	if m == nil {
		t.Fatal("expected metrics, got nil")
	}
	if m != Default {
		t.Error("expected returned metrics to be same as Default")
	}
	if m2 := InitDefault(); m2 != m {
		t.Error("expected same instance on second call")
	}
}

func TestNewRegistry(t *testing.T) {
	reg, m := NewRegistry()
	m.SessionTransitions.WithLabelValues("loading", "anonymous", "start").Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	if !names["stayadmin_session_transitions_total"] {
		t.Error("session transitions not registered with custom registry")
	}
	if !names["go_goroutines"] {
		t.Error("go collector not registered")
	}
}

func TestHandlerFor(t *testing.T) {
	reg, m := NewRegistry()
	m.APIRequests.WithLabelValues("protected", "GET", "ok").Inc()

	w := httptest.NewRecorder()
	HandlerFor(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %v, want %v", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "stayadmin_api_requests_total") {
		t.Error("metrics output does not contain stayadmin_api_requests_total")
	}
}

func TestMultipleRegistries(t *testing.T) {
	_, m1 := NewRegistry()
	_, m2 := NewRegistry()

	if m1 == m2 {
		t.Error("expected different metrics instances")
	}
}
