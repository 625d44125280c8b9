package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	assert.NotNil(t, m.CommandExecutions)
	assert.NotNil(t, m.SessionTransitions)
	assert.NotNil(t, m.SessionAuthenticated)
	assert.NotNil(t, m.ProfileResolutions)
	assert.NotNil(t, m.APIRequests)
	assert.NotNil(t, m.CredentialOps)
	assert.NotNil(t, m.RouteDecisions)
	assert.NotNil(t, m.Errors)
}

func TestObserveTransition(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveTransition("loading", "authenticated", "start")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionAuthenticated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionTransitions.WithLabelValues("loading", "authenticated", "start")))

	m.ObserveTransition("authenticated", "anonymous", "unauthorized")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SessionAuthenticated))
}

func TestObserveCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveResolution("rejected", 20*time.Millisecond)
	m.ObserveResolution("rejected", 30*time.Millisecond)
	m.ObserveAPIRequest("protected", "GET", "unauthorized", time.Millisecond)
	m.ObserveUnauthorized(true)
	m.ObserveUnauthorized(false)
	m.ObserveCredential("save", true)
	m.ObserveRoute("public", "redirect")
	m.ObserveError("AUTH-002", "cmd")
	m.ObserveCommand("auth.status", true, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProfileResolutions.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIRequests.WithLabelValues("protected", "GET", "unauthorized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnauthorizedResets.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CredentialOps.WithLabelValues("save", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RouteDecisions.WithLabelValues("public", "redirect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("AUTH-002", "cmd")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandExecutions.WithLabelValues("auth.status", "true")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ProfileLatency))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveCommand("x", true, time.Second)
		m.ObserveTransition("loading", "anonymous", "start")
		m.ObserveUnauthorized(true)
		m.ObserveResolution("success", time.Second)
		m.ObserveAPIRequest("protected", "GET", "ok", time.Second)
		m.ObserveCredential("clear", true)
		m.ObserveRoute("protected", "serve")
		m.ObserveError("API-001", "platform")
	})
}
