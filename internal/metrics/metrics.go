package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for stayadmin.
//
// The Observe helpers are safe on a nil *Metrics so components can take
// metrics as an optional dependency.
type Metrics struct {
	// Command execution metrics
	CommandExecutions *prometheus.CounterVec
	CommandDuration   *prometheus.HistogramVec

	// Session metrics
	SessionTransitions   *prometheus.CounterVec
	SessionAuthenticated prometheus.Gauge
	UnauthorizedResets   *prometheus.CounterVec

	// Identity resolution metrics
	ProfileResolutions *prometheus.CounterVec
	ProfileLatency     prometheus.Histogram

	// Booking API metrics
	APIRequests *prometheus.CounterVec
	APILatency  *prometheus.HistogramVec

	// Credential store metrics
	CredentialOps *prometheus.CounterVec

	// Route gate metrics
	RouteDecisions *prometheus.CounterVec

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		CommandExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stayadmin_command_executions_total",
				Help: "Total number of command executions",
			},
			[]string{"command", "success"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stayadmin_command_duration_seconds",
				Help:    "Command execution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),

		SessionTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stayadmin_session_transitions_total",
				Help: "Total number of session status transitions",
			},
			[]string{"from", "to", "reason"},
		),
		SessionAuthenticated: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "stayadmin_session_authenticated",
				Help: "1 while the session is authenticated, 0 otherwise",
			},
		),
		UnauthorizedResets: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stayadmin_unauthorized_resets_total",
				Help: "Total number of 401 responses that reset the session",
			},
			[]string{"applied"},
		),

		ProfileResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stayadmin_profile_resolutions_total",
				Help: "Total number of identity endpoint resolutions by outcome",
			},
			[]string{"outcome"},
		),
		ProfileLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stayadmin_profile_latency_seconds",
				Help:    "Identity endpoint latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
		),

		APIRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stayadmin_api_requests_total",
				Help: "Total number of booking API requests",
			},
			[]string{"operation", "method", "outcome"},
		),
		APILatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stayadmin_api_latency_seconds",
				Help:    "Booking API request latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"operation"},
		),

		CredentialOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stayadmin_credential_operations_total",
				Help: "Total number of credential store operations",
			},
			[]string{"operation", "success"},
		),

		RouteDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stayadmin_route_decisions_total",
				Help: "Total number of route gate decisions",
			},
			[]string{"tree", "action"},
		),

		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stayadmin_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code", "component"},
		),
	}
}

// ObserveCommand records one CLI command execution.
func (m *Metrics) ObserveCommand(command string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	m.CommandExecutions.WithLabelValues(command, strconv.FormatBool(success)).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(d.Seconds())
}

// ObserveTransition records a session status change.
func (m *Metrics) ObserveTransition(from, to, reason string) {
	if m == nil {
		return
	}
	m.SessionTransitions.WithLabelValues(from, to, reason).Inc()
	if to == "authenticated" {
		m.SessionAuthenticated.Set(1)
	} else {
		m.SessionAuthenticated.Set(0)
	}
}

// ObserveUnauthorized records a 401 report and whether it reset the session.
func (m *Metrics) ObserveUnauthorized(applied bool) {
	if m == nil {
		return
	}
	m.UnauthorizedResets.WithLabelValues(strconv.FormatBool(applied)).Inc()
}

// ObserveResolution records one identity resolution.
func (m *Metrics) ObserveResolution(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProfileResolutions.WithLabelValues(outcome).Inc()
	m.ProfileLatency.Observe(d.Seconds())
}

// ObserveAPIRequest records one booking API request.
func (m *Metrics) ObserveAPIRequest(operation, method, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.APIRequests.WithLabelValues(operation, method, outcome).Inc()
	m.APILatency.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveCredential records a credential store operation.
func (m *Metrics) ObserveCredential(operation string, success bool) {
	if m == nil {
		return
	}
	m.CredentialOps.WithLabelValues(operation, strconv.FormatBool(success)).Inc()
}

// ObserveRoute records a route gate decision.
func (m *Metrics) ObserveRoute(tree, action string) {
	if m == nil {
		return
	}
	m.RouteDecisions.WithLabelValues(tree, action).Inc()
}

// ObserveError records a structured error code.
func (m *Metrics) ObserveError(code, component string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(code, component).Inc()
}
