// Package health runs the gateway's health checks.
//
// A Checker verifies one dependency and returns a Result; a Manager runs
// checkers in parallel and a ProbeManager turns their results into
// liveness, readiness and startup probes.
//
//	manager := health.NewManager()
//	manager.AddChecker(health.NewAPIChecker(client))
//	manager.AddChecker(health.NewSessionChecker(sessions))
//	results := manager.Check(ctx)
package health

import (
	"context"
	"time"
)

// Checker defines the interface for health checks.
// Each checker should verify a specific system dependency or capability.
type Checker interface {
	// Name returns the unique name of this health check.
	// Should be lowercase with hyphens (e.g., "booking-api", "credential-redis").
	Name() string

	// Check performs the health check and returns the result.
	// It should respect the context deadline and return quickly.
	// Typical timeout is 5 seconds per check.
	Check(ctx context.Context) *Result
}

// Status represents the health check status.
type Status string

const (
	// StatusHealthy indicates the checked component is fully operational.
	StatusHealthy Status = "healthy"

	// StatusDegraded indicates the component is partially working.
	// The application can continue but with reduced functionality.
	StatusDegraded Status = "degraded"

	// StatusUnhealthy indicates the component is not working.
	// The application may not function correctly.
	StatusUnhealthy Status = "unhealthy"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Result represents the result of a health check.
type Result struct {
	// Status is the health status (healthy, degraded, unhealthy).
	Status Status `json:"status"`

	// Message is a human-readable description of the status.
	Message string `json:"message,omitempty"`

	// Details contains additional structured information about the check,
	// such as the API base URL or the session status.
	Details map[string]interface{} `json:"details,omitempty"`

	// Latency is how long the health check took to complete.
	Latency time.Duration `json:"latency_ns"`
}

// NewResult creates a new health check result with the given status and message.
func NewResult(status Status, message string) *Result {
	return &Result{
		Status:  status,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WithDetail adds a detail to the result and returns the result for chaining.
func (r *Result) WithDetail(key string, value interface{}) *Result {
	r.Details[key] = value
	return r
}

// WithLatency sets the latency and returns the result for chaining.
func (r *Result) WithLatency(latency time.Duration) *Result {
	r.Latency = latency
	return r
}

// Healthy creates a healthy result with the given message.
func Healthy(message string) *Result {
	return NewResult(StatusHealthy, message)
}

// Degraded creates a degraded result with the given message.
func Degraded(message string) *Result {
	return NewResult(StatusDegraded, message)
}

// Unhealthy creates an unhealthy result with the given message.
func Unhealthy(message string) *Result {
	return NewResult(StatusUnhealthy, message)
}
