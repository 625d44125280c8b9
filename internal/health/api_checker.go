package health

import (
	"context"
)

// Pinger is the part of the platform client the API check needs.
type Pinger interface {
	Ping(ctx context.Context) error
	BaseURL() string
}

// APIChecker checks that the booking platform's API answers.
type APIChecker struct {
	api Pinger
}

// NewAPIChecker creates a checker around api.
func NewAPIChecker(api Pinger) *APIChecker {
	return &APIChecker{api: api}
}

// Name returns the name of this health check.
func (c *APIChecker) Name() string {
	return "booking-api"
}

// Check reports Healthy when the API returns any HTTP response and
// Unhealthy on transport failures. Authorization is not checked.
func (c *APIChecker) Check(ctx context.Context) *Result {
	if err := c.api.Ping(ctx); err != nil {
		return Unhealthy("booking API unreachable").
			WithDetail("base_url", c.api.BaseURL()).
			WithDetail("error", err.Error())
	}
	return Healthy("booking API reachable").
		WithDetail("base_url", c.api.BaseURL())
}
