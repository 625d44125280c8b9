package telemetry

import "fmt"

// Config holds configuration for the tracer
type Config struct {
	// ServiceName is the name of the service
	ServiceName string `yaml:"service_name" json:"service_name"`

	// ServiceVersion is the version of the service
	ServiceVersion string `yaml:"-" json:"service_version"`

	// Environment is the deployment environment (dev, staging, production)
	Environment string `yaml:"environment" json:"environment"`

	// Enabled determines whether tracing is enabled.
	// When false, a noop tracer is used.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Endpoint is the OTLP/HTTP collector host:port.
	// If empty, spans are recorded but not exported.
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// Insecure sends spans over plain HTTP.
	Insecure bool `yaml:"insecure" json:"insecure"`

	// SampleRate is the fraction of traces to sample (0.0 to 1.0)
	SampleRate float64 `yaml:"sample_rate" json:"sample_rate"`
}

// DefaultConfig returns tracing disabled, which suits one-shot CLI commands.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "stayadmin",
		ServiceVersion: "dev",
		Environment:    "development",
		Enabled:        false,
		SampleRate:     1.0,
	}
}

// GatewayConfig returns a configuration for the long-running gateway,
// exporting to endpoint and sampling a tenth of traces.
func GatewayConfig(endpoint string) Config {
	return Config{
		ServiceName:    "stayadmin-gateway",
		ServiceVersion: "unknown",
		Environment:    "production",
		Enabled:        true,
		Endpoint:       endpoint,
		SampleRate:     0.1,
	}
}

// Validate checks the sample rate range.
func (c Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("telemetry.sample_rate must be between 0 and 1, got %v", c.SampleRate)
	}
	return nil
}
