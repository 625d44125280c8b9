package telemetry

import "testing"

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.ServiceName != "stayadmin" {
		t.Errorf("ServiceName = %q, want %q", config.ServiceName, "stayadmin")
	}
	if config.Enabled {
		t.Error("Enabled should be false by default")
	}
	if config.Endpoint != "" {
		t.Error("Endpoint should be empty by default")
	}
	if config.SampleRate != 1.0 {
		t.Errorf("SampleRate = %v, want 1.0", config.SampleRate)
	}
}

func TestGatewayConfig(t *testing.T) {
	config := GatewayConfig("otel:4318")

	if !config.Enabled {
		t.Error("Enabled should be true for the gateway")
	}
	if config.Endpoint != "otel:4318" {
		t.Errorf("Endpoint = %q, want otel:4318", config.Endpoint)
	}
	if config.SampleRate != 0.1 {
		t.Errorf("SampleRate = %v, want 0.1", config.SampleRate)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		rate    float64
		wantErr bool
	}{
		{0, false},
		{0.5, false},
		{1, false},
		{-0.1, true},
		{1.5, true},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.SampleRate = tt.rate
		if err := cfg.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("Validate() with rate %v error = %v, wantErr %v", tt.rate, err, tt.wantErr)
		}
	}
}
