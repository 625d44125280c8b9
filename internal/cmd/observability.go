package cmd

import (
	"context"
	"time"

	"github.com/felixgeelhaar/stayadmin/internal/config"
	"github.com/felixgeelhaar/stayadmin/internal/log"
	"github.com/felixgeelhaar/stayadmin/internal/telemetry"
	"github.com/felixgeelhaar/stayadmin/internal/version"
)

func newLogger(cfg *config.Config, cc *CommandContext, server bool) *log.Logger {
	base := log.DefaultConfig()
	if server {
		base = log.ServerConfig()
	}
	lc := cfg.LogConfig(base)
	if cc.LogLevel != "" {
		lc.Level = log.ParseLevel(cc.LogLevel)
	}
	if cc.LogFormat != "" {
		lc.Format = log.ParseFormat(cc.LogFormat)
	}
	return log.New(lc)
}

// setupTelemetry starts tracing when enabled and returns a flush func, or
// nil when tracing stays off.
func setupTelemetry(ctx context.Context, tc telemetry.Config, server bool, logger *log.Logger) func() {
	if !tc.Enabled {
		return nil
	}
	tc.ServiceVersion = version.GetInfo().Version
	if server && tc.ServiceName == telemetry.DefaultConfig().ServiceName {
		tc.ServiceName = telemetry.GatewayConfig(tc.Endpoint).ServiceName
	}

	shutdown, err := telemetry.InitProvider(ctx, tc)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
		return nil
	}
	logger.Debug("tracing enabled", "endpoint", tc.Endpoint, "sample_rate", tc.SampleRate)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}
}
