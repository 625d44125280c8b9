package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/stayadmin/internal/config"
	"github.com/felixgeelhaar/stayadmin/internal/credential"
	"github.com/felixgeelhaar/stayadmin/internal/log"
	"github.com/felixgeelhaar/stayadmin/internal/metrics"
	"github.com/felixgeelhaar/stayadmin/internal/platform"
	"github.com/felixgeelhaar/stayadmin/internal/profile"
	"github.com/felixgeelhaar/stayadmin/internal/route"
	"github.com/felixgeelhaar/stayadmin/internal/session"
	"github.com/felixgeelhaar/stayadmin/internal/telemetry"
)

// App is the set of components one command works with.
type App struct {
	Config    *config.Config
	Logger    *log.Logger
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry
	Client    *platform.Client
	Store     *credential.Store
	Resolver  *profile.Resolver
	Sessions  *session.Manager
	Protected *platform.Protected
	Gate      *route.Gate
	Redis     redis.UniversalClient

	span    trace.Span
	closers []func()
}

type appOptions struct {
	// server selects the gateway's logging defaults, tracing profile and a
	// private metrics registry.
	server bool
	// navigate receives the manager's navigation requests.
	navigate session.NavigatorFunc
}

// newApp loads the configuration and wires every component. The returned
// context carries the command span.
func newApp(cmd *cobra.Command, opts appOptions) (context.Context, *App, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cc, err := NewCommandContext(cmd)
	if err != nil {
		return ctx, nil, err
	}
	cfg, err := config.Load(cc.ConfigPath)
	if err != nil {
		return ctx, nil, err
	}

	app := &App{Config: cfg}
	app.Logger = newLogger(cfg, cc, opts.server)
	log.SetDefaultLogger(app.Logger)

	if opts.server {
		app.Registry, app.Metrics = metrics.NewRegistry()
	} else {
		app.Metrics = metrics.InitDefault()
	}

	if shutdown := setupTelemetry(ctx, cfg.Telemetry, opts.server, app.Logger); shutdown != nil {
		app.closers = append(app.closers, shutdown)
	}
	ctx, app.span = telemetry.StartCommandSpan(ctx, cmd.CommandPath())

	app.Client = platform.NewClient(platform.Config{
		BaseURL:     cfg.API.BaseURL,
		LoginPath:   cfg.API.LoginPath,
		ProfilePath: cfg.API.ProfilePath,
		Timeout:     cfg.API.Timeout,
		RetryMax:    cfg.API.Retries,
		Logger:      app.Logger,
		Metrics:     app.Metrics,
	})

	if err := app.buildStore(cfg, cc.Ephemeral); err != nil {
		app.Close()
		return ctx, nil, err
	}

	app.Resolver = profile.NewResolver(app.Client, app.Logger, app.Metrics)

	nav := opts.navigate
	if nav == nil {
		logger := app.Logger
		nav = func(ctx context.Context, path string) {
			logger.DebugContext(ctx, "console navigation", "path", path)
		}
	}
	app.Sessions = session.NewManager(session.Options{
		Store:     app.Store,
		Resolver:  app.Resolver,
		Navigator: nav,
		Homes: session.Homes{
			Admin:   cfg.Routes.Home,
			Default: cfg.Routes.Home,
			Public:  cfg.Routes.Login,
		},
		Logger:            app.Logger,
		Metrics:           app.Metrics,
		KeepOnUnreachable: cfg.Session.KeepOnUnreachable,
	})
	sessions := app.Sessions
	app.Protected = platform.NewProtected(app.Client, sessions, func(ctx context.Context, token string) {
		sessions.HandleTokenExpired(ctx, token)
	})

	app.Gate, err = route.NewGate(cfg.Routes, app.Metrics)
	if err != nil {
		app.Close()
		return ctx, nil, fmt.Errorf("route table: %w", err)
	}
	return ctx, app, nil
}

func (a *App) buildStore(cfg *config.Config, ephemeral bool) error {
	if ephemeral || cfg.Credentials.Backend == config.BackendMemory {
		a.Store = credential.NewStore(a.Logger, credential.NewKVBackend(credential.NewMemoryKV()))
		return nil
	}

	dir, err := cfg.CredentialDir()
	if err != nil {
		return err
	}

	var backends []credential.Backend
	switch cfg.Credentials.Backend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Credentials.RedisAddr,
			DB:   cfg.Credentials.RedisDB,
		})
		a.Redis = rdb
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		backends = append(backends, credential.NewKVBackend(credential.NewRedisKV(rdb, cfg.Credentials.Namespace)))
	default:
		backends = append(backends, credential.NewKVBackend(credential.NewFileKV(credential.DefaultFilePath(dir))))
	}
	if cfg.Credentials.Cookies {
		backends = append(backends, credential.NewCookieBackend(credential.DefaultJarPath(dir)))
	}

	a.Store = credential.NewStore(a.Logger, backends...)
	return nil
}

// Close ends the command span and releases connections.
func (a *App) Close() {
	if a.span != nil {
		a.span.End()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
