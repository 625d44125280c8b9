package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stayadmin/internal/health"
	"github.com/felixgeelhaar/stayadmin/internal/metrics"
	"github.com/felixgeelhaar/stayadmin/internal/server"
	"github.com/felixgeelhaar/stayadmin/internal/session"
	"github.com/felixgeelhaar/stayadmin/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local gateway for the admin console",
	Long: `Run the gateway the admin console talks to.

The gateway holds the session, gates the console's routes, accepts the
login form and proxies /api/* to the booking API with the bearer token.
While the stored credential is being resolved, every console route answers
with a loading placeholder and the readiness probe fails.

Endpoints:
  /session                      current session
  /admin/login                  login page and form (POST)
  /admin/logout                 end the session (POST)
  /api/*                        authenticated proxy to the booking API
  /health/live|ready|startup    probes
  /metrics                      Prometheus metrics

Examples:
  stayadmin serve
  stayadmin serve --addr 0.0.0.0:8787 --log-format json`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from server.address)")
	serveCmd.Flags().Bool("no-metrics", false, "do not expose /metrics")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, app, err := newApp(cmd, appOptions{server: true})
	if err != nil {
		return err
	}
	defer app.Close()

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = app.Config.Server.Address
	}
	noMetrics, _ := cmd.Flags().GetBool("no-metrics")

	probes := health.NewProbeManager(version.GetInfo().Version)
	probes.AddChecker(health.NewSessionChecker(app.Sessions))
	probes.AddChecker(health.NewAPIChecker(app.Client))
	if app.Redis != nil {
		probes.AddChecker(health.NewRedisChecker(app.Redis))
	}
	probes.SetStartupGate(app.Sessions.Ready())

	gateway := server.NewGateway(server.GatewayConfig{
		Gate:     app.Gate,
		Sessions: app.Sessions,
		Auth:     app.Client,
		API:      app.Protected,
		Logger:   app.Logger,
	})

	var metricsHandler http.Handler
	if !noMetrics {
		metricsHandler = metrics.HandlerFor(app.Registry)
	}

	srv := server.NewServer(probes, gateway, server.Config{
		Address:         addr,
		ShutdownTimeout: app.Config.Server.ShutdownTimeout,
		ReadTimeout:     app.Config.Server.ReadTimeout,
		WriteTimeout:    app.Config.Server.WriteTimeout,
		IdleTimeout:     app.Config.Server.IdleTimeout,
		Metrics:         metricsHandler,
		Logger:          app.Logger,
	})

	out := &syncWriter{w: cmd.OutOrStdout()}
	fmt.Fprintf(out, "stayadmin gateway %s\n", version.GetInfo().Short())
	fmt.Fprintf(out, "  listening on   http://%s\n", addr)
	fmt.Fprintf(out, "  booking API    %s\n", app.Client.BaseURL())
	fmt.Fprintf(out, "  console home   %s\n", app.Gate.Table().Home)

	unsubscribe := app.Sessions.Subscribe(announceSession(out, "http://"+addr+app.Gate.Table().Login))
	defer unsubscribe()

	// The session resolves while the server already answers with the
	// loading placeholder.
	startCtx, cancelStart := context.WithCancel(ctx)
	defer cancelStart()
	go app.Sessions.Start(startCtx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("gateway failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	fmt.Fprintln(out, "\nShutting down gateway...")
	if err := srv.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	fmt.Fprintln(out, "Gateway stopped.")
	return nil
}

// announceSession prints a line whenever the session status changes.
// Commits arrive one at a time, so prev needs no lock.
func announceSession(w io.Writer, loginURL string) func(session.Snapshot) {
	var prev session.Status
	return func(s session.Snapshot) {
		if s.Status == prev {
			return
		}
		prev = s.Status
		switch {
		case s.Authenticated() && s.Profile != nil:
			fmt.Fprintf(w, "  session        %s signed in\n", s.Profile.DisplayName())
		case s.Authenticated():
			fmt.Fprintln(w, "  session        signed in")
		case s.Status == session.StatusAnonymous:
			fmt.Fprintf(w, "  session        nobody signed in; log in at %s\n", loginURL)
		}
	}
}

// syncWriter serializes writes from the session subscriber and the command.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
