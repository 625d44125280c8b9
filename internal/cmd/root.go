package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stayadmin/internal/metrics"
)

var rootCmd = &cobra.Command{
	Use:   "stayadmin",
	Short: "Session and API gateway for the booking admin console",
	Long: `stayadmin keeps the admin's session for the property-booking console.

It stores the admin's credential, checks it against the booking API,
decides which part of the console's route tree may be shown, and sends
page-level API calls with the bearer token attached. A refused token
ends the session everywhere at once.

Run 'stayadmin serve' for the local gateway the console talks to, or use
the auth, api and routes commands directly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx and records the command's
// outcome.
func ExecuteContext(ctx context.Context) error {
	start := time.Now()
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if cmd != nil && cmd != rootCmd {
		metrics.InitDefault().ObserveCommand(cmd.CommandPath(), err == nil, time.Since(start))
	}
	return err
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default is $STAYADMIN_HOME/config.yaml or ~/.stayadmin/config.yaml)")
	pf.String("format", "text", "output format: text, json, yaml")
	pf.Bool("no-color", false, "disable styled output")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text, json")
	pf.Bool("ephemeral", false, "keep the credential in memory only for this run")
}
