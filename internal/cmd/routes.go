package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stayadmin/internal/route"
	"github.com/felixgeelhaar/stayadmin/internal/session"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Inspect the console's route gate",
}

var routesResolveCmd = &cobra.Command{
	Use:   "resolve <path>",
	Short: "Show what the gate does with a path",
	Long: `Show which subtree the gate mounts for a path and whether it redirects.

Without --status the stored session is resolved first, exactly as the
gateway does on startup.

Examples:
  stayadmin routes resolve /admin/bookings
  stayadmin routes resolve /admin/login --status authenticated
  stayadmin routes resolve / --status loading`,
	Args: cobra.ExactArgs(1),
	RunE: runRoutesResolve,
}

var routesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the route table",
	RunE:  runRoutesList,
}

func init() {
	routesResolveCmd.Flags().String("status", "", "session status to decide for: loading, authenticated, anonymous")

	routesCmd.AddCommand(routesResolveCmd)
	routesCmd.AddCommand(routesListCmd)
	rootCmd.AddCommand(routesCmd)
}

type routeResult struct {
	Path     string         `json:"path" yaml:"path"`
	Status   session.Status `json:"status" yaml:"status"`
	Decision route.Decision `json:"decision" yaml:"decision"`
}

func (r routeResult) RenderText(bool) string {
	switch {
	case r.Decision.Placeholder:
		return fmt.Sprintf("%s (%s): loading placeholder, no subtree mounted", r.Path, r.Status)
	case r.Decision.Redirect != "":
		return fmt.Sprintf("%s (%s): %s tree, redirect to %s", r.Path, r.Status, r.Decision.Tree, r.Decision.Redirect)
	default:
		return fmt.Sprintf("%s (%s): served by the %s tree", r.Path, r.Status, r.Decision.Tree)
	}
}

func runRoutesResolve(cmd *cobra.Command, args []string) error {
	ctx, app, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	var status session.Status
	if s, _ := cmd.Flags().GetString("status"); s != "" {
		if err := status.UnmarshalText([]byte(s)); err != nil {
			return err
		}
	} else {
		snap, err := awaitSession(ctx, app)
		if err != nil {
			return err
		}
		status = snap.Status
	}

	return render(cmd, routeResult{
		Path:     args[0],
		Status:   status,
		Decision: app.Gate.Decide(status, args[0]),
	})
}

type routeTable route.Table

func (t routeTable) RenderText(bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "home:  %s\nlogin: %s\n\nprotected:\n", t.Home, t.Login)
	for _, p := range t.Protected {
		fmt.Fprintf(&b, "  %s\n", p)
	}
	b.WriteString("\npublic:\n")
	for _, p := range t.Public {
		fmt.Fprintf(&b, "  %s\n", p)
	}
	return strings.TrimRight(b.String(), "\n")
}

func runRoutesList(cmd *cobra.Command, args []string) error {
	_, app, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	return render(cmd, routeTable(app.Gate.Table()))
}
