package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stayadmin/internal/credential"
	"github.com/felixgeelhaar/stayadmin/internal/errors"
	"github.com/felixgeelhaar/stayadmin/internal/profile"
	"github.com/felixgeelhaar/stayadmin/internal/session"
	"github.com/felixgeelhaar/stayadmin/internal/ux"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the admin session",
	Long: `Log in to the booking API, inspect the stored session, re-validate it,
or log out.

The credential is written to every configured backend (file or redis,
plus the cookie jar) and read back in that order on the next run.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with email and password",
	Long: `Log in to the booking API and store the returned bearer token.

Missing fields are prompted for when stdin is a terminal.

Examples:
  stayadmin auth login
  stayadmin auth login --email admin@example.com --password "$ADMIN_PASSWORD"`,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and clear the stored credential",
	Long: `End the session and remove the credential from every backend.

In a terminal the command asks for confirmation first; --yes skips it.`,
	RunE: runAuthLogout,
}

// Swapped in tests.
var (
	isInteractive = ux.IsInteractive
	confirm       = ux.Confirm
)

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	Long: `Resolve the stored credential against the booking API and show the
admin it belongs to. With --offline the stored credential is shown without
contacting the API.`,
	RunE: runAuthStatus,
}

var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-validate the session and reload the admin profile",
	RunE:  runAuthRefresh,
}

func init() {
	authLoginCmd.Flags().String("email", "", "admin email address")
	authLoginCmd.Flags().String("password", "", "admin password")
	authLogoutCmd.Flags().BoolP("yes", "y", false, "log out without asking")
	authStatusCmd.Flags().Bool("offline", false, "show the stored credential without contacting the API")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authRefreshCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	in := ux.LoginInput{Email: strings.TrimSpace(email), Password: password}
	if in.Missing() {
		if !isInteractive() {
			return errors.New(errors.ErrCodeAuthValidation, "email and password are required").
				WithSuggestion("Pass --email and --password, or run the command in a terminal")
		}
		var err error
		if in, err = ux.PromptLogin(in); err != nil {
			return err
		}
	}

	ctx, app, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Client.Login(ctx, in.Email, in.Password)
	if err != nil {
		return err
	}

	req := session.LoginRequest{Token: res.Token, Role: res.Role}
	if len(res.Profile) > 0 {
		if p, perr := profile.Parse(res.Profile); perr != nil {
			app.Logger.Warn("inline profile unusable; resolving instead", "error", perr)
		} else {
			req.Profile = p
		}
	}
	if err := app.Sessions.LogIn(ctx, req); err != nil {
		return err
	}

	return printSession(cmd, app, app.Sessions.Snapshot())
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	ctx, app, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	if yes, _ := cmd.Flags().GetBool("yes"); !yes && isInteractive() {
		ok, err := confirm(fmt.Sprintf("Log out of %s?", app.Client.BaseURL()), true)
		if err != nil {
			return err
		}
		if !ok {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Still logged in.")
			return err
		}
	}

	app.Sessions.LogOut(ctx)
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
	return err
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	offline, _ := cmd.Flags().GetBool("offline")

	ctx, app, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	if offline {
		return printStored(cmd, app, app.Store.Load(ctx))
	}

	snap, err := awaitSession(ctx, app)
	if err != nil {
		return err
	}
	return printSession(cmd, app, snap)
}

func runAuthRefresh(cmd *cobra.Command, args []string) error {
	ctx, app, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	if err := startSession(ctx, app); err != nil {
		return err
	}
	if err := app.Sessions.Refresh(ctx); err != nil {
		return err
	}
	return printSession(cmd, app, app.Sessions.Snapshot())
}

// startSession runs the initial resolution and fails unless it ends
// authenticated.
func startSession(ctx context.Context, app *App) error {
	snap, err := awaitSession(ctx, app)
	if err != nil {
		return err
	}
	if snap.Status != session.StatusAuthenticated {
		return errors.NewNotLoggedInError()
	}
	return nil
}

// awaitSession runs the initial resolution and waits for its first outcome,
// bounded by session.ready_timeout. A resolution cut short leaves the stored
// credential in place.
func awaitSession(ctx context.Context, app *App) (session.Snapshot, error) {
	wait := app.Config.Session.ReadyTimeout
	if wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		app.Sessions.Start(ctx)
	}()
	snap, err := app.Sessions.Wait(ctx)
	<-done

	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return snap, errors.NewSessionNotReadyError(wait.String(), err)
		}
		return snap, err
	}
	return snap, nil
}

func printSession(cmd *cobra.Command, app *App, snap session.Snapshot) error {
	view := ux.SessionView{
		Status: snap.Status.String(),
		Admin:  snap.IsAdmin,
		Role:   snap.Role,
		API:    app.Client.BaseURL(),
	}
	if snap.Profile != nil {
		view.Name = snap.Profile.DisplayName()
		view.Email = snap.Profile.Email
	}
	if snap.Authenticated() {
		describeToken(&view, snap.Token)
		view.Backends = backendNames(app)
	}
	return render(cmd, view)
}

func printStored(cmd *cobra.Command, app *App, cred credential.Credential) error {
	view := ux.SessionView{Status: "anonymous", API: app.Client.BaseURL()}
	if !cred.Empty() {
		view.Status = "stored"
		view.Role = cred.Role
		view.Admin = cred.IsAdmin()
		describeToken(&view, cred.Token)
		view.Backends = backendNames(app)
	}
	return render(cmd, view)
}

func describeToken(view *ux.SessionView, token string) {
	info := credential.Inspect(token)
	view.Token = credential.Fingerprint(token)
	view.TokenFormat = info.Format
	if !info.ExpiresAt.IsZero() {
		exp := info.ExpiresAt
		view.ExpiresAt = &exp
		if info.Expired(time.Now()) {
			view.TokenFormat += ", expired"
		}
	}
}

func backendNames(app *App) []string {
	backends := app.Store.Backends()
	names := make([]string, 0, len(backends))
	for _, b := range backends {
		names = append(names, b.Name())
	}
	return names
}

func render(cmd *cobra.Command, v any) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	f, err := cc.Formatter(cmd)
	if err != nil {
		return err
	}
	return f.Format(v)
}
