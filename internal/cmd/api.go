package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stayadmin/internal/errors"
	"github.com/felixgeelhaar/stayadmin/internal/platform"
)

var apiCmd = &cobra.Command{
	Use:   "api <method> <path>",
	Short: "Send an authenticated request to the booking API",
	Long: `Send one request to the booking API with the session's bearer token.

The response body is printed as returned. A 4xx or 5xx answer that is not
about the token is printed and reported as an API error. If the API refuses
the token, the session ends and the stored credential is cleared.

Examples:
  stayadmin api GET /api/admin/bookings
  stayadmin api GET "/api/admin/apartments?page=2"
  stayadmin api PUT /api/admin/apartments/12 --data '{"status":"active"}'`,
	Args: cobra.ExactArgs(2),
	RunE: runAPI,
}

func init() {
	apiCmd.Flags().StringP("data", "d", "", "JSON request body")
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	method := strings.ToUpper(args[0])
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return fmt.Errorf("unsupported method %q", args[0])
	}
	path := args[1]
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var body any
	if data, _ := cmd.Flags().GetString("data"); data != "" {
		if !json.Valid([]byte(data)) {
			return errors.New(errors.ErrCodeAPIMalformed, "--data is not valid JSON")
		}
		body = json.RawMessage(data)
	}

	ctx, app, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	if err := startSession(ctx, app); err != nil {
		return err
	}

	resp, err := app.Protected.Do(ctx, method, path, body)
	if err != nil {
		switch platform.KindOf(err) {
		case platform.KindUnauthorized:
			return errors.NewTokenExpiredError()
		case platform.KindTransport:
			return errors.NewAPIUnreachableError(app.Client.BaseURL(), err)
		default:
			return err
		}
	}

	if err := printBody(cmd, resp.Body); err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		msg := resp.Envelope.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return errors.New(errors.ErrCodeAPIStatus, fmt.Sprintf("%s %s answered %d: %s", method, path, resp.StatusCode, msg))
	}
	return nil
}

func printBody(cmd *cobra.Command, raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		out.Reset()
		out.Write(raw)
	}
	out.WriteByte('\n')
	_, err := cmd.OutOrStdout().Write(out.Bytes())
	return err
}
