package exitcode

import (
	stderrors "errors"
	"os"
	"strings"

	"github.com/felixgeelhaar/stayadmin/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// ConfigError indicates an invalid or unreadable configuration
	ConfigError = 3

	// APIError indicates the booking API answered but refused the request
	APIError = 4

	// AuthError indicates an authentication failure or a missing session
	AuthError = 5

	// NetworkError indicates the booking API could not be reached
	NetworkError = 6

	// Interrupted indicates the command was cancelled by SIGINT or SIGTERM
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	Exit(DetermineExitCode(err))
}

// Coder is implemented by errors that know their own exit code.
type Coder interface {
	ExitCode() int
}

// DetermineExitCode analyzes an error and returns the appropriate exit code.
// Structured errors are mapped by code; anything else falls back to
// matching the message.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	var coder Coder
	if stderrors.As(err, &coder) {
		return coder.ExitCode()
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		if code, ok := fromAppCode(appErr.Code); ok {
			return code
		}
	}

	errMsg := strings.ToLower(err.Error())

	// Authentication errors
	if strings.Contains(errMsg, "authentication") || strings.Contains(errMsg, "unauthorized") {
		return AuthError
	}
	if strings.Contains(errMsg, "not logged in") || strings.Contains(errMsg, "token") {
		return AuthError
	}

	// Network errors
	if strings.Contains(errMsg, "network") || strings.Contains(errMsg, "connection") {
		return NetworkError
	}
	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "unreachable") {
		return NetworkError
	}

	// Usage errors
	if strings.Contains(errMsg, "invalid flag") || strings.Contains(errMsg, "unknown command") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "accepts ") {
		return UsageError
	}

	return GeneralError
}

func fromAppCode(code errors.ErrorCode) (int, bool) {
	family, _, _ := strings.Cut(string(code), "-")
	switch family {
	case "AUTH", "SESSION":
		return AuthError, true
	case "CONFIG":
		return ConfigError, true
	case "API":
		if code == errors.ErrCodeAPIUnreachable {
			return NetworkError, true
		}
		return APIError, true
	}
	return 0, false
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case ConfigError:
		return "Configuration error"
	case APIError:
		return "API request refused"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
