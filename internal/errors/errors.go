package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeAuthInvalidCredentials ErrorCode = "AUTH-001"
	ErrCodeAuthNotLoggedIn        ErrorCode = "AUTH-002"
	ErrCodeAuthTokenExpired       ErrorCode = "AUTH-003"
	ErrCodeAuthProfileRejected    ErrorCode = "AUTH-004"
	ErrCodeAuthValidation         ErrorCode = "AUTH-005"

	// Session errors (SESSION-001 to SESSION-099)
	ErrCodeSessionNotReady ErrorCode = "SESSION-001"
	ErrCodeSessionReset    ErrorCode = "SESSION-002"

	// Credential store errors (CRED-001 to CRED-099)
	ErrCodeCredentialWrite   ErrorCode = "CRED-001"
	ErrCodeCredentialBackend ErrorCode = "CRED-002"

	// Remote API errors (API-001 to API-099)
	ErrCodeAPIUnreachable ErrorCode = "API-001"
	ErrCodeAPIMalformed   ErrorCode = "API-002"
	ErrCodeAPIStatus      ErrorCode = "API-003"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid ErrorCode = "CONFIG-001"
	ErrCodeConfigLoad    ErrorCode = "CONFIG-002"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeDirectoryFailed ErrorCode = "IO-004"
	ErrCodeFileUnmarshal   ErrorCode = "IO-005"
	ErrCodeFileMarshal     ErrorCode = "IO-006"
)

const docsBase = "https://github.com/felixgeelhaar/stayadmin"

// AppError represents an enhanced error with code, suggestions, and documentation
type AppError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *AppError) WithDocs(url string) *AppError {
	e.DocsURL = url
	return e
}

// Common error constructors for frequently used errors

// NewInvalidCredentialsError creates a login rejection error
func NewInvalidCredentialsError(email string, cause error) *AppError {
	return Wrap(ErrCodeAuthInvalidCredentials, fmt.Sprintf("login rejected for %s", email), cause).
		WithSuggestion("Check the email address and password").
		WithSuggestion("Make sure the account has admin access on the booking platform").
		WithDocs(docsBase + "#logging-in")
}

// NewNotLoggedInError creates an error for commands that need a session
func NewNotLoggedInError() *AppError {
	return New(ErrCodeAuthNotLoggedIn, "not logged in").
		WithSuggestion("Run 'stayadmin auth login' to authenticate").
		WithDocs(docsBase + "#logging-in")
}

// NewTokenExpiredError creates an error for a token the API no longer accepts
func NewTokenExpiredError() *AppError {
	return New(ErrCodeAuthTokenExpired, "session token expired or revoked").
		WithSuggestion("Run 'stayadmin auth login' to start a new session")
}

// NewSessionNotReadyError creates an error for a stored credential that did
// not resolve within the wait
func NewSessionNotReadyError(wait string, cause error) *AppError {
	return Wrap(ErrCodeSessionNotReady, fmt.Sprintf("session still loading after %s", wait), cause).
		WithSuggestion("Check that the booking API is reachable").
		WithSuggestion("Raise session.ready_timeout in the configuration file")
}

// NewCredentialBackendError creates an error for a credential the backend
// cannot hold
func NewCredentialBackendError(backend, details string) *AppError {
	return New(ErrCodeCredentialBackend, fmt.Sprintf("%s backend: %s", backend, details))
}

// NewAPIUnreachableError creates a transport failure error
func NewAPIUnreachableError(baseURL string, cause error) *AppError {
	return Wrap(ErrCodeAPIUnreachable, fmt.Sprintf("booking API unreachable at %s", baseURL), cause).
		WithSuggestion("Check your network connection").
		WithSuggestion("Verify api.base_url with 'stayadmin config view'").
		WithSuggestion("Override the endpoint with STAYADMIN_API_URL")
}

// NewConfigInvalidError creates a configuration validation error
func NewConfigInvalidError(details string) *AppError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", details)).
		WithSuggestion("Run 'stayadmin config path' to locate the configuration file").
		WithSuggestion("Run 'stayadmin config view' to see the effective values").
		WithDocs(docsBase + "#configuration")
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *AppError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Verify the file exists and you have read permissions")
}

// NewFileUnmarshalError creates an unmarshal error
func NewFileUnmarshalError(path string, format string, cause error) *AppError {
	return Wrap(ErrCodeFileUnmarshal, fmt.Sprintf("failed to parse %s file: %s", format, path), cause).
		WithSuggestion("Check the file syntax and format").
		WithSuggestion(fmt.Sprintf("Ensure the file is valid %s", format))
}
