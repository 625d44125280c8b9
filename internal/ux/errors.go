package ux

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/stayadmin/internal/errors"
)

// ErrorWithSuggestion wraps an error with a recovery hint
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\nSuggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError adds a hint to errors that carry none. Structured errors
// with their own suggestions are returned unchanged.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && len(appErr.Suggestions) > 0 {
		return err
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"),
		strings.Contains(msg, "no route to host"):
		return NewErrorWithSuggestion(err,
			"Check api.base_url with 'stayadmin config view' or set STAYADMIN_API_URL")
	case strings.Contains(msg, "x509:"), strings.Contains(msg, "certificate"):
		return NewErrorWithSuggestion(err,
			"The API's TLS certificate was rejected; check the URL scheme and host")
	case strings.Contains(msg, "permission denied"):
		return NewErrorWithSuggestion(err,
			"Check permissions on the stayadmin home directory (STAYADMIN_HOME or ~/.stayadmin)")
	case strings.Contains(msg, "unauthorized"):
		return NewErrorWithSuggestion(err,
			"Run 'stayadmin auth login' to start a new session")
	}
	return err
}

// FormatError provides consistent error formatting with context
func FormatError(err error, context string) error {
	if err == nil {
		return nil
	}

	enhanced := EnhanceError(err)
	if context != "" {
		return fmt.Errorf("%s: %w", context, enhanced)
	}
	return enhanced
}
