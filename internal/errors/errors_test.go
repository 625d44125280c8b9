package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeAuthNotLoggedIn, "test error message")

	if err.Code != ErrCodeAuthNotLoggedIn {
		t.Errorf("expected code %s, got %s", ErrCodeAuthNotLoggedIn, err.Code)
	}

	if err.Message != "test error message" {
		t.Errorf("expected message 'test error message', got '%s'", err.Message)
	}

	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(ErrCodeFileReadFailed, "failed to read file", cause)

	if err.Code != ErrCodeFileReadFailed {
		t.Errorf("expected code %s, got %s", ErrCodeFileReadFailed, err.Code)
	}

	if err.Cause != cause {
		t.Errorf("expected cause to be set")
	}

	if !errors.Is(err, cause) {
		t.Errorf("Wrap should support errors.Is")
	}

	var appErr *AppError
	if !errors.As(fmt.Errorf("outer: %w", err), &appErr) {
		t.Fatalf("errors.As should find the AppError")
	}
	if appErr.Code != ErrCodeFileReadFailed {
		t.Errorf("unexpected code after errors.As: %s", appErr.Code)
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantCode string
		wantMsg  string
	}{
		{
			name:     "simple error",
			err:      New(ErrCodeConfigInvalid, "invalid config"),
			wantCode: "CONFIG-001",
			wantMsg:  "invalid config",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeFileReadFailed, "read failed", fmt.Errorf("permission denied")),
			wantCode: "IO-002",
			wantMsg:  "permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()

			if !strings.Contains(errStr, tt.wantCode) {
				t.Errorf("error string should contain code %s, got: %s", tt.wantCode, errStr)
			}

			if !strings.Contains(errStr, tt.wantMsg) {
				t.Errorf("error string should contain message '%s', got: %s", tt.wantMsg, errStr)
			}
		})
	}
}

func TestWithSuggestion(t *testing.T) {
	err := New(ErrCodeAuthNotLoggedIn, "not logged in").
		WithSuggestion("Run the login command")

	if len(err.Suggestions) != 1 {
		t.Errorf("expected 1 suggestion, got %d", len(err.Suggestions))
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "Suggestions:") {
		t.Errorf("error string should contain suggestions section")
	}

	if !strings.Contains(errStr, "Run the login command") {
		t.Errorf("error string should contain suggestion text")
	}
}

func TestWithSuggestions(t *testing.T) {
	err := New(ErrCodeAPIStatus, "bad status").
		WithSuggestions("Suggestion 1", "Suggestion 2", "Suggestion 3")

	if len(err.Suggestions) != 3 {
		t.Errorf("expected 3 suggestions, got %d", len(err.Suggestions))
	}

	errStr := err.Error()
	for _, suggestion := range err.Suggestions {
		if !strings.Contains(errStr, suggestion) {
			t.Errorf("error string should contain suggestion: %s", suggestion)
		}
	}
}

func TestWithDocs(t *testing.T) {
	docsURL := "https://github.com/felixgeelhaar/stayadmin#docs"
	err := New(ErrCodeConfigInvalid, "invalid").WithDocs(docsURL)

	errStr := err.Error()
	if !strings.Contains(errStr, "Documentation:") {
		t.Errorf("error string should contain documentation section")
	}
	if !strings.Contains(errStr, docsURL) {
		t.Errorf("error string should contain docs URL")
	}
}

func TestNewInvalidCredentialsError(t *testing.T) {
	cause := fmt.Errorf("wrong password")
	err := NewInvalidCredentialsError("admin@example.com", cause)

	if err.Code != ErrCodeAuthInvalidCredentials {
		t.Errorf("expected code %s, got %s", ErrCodeAuthInvalidCredentials, err.Code)
	}
	if !strings.Contains(err.Message, "admin@example.com") {
		t.Errorf("error message should contain the email")
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be unwrappable")
	}
	if err.DocsURL == "" {
		t.Errorf("expected docs URL to be set")
	}
}

func TestNewNotLoggedInError(t *testing.T) {
	err := NewNotLoggedInError()

	if !strings.Contains(err.Error(), "stayadmin auth login") {
		t.Errorf("suggestions should mention the login command")
	}
}

func TestNewAPIUnreachableError(t *testing.T) {
	err := NewAPIUnreachableError("https://api.example.com", fmt.Errorf("dial tcp: refused"))

	if err.Code != ErrCodeAPIUnreachable {
		t.Errorf("expected code %s, got %s", ErrCodeAPIUnreachable, err.Code)
	}
	if !strings.Contains(err.Error(), "STAYADMIN_API_URL") {
		t.Errorf("suggestions should mention the env override")
	}
	if len(err.Suggestions) < 3 {
		t.Errorf("expected at least 3 suggestions, got %d", len(err.Suggestions))
	}
}

func TestNewSessionNotReadyError(t *testing.T) {
	err := NewSessionNotReadyError("2s", context.DeadlineExceeded)

	if err.Code != ErrCodeSessionNotReady {
		t.Errorf("expected code %s, got %s", ErrCodeSessionNotReady, err.Code)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("cause should be kept")
	}
	if !strings.Contains(err.Error(), "session.ready_timeout") {
		t.Errorf("suggestions should mention the timeout setting")
	}
}

func TestNewCredentialBackendError(t *testing.T) {
	err := NewCredentialBackendError("cookie", "token is not a valid cookie value")

	if err.Code != ErrCodeCredentialBackend {
		t.Errorf("expected code %s, got %s", ErrCodeCredentialBackend, err.Code)
	}
	if !strings.HasPrefix(err.Message, "cookie backend") {
		t.Errorf("message should name the backend, got %q", err.Message)
	}
}

func TestNewConfigInvalidError(t *testing.T) {
	err := NewConfigInvalidError("api.base_url is empty")

	if !strings.Contains(err.Message, "api.base_url") {
		t.Errorf("error message should contain details")
	}
	if len(err.Suggestions) == 0 {
		t.Errorf("expected suggestions to be provided")
	}
}

func TestNewFileUnmarshalError(t *testing.T) {
	cause := fmt.Errorf("yaml: line 3")
	err := NewFileUnmarshalError("/tmp/config.yaml", "YAML", cause)

	if err.Code != ErrCodeFileUnmarshal {
		t.Errorf("expected code %s, got %s", ErrCodeFileUnmarshal, err.Code)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be unwrappable")
	}
	if !strings.Contains(err.Error(), "valid YAML") {
		t.Errorf("suggestions should mention the format")
	}
}
