package platform

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind classifies a failed call to the booking API.
type Kind int

const (
	// KindTransport means no usable HTTP response arrived.
	KindTransport Kind = iota + 1
	// KindDecode means the response body was not valid JSON.
	KindDecode
	// KindUnauthorized means the API refused the bearer token, either with
	// HTTP 401 or with an unauthorized business status.
	KindUnauthorized
	// KindRequest means the request could not be built.
	KindRequest
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	case KindUnauthorized:
		return "unauthorized"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

// Error is returned by every Client and Protected call that fails.
type Error struct {
	Kind       Kind
	Method     string
	Path       string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", e.Method, e.Path, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// ExitCode maps the error onto the CLI exit codes.
func (e *Error) ExitCode() int {
	switch e.Kind {
	case KindUnauthorized:
		return 5
	case KindTransport:
		return 6
	case KindRequest:
		return 2
	default:
		return 4
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var pe *Error
	if stderrors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

// IsUnauthorized reports whether err means the token was refused. Callers use
// it to skip their own failure message, since the session reset already
// sends the admin back to the login page.
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}
