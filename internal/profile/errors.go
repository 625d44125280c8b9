package profile

import (
	stderrors "errors"
	"fmt"
)

// ErrAuthFailed matches every *AuthError through errors.Is.
var ErrAuthFailed = stderrors.New("authentication failed")

// Kind tells why a token could not be resolved.
type Kind int

const (
	// KindRejected: the API answered but did not accept the token.
	KindRejected Kind = iota + 1
	// KindUnreachable: no answer arrived.
	KindUnreachable
	// KindMalformed: the answer claimed success but carried no usable profile.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindRejected:
		return "rejected"
	case KindUnreachable:
		return "unreachable"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// AuthError is the single failure type of Resolve.
type AuthError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *AuthError) Error() string {
	msg := fmt.Sprintf("profile %s", e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Cause }

// Is makes errors.Is(err, ErrAuthFailed) hold for every AuthError.
func (e *AuthError) Is(target error) bool {
	return target == ErrAuthFailed
}

// KindOf returns the Kind of the first *AuthError in err's chain, or 0.
func KindOf(err error) Kind {
	var ae *AuthError
	if stderrors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}
