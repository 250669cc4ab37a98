package client

import (
	"fmt"
	"strings"
)

// Kind classifies every failed call into exactly one outcome.
type Kind int

const (
	// KindAPI covers unexpected statuses, transport failures and bodies that
	// could not be read or decoded.
	KindAPI Kind = iota
	// KindAuthorization means the credentials were rejected (401).
	KindAuthorization
	// KindNotFound means the course and/or student does not exist (404).
	KindNotFound
	// KindValidation means the request body failed validation (422).
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	default:
		return "api"
	}
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrAPI           = &Error{Kind: KindAPI, Message: "api failure"}
	ErrAuthorization = &Error{Kind: KindAuthorization, Message: "bad credentials"}
	ErrNotFound      = &Error{Kind: KindNotFound, Message: "course or student not found"}
	ErrValidation    = &Error{Kind: KindValidation, Message: "invalid input"}
)

// Error is returned by every Client method that does not succeed.
type Error struct {
	Kind Kind

	// StatusCode is the HTTP status received, or 0 when no response arrived.
	StatusCode int

	Message string

	// ValidationErrors holds the flattened field messages of a 422, in field
	// order and then message order.
	ValidationErrors []string

	// Cause is the underlying failure for KindAPI errors.
	Cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	if len(e.ValidationErrors) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.ValidationErrors, "; "))
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func apiError(status int, msg string, cause error) *Error {
	return &Error{Kind: KindAPI, StatusCode: status, Message: msg, Cause: cause}
}
