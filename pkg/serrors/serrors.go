// Package serrors provides semantic errors: sentinel kinds that classify a
// failure (not found, bad request, rate limited, ...) combined with an
// optional wrapped cause and message. Callers branch on kinds with errors.Is
// and the HTTP layer maps kinds to status codes with HTTPStatus.
package serrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the marker interface implemented by semantic error kinds created
// with NewKind. It distinguishes kinds from ordinary errors.
type Kind interface {
	error
	isKind()
}

type kind struct{ name string }

func (k kind) Error() string { return k.name }
func (k kind) isKind()       {}

// NewKind creates a new semantic error kind. Kinds are comparable sentinels
// usable with errors.Is/As through the Error wrapper in this package.
func NewKind(name string) Kind { return kind{name: name} }

// The default kinds cover the failure categories the service deals with.
var (
	// ErrNotFound indicates the requested entity does not exist or is hidden.
	ErrNotFound = NewKind("NOT_FOUND")
	// ErrBadRequest indicates the caller sent invalid data.
	ErrBadRequest = NewKind("BAD_REQUEST")
	// ErrUnauthorized indicates missing or invalid authentication.
	ErrUnauthorized = NewKind("UNAUTHORIZED")
	// ErrConflict indicates a state conflict such as a duplicate upload.
	ErrConflict = NewKind("CONFLICT")
	// ErrUnsupported indicates a payload the pipeline cannot process
	// (unknown modality, corrupt file, text-less PDF).
	ErrUnsupported = NewKind("UNSUPPORTED")
	// ErrRateLimited indicates an upstream provider rejected the call for
	// quota reasons; workers snooze until the reported reset.
	ErrRateLimited = NewKind("RATE_LIMITED")
	// ErrUnavailable indicates a dependency is temporarily unreachable.
	ErrUnavailable = NewKind("UNAVAILABLE")
	// ErrInternal indicates an unexpected internal failure.
	ErrInternal = NewKind("INTERNAL")
)

// Error is a semantic error: a kind plus an optional wrapped cause and an
// optional message. errors.Is/As match against both the kind sentinel and the
// wrapped cause.
type Error struct {
	kind Kind
	err  error
	msg  string
}

// With constructs a semantic error from a kind and a formatted message.
func With(k Kind, format string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(format, args...)}
}

// Wrap constructs a semantic error that wraps a concrete cause.
func Wrap(k Kind, err error, format string, args ...any) *Error {
	return &Error{kind: k, err: err, msg: fmt.Sprintf(format, args...)}
}

// Error implements the error interface. Formatting is "<msg>: <cause>" when
// both are present, falling back to whichever is set, then to the kind name.
func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	case e.kind != nil:
		return e.kind.Error()
	default:
		return "unknown error"
	}
}

// Unwrap exposes the wrapped cause to errors.Unwrap/Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is matches the target against the kind sentinel first, then the cause chain.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return e == nil && target == nil
	}
	if e.kind != nil && errors.Is(e.kind, target) {
		return true
	}

	return e.err != nil && errors.Is(e.err, target)
}

// As matches the target against the kind sentinel first, then the cause chain.
func (e *Error) As(target any) bool {
	if e == nil || target == nil {
		return false
	}
	if e.kind != nil && errors.As(e.kind, target) {
		return true
	}

	return e.err != nil && errors.As(e.err, target)
}

// Kind returns the semantic kind carried by this error, or nil.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the message attached to this error.
func (e *Error) Message() string { return e.msg }

// HTTPStatus maps an error's semantic kind to an HTTP status code. Errors
// without a recognized kind map to 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
