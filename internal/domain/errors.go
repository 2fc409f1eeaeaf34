package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Compare with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("not authenticated")
	ErrForbidden    = errors.New("not authorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Error carries the operation, its kind and a message that is safe to show
// to the caller. Err holds the underlying cause, if any, and is never shown.
type Error struct {
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func newError(op string, kind error, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(op, format string, args ...any) error {
	return newError(op, ErrValidation, format, args...)
}

func Unauthorized(op, format string, args ...any) error {
	return newError(op, ErrUnauthorized, format, args...)
}

func Forbidden(op, format string, args ...any) error {
	return newError(op, ErrForbidden, format, args...)
}

func NotFound(op, format string, args ...any) error {
	return newError(op, ErrNotFound, format, args...)
}

func Conflict(op, format string, args ...any) error {
	return newError(op, ErrConflict, format, args...)
}

// Internal wraps an unexpected failure. The message is generic on purpose;
// the cause is only for logs.
func Internal(op string, err error) error {
	return &Error{Op: op, Message: "internal error", Err: err}
}

// PublicMessage returns the message that may be shown to API clients.
// Unknown errors collapse to a generic text.
func PublicMessage(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Kind != nil && de.Message != "" {
		return de.Message
	}
	return "Something went wrong. Please try again."
}
