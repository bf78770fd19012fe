package types

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced to the HTTP boundary. Wrap them, never return them bare
// when a client-facing message is known.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrValidation      = errors.New("validation failed")
	ErrBadRequest      = errors.New("bad request")
	ErrUpstream        = errors.New("upstream failure")
)

// Error pairs an error kind with the message shown to the client.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// NewError builds a client-facing error of the given kind.
func NewError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ValidationError collects field-level messages. Its text is the
// comma-separated concatenation of all of them.
type ValidationError struct {
	Messages []string
}

func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return "Validation failed"
	}
	return strings.Join(e.Messages, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
