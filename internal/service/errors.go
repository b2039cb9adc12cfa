// Package service holds the booking domain logic: cinema resolution, seat
// availability, booking creation and status management, plus the thin
// catalogue services for movies and cinemas.  Handlers translate the
// errors returned here into HTTP responses.
package service

import (
	"errors"
	"fmt"
)

// Error kinds.  Every *Error wraps exactly one of them so callers can
// branch with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Error is a failure whose Message is safe to show to clients.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func validation(msg string) error { return &Error{Kind: ErrValidation, Message: msg} }

func notFound(msg string, cause error) error {
	return &Error{Kind: ErrNotFound, Message: msg, Err: cause}
}

func forbidden(msg string) error { return &Error{Kind: ErrForbidden, Message: msg} }

func conflict(msg string, cause error) error {
	return &Error{Kind: ErrConflict, Message: msg, Err: cause}
}
