// Package common defines shared constants and sentinel errors used across
// the service, repository and transport layers. Callers should use errors.Is
// to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// ErrValidation marks input rejected before any state change. It is
	// never worth retrying the same request.
	ErrValidation = errors.New("validation error")

	// ErrLocked is returned for mutations of a session past its grace period.
	ErrLocked = errors.New("session is locked")

	// ErrTransient marks failures of an external collaborator that may
	// succeed on retry with a fresh capture.
	ErrTransient = errors.New("transient failure")

	// ErrConflictPending is returned when a scan arrives while a twin
	// conflict still awaits the teacher's choice.
	ErrConflictPending = errors.New("twin conflict pending")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// ValidationError describes which input was rejected and why. It matches
// ErrValidation under errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a *ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
