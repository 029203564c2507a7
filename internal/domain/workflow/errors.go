package workflow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidTransition is returned when an action is attempted against a
	// request that is not pending, or against a request with no workflow
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a status is not valid
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when no guarded transition accepts the position
	ErrGuardFailed = errors.New("guard condition failed")

	// ErrNotFound is returned for an unknown request or workflow id
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the actor may not act at the current step
	ErrUnauthorized = errors.New("actor not authorized at current step")

	// ErrConcurrentModification is returned when the request changed between
	// read and conditional update. Callers re-read and retry.
	ErrConcurrentModification = errors.New("request was modified concurrently")
)

// FieldError describes one rejected input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a workflow definition or action input is malformed
type ValidationError struct {
	Problems []FieldError `json:"problems"`
}

// Error implements error
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, fmt.Sprintf("%s: %s", p.Field, p.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a problem
func (e *ValidationError) Add(field, message string) {
	e.Problems = append(e.Problems, FieldError{Field: field, Message: message})
}

// OrNil returns nil when no problems were recorded
func (e *ValidationError) OrNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// NewValidationError builds a ValidationError with a single problem
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Problems: []FieldError{{Field: field, Message: message}}}
}

// IsValidation reports whether err wraps a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
