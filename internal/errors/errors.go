// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. Use cases return these errors and the outer
// layers (CLI, message consumer) decide how to surface them.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors shared across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate key,
	// stale optimistic-concurrency version).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidState indicates an operation is not allowed in the entity's
	// current lifecycle state.
	ErrInvalidState = errors.New("invalid state")

	// ErrForbidden indicates the caller is not allowed to perform the operation.
	ErrForbidden = errors.New("forbidden")
)

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
