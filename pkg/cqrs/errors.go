// Package cqrs holds the error taxonomy shared by the command, query and
// projection sides. Callers classify failures with errors.Is.
package cqrs

import "errors"

var (
	// ErrValidation marks malformed or incomplete input, rejected before
	// any store access.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a uniqueness violation.
	ErrConflict = errors.New("conflict")

	// ErrStoreUnavailable marks a transient infrastructure failure.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrProjection marks a projection handler that failed to apply an event.
	ErrProjection = errors.New("projection failed")
)
