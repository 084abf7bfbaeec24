// Package common defines sentinel errors shared by the stores, the workflow
// controller and the HTTP layer. Callers should use errors.Is to match them.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Auth errors.
	ErrUnauthorized = errors.New("unauthorized")

	// Input errors (malformed request, action not allowed in the current step).
	ErrValidation = errors.New("validation error")

	// A workflow session already has an operation in flight.
	ErrBusy = errors.New("operation already in progress")
)
