/*
errors.go - Centralized error types

PURPOSE:
  All error types in one place for consistency and discoverability.
  Stores wrap these with context; handlers map them to HTTP status codes
  with errors.Is.

ERROR CATEGORIES:
  1. Lookup errors - a referenced row does not exist
  2. Validation errors - malformed input rejected at the boundary
  3. Conflict errors - uniqueness violations
  4. Authorization errors - caller role does not allow the action
  5. State errors - declaration workflow transitions

NOTE:
  The holiday calculator and the reconciliation engine never return errors.
  Everything here belongs to the plumbing around them.

SEE ALSO:
  - store/sqlite/sqlite.go: Wraps these errors
  - api/handlers.go: Maps them to status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced row doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when input fails boundary validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicate is returned when a uniqueness constraint is violated,
	// e.g. a second declaration for the same user and month.
	ErrDuplicate = errors.New("duplicate")

	// ErrForbidden is returned when the caller's role does not allow the action.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidState is returned when a declaration cannot move to the
	// requested status from its current one.
	ErrInvalidState = errors.New("invalid state transition")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names the missing kind and ID.
type NotFoundError struct {
	Kind string // e.g., "submission", "holiday", "user"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidInput
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidState)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
