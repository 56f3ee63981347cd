/*
errors.go - Centralized error types for the earnings engine

ERROR CATEGORIES:
  1. Validation errors - bad input at the boundary, nothing was mutated
  2. Invariant violations - a caller tried to break a cross-record rule
     (a second active shift, unlocking an unfinished achievement)
  3. Missing references - a record points at an ID that does not resolve

The Calculator and the achievement Evaluator never return these for
historical data; they degrade to zero instead. Only creation-time validation
fails hard.

USAGE:
  if errors.Is(err, earnings.ErrValidation) {
      // 400
  }
  var ve *earnings.ValidationError
  if errors.As(err, &ve) {
      fmt.Println(ve.Field)
  }
*/
package earnings

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrValidation       = errors.New("validation failed")
	ErrInvariant        = errors.New("invariant violation")
	ErrMissingReference = errors.New("missing reference")
	ErrNotFound         = errors.New("not found")

	// ErrShiftCompleted is returned when ending a shift that already ended.
	ErrShiftCompleted = errors.New("shift already completed")

	// ErrShiftActive is returned when editing a shift that is still running.
	ErrShiftActive = errors.New("shift is still active")

	// ErrNotTracking is returned by EndTracking when no shift is running.
	ErrNotTracking = errors.New("no shift is being tracked")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type InvariantViolation struct {
	Reason string
}

func (e *InvariantViolation) Error() string { return "invariant violation: " + e.Reason }

func (e *InvariantViolation) Unwrap() error { return ErrInvariant }

// MissingReferenceError names the record kind and ID that could not be resolved.
type MissingReferenceError struct {
	Kind string // "job", "bonus", "shift"
	ID   string
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("missing %s reference: %s", e.Kind, e.ID)
}

func (e *MissingReferenceError) Unwrap() error { return ErrMissingReference }

// NotFound wraps ErrNotFound with the record kind and ID.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrMissingReference) ||
		errors.Is(err, ErrShiftCompleted) ||
		errors.Is(err, ErrShiftActive) ||
		errors.Is(err, ErrNotTracking)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
