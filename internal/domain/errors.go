package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for business-rule violations. Callers match them with
// errors.Is; the HTTP adapter maps them to status codes.
var (
	// ErrPeriodClosed is returned on any attempt to mutate a movement whose
	// period is CLOSED, or to move a movement into a CLOSED period. The
	// remedy is a new dated correction movement, never a forced edit.
	ErrPeriodClosed = errors.New("period is closed")

	// ErrPeriodTransition is returned when a period lifecycle transition is
	// requested from a state that does not allow it.
	ErrPeriodTransition = errors.New("invalid period status transition")

	// ErrTramoSequence is returned when adding or projecting tramos would
	// break the contiguity or ordering invariant of the sequence.
	ErrTramoSequence = errors.New("tramo sequence violation")

	// ErrLiabilityConflict is returned when an installment payment loses a
	// race against another payment on the same liability. The caller may
	// re-read the liability and retry.
	ErrLiabilityConflict = errors.New("liability was modified concurrently")

	ErrPeriodNotFound    = errors.New("period not found")
	ErrMovementNotFound  = errors.New("movement not found")
	ErrConceptNotFound   = errors.New("concept not found")
	ErrAssetNotFound     = errors.New("asset not found")
	ErrLiabilityNotFound = errors.New("liability not found")
)

// ValidationError reports malformed caller input. It is always surfaced
// before any mutation takes place.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
