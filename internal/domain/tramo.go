package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tramo represents a time-bounded set of projection assumptions for the
// long-horizon savings fund. Tramos for a fund are contiguous and
// non-overlapping; at most one has no FechaFin (the active one). Closed
// tramos are never edited in place: changing assumptions closes the active
// tramo and opens a new one.
type Tramo struct {
	ID                  uuid.UUID
	FundID              uuid.UUID
	FechaInicio         time.Time
	FechaFin            *time.Time // nil while the tramo is active
	Instrumento         string
	RendimientoEsperado decimal.Decimal // annual %
	InflacionAsumida    decimal.Decimal // annual %
	AporteMensual       decimal.Decimal // USD added each month
}

// Active reports whether the tramo is the currently open segment.
func (t *Tramo) Active() bool {
	return t.FechaFin == nil
}

// Validate ensures the tramo adheres to domain rules
func (t *Tramo) Validate() error {
	if t.FundID == uuid.Nil {
		return NewValidationError("fundId", "is required")
	}

	if t.FechaInicio.IsZero() {
		return NewValidationError("fechaInicio", "is required")
	}

	if t.FechaFin != nil && t.FechaFin.Before(t.FechaInicio) {
		return NewValidationError("fechaFin", "cannot precede fechaInicio")
	}

	if t.Instrumento == "" {
		return NewValidationError("instrumento", "cannot be empty")
	}

	if t.AporteMensual.LessThan(decimal.Zero) {
		return NewValidationError("aporteMensual", "cannot be negative")
	}

	return nil
}

// ValidateTramoSequence checks the contiguity invariant over a slice of
// tramos already sorted by FechaInicio: no overlaps, no gaps (each tramo
// starts the day after the previous one ends), and only the last tramo may
// be open-ended. A violation is a data-integrity error, reported as
// ErrTramoSequence rather than silently ignored.
func ValidateTramoSequence(tramos []*Tramo) error {
	for i := 0; i < len(tramos); i++ {
		if tramos[i].Active() && i != len(tramos)-1 {
			return ErrTramoSequence
		}

		if i == 0 {
			continue
		}

		prev := tramos[i-1]
		if prev.FechaFin == nil {
			return ErrTramoSequence
		}

		expectedStart := prev.FechaFin.AddDate(0, 0, 1)
		if !tramos[i].FechaInicio.Equal(expectedStart) {
			return ErrTramoSequence
		}
	}

	return nil
}
