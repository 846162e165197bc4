package projection

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ncastro/finanzas-backend/internal/domain"
)

var (
	one           = decimal.NewFromInt(1)
	monthlyDiv    = decimal.NewFromInt(1200) // annual % to monthly factor
	hundredsScale = int32(12)                // internal precision for compounding factors
)

// TramoParams holds the assumptions for a new tramo.
type TramoParams struct {
	Instrumento         string
	RendimientoEsperado decimal.Decimal // annual %
	InflacionAsumida    decimal.Decimal // annual %
	AporteMensual       decimal.Decimal // USD per month
}

// Projection is the result of walking the tramo sequence to a date.
type Projection struct {
	Nominal decimal.Decimal
	Real    decimal.Decimal // nominal deflated by the assumed inflation path
}

// Milestone is a projection at a fixed year offset from a reference date.
type Milestone struct {
	Years   int
	AsOf    time.Time
	Nominal decimal.Decimal
	Real    decimal.Decimal
}

// CapitalSource reports the fund's current capital in base USD. The ledger
// implements it by totalling the recorded contribution movements.
type CapitalSource interface {
	FundCapital(ctx context.Context) (decimal.Decimal, error)
}

// Service is the piecewise-constant-rate compounding engine for the
// long-horizon savings fund. Assumptions change only by closing the active
// tramo and opening a new one from an effective date forward; closed tramos
// are never edited, which keeps past projected values stable.
type Service struct {
	Tramos  domain.TramoRepository
	Capital CapitalSource
}

// NewService creates a new projection Service instance
func NewService(tramos domain.TramoRepository, capital CapitalSource) *Service {
	return &Service{Tramos: tramos, Capital: capital}
}

// CurrentCapital resolves the fund's starting capital from the ledger's
// recorded contributions.
func (s *Service) CurrentCapital(ctx context.Context) (decimal.Decimal, error) {
	return s.Capital.FundCapital(ctx)
}

// ActiveTramo returns the tramo whose FechaFin is absent, or nil.
func ActiveTramo(tramos []*domain.Tramo) *domain.Tramo {
	for _, t := range tramos {
		if t.Active() {
			return t
		}
	}
	return nil
}

// AddTramo changes the fund's assumptions from effectiveDate forward: it
// closes the currently active tramo at effectiveDate minus one day and
// opens a new tramo starting effectiveDate, atomically. The first tramo of
// a fund is created the same way with no active predecessor.
func (s *Service) AddTramo(ctx context.Context, fundID uuid.UUID, params TramoParams, effectiveDate time.Time) (*domain.Tramo, error) {
	if effectiveDate.IsZero() {
		return nil, domain.NewValidationError("effectiveDate", "is required")
	}

	tramos, err := s.Tramos.ListByFund(ctx, fundID)
	if err != nil {
		return nil, err
	}

	active := ActiveTramo(tramos)
	if active == nil && len(tramos) > 0 {
		// Every tramo is closed: the sequence is broken and appending to it
		// would guess where the new tramo attaches.
		return nil, fmt.Errorf("%w: fund %s has no active tramo", domain.ErrTramoSequence, fundID)
	}

	var prevID *uuid.UUID
	var fechaFin time.Time
	if active != nil {
		if !effectiveDate.After(active.FechaInicio) {
			return nil, fmt.Errorf("%w: effective date %s does not follow active tramo start %s",
				domain.ErrTramoSequence, effectiveDate.Format("2006-01-02"), active.FechaInicio.Format("2006-01-02"))
		}
		prevID = &active.ID
		fechaFin = effectiveDate.AddDate(0, 0, -1)
	}

	nuevo := &domain.Tramo{
		ID:                  uuid.New(),
		FundID:              fundID,
		FechaInicio:         effectiveDate,
		Instrumento:         params.Instrumento,
		RendimientoEsperado: params.RendimientoEsperado,
		InflacionAsumida:    params.InflacionAsumida,
		AporteMensual:       params.AporteMensual,
	}
	if err := nuevo.Validate(); err != nil {
		return nil, err
	}

	if err := s.Tramos.Append(ctx, prevID, fechaFin, nuevo); err != nil {
		return nil, err
	}

	return nuevo, nil
}

// ProjectBalance walks the tramo sequence chronologically and compounds
// startCapital month by month up to asOf: each month multiplies by
// (1 + rendimiento/12/100) and then adds the tramo's monthly contribution.
// A parallel deflator accumulates (1 + inflacion/12/100) over the same
// months to produce the real (inflation-adjusted) total.
//
// A tramo starting after asOf contributes zero months. A gap or overlap in
// the sequence is a data-integrity error reported as ErrTramoSequence.
func ProjectBalance(startCapital decimal.Decimal, tramos []*domain.Tramo, asOf time.Time) (Projection, error) {
	ordered := make([]*domain.Tramo, len(tramos))
	copy(ordered, tramos)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].FechaInicio.Before(ordered[j].FechaInicio)
	})

	if err := domain.ValidateTramoSequence(ordered); err != nil {
		return Projection{}, err
	}

	balance := startCapital
	deflator := one

	for _, t := range ordered {
		if asOf.Before(t.FechaInicio) {
			break
		}

		// The tramo is live from its start until its close or asOf,
		// whichever comes first.
		end := asOf
		if t.FechaFin != nil && t.FechaFin.Before(asOf) {
			end = *t.FechaFin
		}

		growth := one.Add(t.RendimientoEsperado.DivRound(monthlyDiv, hundredsScale))
		inflation := one.Add(t.InflacionAsumida.DivRound(monthlyDiv, hundredsScale))

		// Count a month each time a full month fits before the day after
		// the end date, so a tramo closing on the last day of a month
		// completes that month.
		endExclusive := end.AddDate(0, 0, 1)
		for cursor := t.FechaInicio; !cursor.AddDate(0, 1, 0).After(endExclusive); cursor = cursor.AddDate(0, 1, 0) {
			balance = balance.Mul(growth).Add(t.AporteMensual)
			deflator = deflator.Mul(inflation)
		}
	}

	nominal := balance.Round(2)
	real := balance.DivRound(deflator, 2)

	return Projection{Nominal: nominal, Real: real}, nil
}

// Milestones projects the fund at each of the given year offsets from the
// reference date, using the fund's stored tramo sequence.
func (s *Service) Milestones(ctx context.Context, fundID uuid.UUID, startCapital decimal.Decimal, from time.Time, yearOffsets []int) ([]Milestone, error) {
	tramos, err := s.Tramos.ListByFund(ctx, fundID)
	if err != nil {
		return nil, err
	}

	milestones := make([]Milestone, 0, len(yearOffsets))
	for _, years := range yearOffsets {
		if years < 0 {
			return nil, domain.NewValidationError("yearOffsets", "cannot be negative")
		}

		asOf := from.AddDate(years, 0, 0)
		p, err := ProjectBalance(startCapital, tramos, asOf)
		if err != nil {
			return nil, err
		}

		milestones = append(milestones, Milestone{
			Years:   years,
			AsOf:    asOf,
			Nominal: p.Nominal,
			Real:    p.Real,
		})
	}

	return milestones, nil
}

// Project walks the fund's stored tramos up to asOf.
func (s *Service) Project(ctx context.Context, fundID uuid.UUID, startCapital decimal.Decimal, asOf time.Time) (Projection, error) {
	tramos, err := s.Tramos.ListByFund(ctx, fundID)
	if err != nil {
		return Projection{}, err
	}

	return ProjectBalance(startCapital, tramos, asOf)
}
