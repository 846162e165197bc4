package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ncastro/finanzas-backend/internal/domain"
	"github.com/ncastro/finanzas-backend/internal/usecase/currency"
	"github.com/ncastro/finanzas-backend/internal/usecase/period"
)

// AddMovementInput represents the input for recording a movement
type AddMovementInput struct {
	Type        domain.MovementType
	ConceptID   *uuid.UUID // existing concept; when nil the concept is resolved by name
	ConceptName string
	Nature      domain.ConceptNature // used for auto-created concepts; defaults to VARIABLE
	Date        time.Time
	Amount      decimal.Decimal // in Currency
	Currency    domain.Currency
	Rate        *decimal.Decimal // live ARS/USD rate; required when Currency is ARS
	Status      domain.MovementStatus
}

// UpdateMovementInput is a partial patch for a movement. Nil fields are
// left untouched.
type UpdateMovementInput struct {
	ConceptID *uuid.UUID
	Date      *time.Time
	Amount    *decimal.Decimal
	Currency  *domain.Currency
	Rate      *decimal.Decimal
	Status    *domain.MovementStatus
}

// Service is the movement ledger: every movement mutation goes through it,
// consulting the period lifecycle before accepting the change and the
// currency converter for amounts entered in ARS.
type Service struct {
	Movements domain.MovementRepository
	Concepts  domain.ConceptRepository
	Periods   *period.Service
}

// NewService creates a new ledger Service instance
func NewService(movements domain.MovementRepository, concepts domain.ConceptRepository, periods *period.Service) *Service {
	return &Service{
		Movements: movements,
		Concepts:  concepts,
		Periods:   periods,
	}
}

// AddMovement records a new movement.
// Logic:
//  1. Validate input (amount, currency, rate, date)
//  2. Resolve the concept, auto-creating it on first use
//  3. Ensure the target period exists (created OPEN if missing); reject if CLOSED
//  4. Compute the base USD amount, snapshotting the ARS rate when applicable
//  5. Persist; the repository re-checks period status inside its own transaction
func (s *Service) AddMovement(ctx context.Context, input AddMovementInput) (*domain.Movement, error) {
	m, err := s.PrepareMovement(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.Movements.Create(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

// PrepareMovement runs the full AddMovement pipeline short of persistence
// and returns the movement ready to insert. Callers that must write the
// movement together with other rows in one store transaction (installment
// payments) persist the result themselves.
func (s *Service) PrepareMovement(ctx context.Context, input AddMovementInput) (*domain.Movement, error) {
	if err := validateAmountInput(input.Amount, input.Currency, input.Rate); err != nil {
		return nil, err
	}

	if input.Date.IsZero() {
		return nil, domain.NewValidationError("date", "is required")
	}
	if input.Date.After(time.Now()) {
		return nil, domain.NewValidationError("date", "cannot be in the future")
	}

	concept, err := s.resolveConcept(ctx, input)
	if err != nil {
		return nil, err
	}

	p, err := s.Periods.EnsureOpen(ctx, input.Date.Year(), int(input.Date.Month()))
	if err != nil {
		return nil, err
	}
	if p.Status == domain.PeriodStatusClosed {
		return nil, domain.ErrPeriodClosed
	}

	amountUSD, snapshot := toBaseUSD(input.Amount, input.Currency, input.Rate)

	status := input.Status
	if status == "" {
		status = domain.MovementStatusPaid
	}
	if input.Type == domain.MovementTypeIncome {
		// Income has no pending state.
		status = domain.MovementStatusPaid
	}

	m := &domain.Movement{
		ID:                   uuid.New(),
		Type:                 input.Type,
		ConceptID:            concept.ID,
		Nature:               concept.Nature,
		Date:                 input.Date,
		AmountBaseUSD:        amountUSD,
		OriginalCurrency:     input.Currency,
		ExchangeRateSnapshot: snapshot,
		Status:               status,
		PeriodID:             p.ID,
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// UpdateMovement applies a patch to a movement. The base USD amount is
// recomputed when amount, currency or rate change; a date change may move
// the movement into a different period (auto-created OPEN when missing).
// Fails with ErrPeriodClosed if either the movement's current period or the
// date-change target period is CLOSED: a movement can never land in a
// closed month.
func (s *Service) UpdateMovement(ctx context.Context, id uuid.UUID, patch UpdateMovementInput) (*domain.Movement, error) {
	m, err := s.Movements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	mutable, err := s.Periods.IsMutable(ctx, m.PeriodID)
	if err != nil {
		return nil, err
	}
	if !mutable {
		return nil, domain.ErrPeriodClosed
	}

	if patch.ConceptID != nil && *patch.ConceptID != m.ConceptID {
		concept, err := s.Concepts.GetByID(ctx, *patch.ConceptID)
		if err != nil {
			return nil, err
		}
		if concept.Type != m.Type {
			return nil, domain.NewValidationError("conceptId", "concept type does not match movement type")
		}
		m.ConceptID = concept.ID
		m.Nature = concept.Nature
	}

	if patch.Date != nil {
		if patch.Date.After(time.Now()) {
			return nil, domain.NewValidationError("date", "cannot be in the future")
		}
		target, err := s.Periods.EnsureOpen(ctx, patch.Date.Year(), int(patch.Date.Month()))
		if err != nil {
			return nil, err
		}
		if target.Status == domain.PeriodStatusClosed {
			return nil, domain.ErrPeriodClosed
		}
		m.Date = *patch.Date
		m.PeriodID = target.ID
	}

	if patch.Amount != nil || patch.Currency != nil || patch.Rate != nil {
		if patch.Amount == nil {
			return nil, domain.NewValidationError("amount", "is required when currency or rate changes")
		}

		cur := m.OriginalCurrency
		if patch.Currency != nil {
			cur = *patch.Currency
		}

		// Re-entering an amount captures a fresh snapshot: the caller must
		// supply the rate for ARS unless the existing snapshot still applies.
		rate := patch.Rate
		if rate == nil && cur == domain.CurrencyARS && m.OriginalCurrency == domain.CurrencyARS {
			rate = m.ExchangeRateSnapshot
		}

		if err := validateAmountInput(*patch.Amount, cur, rate); err != nil {
			return nil, err
		}

		m.AmountBaseUSD, m.ExchangeRateSnapshot = toBaseUSD(*patch.Amount, cur, rate)
		m.OriginalCurrency = cur
	}

	if patch.Status != nil {
		if m.Type == domain.MovementTypeIncome {
			return nil, domain.NewValidationError("status", "income is always PAID")
		}
		m.Status = *patch.Status
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	if err := s.Movements.Update(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

// DeleteMovement removes a movement. Deletion is only permitted while the
// period is OPEN or CLOSING; CLOSED movements can only be corrected with a
// new dated movement.
func (s *Service) DeleteMovement(ctx context.Context, id uuid.UUID) error {
	m, err := s.Movements.GetByID(ctx, id)
	if err != nil {
		return err
	}

	mutable, err := s.Periods.IsMutable(ctx, m.PeriodID)
	if err != nil {
		return err
	}
	if !mutable {
		return domain.ErrPeriodClosed
	}

	return s.Movements.Delete(ctx, id)
}

// ToggleStatus flips an expense between PAID and PENDING. Rejected for
// income, which has no pending state.
func (s *Service) ToggleStatus(ctx context.Context, id uuid.UUID) (*domain.Movement, error) {
	m, err := s.Movements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if m.Type == domain.MovementTypeIncome {
		return nil, domain.NewValidationError("status", "income is always PAID")
	}

	mutable, err := s.Periods.IsMutable(ctx, m.PeriodID)
	if err != nil {
		return nil, err
	}
	if !mutable {
		return nil, domain.ErrPeriodClosed
	}

	if m.Status == domain.MovementStatusPaid {
		m.Status = domain.MovementStatusPending
	} else {
		m.Status = domain.MovementStatusPaid
	}

	if err := s.Movements.Update(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

// ListByPeriod returns the movements of a calendar month. A month whose
// period was never created simply has no movements.
func (s *Service) ListByPeriod(ctx context.Context, year, month int) ([]*domain.Movement, error) {
	p, err := s.Periods.Periods.GetByYearMonth(ctx, year, month)
	if err != nil {
		if errors.Is(err, domain.ErrPeriodNotFound) {
			return []*domain.Movement{}, nil
		}
		return nil, err
	}

	return s.Movements.ListByPeriod(ctx, p.ID)
}

// fundContributionConcept is the seeded concept every fund contribution is
// booked against.
const fundContributionConcept = "Aporte Fondo"

// FundCapital derives the savings fund's current capital from the ledger:
// the base USD total of all recorded contribution movements. A ledger with
// no contributions yet reads as zero capital.
func (s *Service) FundCapital(ctx context.Context) (decimal.Decimal, error) {
	concept, err := s.Concepts.GetByNameAndType(ctx, fundContributionConcept, domain.MovementTypeExpense)
	if err != nil {
		if errors.Is(err, domain.ErrConceptNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	return s.Movements.SumBaseUSDByConcept(ctx, concept.ID)
}

// ListConcepts returns the concept catalog. An empty typeFilter lists all
// concepts.
func (s *Service) ListConcepts(ctx context.Context, typeFilter domain.MovementType) ([]*domain.Concept, error) {
	return s.Concepts.List(ctx, typeFilter)
}

// CreateConcept registers a catalog entry ahead of its first movement.
func (s *Service) CreateConcept(ctx context.Context, name string, movementType domain.MovementType, nature domain.ConceptNature) (*domain.Concept, error) {
	concept := &domain.Concept{
		ID:     uuid.New(),
		Name:   name,
		Type:   movementType,
		Nature: nature,
	}
	if err := concept.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.Concepts.GetByNameAndType(ctx, name, movementType); err == nil {
		return nil, domain.NewValidationError("name", "concept already exists for this type")
	} else if !errors.Is(err, domain.ErrConceptNotFound) {
		return nil, err
	}

	if err := s.Concepts.Create(ctx, concept); err != nil {
		return nil, err
	}

	return concept, nil
}

// ReclassifyConcept changes a concept's nature for future movements only;
// existing movements keep the nature they captured at creation.
func (s *Service) ReclassifyConcept(ctx context.Context, id uuid.UUID, nature domain.ConceptNature) (*domain.Concept, error) {
	if !nature.Valid() {
		return nil, domain.NewValidationError("nature", "must be FIXED, VARIABLE or EXTRAORDINARY")
	}

	if err := s.Concepts.UpdateNature(ctx, id, nature); err != nil {
		return nil, err
	}

	return s.Concepts.GetByID(ctx, id)
}

func (s *Service) resolveConcept(ctx context.Context, input AddMovementInput) (*domain.Concept, error) {
	if input.ConceptID != nil {
		concept, err := s.Concepts.GetByID(ctx, *input.ConceptID)
		if err != nil {
			return nil, err
		}
		if concept.Type != input.Type {
			return nil, domain.NewValidationError("conceptId", "concept type does not match movement type")
		}
		return concept, nil
	}

	if input.ConceptName == "" {
		return nil, domain.NewValidationError("concept", "conceptId or conceptName is required")
	}

	concept, err := s.Concepts.GetByNameAndType(ctx, input.ConceptName, input.Type)
	if err == nil {
		return concept, nil
	}
	if !errors.Is(err, domain.ErrConceptNotFound) {
		return nil, err
	}

	// First use of this concept name: auto-create it.
	nature := input.Nature
	if nature == "" {
		nature = domain.NatureVariable
	}
	concept = &domain.Concept{
		ID:     uuid.New(),
		Name:   input.ConceptName,
		Type:   input.Type,
		Nature: nature,
	}
	if err := concept.Validate(); err != nil {
		return nil, err
	}
	if err := s.Concepts.Create(ctx, concept); err != nil {
		return nil, fmt.Errorf("failed to auto-create concept %q: %w", input.ConceptName, err)
	}

	return concept, nil
}

func validateAmountInput(amount decimal.Decimal, cur domain.Currency, rate *decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.NewValidationError("amount", "must be positive")
	}

	switch cur {
	case domain.CurrencyUSD:
	case domain.CurrencyARS:
		if rate == nil {
			return domain.NewValidationError("rate", "is required for ARS amounts")
		}
		if rate.LessThanOrEqual(decimal.Zero) {
			return domain.NewValidationError("rate", "must be positive")
		}
	default:
		return domain.NewValidationError("currency", "must be USD or ARS")
	}

	return nil
}

// toBaseUSD converts the entered amount into the stored USD base. For ARS
// entries the rate becomes the movement's immutable snapshot.
func toBaseUSD(amount decimal.Decimal, cur domain.Currency, rate *decimal.Decimal) (decimal.Decimal, *decimal.Decimal) {
	if cur == domain.CurrencyUSD {
		return amount, nil
	}

	conv := currency.New(*rate)
	snapshot := *rate
	return conv.ToUSD(amount, domain.CurrencyARS, nil), &snapshot
}
