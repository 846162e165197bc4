package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType represents the direction of a movement
type MovementType string

const (
	MovementTypeIncome  MovementType = "INCOME"
	MovementTypeExpense MovementType = "EXPENSE"
)

// Currency represents the currency a movement was originally entered in
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyARS Currency = "ARS"
)

// MovementStatus represents the payment state of a movement.
// Income is always PAID; only expenses may be PENDING.
type MovementStatus string

const (
	MovementStatusPaid    MovementStatus = "PAID"
	MovementStatusPending MovementStatus = "PENDING"
)

// Movement represents a single dated cash event in the monthly ledger.
// Amounts are always stored in USD; when the entry was made in ARS the
// exchange rate used at creation time is kept in ExchangeRateSnapshot so
// that redisplaying history always reproduces the same USD amount.
type Movement struct {
	ID                   uuid.UUID
	Type                 MovementType
	ConceptID            uuid.UUID
	Nature               ConceptNature // snapshotted from the concept at creation time
	Date                 time.Time
	AmountBaseUSD        decimal.Decimal
	OriginalCurrency     Currency
	ExchangeRateSnapshot *decimal.Decimal // set iff OriginalCurrency is ARS; immutable once set
	Status               MovementStatus
	PeriodID             uuid.UUID
}

// Validate ensures the movement adheres to domain rules
// Returns an error if validation fails
func (m *Movement) Validate() error {
	if m.Type != MovementTypeIncome && m.Type != MovementTypeExpense {
		return NewValidationError("type", "must be INCOME or EXPENSE")
	}

	if m.ConceptID == uuid.Nil {
		return NewValidationError("conceptId", "is required")
	}

	if m.PeriodID == uuid.Nil {
		return NewValidationError("monthId", "is required")
	}

	if m.Date.IsZero() {
		return NewValidationError("date", "is required")
	}

	if m.AmountBaseUSD.LessThanOrEqual(decimal.Zero) {
		return NewValidationError("amount", "must be positive")
	}

	switch m.OriginalCurrency {
	case CurrencyUSD:
		if m.ExchangeRateSnapshot != nil {
			return NewValidationError("exchangeRateSnapshot", "must be absent for USD movements")
		}
	case CurrencyARS:
		if m.ExchangeRateSnapshot == nil {
			return NewValidationError("exchangeRateSnapshot", "is required for ARS movements")
		}
		if m.ExchangeRateSnapshot.LessThanOrEqual(decimal.Zero) {
			return NewValidationError("exchangeRateSnapshot", "must be positive")
		}
	default:
		return NewValidationError("originalCurrency", "must be USD or ARS")
	}

	if m.Status != MovementStatusPaid && m.Status != MovementStatusPending {
		return NewValidationError("status", "must be PAID or PENDING")
	}

	// Income has no pending state; it is always considered received.
	if m.Type == MovementTypeIncome && m.Status != MovementStatusPaid {
		return NewValidationError("status", "income is always PAID")
	}

	if !m.Nature.Valid() {
		return NewValidationError("nature", "must be FIXED, VARIABLE or EXTRAORDINARY")
	}

	return nil
}
