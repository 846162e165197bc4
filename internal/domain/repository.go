package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PeriodRepository defines the interface for period persistence operations
type PeriodRepository interface {
	// GetByID retrieves a period by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Period, error)

	// GetByYearMonth retrieves the period for a calendar month.
	// Returns ErrPeriodNotFound if it has not been created yet.
	GetByYearMonth(ctx context.Context, year, month int) (*Period, error)

	// Create creates a new period
	Create(ctx context.Context, period *Period) error

	// UpdateStatus transitions a period from one status to another as a
	// compare-and-set: the update only applies if the stored status still
	// equals from, otherwise ErrPeriodTransition is returned. closedAt is
	// stamped when transitioning to CLOSED.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to PeriodStatus, closedAt *time.Time) error

	// ListUnclosedBefore retrieves periods strictly before year/month whose
	// status is not CLOSED, ordered chronologically.
	ListUnclosedBefore(ctx context.Context, year, month int) ([]*Period, error)
}

// MovementRepository defines the interface for movement persistence operations.
// Writes must check the owning period's status inside the same store
// transaction as the row write, so that a period closing concurrently
// resolves deterministically: either the write lands before the close or it
// fails with ErrPeriodClosed.
type MovementRepository interface {
	// GetByID retrieves a movement by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Movement, error)

	// Create inserts a movement, failing with ErrPeriodClosed if its period
	// is CLOSED at write time.
	Create(ctx context.Context, movement *Movement) error

	// Update rewrites a movement, locking both its current and (if the
	// movement moved) its target period. Fails with ErrPeriodClosed if
	// either is CLOSED.
	Update(ctx context.Context, movement *Movement) error

	// Delete removes a movement, failing with ErrPeriodClosed if its period
	// is CLOSED.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByPeriod retrieves all movements of a period ordered by date.
	ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]*Movement, error)

	// SumBaseUSDByConcept totals the base USD amounts of all movements
	// recorded against a concept, across all periods.
	SumBaseUSDByConcept(ctx context.Context, conceptID uuid.UUID) (decimal.Decimal, error)
}

// ConceptRepository defines the interface for concept persistence operations
type ConceptRepository interface {
	// GetByID retrieves a concept by its ID.
	// Returns ErrConceptNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*Concept, error)

	// GetByNameAndType retrieves a concept by its name within a movement
	// type. Returns ErrConceptNotFound if it does not exist.
	GetByNameAndType(ctx context.Context, name string, movementType MovementType) (*Concept, error)

	// Create creates a new concept
	Create(ctx context.Context, concept *Concept) error

	// UpdateNature changes a concept's nature. The change applies forward
	// only; already-recorded movements keep their snapshotted nature.
	UpdateNature(ctx context.Context, id uuid.UUID, nature ConceptNature) error

	// List retrieves all concepts, optionally filtered by type.
	// If typeFilter is empty, returns all concepts.
	List(ctx context.Context, typeFilter MovementType) ([]*Concept, error)
}

// TramoRepository defines the interface for tramo persistence operations
type TramoRepository interface {
	// ListByFund retrieves all tramos of a fund ordered by fecha_inicio.
	ListByFund(ctx context.Context, fundID uuid.UUID) ([]*Tramo, error)

	// Append atomically closes the previous active tramo (when prevID is
	// non-nil, stamping its fecha_fin) and inserts the new tramo, in one
	// store transaction.
	Append(ctx context.Context, prevID *uuid.UUID, fechaFin time.Time, nuevo *Tramo) error
}

// AssetRepository defines the interface for asset/liability persistence operations
type AssetRepository interface {
	// GetByID retrieves an asset by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Asset, error)

	// Create creates an asset and, when liability is non-nil, its linked
	// financing in one store transaction.
	Create(ctx context.Context, asset *Asset, liability *Liability) error

	// List retrieves all assets
	List(ctx context.Context) ([]*Asset, error)

	// AddValuation appends a valuation history entry and updates the
	// asset's current value and last-valuation date in one store
	// transaction. History entries are never rewritten.
	AddValuation(ctx context.Context, valuation *AssetValuation) error

	// ListValuations retrieves the valuation history of an asset ordered by
	// date.
	ListValuations(ctx context.Context, assetID uuid.UUID) ([]*AssetValuation, error)

	// GetLiability retrieves the liability linked to an asset.
	// Returns ErrLiabilityNotFound if the asset has no financing.
	GetLiability(ctx context.Context, assetID uuid.UUID) (*Liability, error)

	// RecordInstallment inserts the installment's expense movement and
	// applies the liability's new counters and balance in one store
	// transaction: either both rows land or neither does. The movement's
	// period is checked like any movement write (ErrPeriodClosed); the
	// liability update only applies while cuotas_restantes still equals
	// expectedRestantes, failing with ErrLiabilityConflict when a
	// concurrent payment got there first.
	RecordInstallment(ctx context.Context, movement *Movement, liability *Liability, expectedRestantes int) error

	// ListLiabilities retrieves all liabilities
	ListLiabilities(ctx context.Context) ([]*Liability, error)
}
