package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ncastro/finanzas-backend/internal/domain"
)

// movementRepository implements domain.MovementRepository
type movementRepository struct {
	db *DB
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db *DB) domain.MovementRepository {
	return &movementRepository{db: db}
}

const movementColumns = `id, type, concept_id, nature, date, amount_base_usd, original_currency, exchange_rate_snapshot, status, period_id`

func scanMovement(row interface{ Scan(...interface{}) error }) (*domain.Movement, error) {
	var m domain.Movement
	var amountStr string
	var snapshotStr sql.NullString

	err := row.Scan(
		&m.ID,
		&m.Type,
		&m.ConceptID,
		&m.Nature,
		&m.Date,
		&amountStr,
		&m.OriginalCurrency,
		&snapshotStr,
		&m.Status,
		&m.PeriodID,
	)
	if err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount_base_usd: %w", err)
	}
	m.AmountBaseUSD = amount

	if snapshotStr.Valid {
		snapshot, err := decimal.NewFromString(snapshotStr.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse exchange_rate_snapshot: %w", err)
		}
		m.ExchangeRateSnapshot = &snapshot
	}

	return &m, nil
}

// lockPeriodForWrite locks the owning period row for the duration of the
// database transaction and rejects the write when the period is CLOSED.
// Locking the row serializes movement writes against a concurrent close.
func lockPeriodForWrite(ctx context.Context, tx *sql.Tx, periodID uuid.UUID) error {
	query := `
		SELECT status
		FROM periods
		WHERE id = $1
		FOR UPDATE
	`

	var status domain.PeriodStatus
	err := tx.QueryRowContext(ctx, query, periodID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrPeriodNotFound
		}
		return fmt.Errorf("failed to lock period: %w", err)
	}

	if status == domain.PeriodStatusClosed {
		return domain.ErrPeriodClosed
	}

	return nil
}

func snapshotParam(m *domain.Movement) interface{} {
	if m.ExchangeRateSnapshot == nil {
		return nil
	}
	return m.ExchangeRateSnapshot.String()
}

// GetByID retrieves a movement by its ID
func (r *movementRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements
		WHERE id = $1
	`

	m, err := scanMovement(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMovementNotFound
		}
		return nil, fmt.Errorf("failed to get movement by ID: %w", err)
	}

	return m, nil
}

// insertMovement writes the movement row inside the caller's transaction.
// The caller is responsible for having locked the owning period first.
func insertMovement(ctx context.Context, tx *sql.Tx, movement *domain.Movement) error {
	query := `
		INSERT INTO movements (id, type, concept_id, nature, date, amount_base_usd, original_currency, exchange_rate_snapshot, status, period_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := tx.ExecContext(ctx, query,
		movement.ID,
		string(movement.Type),
		movement.ConceptID,
		string(movement.Nature),
		movement.Date,
		movement.AmountBaseUSD.String(),
		string(movement.OriginalCurrency),
		snapshotParam(movement),
		string(movement.Status),
		movement.PeriodID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert movement: %w", err)
	}

	return nil
}

// Create inserts a movement after checking the owning period's status inside
// the same database transaction
func (r *movementRepository) Create(ctx context.Context, movement *domain.Movement) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := lockPeriodForWrite(ctx, dbTx, movement.PeriodID); err != nil {
		return err
	}

	if err := insertMovement(ctx, dbTx, movement); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Update rewrites a movement. Both the current owning period and the target
// period are locked, so a date move cannot race with either period closing.
func (r *movementRepository) Update(ctx context.Context, movement *domain.Movement) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	var currentPeriodID uuid.UUID
	err = dbTx.QueryRowContext(ctx, `SELECT period_id FROM movements WHERE id = $1`, movement.ID).Scan(&currentPeriodID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrMovementNotFound
		}
		return fmt.Errorf("failed to read movement period: %w", err)
	}

	if err := lockPeriodForWrite(ctx, dbTx, currentPeriodID); err != nil {
		return err
	}
	if movement.PeriodID != currentPeriodID {
		if err := lockPeriodForWrite(ctx, dbTx, movement.PeriodID); err != nil {
			return err
		}
	}

	query := `
		UPDATE movements
		SET type = $1, concept_id = $2, nature = $3, date = $4, amount_base_usd = $5,
		    original_currency = $6, exchange_rate_snapshot = $7, status = $8, period_id = $9
		WHERE id = $10
	`

	_, err = dbTx.ExecContext(ctx, query,
		string(movement.Type),
		movement.ConceptID,
		string(movement.Nature),
		movement.Date,
		movement.AmountBaseUSD.String(),
		string(movement.OriginalCurrency),
		snapshotParam(movement),
		string(movement.Status),
		movement.PeriodID,
		movement.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update movement: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Delete removes a movement after locking its owning period
func (r *movementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	var periodID uuid.UUID
	err = dbTx.QueryRowContext(ctx, `SELECT period_id FROM movements WHERE id = $1`, id).Scan(&periodID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrMovementNotFound
		}
		return fmt.Errorf("failed to read movement period: %w", err)
	}

	if err := lockPeriodForWrite(ctx, dbTx, periodID); err != nil {
		return err
	}

	_, err = dbTx.ExecContext(ctx, `DELETE FROM movements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete movement: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// SumBaseUSDByConcept totals the base USD amounts recorded against a concept
func (r *movementRepository) SumBaseUSDByConcept(ctx context.Context, conceptID uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount_base_usd), 0)
		FROM movements
		WHERE concept_id = $1
	`

	var totalStr string
	if err := r.db.QueryRowContext(ctx, query, conceptID).Scan(&totalStr); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum movements by concept: %w", err)
	}

	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse movement total: %w", err)
	}

	return total, nil
}

// ListByPeriod retrieves all movements belonging to a period, newest first
func (r *movementRepository) ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]*domain.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements
		WHERE period_id = $1
		ORDER BY date DESC, id
	`

	rows, err := r.db.QueryContext(ctx, query, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	defer rows.Close()

	movements := make([]*domain.Movement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate movements: %w", err)
	}

	return movements, nil
}
