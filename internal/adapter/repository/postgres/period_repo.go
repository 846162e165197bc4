package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ncastro/finanzas-backend/internal/domain"
)

// periodRepository implements domain.PeriodRepository
type periodRepository struct {
	db *DB
}

// NewPeriodRepository creates a new period repository
func NewPeriodRepository(db *DB) domain.PeriodRepository {
	return &periodRepository{db: db}
}

const periodColumns = `id, year, month, status, opened_at, closed_at`

func scanPeriod(row interface{ Scan(...interface{}) error }) (*domain.Period, error) {
	var p domain.Period
	var closedAt sql.NullTime

	err := row.Scan(&p.ID, &p.Year, &p.Month, &p.Status, &p.OpenedAt, &closedAt)
	if err != nil {
		return nil, err
	}

	if closedAt.Valid {
		t := closedAt.Time
		p.ClosedAt = &t
	}

	return &p, nil
}

// GetByID retrieves a period by its ID
func (r *periodRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Period, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM periods
		WHERE id = $1
	`

	p, err := scanPeriod(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPeriodNotFound
		}
		return nil, fmt.Errorf("failed to get period by ID: %w", err)
	}

	return p, nil
}

// GetByYearMonth retrieves the period for a calendar month
func (r *periodRepository) GetByYearMonth(ctx context.Context, year, month int) (*domain.Period, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM periods
		WHERE year = $1 AND month = $2
	`

	p, err := scanPeriod(r.db.QueryRowContext(ctx, query, year, month))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPeriodNotFound
		}
		return nil, fmt.Errorf("failed to get period %04d-%02d: %w", year, month, err)
	}

	return p, nil
}

// Create creates a new period
func (r *periodRepository) Create(ctx context.Context, period *domain.Period) error {
	query := `
		INSERT INTO periods (id, year, month, status, opened_at, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		period.ID,
		period.Year,
		period.Month,
		string(period.Status),
		period.OpenedAt,
		period.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create period: %w", err)
	}

	return nil
}

// UpdateStatus transitions a period's status as a compare-and-set. When the
// stored status no longer matches from, no row is affected and the caller
// gets ErrPeriodTransition, so concurrent transitions resolve to one winner.
func (r *periodRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.PeriodStatus, closedAt *time.Time) error {
	query := `
		UPDATE periods
		SET status = $1, closed_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.db.ExecContext(ctx, query, string(to), closedAt, id, string(from))
	if err != nil {
		return fmt.Errorf("failed to update period status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: period %s is no longer %s", domain.ErrPeriodTransition, id, from)
	}

	return nil
}

// ListUnclosedBefore retrieves periods strictly before year/month that are
// not yet CLOSED, ordered chronologically
func (r *periodRepository) ListUnclosedBefore(ctx context.Context, year, month int) ([]*domain.Period, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM periods
		WHERE (year < $1 OR (year = $1 AND month < $2)) AND status != $3
		ORDER BY year, month
	`

	rows, err := r.db.QueryContext(ctx, query, year, month, string(domain.PeriodStatusClosed))
	if err != nil {
		return nil, fmt.Errorf("failed to list unclosed periods: %w", err)
	}
	defer rows.Close()

	periods := make([]*domain.Period, 0)
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		periods = append(periods, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate periods: %w", err)
	}

	return periods, nil
}
