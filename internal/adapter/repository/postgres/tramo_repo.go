package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ncastro/finanzas-backend/internal/domain"
)

// tramoRepository implements domain.TramoRepository
type tramoRepository struct {
	db *DB
}

// NewTramoRepository creates a new tramo repository
func NewTramoRepository(db *DB) domain.TramoRepository {
	return &tramoRepository{db: db}
}

const tramoColumns = `id, fund_id, fecha_inicio, fecha_fin, instrumento, rendimiento_esperado, inflacion_asumida, aporte_mensual`

func scanTramo(row interface{ Scan(...interface{}) error }) (*domain.Tramo, error) {
	var t domain.Tramo
	var fechaFin sql.NullTime
	var rendimientoStr, inflacionStr, aporteStr string

	err := row.Scan(
		&t.ID,
		&t.FundID,
		&t.FechaInicio,
		&fechaFin,
		&t.Instrumento,
		&rendimientoStr,
		&inflacionStr,
		&aporteStr,
	)
	if err != nil {
		return nil, err
	}

	if fechaFin.Valid {
		f := fechaFin.Time
		t.FechaFin = &f
	}

	rendimiento, err := decimal.NewFromString(rendimientoStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rendimiento_esperado: %w", err)
	}
	t.RendimientoEsperado = rendimiento

	inflacion, err := decimal.NewFromString(inflacionStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse inflacion_asumida: %w", err)
	}
	t.InflacionAsumida = inflacion

	aporte, err := decimal.NewFromString(aporteStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse aporte_mensual: %w", err)
	}
	t.AporteMensual = aporte

	return &t, nil
}

// ListByFund retrieves a fund's tramos ordered by start date
func (r *tramoRepository) ListByFund(ctx context.Context, fundID uuid.UUID) ([]*domain.Tramo, error) {
	query := `
		SELECT ` + tramoColumns + `
		FROM tramos
		WHERE fund_id = $1
		ORDER BY fecha_inicio
	`

	rows, err := r.db.QueryContext(ctx, query, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tramos: %w", err)
	}
	defer rows.Close()

	tramos := make([]*domain.Tramo, 0)
	for rows.Next() {
		t, err := scanTramo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tramo: %w", err)
		}
		tramos = append(tramos, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tramos: %w", err)
	}

	return tramos, nil
}

// Append closes the previous tramo and inserts the new one in a single
// database transaction, so the sequence never shows a gap or two open tramos
func (r *tramoRepository) Append(ctx context.Context, prevID *uuid.UUID, fechaFin time.Time, nuevo *domain.Tramo) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if prevID != nil {
		closeQuery := `
			UPDATE tramos
			SET fecha_fin = $1
			WHERE id = $2 AND fecha_fin IS NULL
		`

		result, err := dbTx.ExecContext(ctx, closeQuery, fechaFin, *prevID)
		if err != nil {
			return fmt.Errorf("failed to close previous tramo: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: previous tramo %s is already closed", domain.ErrTramoSequence, *prevID)
		}
	}

	insertQuery := `
		INSERT INTO tramos (id, fund_id, fecha_inicio, fecha_fin, instrumento, rendimiento_esperado, inflacion_asumida, aporte_mensual)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = dbTx.ExecContext(ctx, insertQuery,
		nuevo.ID,
		nuevo.FundID,
		nuevo.FechaInicio,
		nuevo.FechaFin,
		nuevo.Instrumento,
		nuevo.RendimientoEsperado.String(),
		nuevo.InflacionAsumida.String(),
		nuevo.AporteMensual.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert tramo: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
