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

// assetRepository implements domain.AssetRepository
type assetRepository struct {
	db *DB
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(db *DB) domain.AssetRepository {
	return &assetRepository{db: db}
}

const assetColumns = `id, nombre, tipo, valor_actual_usd, fecha_ultima_valuacion, estado_fiscal, observaciones`

func scanAsset(row interface{ Scan(...interface{}) error }) (*domain.Asset, error) {
	var a domain.Asset
	var valorStr string

	err := row.Scan(
		&a.ID,
		&a.Nombre,
		&a.Tipo,
		&valorStr,
		&a.FechaUltimaValuacion,
		&a.EstadoFiscal,
		&a.Observaciones,
	)
	if err != nil {
		return nil, err
	}

	valor, err := decimal.NewFromString(valorStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse valor_actual_usd: %w", err)
	}
	a.ValorActualUsd = valor

	return &a, nil
}

func scanLiability(row interface{ Scan(...interface{}) error }) (*domain.Liability, error) {
	var l domain.Liability
	var montoStr, cuotaStr, saldoStr string

	err := row.Scan(
		&l.ID,
		&l.AssetID,
		&montoStr,
		&cuotaStr,
		&l.CuotasTotales,
		&l.CuotasRestantes,
		&saldoStr,
	)
	if err != nil {
		return nil, err
	}

	monto, err := decimal.NewFromString(montoStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse monto_financiado_usd: %w", err)
	}
	l.MontoFinanciadoUsd = monto

	cuota, err := decimal.NewFromString(cuotaStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse valor_cuota_usd: %w", err)
	}
	l.ValorCuotaUsd = cuota

	saldo, err := decimal.NewFromString(saldoStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse saldo_pendiente_usd: %w", err)
	}
	l.SaldoPendienteUsd = saldo

	return &l, nil
}

// GetByID retrieves an asset by its ID
func (r *assetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	query := `
		SELECT ` + assetColumns + `
		FROM assets
		WHERE id = $1
	`

	a, err := scanAsset(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to get asset by ID: %w", err)
	}

	return a, nil
}

// Create creates an asset and, when present, its financing liability in a
// single database transaction
func (r *assetRepository) Create(ctx context.Context, asset *domain.Asset, liability *domain.Liability) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	insertAssetQuery := `
		INSERT INTO assets (id, nombre, tipo, valor_actual_usd, fecha_ultima_valuacion, estado_fiscal, observaciones)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = dbTx.ExecContext(ctx, insertAssetQuery,
		asset.ID,
		asset.Nombre,
		asset.Tipo,
		asset.ValorActualUsd.String(),
		asset.FechaUltimaValuacion,
		asset.EstadoFiscal,
		asset.Observaciones,
	)
	if err != nil {
		return fmt.Errorf("failed to insert asset: %w", err)
	}

	if liability != nil {
		insertLiabilityQuery := `
			INSERT INTO liabilities (id, asset_id, monto_financiado_usd, valor_cuota_usd, cuotas_totales, cuotas_restantes, saldo_pendiente_usd)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`

		_, err = dbTx.ExecContext(ctx, insertLiabilityQuery,
			liability.ID,
			liability.AssetID,
			liability.MontoFinanciadoUsd.String(),
			liability.ValorCuotaUsd.String(),
			liability.CuotasTotales,
			liability.CuotasRestantes,
			liability.SaldoPendienteUsd.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert liability: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// List retrieves all assets ordered by name
func (r *assetRepository) List(ctx context.Context) ([]*domain.Asset, error) {
	query := `
		SELECT ` + assetColumns + `
		FROM assets
		ORDER BY nombre
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	assets := make([]*domain.Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assets: %w", err)
	}

	return assets, nil
}

// AddValuation appends a valuation history entry and refreshes the asset's
// current value and valuation date in the same database transaction
func (r *assetRepository) AddValuation(ctx context.Context, valuation *domain.AssetValuation) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	insertQuery := `
		INSERT INTO asset_valuations (id, asset_id, fecha, valor_usd)
		VALUES ($1, $2, $3, $4)
	`

	_, err = dbTx.ExecContext(ctx, insertQuery,
		valuation.ID,
		valuation.AssetID,
		valuation.Fecha,
		valuation.ValorUsd.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert asset valuation: %w", err)
	}

	updateQuery := `
		UPDATE assets
		SET valor_actual_usd = $1, fecha_ultima_valuacion = $2
		WHERE id = $3
	`

	result, err := dbTx.ExecContext(ctx, updateQuery,
		valuation.ValorUsd.String(),
		valuation.Fecha,
		valuation.AssetID,
	)
	if err != nil {
		return fmt.Errorf("failed to update asset current value: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrAssetNotFound
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListValuations retrieves an asset's valuation history, newest first
func (r *assetRepository) ListValuations(ctx context.Context, assetID uuid.UUID) ([]*domain.AssetValuation, error) {
	query := `
		SELECT id, asset_id, fecha, valor_usd
		FROM asset_valuations
		WHERE asset_id = $1
		ORDER BY fecha DESC
	`

	rows, err := r.db.QueryContext(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list asset valuations: %w", err)
	}
	defer rows.Close()

	valuations := make([]*domain.AssetValuation, 0)
	for rows.Next() {
		var v domain.AssetValuation
		var valorStr string

		if err := rows.Scan(&v.ID, &v.AssetID, &v.Fecha, &valorStr); err != nil {
			return nil, fmt.Errorf("failed to scan asset valuation: %w", err)
		}

		valor, err := decimal.NewFromString(valorStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse valor_usd: %w", err)
		}
		v.ValorUsd = valor

		valuations = append(valuations, &v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate asset valuations: %w", err)
	}

	return valuations, nil
}

const liabilityColumns = `id, asset_id, monto_financiado_usd, valor_cuota_usd, cuotas_totales, cuotas_restantes, saldo_pendiente_usd`

// GetLiability retrieves the financing liability attached to an asset
func (r *assetRepository) GetLiability(ctx context.Context, assetID uuid.UUID) (*domain.Liability, error) {
	query := `
		SELECT ` + liabilityColumns + `
		FROM liabilities
		WHERE asset_id = $1
	`

	l, err := scanLiability(r.db.QueryRowContext(ctx, query, assetID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLiabilityNotFound
		}
		return nil, fmt.Errorf("failed to get liability: %w", err)
	}

	return l, nil
}

// RecordInstallment books the installment's expense movement and moves the
// liability's counters in a single database transaction. The period lock
// serializes the movement write against a concurrent close, and the
// cuotas_restantes guard serializes payments against each other: the loser
// of a race affects zero rows and nothing is committed.
func (r *assetRepository) RecordInstallment(ctx context.Context, movement *domain.Movement, liability *domain.Liability, expectedRestantes int) error {
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

	query := `
		UPDATE liabilities
		SET cuotas_restantes = $1, saldo_pendiente_usd = $2
		WHERE id = $3 AND cuotas_restantes = $4
	`

	result, err := dbTx.ExecContext(ctx, query,
		liability.CuotasRestantes,
		liability.SaldoPendienteUsd.String(),
		liability.ID,
		expectedRestantes,
	)
	if err != nil {
		return fmt.Errorf("failed to update liability: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: liability %s no longer has %d installments remaining",
			domain.ErrLiabilityConflict, liability.ID, expectedRestantes)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListLiabilities retrieves all financing liabilities
func (r *assetRepository) ListLiabilities(ctx context.Context) ([]*domain.Liability, error) {
	query := `
		SELECT ` + liabilityColumns + `
		FROM liabilities
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list liabilities: %w", err)
	}
	defer rows.Close()

	liabilities := make([]*domain.Liability, 0)
	for rows.Next() {
		l, err := scanLiability(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan liability: %w", err)
		}
		liabilities = append(liabilities, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate liabilities: %w", err)
	}

	return liabilities, nil
}
