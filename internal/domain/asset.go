package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Asset represents a durable good tracked in the patrimony registry.
// ValorActualUsd mirrors the latest entry of its append-only valuation
// history.
type Asset struct {
	ID                   uuid.UUID
	Nombre               string
	Tipo                 string
	ValorActualUsd       decimal.Decimal
	FechaUltimaValuacion time.Time
	EstadoFiscal         string
	Observaciones        string
}

// Validate ensures the asset adheres to domain rules
func (a *Asset) Validate() error {
	if a.Nombre == "" {
		return NewValidationError("nombre", "cannot be empty")
	}

	if a.Tipo == "" {
		return NewValidationError("tipo", "cannot be empty")
	}

	if a.ValorActualUsd.LessThanOrEqual(decimal.Zero) {
		return NewValidationError("valorActualUsd", "must be positive")
	}

	return nil
}

// AssetValuation is one entry of an asset's append-only valuation history.
type AssetValuation struct {
	ID       uuid.UUID
	AssetID  uuid.UUID
	Fecha    time.Time
	ValorUsd decimal.Decimal
}

// Liability represents the optional financing linked one-to-one with an
// asset. SaldoPendienteUsd decreases only through recorded installment
// payments, never by direct edit.
type Liability struct {
	ID                 uuid.UUID
	AssetID            uuid.UUID
	MontoFinanciadoUsd decimal.Decimal
	ValorCuotaUsd      decimal.Decimal
	CuotasTotales      int
	CuotasRestantes    int
	SaldoPendienteUsd  decimal.Decimal
}

// Validate ensures the liability adheres to domain rules
func (l *Liability) Validate() error {
	if l.AssetID == uuid.Nil {
		return NewValidationError("assetId", "is required")
	}

	if l.MontoFinanciadoUsd.LessThanOrEqual(decimal.Zero) {
		return NewValidationError("montoFinanciadoUsd", "must be positive")
	}

	if l.ValorCuotaUsd.LessThanOrEqual(decimal.Zero) {
		return NewValidationError("valorCuotaUsd", "must be positive")
	}

	if l.CuotasTotales <= 0 {
		return NewValidationError("cuotasTotales", "must be positive")
	}

	if l.CuotasRestantes < 0 || l.CuotasRestantes > l.CuotasTotales {
		return NewValidationError("cuotasRestantes", "must be between 0 and cuotasTotales")
	}

	if l.SaldoPendienteUsd.LessThan(decimal.Zero) {
		return NewValidationError("saldoPendienteUsd", "cannot be negative")
	}

	return nil
}
