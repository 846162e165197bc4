package patrimony

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ncastro/finanzas-backend/internal/domain"
	"github.com/ncastro/finanzas-backend/internal/usecase/ledger"
)

// RegisterAssetInput represents the input for registering an asset
type RegisterAssetInput struct {
	Nombre        string
	Tipo          string
	ValorUsd      decimal.Decimal
	Fecha         time.Time
	EstadoFiscal  string
	Observaciones string
	Financiacion  *FinanciacionInput // optional linked financing
}

// FinanciacionInput describes the financing linked to a new asset.
type FinanciacionInput struct {
	MontoFinanciadoUsd decimal.Decimal
	ValorCuotaUsd      decimal.Decimal
	CuotasTotales      int
}

// NetWorthResult represents the calculated patrimony position
type NetWorthResult struct {
	ActivosUsd decimal.Decimal // sum of current asset values
	DeudaUsd   decimal.Decimal // sum of outstanding liability balances
	NetoUsd    decimal.Decimal
}

// Service handles the asset registry and its linked liabilities. Liability
// balances only move through recorded installment payments, which are
// ordinary ledger movements; the balance is never edited directly.
type Service struct {
	Assets domain.AssetRepository
	Ledger *ledger.Service
}

// NewService creates a new patrimony Service instance
func NewService(assets domain.AssetRepository, ledgerService *ledger.Service) *Service {
	return &Service{
		Assets: assets,
		Ledger: ledgerService,
	}
}

// RegisterAsset creates an asset with its first valuation history entry
// and, when financing is given, the linked liability starting at the full
// financed amount.
func (s *Service) RegisterAsset(ctx context.Context, input RegisterAssetInput) (*domain.Asset, error) {
	if input.Fecha.IsZero() {
		return nil, domain.NewValidationError("fecha", "is required")
	}

	asset := &domain.Asset{
		ID:                   uuid.New(),
		Nombre:               input.Nombre,
		Tipo:                 input.Tipo,
		ValorActualUsd:       input.ValorUsd,
		FechaUltimaValuacion: input.Fecha,
		EstadoFiscal:         input.EstadoFiscal,
		Observaciones:        input.Observaciones,
	}
	if err := asset.Validate(); err != nil {
		return nil, err
	}

	var liability *domain.Liability
	if input.Financiacion != nil {
		liability = &domain.Liability{
			ID:                 uuid.New(),
			AssetID:            asset.ID,
			MontoFinanciadoUsd: input.Financiacion.MontoFinanciadoUsd,
			ValorCuotaUsd:      input.Financiacion.ValorCuotaUsd,
			CuotasTotales:      input.Financiacion.CuotasTotales,
			CuotasRestantes:    input.Financiacion.CuotasTotales,
			SaldoPendienteUsd:  input.Financiacion.MontoFinanciadoUsd,
		}
		if err := liability.Validate(); err != nil {
			return nil, err
		}
	}

	if err := s.Assets.Create(ctx, asset, liability); err != nil {
		return nil, err
	}

	if err := s.Assets.AddValuation(ctx, &domain.AssetValuation{
		ID:       uuid.New(),
		AssetID:  asset.ID,
		Fecha:    input.Fecha,
		ValorUsd: input.ValorUsd,
	}); err != nil {
		return nil, err
	}

	return asset, nil
}

// AddValuation appends a new entry to the asset's valuation history and
// refreshes its current value. History entries are never rewritten.
func (s *Service) AddValuation(ctx context.Context, assetID uuid.UUID, valorUsd decimal.Decimal, fecha time.Time) (*domain.AssetValuation, error) {
	if valorUsd.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("valorUsd", "must be positive")
	}
	if fecha.IsZero() {
		return nil, domain.NewValidationError("fecha", "is required")
	}

	if _, err := s.Assets.GetByID(ctx, assetID); err != nil {
		return nil, err
	}

	valuation := &domain.AssetValuation{
		ID:       uuid.New(),
		AssetID:  assetID,
		Fecha:    fecha,
		ValorUsd: valorUsd,
	}

	if err := s.Assets.AddValuation(ctx, valuation); err != nil {
		return nil, err
	}

	return valuation, nil
}

// RecordInstallmentPayment records one loan installment: it books an
// expense movement for the installment amount in the month of the payment
// date and decrements the liability's remaining installments and
// outstanding balance.
func (s *Service) RecordInstallmentPayment(ctx context.Context, assetID uuid.UUID, fecha time.Time) (*domain.Movement, error) {
	asset, err := s.Assets.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}

	liability, err := s.Assets.GetLiability(ctx, assetID)
	if err != nil {
		return nil, err
	}

	if liability.CuotasRestantes <= 0 {
		return nil, domain.NewValidationError("cuotasRestantes", "liability is already fully paid")
	}

	movement, err := s.Ledger.PrepareMovement(ctx, ledger.AddMovementInput{
		Type:        domain.MovementTypeExpense,
		ConceptName: "Cuota " + asset.Nombre,
		Nature:      domain.NatureFixed,
		Date:        fecha,
		Amount:      liability.ValorCuotaUsd,
		Currency:    domain.CurrencyUSD,
	})
	if err != nil {
		return nil, err
	}

	expected := liability.CuotasRestantes
	liability.CuotasRestantes--
	liability.SaldoPendienteUsd = liability.SaldoPendienteUsd.Sub(liability.ValorCuotaUsd)
	if liability.SaldoPendienteUsd.IsNegative() {
		// The last installment may round past the remaining balance.
		liability.SaldoPendienteUsd = decimal.Zero
	}

	// The movement insert and the liability decrement commit together; a
	// concurrent payment on the same liability fails the whole call with
	// ErrLiabilityConflict and books nothing.
	if err := s.Assets.RecordInstallment(ctx, movement, liability, expected); err != nil {
		return nil, err
	}

	return movement, nil
}

// Valuations returns the asset's append-only valuation history.
func (s *Service) Valuations(ctx context.Context, assetID uuid.UUID) ([]*domain.AssetValuation, error) {
	if _, err := s.Assets.GetByID(ctx, assetID); err != nil {
		return nil, err
	}
	return s.Assets.ListValuations(ctx, assetID)
}

// NetWorth computes the patrimony read model: current asset values minus
// outstanding liability balances.
func (s *Service) NetWorth(ctx context.Context) (*NetWorthResult, error) {
	assets, err := s.Assets.List(ctx)
	if err != nil {
		return nil, err
	}

	activos := decimal.Zero
	for _, a := range assets {
		activos = activos.Add(a.ValorActualUsd)
	}

	liabilities, err := s.Assets.ListLiabilities(ctx)
	if err != nil {
		return nil, err
	}

	deuda := decimal.Zero
	for _, l := range liabilities {
		deuda = deuda.Add(l.SaldoPendienteUsd)
	}

	return &NetWorthResult{
		ActivosUsd: activos,
		DeudaUsd:   deuda,
		NetoUsd:    activos.Sub(deuda),
	}, nil
}

// Liability returns the financing linked to an asset, or nil when the
// asset is unfinanced.
func (s *Service) Liability(ctx context.Context, assetID uuid.UUID) (*domain.Liability, error) {
	l, err := s.Assets.GetLiability(ctx, assetID)
	if err != nil {
		if errors.Is(err, domain.ErrLiabilityNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return l, nil
}
