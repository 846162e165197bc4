package patrimony

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ncastro/finanzas-backend/internal/domain"
	"github.com/ncastro/finanzas-backend/internal/usecase/ledger"
	"github.com/ncastro/finanzas-backend/internal/usecase/period"
)

// MockAssetRepository is a mock implementation of AssetRepository for testing
type MockAssetRepository struct {
	mock.Mock
}

func (m *MockAssetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}

func (m *MockAssetRepository) Create(ctx context.Context, asset *domain.Asset, liability *domain.Liability) error {
	args := m.Called(ctx, asset, liability)
	return args.Error(0)
}

func (m *MockAssetRepository) List(ctx context.Context) ([]*domain.Asset, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Asset), args.Error(1)
}

func (m *MockAssetRepository) AddValuation(ctx context.Context, valuation *domain.AssetValuation) error {
	args := m.Called(ctx, valuation)
	return args.Error(0)
}

func (m *MockAssetRepository) ListValuations(ctx context.Context, assetID uuid.UUID) ([]*domain.AssetValuation, error) {
	args := m.Called(ctx, assetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AssetValuation), args.Error(1)
}

func (m *MockAssetRepository) GetLiability(ctx context.Context, assetID uuid.UUID) (*domain.Liability, error) {
	args := m.Called(ctx, assetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Liability), args.Error(1)
}

func (m *MockAssetRepository) RecordInstallment(ctx context.Context, movement *domain.Movement, liability *domain.Liability, expectedRestantes int) error {
	args := m.Called(ctx, movement, liability, expectedRestantes)
	return args.Error(0)
}

func (m *MockAssetRepository) ListLiabilities(ctx context.Context) ([]*domain.Liability, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Liability), args.Error(1)
}

// MockMovementRepository is a mock implementation of MovementRepository for testing
type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Movement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movement), args.Error(1)
}

func (m *MockMovementRepository) Create(ctx context.Context, movement *domain.Movement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

func (m *MockMovementRepository) Update(ctx context.Context, movement *domain.Movement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

func (m *MockMovementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMovementRepository) ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]*domain.Movement, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Movement), args.Error(1)
}

func (m *MockMovementRepository) SumBaseUSDByConcept(ctx context.Context, conceptID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, conceptID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockConceptRepository is a mock implementation of ConceptRepository for testing
type MockConceptRepository struct {
	mock.Mock
}

func (m *MockConceptRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Concept, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Concept), args.Error(1)
}

func (m *MockConceptRepository) GetByNameAndType(ctx context.Context, name string, movementType domain.MovementType) (*domain.Concept, error) {
	args := m.Called(ctx, name, movementType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Concept), args.Error(1)
}

func (m *MockConceptRepository) Create(ctx context.Context, concept *domain.Concept) error {
	args := m.Called(ctx, concept)
	return args.Error(0)
}

func (m *MockConceptRepository) UpdateNature(ctx context.Context, id uuid.UUID, nature domain.ConceptNature) error {
	args := m.Called(ctx, id, nature)
	return args.Error(0)
}

func (m *MockConceptRepository) List(ctx context.Context, typeFilter domain.MovementType) ([]*domain.Concept, error) {
	args := m.Called(ctx, typeFilter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Concept), args.Error(1)
}

// MockPeriodRepository is a mock implementation of PeriodRepository for testing
type MockPeriodRepository struct {
	mock.Mock
}

func (m *MockPeriodRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Period, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Period), args.Error(1)
}

func (m *MockPeriodRepository) GetByYearMonth(ctx context.Context, year, month int) (*domain.Period, error) {
	args := m.Called(ctx, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Period), args.Error(1)
}

func (m *MockPeriodRepository) Create(ctx context.Context, p *domain.Period) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPeriodRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.PeriodStatus, closedAt *time.Time) error {
	args := m.Called(ctx, id, from, to, closedAt)
	return args.Error(0)
}

func (m *MockPeriodRepository) ListUnclosedBefore(ctx context.Context, year, month int) ([]*domain.Period, error) {
	args := m.Called(ctx, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Period), args.Error(1)
}

func newTestService() (*Service, *MockAssetRepository, *MockMovementRepository, *MockConceptRepository, *MockPeriodRepository) {
	assets := new(MockAssetRepository)
	movements := new(MockMovementRepository)
	concepts := new(MockConceptRepository)
	periods := new(MockPeriodRepository)
	ledgerService := ledger.NewService(movements, concepts, period.NewService(periods))
	return NewService(assets, ledgerService), assets, movements, concepts, periods
}

func TestRegisterAsset_WithFinancing(t *testing.T) {
	ctx := context.Background()
	service, assets, _, _, _ := newTestService()

	assets.On("Create", ctx, mock.MatchedBy(func(a *domain.Asset) bool {
		return a.Nombre == "Auto" && a.ValorActualUsd.Equal(decimal.NewFromInt(15000))
	}), mock.MatchedBy(func(l *domain.Liability) bool {
		return l != nil &&
			l.CuotasRestantes == 48 &&
			l.SaldoPendienteUsd.Equal(decimal.NewFromInt(12000))
	})).Return(nil)
	assets.On("AddValuation", ctx, mock.MatchedBy(func(v *domain.AssetValuation) bool {
		return v.ValorUsd.Equal(decimal.NewFromInt(15000))
	})).Return(nil)

	asset, err := service.RegisterAsset(ctx, RegisterAssetInput{
		Nombre:   "Auto",
		Tipo:     "vehiculo",
		ValorUsd: decimal.NewFromInt(15000),
		Fecha:    time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		Financiacion: &FinanciacionInput{
			MontoFinanciadoUsd: decimal.NewFromInt(12000),
			ValorCuotaUsd:      decimal.NewFromInt(250),
			CuotasTotales:      48,
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, "Auto", asset.Nombre)
	assets.AssertExpectations(t)
}

func TestRegisterAsset_WithoutFinancing(t *testing.T) {
	ctx := context.Background()
	service, assets, _, _, _ := newTestService()

	assets.On("Create", ctx, mock.Anything, (*domain.Liability)(nil)).Return(nil)
	assets.On("AddValuation", ctx, mock.Anything).Return(nil)

	_, err := service.RegisterAsset(ctx, RegisterAssetInput{
		Nombre:   "Depto",
		Tipo:     "inmueble",
		ValorUsd: decimal.NewFromInt(80000),
		Fecha:    time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	})

	assert.NoError(t, err)
	assets.AssertExpectations(t)
}

func TestAddValuation_AppendsHistory(t *testing.T) {
	ctx := context.Background()
	service, assets, _, _, _ := newTestService()

	assetID := uuid.New()
	assets.On("GetByID", ctx, assetID).Return(&domain.Asset{ID: assetID, Nombre: "Auto", Tipo: "vehiculo", ValorActualUsd: decimal.NewFromInt(15000)}, nil)
	assets.On("AddValuation", ctx, mock.MatchedBy(func(v *domain.AssetValuation) bool {
		return v.AssetID == assetID && v.ValorUsd.Equal(decimal.NewFromInt(14000))
	})).Return(nil)

	v, err := service.AddValuation(ctx, assetID, decimal.NewFromInt(14000), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	assert.NoError(t, err)
	assert.True(t, v.ValorUsd.Equal(decimal.NewFromInt(14000)))
}

func TestAddValuation_NonPositiveRejected(t *testing.T) {
	ctx := context.Background()
	service, assets, _, _, _ := newTestService()

	_, err := service.AddValuation(ctx, uuid.New(), decimal.Zero, time.Now())

	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assets.AssertNotCalled(t, "AddValuation")
}

func TestRecordInstallmentPayment(t *testing.T) {
	ctx := context.Background()
	service, assets, movements, concepts, periods := newTestService()

	assetID := uuid.New()
	asset := &domain.Asset{ID: assetID, Nombre: "Auto", Tipo: "vehiculo", ValorActualUsd: decimal.NewFromInt(15000)}
	liability := &domain.Liability{
		ID:                 uuid.New(),
		AssetID:            assetID,
		MontoFinanciadoUsd: decimal.NewFromInt(12000),
		ValorCuotaUsd:      decimal.NewFromInt(250),
		CuotasTotales:      48,
		CuotasRestantes:    10,
		SaldoPendienteUsd:  decimal.NewFromInt(2500),
	}
	concept := &domain.Concept{ID: uuid.New(), Name: "Cuota Auto", Type: domain.MovementTypeExpense, Nature: domain.NatureFixed}
	p := &domain.Period{ID: uuid.New(), Year: 2024, Month: 5, Status: domain.PeriodStatusOpen, OpenedAt: time.Now()}

	assets.On("GetByID", ctx, assetID).Return(asset, nil)
	assets.On("GetLiability", ctx, assetID).Return(liability, nil)
	concepts.On("GetByNameAndType", ctx, "Cuota Auto", domain.MovementTypeExpense).Return(concept, nil)
	periods.On("GetByYearMonth", ctx, 2024, 5).Return(p, nil)
	assets.On("RecordInstallment", ctx, mock.MatchedBy(func(m *domain.Movement) bool {
		return m.Type == domain.MovementTypeExpense && m.AmountBaseUSD.Equal(decimal.NewFromInt(250))
	}), mock.MatchedBy(func(l *domain.Liability) bool {
		return l.CuotasRestantes == 9 && l.SaldoPendienteUsd.Equal(decimal.NewFromInt(2250))
	}), 10).Return(nil)

	movement, err := service.RecordInstallmentPayment(ctx, assetID, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))

	assert.NoError(t, err)
	assert.True(t, movement.AmountBaseUSD.Equal(decimal.NewFromInt(250)))
	// The movement must only be persisted through the combined installment
	// write, never through the plain movement path.
	movements.AssertNotCalled(t, "Create")
	assets.AssertExpectations(t)
}

func TestRecordInstallmentPayment_ConcurrentConflict(t *testing.T) {
	ctx := context.Background()
	service, assets, movements, concepts, periods := newTestService()

	assetID := uuid.New()
	assets.On("GetByID", ctx, assetID).Return(&domain.Asset{ID: assetID, Nombre: "Auto", Tipo: "vehiculo", ValorActualUsd: decimal.NewFromInt(15000)}, nil)
	assets.On("GetLiability", ctx, assetID).Return(&domain.Liability{
		ID: uuid.New(), AssetID: assetID, MontoFinanciadoUsd: decimal.NewFromInt(12000),
		ValorCuotaUsd: decimal.NewFromInt(250), CuotasTotales: 48,
		CuotasRestantes: 10, SaldoPendienteUsd: decimal.NewFromInt(2500),
	}, nil)
	concepts.On("GetByNameAndType", ctx, "Cuota Auto", domain.MovementTypeExpense).Return(&domain.Concept{
		ID: uuid.New(), Name: "Cuota Auto", Type: domain.MovementTypeExpense, Nature: domain.NatureFixed,
	}, nil)
	periods.On("GetByYearMonth", ctx, 2024, 5).Return(&domain.Period{
		ID: uuid.New(), Year: 2024, Month: 5, Status: domain.PeriodStatusOpen, OpenedAt: time.Now(),
	}, nil)
	assets.On("RecordInstallment", ctx, mock.Anything, mock.Anything, 10).Return(domain.ErrLiabilityConflict)

	_, err := service.RecordInstallmentPayment(ctx, assetID, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))

	assert.ErrorIs(t, err, domain.ErrLiabilityConflict)
	movements.AssertNotCalled(t, "Create")
}

func TestRecordInstallmentPayment_FullyPaidRejected(t *testing.T) {
	ctx := context.Background()
	service, assets, movements, _, _ := newTestService()

	assetID := uuid.New()
	assets.On("GetByID", ctx, assetID).Return(&domain.Asset{ID: assetID, Nombre: "Auto", Tipo: "vehiculo", ValorActualUsd: decimal.NewFromInt(15000)}, nil)
	assets.On("GetLiability", ctx, assetID).Return(&domain.Liability{
		AssetID: assetID, MontoFinanciadoUsd: decimal.NewFromInt(12000),
		ValorCuotaUsd: decimal.NewFromInt(250), CuotasTotales: 48,
		CuotasRestantes: 0, SaldoPendienteUsd: decimal.Zero,
	}, nil)

	_, err := service.RecordInstallmentPayment(ctx, assetID, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))

	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)
	movements.AssertNotCalled(t, "Create")
	assets.AssertNotCalled(t, "RecordInstallment")
}

func TestNetWorth(t *testing.T) {
	ctx := context.Background()
	service, assets, _, _, _ := newTestService()

	assets.On("List", ctx).Return([]*domain.Asset{
		{ID: uuid.New(), ValorActualUsd: decimal.NewFromInt(15000)},
		{ID: uuid.New(), ValorActualUsd: decimal.NewFromInt(80000)},
	}, nil)
	assets.On("ListLiabilities", ctx).Return([]*domain.Liability{
		{ID: uuid.New(), SaldoPendienteUsd: decimal.NewFromInt(2500)},
	}, nil)

	result, err := service.NetWorth(ctx)

	assert.NoError(t, err)
	assert.True(t, decimal.NewFromInt(95000).Equal(result.ActivosUsd))
	assert.True(t, decimal.NewFromInt(2500).Equal(result.DeudaUsd))
	assert.True(t, decimal.NewFromInt(92500).Equal(result.NetoUsd))
}

func TestLiability_UnfinancedAssetReturnsNil(t *testing.T) {
	ctx := context.Background()
	service, assets, _, _, _ := newTestService()

	assetID := uuid.New()
	assets.On("GetLiability", ctx, assetID).Return(nil, domain.ErrLiabilityNotFound)

	l, err := service.Liability(ctx, assetID)

	assert.NoError(t, err)
	assert.Nil(t, l)
}
