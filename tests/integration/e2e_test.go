//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/ncastro/finanzas-backend/internal/adapter/http"
	"github.com/ncastro/finanzas-backend/internal/adapter/repository/postgres"
	"github.com/ncastro/finanzas-backend/internal/usecase/ledger"
	"github.com/ncastro/finanzas-backend/internal/usecase/patrimony"
	"github.com/ncastro/finanzas-backend/internal/usecase/period"
	"github.com/ncastro/finanzas-backend/internal/usecase/projection"
)

const testToken = "integration-test-token"

var (
	db  *postgres.DB
	app *fiber.App
)

// TestMain sets up the test environment
func TestMain(m *testing.M) {
	ctx := context.Background()

	// 1. Connect to Database
	dbConnStr := getDBConnectionString()
	var err error
	db, err = postgres.NewDB(dbConnStr)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}
	defer db.Close()

	// 2. Self-Healing Setup: create the schema if it doesn't exist and
	// start from clean tables
	if err := setupSchema(ctx, db); err != nil {
		panic(fmt.Sprintf("Failed to setup schema: %v", err))
	}

	// 3. Wire the full stack in-process and exercise it through the
	// fiber app, same as a real client would
	periodRepo := postgres.NewPeriodRepository(db)
	movementRepo := postgres.NewMovementRepository(db)
	conceptRepo := postgres.NewConceptRepository(db)
	tramoRepo := postgres.NewTramoRepository(db)
	assetRepo := postgres.NewAssetRepository(db)

	periodService := period.NewService(periodRepo)
	ledgerService := ledger.NewService(movementRepo, conceptRepo, periodService)
	projectionService := projection.NewService(tramoRepo, ledgerService)
	patrimonyService := patrimony.NewService(assetRepo, ledgerService)

	app = fiber.New()
	app.Use(httpadapter.AuthMiddleware(testToken))
	server := httpadapter.NewServer(ledgerService, periodService, projectionService, patrimonyService)
	server.RegisterRoutes(app)

	// Run tests
	code := m.Run()

	os.Exit(code)
}

func getDBConnectionString() string {
	if connStr := os.Getenv("TEST_DB_CONN_STR"); connStr != "" {
		return connStr
	}

	host := envOrDefault("TEST_DB_HOST", "localhost")
	port := envOrDefault("TEST_DB_PORT", "5432")
	user := envOrDefault("TEST_DB_USER", "postgres")
	password := envOrDefault("TEST_DB_PASSWORD", "postgres")
	dbname := envOrDefault("TEST_DB_NAME", "finanzas_test")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setupSchema(ctx context.Context, db *postgres.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS periods (
			id UUID PRIMARY KEY,
			year INT NOT NULL,
			month INT NOT NULL,
			status TEXT NOT NULL,
			opened_at TIMESTAMPTZ NOT NULL,
			closed_at TIMESTAMPTZ,
			UNIQUE (year, month)
		)`,
		`CREATE TABLE IF NOT EXISTS concepts (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			nature TEXT NOT NULL,
			UNIQUE (name, type)
		)`,
		`CREATE TABLE IF NOT EXISTS movements (
			id UUID PRIMARY KEY,
			type TEXT NOT NULL,
			concept_id UUID NOT NULL REFERENCES concepts(id),
			nature TEXT NOT NULL,
			date DATE NOT NULL,
			amount_base_usd DECIMAL NOT NULL,
			original_currency TEXT NOT NULL,
			exchange_rate_snapshot DECIMAL,
			status TEXT NOT NULL,
			period_id UUID NOT NULL REFERENCES periods(id)
		)`,
		`CREATE TABLE IF NOT EXISTS tramos (
			id UUID PRIMARY KEY,
			fund_id UUID NOT NULL,
			fecha_inicio DATE NOT NULL,
			fecha_fin DATE,
			instrumento TEXT NOT NULL,
			rendimiento_esperado DECIMAL NOT NULL,
			inflacion_asumida DECIMAL NOT NULL,
			aporte_mensual DECIMAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS assets (
			id UUID PRIMARY KEY,
			nombre TEXT NOT NULL,
			tipo TEXT NOT NULL,
			valor_actual_usd DECIMAL NOT NULL,
			fecha_ultima_valuacion DATE NOT NULL,
			estado_fiscal TEXT NOT NULL,
			observaciones TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS asset_valuations (
			id UUID PRIMARY KEY,
			asset_id UUID NOT NULL REFERENCES assets(id),
			fecha DATE NOT NULL,
			valor_usd DECIMAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS liabilities (
			id UUID PRIMARY KEY,
			asset_id UUID NOT NULL REFERENCES assets(id),
			monto_financiado_usd DECIMAL NOT NULL,
			valor_cuota_usd DECIMAL NOT NULL,
			cuotas_totales INT NOT NULL,
			cuotas_restantes INT NOT NULL,
			saldo_pendiente_usd DECIMAL NOT NULL
		)`,
		`TRUNCATE movements, liabilities, asset_valuations, assets, tramos, concepts, periods CASCADE`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

// doRequest sends an authenticated JSON request through the fiber app and
// decodes the response body into out when it is non-nil.
func doRequest(t *testing.T, method, path string, body interface{}, out interface{}) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", testToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		if len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, out), "body: %s", raw)
		}
	}

	return resp.StatusCode
}

func TestE2E_AuthRejected(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/networth", nil)
	req.Header.Set("Authorization", "wrong-token")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestE2E_MovementLifecycle(t *testing.T) {
	// Record an ARS expense: 100000 ARS at rate 1000 must store 100 USD
	var movement map[string]interface{}
	status := doRequest(t, "POST", "/api/v1/movements", map[string]interface{}{
		"type":        "EXPENSE",
		"conceptName": "Supermercado E2E",
		"nature":      "VARIABLE",
		"date":        "2026-03-10",
		"amount":      "100000",
		"currency":    "ARS",
		"rate":        "1000",
		"status":      "PAID",
	}, &movement)
	require.Equal(t, fiber.StatusCreated, status)

	assert.Equal(t, "100", movement["amountBaseUsd"])
	assert.Equal(t, "ARS", movement["originalCurrency"])
	assert.Equal(t, "1000", movement["exchangeRateSnapshot"])

	movementID := movement["id"].(string)

	// Record a USD income in the same month
	status = doRequest(t, "POST", "/api/v1/movements", map[string]interface{}{
		"type":        "INCOME",
		"conceptName": "Sueldo E2E",
		"nature":      "FIXED",
		"date":        "2026-03-01",
		"amount":      "1500",
		"currency":    "USD",
		"status":      "PENDING", // income is always stored as PAID
	}, &movement)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "PAID", movement["status"])

	// Month summary reflects both movements
	var summary map[string]interface{}
	status = doRequest(t, "GET", "/api/v1/periods/2026/3", nil, &summary)
	require.Equal(t, fiber.StatusOK, status)

	assert.Equal(t, "OPEN", summary["status"])
	assert.Equal(t, "1400", summary["netResultUsd"])
	assert.Equal(t, "1500", summary["incomeTotalUsd"])
	assert.Equal(t, "100", summary["expenseTotalUsd"])

	// Toggle the expense back and forth
	var toggled map[string]interface{}
	status = doRequest(t, "POST", "/api/v1/movements/"+movementID+"/toggle", nil, &toggled)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "PENDING", toggled["status"])

	// Delete it
	status = doRequest(t, "DELETE", "/api/v1/movements/"+movementID, nil, nil)
	require.Equal(t, fiber.StatusNoContent, status)

	status = doRequest(t, "DELETE", "/api/v1/movements/"+movementID, nil, nil)
	require.Equal(t, fiber.StatusNotFound, status)
}

func TestE2E_PeriodCloseFlow(t *testing.T) {
	// Create a movement so the period exists
	status := doRequest(t, "POST", "/api/v1/movements", map[string]interface{}{
		"type":        "EXPENSE",
		"conceptName": "Servicios E2E",
		"nature":      "FIXED",
		"date":        "2026-04-05",
		"amount":      "50",
		"currency":    "USD",
		"status":      "PAID",
	}, nil)
	require.Equal(t, fiber.StatusCreated, status)

	// OPEN -> CLOSING -> OPEN -> CLOSING -> CLOSED
	var periodResp map[string]interface{}
	status = doRequest(t, "POST", "/api/v1/periods/2026/4/close/start", nil, &periodResp)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "CLOSING", periodResp["status"])

	status = doRequest(t, "POST", "/api/v1/periods/2026/4/close/cancel", nil, &periodResp)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "OPEN", periodResp["status"])

	status = doRequest(t, "POST", "/api/v1/periods/2026/4/close/start", nil, nil)
	require.Equal(t, fiber.StatusOK, status)
	status = doRequest(t, "POST", "/api/v1/periods/2026/4/close/confirm", nil, &periodResp)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "CLOSED", periodResp["status"])

	// Confirming again conflicts
	status = doRequest(t, "POST", "/api/v1/periods/2026/4/close/confirm", nil, nil)
	assert.Equal(t, fiber.StatusConflict, status)

	// Writes into the closed month are rejected
	status = doRequest(t, "POST", "/api/v1/movements", map[string]interface{}{
		"type":        "EXPENSE",
		"conceptName": "Servicios E2E",
		"date":        "2026-04-20",
		"amount":      "10",
		"currency":    "USD",
		"status":      "PAID",
	}, nil)
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestE2E_ConceptCatalog(t *testing.T) {
	var concept map[string]interface{}
	status := doRequest(t, "POST", "/api/v1/concepts", map[string]interface{}{
		"name":   "Alquiler E2E",
		"type":   "EXPENSE",
		"nature": "FIXED",
	}, &concept)
	require.Equal(t, fiber.StatusCreated, status)

	conceptID := concept["id"].(string)

	// Duplicate name within the same type is rejected
	status = doRequest(t, "POST", "/api/v1/concepts", map[string]interface{}{
		"name":   "Alquiler E2E",
		"type":   "EXPENSE",
		"nature": "FIXED",
	}, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	// Reclassify forward
	status = doRequest(t, "PATCH", "/api/v1/concepts/"+conceptID+"/nature", map[string]interface{}{
		"nature": "EXTRAORDINARY",
	}, &concept)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "EXTRAORDINARY", concept["nature"])

	var concepts []map[string]interface{}
	status = doRequest(t, "GET", "/api/v1/concepts?type=EXPENSE", nil, &concepts)
	require.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, concepts)
}

func TestE2E_FundProjection(t *testing.T) {
	fundID := "0f8f1c1a-6a1e-4f6e-9f2e-3c1b2a4d5e6f"

	var tramo map[string]interface{}
	status := doRequest(t, "POST", "/api/v1/funds/"+fundID+"/tramos", map[string]interface{}{
		"instrumento":         "Bonos",
		"rendimientoEsperado": "12",
		"inflacionAsumida":    "0",
		"aporteMensual":       "0",
		"effectiveDate":       "2026-01-01",
	}, &tramo)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Nil(t, tramo["fechaFin"])

	// Changing assumptions closes the active tramo and opens a new one
	status = doRequest(t, "POST", "/api/v1/funds/"+fundID+"/tramos", map[string]interface{}{
		"instrumento":         "Acciones",
		"rendimientoEsperado": "15",
		"inflacionAsumida":    "3",
		"aporteMensual":       "100",
		"effectiveDate":       "2026-07-01",
	}, &tramo)
	require.Equal(t, fiber.StatusCreated, status)

	var tramos []map[string]interface{}
	status = doRequest(t, "GET", "/api/v1/funds/"+fundID+"/tramos", nil, &tramos)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, tramos, 2)
	assert.Equal(t, "2026-06-30", tramos[0]["fechaFin"])
	assert.Nil(t, tramos[1]["fechaFin"])

	// One month at 12% annual on 1000: 1000 * 1.01 = 1010
	var proj map[string]interface{}
	status = doRequest(t, "GET", "/api/v1/funds/"+fundID+"/projection?startCapital=1000&asOf=2026-01-31", nil, &proj)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "1000", proj["capital"])
	assert.Equal(t, "1010", proj["nominal"])

	// Milestones at growing horizons
	var milestones map[string]interface{}
	status = doRequest(t, "GET", "/api/v1/funds/"+fundID+"/projection?startCapital=1000&from=2026-01-01&years=1,5", nil, &milestones)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "1000", milestones["capital"])
	require.Len(t, milestones["milestones"], 2)
}

func TestE2E_FundProjectionDerivedCapital(t *testing.T) {
	fundID := "2b7d9e4c-8a3f-4d1b-b6c5-0e9f8a7d6c5b"

	// Book a fund contribution; without a startCapital override the
	// projection starts from the sum of these.
	var movement map[string]interface{}
	status := doRequest(t, "POST", "/api/v1/movements", map[string]interface{}{
		"type":        "EXPENSE",
		"conceptName": "Aporte Fondo",
		"nature":      "FIXED",
		"date":        "2025-11-05",
		"amount":      "500",
		"currency":    "USD",
		"status":      "PAID",
	}, &movement)
	require.Equal(t, fiber.StatusCreated, status)

	status = doRequest(t, "POST", "/api/v1/funds/"+fundID+"/tramos", map[string]interface{}{
		"instrumento":         "Bonos",
		"rendimientoEsperado": "12",
		"inflacionAsumida":    "0",
		"aporteMensual":       "0",
		"effectiveDate":       "2026-01-01",
	}, nil)
	require.Equal(t, fiber.StatusCreated, status)

	// Before the first tramo the balance is just the derived capital.
	var proj map[string]interface{}
	status = doRequest(t, "GET", "/api/v1/funds/"+fundID+"/projection?asOf=2025-12-31", nil, &proj)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "500", proj["capital"])
	assert.Equal(t, "500", proj["nominal"])
}

func TestE2E_AssetsAndNetWorth(t *testing.T) {
	var asset map[string]interface{}
	status := doRequest(t, "POST", "/api/v1/assets", map[string]interface{}{
		"nombre":       "Auto E2E",
		"tipo":         "VEHICULO",
		"valorUsd":     "15000",
		"fecha":        "2026-05-01",
		"estadoFiscal": "DECLARADO",
		"financiacion": map[string]interface{}{
			"montoFinanciadoUsd": "6000",
			"valorCuotaUsd":      "500",
			"cuotasTotales":      12,
		},
	}, &asset)
	require.Equal(t, fiber.StatusCreated, status)

	assetID := asset["id"].(string)

	// A new valuation refreshes the asset's current value
	status = doRequest(t, "POST", "/api/v1/assets/"+assetID+"/valuations", map[string]interface{}{
		"valorUsd": "14000",
		"fecha":    "2026-06-01",
	}, nil)
	require.Equal(t, fiber.StatusCreated, status)

	var valuations []map[string]interface{}
	status = doRequest(t, "GET", "/api/v1/assets/"+assetID+"/valuations", nil, &valuations)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, valuations, 2)

	// Paying an installment books an expense movement and moves the debt
	var movement map[string]interface{}
	status = doRequest(t, "POST", "/api/v1/assets/"+assetID+"/installments", map[string]interface{}{
		"fecha": "2026-06-10",
	}, &movement)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "EXPENSE", movement["type"])
	assert.Equal(t, "500", movement["amountBaseUsd"])

	var networth map[string]interface{}
	status = doRequest(t, "GET", "/api/v1/networth", nil, &networth)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "5500", networth["deudaUsd"])
}
