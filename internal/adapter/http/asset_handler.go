package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ncastro/finanzas-backend/internal/domain"
	"github.com/ncastro/finanzas-backend/internal/usecase/patrimony"
)

type financiacionRequest struct {
	MontoFinanciadoUsd decimal.Decimal `json:"montoFinanciadoUsd"`
	ValorCuotaUsd      decimal.Decimal `json:"valorCuotaUsd"`
	CuotasTotales      int             `json:"cuotasTotales"`
}

type registerAssetRequest struct {
	Nombre        string               `json:"nombre"`
	Tipo          string               `json:"tipo"`
	ValorUsd      decimal.Decimal      `json:"valorUsd"`
	Fecha         string               `json:"fecha"` // YYYY-MM-DD
	EstadoFiscal  string               `json:"estadoFiscal"`
	Observaciones string               `json:"observaciones"`
	Financiacion  *financiacionRequest `json:"financiacion"`
}

type addValuationRequest struct {
	ValorUsd decimal.Decimal `json:"valorUsd"`
	Fecha    string          `json:"fecha"`
}

type payInstallmentRequest struct {
	Fecha string `json:"fecha"`
}

type assetResponse struct {
	ID                   string          `json:"id"`
	Nombre               string          `json:"nombre"`
	Tipo                 string          `json:"tipo"`
	ValorActualUsd       decimal.Decimal `json:"valorActualUsd"`
	FechaUltimaValuacion string          `json:"fechaUltimaValuacion"`
	EstadoFiscal         string          `json:"estadoFiscal"`
	Observaciones        string          `json:"observaciones"`
}

type valuationResponse struct {
	ID       string          `json:"id"`
	AssetID  string          `json:"assetId"`
	Fecha    string          `json:"fecha"`
	ValorUsd decimal.Decimal `json:"valorUsd"`
}

func toAssetResponse(a *domain.Asset) assetResponse {
	return assetResponse{
		ID:                   a.ID.String(),
		Nombre:               a.Nombre,
		Tipo:                 a.Tipo,
		ValorActualUsd:       a.ValorActualUsd,
		FechaUltimaValuacion: a.FechaUltimaValuacion.Format(dateLayout),
		EstadoFiscal:         a.EstadoFiscal,
		Observaciones:        a.Observaciones,
	}
}

// ListAssets handles GET /api/v1/assets
func (s *Server) ListAssets(c *fiber.Ctx) error {
	assets, err := s.PatrimonyService.Assets.List(c.Context())
	if err != nil {
		return mapError(c, err)
	}

	resp := make([]assetResponse, 0, len(assets))
	for _, a := range assets {
		resp = append(resp, toAssetResponse(a))
	}

	return c.JSON(resp)
}

// RegisterAsset handles POST /api/v1/assets
func (s *Server) RegisterAsset(c *fiber.Ctx) error {
	var req registerAssetRequest
	if err := c.BodyParser(&req); err != nil {
		return mapError(c, domain.NewValidationError("body", "malformed JSON"))
	}

	fecha, err := parseDate("fecha", req.Fecha)
	if err != nil {
		return mapError(c, err)
	}

	input := patrimony.RegisterAssetInput{
		Nombre:        req.Nombre,
		Tipo:          req.Tipo,
		ValorUsd:      req.ValorUsd,
		Fecha:         fecha,
		EstadoFiscal:  req.EstadoFiscal,
		Observaciones: req.Observaciones,
	}
	if req.Financiacion != nil {
		input.Financiacion = &patrimony.FinanciacionInput{
			MontoFinanciadoUsd: req.Financiacion.MontoFinanciadoUsd,
			ValorCuotaUsd:      req.Financiacion.ValorCuotaUsd,
			CuotasTotales:      req.Financiacion.CuotasTotales,
		}
	}

	asset, err := s.PatrimonyService.RegisterAsset(c.Context(), input)
	if err != nil {
		return mapError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toAssetResponse(asset))
}

// ListValuations handles GET /api/v1/assets/:id/valuations
func (s *Server) ListValuations(c *fiber.Ctx) error {
	assetID, err := parseID(c)
	if err != nil {
		return mapError(c, err)
	}

	valuations, err := s.PatrimonyService.Valuations(c.Context(), assetID)
	if err != nil {
		return mapError(c, err)
	}

	resp := make([]valuationResponse, 0, len(valuations))
	for _, v := range valuations {
		resp = append(resp, valuationResponse{
			ID:       v.ID.String(),
			AssetID:  v.AssetID.String(),
			Fecha:    v.Fecha.Format(dateLayout),
			ValorUsd: v.ValorUsd,
		})
	}

	return c.JSON(resp)
}

// AddValuation handles POST /api/v1/assets/:id/valuations
func (s *Server) AddValuation(c *fiber.Ctx) error {
	assetID, err := parseID(c)
	if err != nil {
		return mapError(c, err)
	}

	var req addValuationRequest
	if err := c.BodyParser(&req); err != nil {
		return mapError(c, domain.NewValidationError("body", "malformed JSON"))
	}

	fecha, err := parseDate("fecha", req.Fecha)
	if err != nil {
		return mapError(c, err)
	}

	valuation, err := s.PatrimonyService.AddValuation(c.Context(), assetID, req.ValorUsd, fecha)
	if err != nil {
		return mapError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(valuationResponse{
		ID:       valuation.ID.String(),
		AssetID:  valuation.AssetID.String(),
		Fecha:    valuation.Fecha.Format(dateLayout),
		ValorUsd: valuation.ValorUsd,
	})
}

// PayInstallment handles POST /api/v1/assets/:id/installments
func (s *Server) PayInstallment(c *fiber.Ctx) error {
	assetID, err := parseID(c)
	if err != nil {
		return mapError(c, err)
	}

	var req payInstallmentRequest
	if err := c.BodyParser(&req); err != nil {
		return mapError(c, domain.NewValidationError("body", "malformed JSON"))
	}

	fecha, err := parseDate("fecha", req.Fecha)
	if err != nil {
		return mapError(c, err)
	}

	movement, err := s.PatrimonyService.RecordInstallmentPayment(c.Context(), assetID, fecha)
	if err != nil {
		return mapError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(movement))
}

// GetNetWorth handles GET /api/v1/networth
func (s *Server) GetNetWorth(c *fiber.Ctx) error {
	result, err := s.PatrimonyService.NetWorth(c.Context())
	if err != nil {
		return mapError(c, err)
	}

	return c.JSON(fiber.Map{
		"activosUsd": result.ActivosUsd,
		"deudaUsd":   result.DeudaUsd,
		"netoUsd":    result.NetoUsd,
	})
}
