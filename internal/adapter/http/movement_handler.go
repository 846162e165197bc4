package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ncastro/finanzas-backend/internal/domain"
	"github.com/ncastro/finanzas-backend/internal/usecase/ledger"
)

type addMovementRequest struct {
	Type        string           `json:"type"`
	ConceptID   *string          `json:"conceptId"`
	ConceptName string           `json:"conceptName"`
	Nature      string           `json:"nature"`
	Date        string           `json:"date"` // YYYY-MM-DD
	Amount      decimal.Decimal  `json:"amount"`
	Currency    string           `json:"currency"`
	Rate        *decimal.Decimal `json:"rate"`
	Status      string           `json:"status"`
}

type updateMovementRequest struct {
	ConceptID *string          `json:"conceptId"`
	Date      *string          `json:"date"`
	Amount    *decimal.Decimal `json:"amount"`
	Currency  *string          `json:"currency"`
	Rate      *decimal.Decimal `json:"rate"`
	Status    *string          `json:"status"`
}

type movementResponse struct {
	ID                   string           `json:"id"`
	Type                 string           `json:"type"`
	ConceptID            string           `json:"conceptId"`
	Nature               string           `json:"nature"`
	Date                 string           `json:"date"`
	AmountBaseUsd        decimal.Decimal  `json:"amountBaseUsd"`
	OriginalCurrency     string           `json:"originalCurrency"`
	ExchangeRateSnapshot *decimal.Decimal `json:"exchangeRateSnapshot,omitempty"`
	Status               string           `json:"status"`
	PeriodID             string           `json:"periodId"`
}

const dateLayout = "2006-01-02"

func toMovementResponse(m *domain.Movement) movementResponse {
	return movementResponse{
		ID:                   m.ID.String(),
		Type:                 string(m.Type),
		ConceptID:            m.ConceptID.String(),
		Nature:               string(m.Nature),
		Date:                 m.Date.Format(dateLayout),
		AmountBaseUsd:        m.AmountBaseUSD,
		OriginalCurrency:     string(m.OriginalCurrency),
		ExchangeRateSnapshot: m.ExchangeRateSnapshot,
		Status:               string(m.Status),
		PeriodID:             m.PeriodID.String(),
	}
}

func parseDate(field, value string) (time.Time, error) {
	date, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, "must be a YYYY-MM-DD date")
	}
	return date, nil
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, domain.NewValidationError("id", "must be a valid UUID")
	}
	return id, nil
}

// AddMovement handles POST /api/v1/movements
func (s *Server) AddMovement(c *fiber.Ctx) error {
	var req addMovementRequest
	if err := c.BodyParser(&req); err != nil {
		return mapError(c, domain.NewValidationError("body", "malformed JSON"))
	}

	date, err := parseDate("date", req.Date)
	if err != nil {
		return mapError(c, err)
	}

	input := ledger.AddMovementInput{
		Type:        domain.MovementType(req.Type),
		ConceptName: req.ConceptName,
		Nature:      domain.ConceptNature(req.Nature),
		Date:        date,
		Amount:      req.Amount,
		Currency:    domain.Currency(req.Currency),
		Rate:        req.Rate,
		Status:      domain.MovementStatus(req.Status),
	}

	if req.ConceptID != nil {
		conceptID, err := uuid.Parse(*req.ConceptID)
		if err != nil {
			return mapError(c, domain.NewValidationError("conceptId", "must be a valid UUID"))
		}
		input.ConceptID = &conceptID
	}

	movement, err := s.LedgerService.AddMovement(c.Context(), input)
	if err != nil {
		return mapError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(movement))
}

// UpdateMovement handles PATCH /api/v1/movements/:id
func (s *Server) UpdateMovement(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return mapError(c, err)
	}

	var req updateMovementRequest
	if err := c.BodyParser(&req); err != nil {
		return mapError(c, domain.NewValidationError("body", "malformed JSON"))
	}

	patch := ledger.UpdateMovementInput{
		Amount: req.Amount,
		Rate:   req.Rate,
	}

	if req.ConceptID != nil {
		conceptID, err := uuid.Parse(*req.ConceptID)
		if err != nil {
			return mapError(c, domain.NewValidationError("conceptId", "must be a valid UUID"))
		}
		patch.ConceptID = &conceptID
	}
	if req.Date != nil {
		date, err := parseDate("date", *req.Date)
		if err != nil {
			return mapError(c, err)
		}
		patch.Date = &date
	}
	if req.Currency != nil {
		cur := domain.Currency(*req.Currency)
		patch.Currency = &cur
	}
	if req.Status != nil {
		status := domain.MovementStatus(*req.Status)
		patch.Status = &status
	}

	movement, err := s.LedgerService.UpdateMovement(c.Context(), id, patch)
	if err != nil {
		return mapError(c, err)
	}

	return c.JSON(toMovementResponse(movement))
}

// DeleteMovement handles DELETE /api/v1/movements/:id
func (s *Server) DeleteMovement(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return mapError(c, err)
	}

	if err := s.LedgerService.DeleteMovement(c.Context(), id); err != nil {
		return mapError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleMovementStatus handles POST /api/v1/movements/:id/toggle
func (s *Server) ToggleMovementStatus(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return mapError(c, err)
	}

	movement, err := s.LedgerService.ToggleStatus(c.Context(), id)
	if err != nil {
		return mapError(c, err)
	}

	return c.JSON(toMovementResponse(movement))
}
