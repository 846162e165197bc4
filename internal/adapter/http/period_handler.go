package http

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ncastro/finanzas-backend/internal/domain"
	"github.com/ncastro/finanzas-backend/internal/usecase/ledger"
)

type natureBreakdownResponse struct {
	Fixed         decimal.Decimal `json:"fixed"`
	Variable      decimal.Decimal `json:"variable"`
	Extraordinary decimal.Decimal `json:"extraordinary"`

	FixedPct         decimal.Decimal `json:"fixedPct"`
	VariablePct      decimal.Decimal `json:"variablePct"`
	ExtraordinaryPct decimal.Decimal `json:"extraordinaryPct"`
}

type unclosedPeriodResponse struct {
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Status string `json:"status"`
}

type monthSummaryResponse struct {
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Status string `json:"status"`

	NetResultUsd     decimal.Decimal         `json:"netResultUsd"`
	IncomeTotalUsd   decimal.Decimal         `json:"incomeTotalUsd"`
	ExpenseTotalUsd  decimal.Decimal         `json:"expenseTotalUsd"`
	ExpenseBreakdown natureBreakdownResponse `json:"expenseBreakdown"`

	Movements      []movementResponse       `json:"movements"`
	UnclosedPriors []unclosedPeriodResponse `json:"unclosedPriors"`
}

func toMonthSummaryResponse(summary *ledger.MonthSummary) monthSummaryResponse {
	resp := monthSummaryResponse{
		Year:            summary.Year,
		Month:           summary.Month,
		Status:          string(summary.Status),
		NetResultUsd:    summary.NetResultUSD,
		IncomeTotalUsd:  summary.IncomeTotalUSD,
		ExpenseTotalUsd: summary.ExpenseTotalUSD,
		ExpenseBreakdown: natureBreakdownResponse{
			Fixed:            summary.ExpenseBreakdown.Fixed,
			Variable:         summary.ExpenseBreakdown.Variable,
			Extraordinary:    summary.ExpenseBreakdown.Extraordinary,
			FixedPct:         summary.ExpenseBreakdown.FixedPct,
			VariablePct:      summary.ExpenseBreakdown.VariablePct,
			ExtraordinaryPct: summary.ExpenseBreakdown.ExtraordinaryPct,
		},
		Movements:      make([]movementResponse, 0, len(summary.Movements)),
		UnclosedPriors: make([]unclosedPeriodResponse, 0, len(summary.UnclosedPriors)),
	}

	for _, m := range summary.Movements {
		resp.Movements = append(resp.Movements, toMovementResponse(m))
	}
	for _, p := range summary.UnclosedPriors {
		resp.UnclosedPriors = append(resp.UnclosedPriors, unclosedPeriodResponse{
			Year:   p.Year,
			Month:  p.Month,
			Status: string(p.Status),
		})
	}

	return resp
}

func parseYearMonth(c *fiber.Ctx) (int, int, error) {
	year, err := strconv.Atoi(c.Params("year"))
	if err != nil {
		return 0, 0, domain.NewValidationError("year", "must be an integer")
	}

	month, err := strconv.Atoi(c.Params("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, domain.NewValidationError("month", "must be between 1 and 12")
	}

	return year, month, nil
}

// resolvePeriod looks up the period row for a year/month URL pair.
func (s *Server) resolvePeriod(ctx context.Context, year, month int) (uuid.UUID, error) {
	p, err := s.PeriodService.Periods.GetByYearMonth(ctx, year, month)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

// GetMonthSummary handles GET /api/v1/periods/:year/:month
func (s *Server) GetMonthSummary(c *fiber.Ctx) error {
	year, month, err := parseYearMonth(c)
	if err != nil {
		return mapError(c, err)
	}

	summary, err := s.LedgerService.Summary(c.Context(), year, month)
	if err != nil {
		return mapError(c, err)
	}

	return c.JSON(toMonthSummaryResponse(summary))
}

// ListMovements handles GET /api/v1/periods/:year/:month/movements
func (s *Server) ListMovements(c *fiber.Ctx) error {
	year, month, err := parseYearMonth(c)
	if err != nil {
		return mapError(c, err)
	}

	movements, err := s.LedgerService.ListByPeriod(c.Context(), year, month)
	if err != nil {
		return mapError(c, err)
	}

	resp := make([]movementResponse, 0, len(movements))
	for _, m := range movements {
		resp = append(resp, toMovementResponse(m))
	}

	return c.JSON(resp)
}

// StartClosing handles POST /api/v1/periods/:year/:month/close/start
func (s *Server) StartClosing(c *fiber.Ctx) error {
	return s.periodTransition(c, s.PeriodService.StartClosing)
}

// CancelClosing handles POST /api/v1/periods/:year/:month/close/cancel
func (s *Server) CancelClosing(c *fiber.Ctx) error {
	return s.periodTransition(c, s.PeriodService.CancelClosing)
}

// ConfirmClose handles POST /api/v1/periods/:year/:month/close/confirm
func (s *Server) ConfirmClose(c *fiber.Ctx) error {
	return s.periodTransition(c, s.PeriodService.ConfirmClose)
}

func (s *Server) periodTransition(c *fiber.Ctx, transition func(context.Context, uuid.UUID) error) error {
	year, month, err := parseYearMonth(c)
	if err != nil {
		return mapError(c, err)
	}

	periodID, err := s.resolvePeriod(c.Context(), year, month)
	if err != nil {
		return mapError(c, err)
	}

	if err := transition(c.Context(), periodID); err != nil {
		return mapError(c, err)
	}

	p, err := s.PeriodService.Periods.GetByID(c.Context(), periodID)
	if err != nil {
		return mapError(c, err)
	}

	return c.JSON(fiber.Map{
		"year":   p.Year,
		"month":  p.Month,
		"status": string(p.Status),
	})
}
