package http

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ncastro/finanzas-backend/internal/domain"
	"github.com/ncastro/finanzas-backend/internal/usecase/projection"
)

type addTramoRequest struct {
	Instrumento         string          `json:"instrumento"`
	RendimientoEsperado decimal.Decimal `json:"rendimientoEsperado"`
	InflacionAsumida    decimal.Decimal `json:"inflacionAsumida"`
	AporteMensual       decimal.Decimal `json:"aporteMensual"`
	EffectiveDate       string          `json:"effectiveDate"` // YYYY-MM-DD
}

type tramoResponse struct {
	ID                  string          `json:"id"`
	FundID              string          `json:"fundId"`
	FechaInicio         string          `json:"fechaInicio"`
	FechaFin            *string         `json:"fechaFin,omitempty"`
	Instrumento         string          `json:"instrumento"`
	RendimientoEsperado decimal.Decimal `json:"rendimientoEsperado"`
	InflacionAsumida    decimal.Decimal `json:"inflacionAsumida"`
	AporteMensual       decimal.Decimal `json:"aporteMensual"`
}

type projectionResponse struct {
	Capital decimal.Decimal `json:"capital"`
	Nominal decimal.Decimal `json:"nominal"`
	Real    decimal.Decimal `json:"real"`
}

type milestoneResponse struct {
	Years   int             `json:"years"`
	AsOf    string          `json:"asOf"`
	Nominal decimal.Decimal `json:"nominal"`
	Real    decimal.Decimal `json:"real"`
}

type milestonesResponse struct {
	Capital    decimal.Decimal     `json:"capital"`
	Milestones []milestoneResponse `json:"milestones"`
}

func toTramoResponse(t *domain.Tramo) tramoResponse {
	resp := tramoResponse{
		ID:                  t.ID.String(),
		FundID:              t.FundID.String(),
		FechaInicio:         t.FechaInicio.Format(dateLayout),
		Instrumento:         t.Instrumento,
		RendimientoEsperado: t.RendimientoEsperado,
		InflacionAsumida:    t.InflacionAsumida,
		AporteMensual:       t.AporteMensual,
	}
	if t.FechaFin != nil {
		fin := t.FechaFin.Format(dateLayout)
		resp.FechaFin = &fin
	}
	return resp
}

// ListTramos handles GET /api/v1/funds/:id/tramos
func (s *Server) ListTramos(c *fiber.Ctx) error {
	fundID, err := parseID(c)
	if err != nil {
		return mapError(c, err)
	}

	tramos, err := s.ProjectionService.Tramos.ListByFund(c.Context(), fundID)
	if err != nil {
		return mapError(c, err)
	}

	resp := make([]tramoResponse, 0, len(tramos))
	for _, t := range tramos {
		resp = append(resp, toTramoResponse(t))
	}

	return c.JSON(resp)
}

// AddTramo handles POST /api/v1/funds/:id/tramos
func (s *Server) AddTramo(c *fiber.Ctx) error {
	fundID, err := parseID(c)
	if err != nil {
		return mapError(c, err)
	}

	var req addTramoRequest
	if err := c.BodyParser(&req); err != nil {
		return mapError(c, domain.NewValidationError("body", "malformed JSON"))
	}

	effectiveDate, err := parseDate("effectiveDate", req.EffectiveDate)
	if err != nil {
		return mapError(c, err)
	}

	params := projection.TramoParams{
		Instrumento:         req.Instrumento,
		RendimientoEsperado: req.RendimientoEsperado,
		InflacionAsumida:    req.InflacionAsumida,
		AporteMensual:       req.AporteMensual,
	}

	tramo, err := s.ProjectionService.AddTramo(c.Context(), fundID, params, effectiveDate)
	if err != nil {
		return mapError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toTramoResponse(tramo))
}

// ProjectFund handles GET /api/v1/funds/:id/projection.
// With ?asOf=YYYY-MM-DD it returns a single projection; with
// ?from=YYYY-MM-DD&years=1,5,10 it returns milestones. The starting capital
// is derived from the ledger's recorded contributions unless overridden
// with ?startCapital=.
func (s *Server) ProjectFund(c *fiber.Ctx) error {
	fundID, err := parseID(c)
	if err != nil {
		return mapError(c, err)
	}

	var startCapital decimal.Decimal
	if q := c.Query("startCapital"); q != "" {
		startCapital, err = decimal.NewFromString(q)
		if err != nil {
			return mapError(c, domain.NewValidationError("startCapital", "must be a decimal number"))
		}
	} else {
		startCapital, err = s.ProjectionService.CurrentCapital(c.Context())
		if err != nil {
			return mapError(c, err)
		}
	}

	if yearsParam := c.Query("years"); yearsParam != "" {
		from, err := parseDate("from", c.Query("from"))
		if err != nil {
			return mapError(c, err)
		}

		offsets := make([]int, 0)
		for _, part := range strings.Split(yearsParam, ",") {
			years, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return mapError(c, domain.NewValidationError("years", "must be a comma-separated list of integers"))
			}
			offsets = append(offsets, years)
		}

		milestones, err := s.ProjectionService.Milestones(c.Context(), fundID, startCapital, from, offsets)
		if err != nil {
			return mapError(c, err)
		}

		resp := milestonesResponse{
			Capital:    startCapital,
			Milestones: make([]milestoneResponse, 0, len(milestones)),
		}
		for _, m := range milestones {
			resp.Milestones = append(resp.Milestones, milestoneResponse{
				Years:   m.Years,
				AsOf:    m.AsOf.Format(dateLayout),
				Nominal: m.Nominal,
				Real:    m.Real,
			})
		}

		return c.JSON(resp)
	}

	asOf, err := parseDate("asOf", c.Query("asOf"))
	if err != nil {
		return mapError(c, err)
	}

	result, err := s.ProjectionService.Project(c.Context(), fundID, startCapital, asOf)
	if err != nil {
		return mapError(c, err)
	}

	return c.JSON(projectionResponse{Capital: startCapital, Nominal: result.Nominal, Real: result.Real})
}
