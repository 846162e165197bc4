package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ncastro/finanzas-backend/internal/domain"
)

type createConceptRequest struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Nature string `json:"nature"`
}

type reclassifyConceptRequest struct {
	Nature string `json:"nature"`
}

type conceptResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Nature string `json:"nature"`
}

func toConceptResponse(c *domain.Concept) conceptResponse {
	return conceptResponse{
		ID:     c.ID.String(),
		Name:   c.Name,
		Type:   string(c.Type),
		Nature: string(c.Nature),
	}
}

// ListConcepts handles GET /api/v1/concepts?type=INCOME|EXPENSE
func (s *Server) ListConcepts(c *fiber.Ctx) error {
	var typeFilter domain.MovementType
	if t := c.Query("type"); t != "" {
		typeFilter = domain.MovementType(t)
		if typeFilter != domain.MovementTypeIncome && typeFilter != domain.MovementTypeExpense {
			return mapError(c, domain.NewValidationError("type", "must be INCOME or EXPENSE"))
		}
	}

	concepts, err := s.LedgerService.ListConcepts(c.Context(), typeFilter)
	if err != nil {
		return mapError(c, err)
	}

	resp := make([]conceptResponse, 0, len(concepts))
	for _, concept := range concepts {
		resp = append(resp, toConceptResponse(concept))
	}

	return c.JSON(resp)
}

// CreateConcept handles POST /api/v1/concepts
func (s *Server) CreateConcept(c *fiber.Ctx) error {
	var req createConceptRequest
	if err := c.BodyParser(&req); err != nil {
		return mapError(c, domain.NewValidationError("body", "malformed JSON"))
	}

	concept, err := s.LedgerService.CreateConcept(
		c.Context(),
		req.Name,
		domain.MovementType(req.Type),
		domain.ConceptNature(req.Nature),
	)
	if err != nil {
		return mapError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toConceptResponse(concept))
}

// ReclassifyConcept handles PATCH /api/v1/concepts/:id/nature
func (s *Server) ReclassifyConcept(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return mapError(c, err)
	}

	var req reclassifyConceptRequest
	if err := c.BodyParser(&req); err != nil {
		return mapError(c, domain.NewValidationError("body", "malformed JSON"))
	}

	concept, err := s.LedgerService.ReclassifyConcept(c.Context(), id, domain.ConceptNature(req.Nature))
	if err != nil {
		return mapError(c, err)
	}

	return c.JSON(toConceptResponse(concept))
}
