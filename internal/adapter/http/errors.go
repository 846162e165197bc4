package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ncastro/finanzas-backend/internal/domain"
)

// mapError translates domain errors into HTTP responses. Unmapped errors
// fall through to the app's ErrorHandler as 500s.
func mapError(c *fiber.Ctx, err error) error {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationErr.Error(),
			"field": validationErr.Field,
		})
	}

	switch {
	case errors.Is(err, domain.ErrPeriodClosed),
		errors.Is(err, domain.ErrPeriodTransition),
		errors.Is(err, domain.ErrTramoSequence),
		errors.Is(err, domain.ErrLiabilityConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, domain.ErrPeriodNotFound),
		errors.Is(err, domain.ErrMovementNotFound),
		errors.Is(err, domain.ErrConceptNotFound),
		errors.Is(err, domain.ErrAssetNotFound),
		errors.Is(err, domain.ErrLiabilityNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return err
}
