package http

import (
	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware returns a middleware that validates the Authorization
// header against a static token. If the token is missing or invalid, the
// request is rejected with 401.
func AuthMiddleware(validToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing authorization header",
			})
		}

		if header != validToken {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		return c.Next()
	}
}
