package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/hyperpay/internal/config"
	"github.com/example/hyperpay/internal/utils"
)

const payerContextKey = "currentPayerID"

// AuthMiddleware validates JWT tokens and loads the authenticated payer ID
// into context.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		payerID, err := utils.ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(payerContextKey, payerID)
		return c.Next()
	}
}

// GetCurrentPayerID extracts the authenticated payer ID from context.
func GetCurrentPayerID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(payerContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}

// SetCurrentPayerID seeds the payer ID into context, used by tests and
// internal callers that bypass JWT parsing.
func SetCurrentPayerID(c *fiber.Ctx, id uuid.UUID) {
	c.Locals(payerContextKey, id)
}
