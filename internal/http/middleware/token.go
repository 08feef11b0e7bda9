package middleware

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"ackee/internal/timeframe"
	"ackee/internal/tokens"
)

// TokenLocal is the fiber local holding the id of the authenticated token.
const TokenLocal = "token_id"

// TokenAuth validates the token of dashboard requests and refreshes it.
// Expects: Authorization: Bearer <token>
func TokenAuth(db *gorm.DB, logger *slog.Logger, ttl time.Duration, clock timeframe.TimeProvider) fiber.Handler {
	if clock == nil {
		clock = &timeframe.DefaultTimeProvider{}
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing Authorization header",
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid Authorization header format. Expected: Bearer <token>",
			})
		}

		id := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if id == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token is empty",
			})
		}

		token, err := tokens.Validate(db, logger, id, ttl, clock.Now(time.UTC))
		if err != nil {
			if errors.Is(err, tokens.ErrTokenInvalid) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Token invalid",
				})
			}
			logger.Error("Failed to validate token", slog.Any("error", err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal Server Error",
			})
		}

		c.Locals(TokenLocal, token.ID)
		return c.Next()
	}
}
