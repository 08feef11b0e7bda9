package http

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"ackee/internal/tokens"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateToken logs in with the configured credentials and returns a new token.
func (h *Handler) CreateToken(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return RespondError(c, h.logger, fiber.NewError(fiber.StatusBadRequest, "invalid request body"))
	}

	token, err := tokens.Create(h.db, h.logger, h.creds, req.Username, req.Password, h.now())
	if err != nil {
		return RespondError(c, h.logger, err)
	}

	h.logger.Info("Token created", slog.String("token_id", token.ID))
	c.Set(fiber.HeaderSetCookie, loginCookieSet)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      token.ID,
		"created": token.Created,
	})
}

// DeleteToken logs out. Unknown tokens are ignored.
func (h *Handler) DeleteToken(c *fiber.Ctx) error {
	if err := tokens.Delete(h.db, h.logger, c.Params("id")); err != nil {
		return RespondError(c, h.logger, err)
	}

	c.Set(fiber.HeaderSetCookie, loginCookieClear)
	return c.JSON(fiber.Map{"success": true})
}
