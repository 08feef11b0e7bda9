package http

import (
	"github.com/gofiber/fiber/v2"

	"ackee/internal/domains"
)

// DomainOverview returns every statistic of a domain with default sorting and type.
func (h *Handler) DomainOverview(c *fiber.Ctx) error {
	domain, err := domains.Get(h.db, c.Params("id"))
	if err != nil {
		return RespondError(c, h.logger, err)
	}

	overview, err := h.stats.Overview(c.UserContext(), domain.ID)
	if err != nil {
		return RespondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"domain":     domain,
		"statistics": overview,
	})
}

// DomainStatistic returns one statistic. Query parameters: sorting (TOP, RECENT) and type.
func (h *Handler) DomainStatistic(c *fiber.Ctx) error {
	domain, err := domains.Get(h.db, c.Params("id"))
	if err != nil {
		return RespondError(c, h.logger, err)
	}

	result, err := h.stats.Get(c.UserContext(), domain.ID, c.Params("name"), c.Query("sorting"), c.Query("type"))
	if err != nil {
		return RespondError(c, h.logger, err)
	}
	return c.JSON(result)
}
