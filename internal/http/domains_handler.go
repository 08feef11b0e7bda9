package http

import (
	"github.com/gofiber/fiber/v2"

	"ackee/internal/domains"
)

type domainRequest struct {
	Title string `json:"title"`
}

func (h *Handler) parseDomainRequest(c *fiber.Ctx) (domainRequest, error) {
	var req domainRequest
	if err := c.BodyParser(&req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return req, nil
}

// ListDomains returns every domain ordered by title.
func (h *Handler) ListDomains(c *fiber.Ctx) error {
	list, err := domains.List(h.db)
	if err != nil {
		return RespondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"domains": list})
}

func (h *Handler) CreateDomain(c *fiber.Ctx) error {
	req, err := h.parseDomainRequest(c)
	if err != nil {
		return RespondError(c, h.logger, err)
	}

	domain, err := domains.Create(h.db, h.logger, req.Title)
	if err != nil {
		return RespondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(domain)
}

func (h *Handler) GetDomain(c *fiber.Ctx) error {
	domain, err := domains.Get(h.db, c.Params("id"))
	if err != nil {
		return RespondError(c, h.logger, err)
	}
	return c.JSON(domain)
}

func (h *Handler) UpdateDomain(c *fiber.Ctx) error {
	req, err := h.parseDomainRequest(c)
	if err != nil {
		return RespondError(c, h.logger, err)
	}

	domain, err := domains.Update(h.db, h.logger, c.Params("id"), req.Title)
	if err != nil {
		return RespondError(c, h.logger, err)
	}
	h.lookup.Remove(domain.ID)
	return c.JSON(domain)
}

// DeleteDomain removes the domain and all of its records.
func (h *Handler) DeleteDomain(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := domains.Delete(h.db, h.logger, id); err != nil {
		return RespondError(c, h.logger, err)
	}
	h.lookup.Remove(id)
	return c.JSON(fiber.Map{"success": true})
}
