// Package v1 serves the public tracking endpoints called by the tracker script.
package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"ackee/internal/domains"
	apphttp "ackee/internal/http"
	"ackee/internal/records"
	"ackee/internal/timeframe"
)

const errInvalidRequest = "invalid request body"

// RecordsHandler stores visits and keeps their duration up to date.
type RecordsHandler struct {
	db     *gorm.DB
	logger *slog.Logger
	lookup *domains.Lookup
	salt   string
	clock  timeframe.TimeProvider
}

// NewRecordsHandler creates the tracking handler. salt feeds the daily client identifier.
func NewRecordsHandler(db *gorm.DB, logger *slog.Logger, lookup *domains.Lookup, salt string, clock timeframe.TimeProvider) *RecordsHandler {
	if clock == nil {
		clock = &timeframe.DefaultTimeProvider{}
	}
	if lookup == nil {
		lookup = domains.NewLookup(db, logger)
	}
	return &RecordsHandler{
		db:     db,
		logger: logger,
		lookup: lookup,
		salt:   salt,
		clock:  clock,
	}
}

// isOwnVisit reports whether the request comes from a browser that is logged in to the dashboard.
func isOwnVisit(c *fiber.Ctx) bool {
	return c.Cookies(apphttp.LoginCookie) == "1"
}

func userAgent(c *fiber.Ctx) string {
	if forwarded := c.Get("X-Forwarded-User-Agent"); forwarded != "" {
		return forwarded
	}
	return c.Get(fiber.HeaderUserAgent)
}

// CreateRecord stores a visit for the domain in the path.
// The tracker may send its body as text/plain, so the body is decoded regardless of content type.
func (h *RecordsHandler) CreateRecord(c *fiber.Ctx) error {
	if isOwnVisit(c) {
		h.logger.Debug("Ignoring visit of logged in user", slog.String("path", c.Path()))
		return c.SendStatus(http.StatusAccepted)
	}

	domain, err := h.lookup.Get(c.Params("id"))
	if err != nil {
		return apphttp.RespondError(c, h.logger, err)
	}

	var attributes records.Attributes
	if err := json.Unmarshal(c.Body(), &attributes); err != nil {
		h.logger.Debug("Failed to parse record", slog.Any("error", err))
		return apphttp.RespondError(c, h.logger, fiber.NewError(http.StatusBadRequest, errInvalidRequest))
	}

	record, err := records.Collect(h.db, h.logger, &records.CollectInput{
		DomainID:   domain.ID,
		IPAddress:  getClientIP(c),
		UserAgent:  userAgent(c),
		Salt:       h.salt,
		Attributes: attributes,
		Now:        h.clock.Now(time.UTC),
	})
	if err != nil {
		return apphttp.RespondError(c, h.logger, err)
	}

	h.logger.Debug("Collected record", slog.String("domain_id", domain.ID), slog.String("record_id", record.ID))
	return c.Status(http.StatusCreated).JSON(fiber.Map{"id": record.ID})
}

// UpdateRecord marks a visit as still active.
func (h *RecordsHandler) UpdateRecord(c *fiber.Ctx) error {
	if isOwnVisit(c) {
		return c.SendStatus(http.StatusAccepted)
	}

	domain, err := h.lookup.Get(c.Params("id"))
	if err != nil {
		return apphttp.RespondError(c, h.logger, err)
	}

	if err := records.Touch(h.db, h.logger, domain.ID, c.Params("recordId"), h.clock.Now(time.UTC)); err != nil {
		return apphttp.RespondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
