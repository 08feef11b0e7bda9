package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthStatus represents the health check response
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	DBStatus  string    `json:"db_status"`
}

// Health reports whether the database answers. A failing database degrades the status but
// still answers 200 so the process is not restarted for a transient lock.
func (h *Handler) Health(c *fiber.Ctx) error {
	dbStatus := "ok"

	if h.db == nil {
		dbStatus = "error"
		h.logger.Error("Database connection unavailable")
	} else if sqlDB, err := h.db.DB(); err != nil {
		dbStatus = "error"
		h.logger.Error("Database connection error", slog.Any("error", err))
	} else if err := sqlDB.PingContext(c.UserContext()); err != nil {
		dbStatus = "error"
		h.logger.Error("Database ping failed", slog.Any("error", err))
	}

	health := HealthStatus{
		Status:    "ok",
		Timestamp: h.now(),
		DBStatus:  dbStatus,
	}
	if dbStatus != "ok" {
		health.Status = "degraded"
	}

	return c.JSON(health)
}
