package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"ackee/internal/domains"
	"ackee/internal/pipeline"
	"ackee/internal/records"
	"ackee/internal/statistics"
	"ackee/internal/tokens"
)

const internalServerError = "Internal Server Error"

// statusFor maps errors the packages expose onto HTTP statuses. Zero means unknown.
func statusFor(err error) int {
	var fiberErr *fiber.Error
	var notFound *domains.DomainNotFoundError
	var unknownField *pipeline.UnknownFieldError

	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.As(err, &notFound),
		errors.Is(err, records.ErrRecordNotFound),
		errors.Is(err, statistics.ErrUnknownStatistic):
		return fiber.StatusNotFound
	case errors.Is(err, tokens.ErrInvalidCredentials),
		errors.Is(err, tokens.ErrTokenInvalid):
		return fiber.StatusUnauthorized
	case errors.Is(err, domains.ErrInvalidTitle),
		errors.Is(err, records.ErrInvalidRecord),
		errors.Is(err, statistics.ErrInvalidType),
		errors.Is(err, statistics.ErrInvalidSorting),
		errors.As(err, &unknownField):
		return fiber.StatusBadRequest
	}
	return 0
}

// RespondError writes err as a JSON error body. Known errors keep their message, anything
// else is logged with its cause and answered with a generic 500.
func RespondError(c *fiber.Ctx, logger *slog.Logger, err error) error {
	if status := statusFor(err); status != 0 {
		logger.Warn("Request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Any("error", err))
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	logger.Error("Unexpected error handling request",
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.Any("error", err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": internalServerError})
}
