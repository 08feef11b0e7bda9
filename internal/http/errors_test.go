package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ackee/internal/domains"
	"ackee/internal/pipeline"
	"ackee/internal/records"
	"ackee/internal/statistics"
	"ackee/internal/testsupport"
	"ackee/internal/tokens"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domains.NewDomainNotFoundError("x"), fiber.StatusNotFound},
		{fmt.Errorf("wrapped: %w", records.ErrRecordNotFound), fiber.StatusNotFound},
		{statistics.ErrUnknownStatistic, fiber.StatusNotFound},
		{tokens.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{tokens.ErrTokenInvalid, fiber.StatusUnauthorized},
		{domains.ErrInvalidTitle, fiber.StatusBadRequest},
		{records.ErrInvalidRecord, fiber.StatusBadRequest},
		{fmt.Errorf("%w: x", statistics.ErrInvalidType), fiber.StatusBadRequest},
		{statistics.ErrInvalidSorting, fiber.StatusBadRequest},
		{&pipeline.UnknownFieldError{Name: "nope"}, fiber.StatusBadRequest},
		{fiber.NewError(fiber.StatusTeapot, "tea"), fiber.StatusTeapot},
		{records.ErrInvalidPipeline, 0},
		{errors.New("disk on fire"), 0},
	}

	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.Equal(t, tc.want, statusFor(tc.err))
		})
	}
}

func TestRespondError(t *testing.T) {
	logger := testsupport.GetLogger()
	app := fiber.New()
	app.Get("/known", func(c *fiber.Ctx) error {
		return RespondError(c, logger, domains.NewDomainNotFoundError("abc"))
	})
	app.Get("/unknown", func(c *fiber.Ctx) error {
		return RespondError(c, logger, errors.New("secret cause"))
	})

	read := func(path string) (int, map[string]string) {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		var body map[string]string
		require.NoError(t, json.Unmarshal(raw, &body))
		return resp.StatusCode, body
	}

	status, body := read("/known")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "domain not found: abc", body["error"])

	status, body = read("/unknown")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Internal Server Error", body["error"])
}
