package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ackee/internal/testsupport"
	"ackee/internal/timeframe"
	"ackee/internal/tokens"
)

func TestTokenAuth(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := &timeframe.FixedTimeProvider{At: now}

	app := fiber.New()
	app.Get("/", TokenAuth(db, testsupport.GetLogger(), time.Hour, clock), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(TokenLocal).(string))
	})

	call := func(header string) (int, string) {
		req := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}

	valid := testsupport.CreateTestToken(t, db, now.Add(-30*time.Minute))
	status, body := call("Bearer " + valid.ID)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, valid.ID, body)

	var refreshed tokens.Token
	require.NoError(t, db.Where("id = ?", valid.ID).First(&refreshed).Error)
	assert.True(t, refreshed.Updated.Equal(now))

	expired := testsupport.CreateTestToken(t, db, now.Add(-time.Hour))
	status, _ = call("Bearer " + expired.ID)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	for _, header := range []string{"", "Token " + valid.ID, "Bearer ", "Bearer not-a-uuid"} {
		status, _ = call(header)
		assert.Equal(t, fiber.StatusUnauthorized, status, header)
	}
}

func TestCORSDisabled(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(nil))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://example.com")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcardWins(t *testing.T) {
	app := fiber.New()
	app.Use(CORS([]string{"https://example.com", "*"}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://anything.example")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
