package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const (
	corsMethods = "GET, POST, PATCH, DELETE, OPTIONS"
	corsHeaders = "Content-Type, Authorization"
)

// CORS allows the given origins. Without origins no CORS headers are sent at all.
func CORS(origins []string) fiber.Handler {
	if len(origins) == 0 {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	allow := strings.Join(origins, ",")
	for _, origin := range origins {
		if origin == "*" {
			allow = "*"
			break
		}
	}

	return cors.New(cors.Config{
		AllowOrigins: allow,
		AllowMethods: corsMethods,
		AllowHeaders: corsHeaders,
	})
}
