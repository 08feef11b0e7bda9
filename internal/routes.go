package internal

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"
	"gorm.io/gorm"

	v1 "ackee/api/v1"
	"ackee/internal/config"
	"ackee/internal/domains"
	"ackee/internal/http"
	"ackee/internal/http/middleware"
	"ackee/internal/timeframe"
	"ackee/internal/tokens"
)

// Dependencies are what the route table needs to build its handlers.
type Dependencies struct {
	DB          *gorm.DB
	Logger      *slog.Logger
	Config      *config.Config
	Credentials *tokens.Credentials
	Clock       timeframe.TimeProvider
}

// MountAppRoutes mounts all application routes on the cartridge server.
func MountAppRoutes(srv *cartridge.Server, cfg *config.Config, creds *tokens.Credentials) {
	Mount(srv.App(), Dependencies{
		DB:          srv.GetDBManager().GetConnection(),
		Logger:      srv.GetLogger(),
		Config:      cfg,
		Credentials: creds,
	})
}

// Mount registers the route table on router.
func Mount(router fiber.Router, deps Dependencies) {
	cfg := deps.Config

	// In development and test, rate limiting would interfere with testing
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// Tracker traffic: one create and a few updates per page view
	publicRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(70),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Login attempts
	authRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(10),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	lookup := domains.NewLookup(deps.DB, deps.Logger)
	h := http.NewHandler(http.Options{
		DB:          deps.DB,
		Logger:      deps.Logger,
		Credentials: deps.Credentials,
		Lookup:      lookup,
		Clock:       deps.Clock,
	})
	tracking := v1.NewRecordsHandler(deps.DB, deps.Logger, lookup, cfg.PrivateKey, deps.Clock)
	auth := middleware.TokenAuth(deps.DB, deps.Logger, cfg.TokenTTL(), deps.Clock)

	// === HEALTH ===
	router.Get("/_health", h.Health)
	router.Head("/_health", h.Health)

	api := router.Group("/api", middleware.CORS(cfg.AllowedOrigins()))

	// === AUTHENTICATION ===
	api.Post("/tokens", authRateLimiter, h.CreateToken)
	api.Delete("/tokens/:id", h.DeleteToken)

	// === PUBLIC TRACKING ===
	api.Post("/domains/:id/records", publicRateLimiter, tracking.CreateRecord)
	api.Patch("/domains/:id/records/:recordId", publicRateLimiter, tracking.UpdateRecord)

	// === DASHBOARD ===
	api.Get("/domains", auth, h.ListDomains)
	api.Post("/domains", auth, h.CreateDomain)
	api.Get("/domains/:id", auth, h.GetDomain)
	api.Patch("/domains/:id", auth, h.UpdateDomain)
	api.Delete("/domains/:id", auth, h.DeleteDomain)
	api.Get("/domains/:id/statistics", auth, h.DomainOverview)
	api.Get("/domains/:id/statistics/:name", auth, h.DomainStatistic)
}
