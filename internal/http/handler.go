// Package http holds the JSON handlers behind the dashboard API.
package http

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"ackee/internal/domains"
	"ackee/internal/statistics"
	"ackee/internal/timeframe"
	"ackee/internal/tokens"
)

// LoginCookie marks browsers of logged in users so the tracker can skip their visits.
const LoginCookie = "ackee_login"

const (
	loginCookieSet   = LoginCookie + "=1; SameSite=None; Secure; Max-Age=31536000"
	loginCookieClear = LoginCookie + "=0; SameSite=None; Secure; Max-Age=-1"
)

// Options are the dependencies shared by all handlers.
type Options struct {
	DB          *gorm.DB
	Logger      *slog.Logger
	Credentials *tokens.Credentials
	Lookup      *domains.Lookup
	Clock       timeframe.TimeProvider
}

// Handler serves the dashboard API.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
	creds  *tokens.Credentials
	lookup *domains.Lookup
	clock  timeframe.TimeProvider
	stats  *statistics.Service
}

func NewHandler(opts Options) *Handler {
	clock := opts.Clock
	if clock == nil {
		clock = &timeframe.DefaultTimeProvider{}
	}
	lookup := opts.Lookup
	if lookup == nil {
		lookup = domains.NewLookup(opts.DB, opts.Logger)
	}
	return &Handler{
		db:     opts.DB,
		logger: opts.Logger,
		creds:  opts.Credentials,
		lookup: lookup,
		clock:  clock,
		stats:  statistics.NewService(opts.DB, opts.Logger, clock),
	}
}

func (h *Handler) now() time.Time {
	return h.clock.Now(time.UTC)
}
