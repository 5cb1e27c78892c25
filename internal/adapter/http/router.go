package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/chequer/internal/adapter/http/handler"
	"github.com/iho/chequer/internal/adapter/http/middleware"
	"github.com/iho/chequer/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	ChequeHandler    *handler.ChequeHandler
	AccountHandler   *handler.AccountHandler
	HealthHandler    *handler.HealthHandler
	IdempotencyStore usecase.IdempotencyStore
	RateLimiter      *middleware.RateLimiter
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery)

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Cheques
		r.Route("/cheques", func(r chi.Router) {
			r.Post("/", cfg.ChequeHandler.Submit)
			r.Get("/{id}", cfg.ChequeHandler.Get)
			r.Get("/{id}/attempts", cfg.ChequeHandler.ListAttempts)
			r.Get("/{id}/events", cfg.ChequeHandler.ListEvents)
			r.Post("/{id}/cancel", cfg.ChequeHandler.Cancel)
			r.Post("/{id}/reverse", cfg.ChequeHandler.Reverse)
		})

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
		})
	})

	return r
}
