package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// RouterConfig holds the cross-cutting settings of the HTTP API
type RouterConfig struct {
	APIToken       string
	RateLimitRPS   float64 // 0 disables rate limiting
	RateLimitBurst int
	SignatureMsg   string
}

// NewRouter wires the portfolio routes and middleware.
// Reads are open; mutations require the bearer token.
func NewRouter(h *PortfolioHandler, cfg RouterConfig) http.Handler {
	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(ContextualLoggerMiddleware)
	r.Use(SignatureHeaderMiddleware(cfg.SignatureMsg))

	r.Get("/healthz", HandleHealthz)

	r.Route("/api/portfolios/{id}", func(r chi.Router) {
		r.Use(RateLimitMiddleware(limiter))

		r.Get("/metrics", h.HandleGetMetrics)

		r.Group(func(r chi.Router) {
			r.Use(BearerAuthMiddleware(cfg.APIToken))
			r.Post("/bootstrap", h.HandleBootstrap)
			r.Post("/trades", h.HandlePostTrade)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		sendJSONError(w, r, "route not found", http.StatusNotFound)
	})

	return r
}
