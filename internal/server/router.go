package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yojanasaar/yojanasaar/internal/api/handlers"
	"github.com/yojanasaar/yojanasaar/internal/api/middleware"
)

type RouterConfig struct {
	QueryHandler  *handlers.QueryHandler
	SchemeHandler *handlers.SchemeHandler
	MetaHandler   *handlers.MetaHandler
	HealthHandler *handlers.HealthHandler
	RateLimiter   *middleware.IPRateLimiter
	CORSOrigins   []string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	corsOrigins := cfg.CORSOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.CORS(corsOrigins))
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter, "/health"))
	}
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", cfg.HealthHandler.Check)

	r.Post("/query", cfg.QueryHandler.Query)

	r.Route("/schemes", func(r chi.Router) {
		r.Get("/", cfg.SchemeHandler.List)
		r.Get("/{id}", cfg.SchemeHandler.Get)
	})

	r.Get("/meta/filters", cfg.MetaHandler.Filters)

	return r
}
