package server

import (
	"net/http"

	"github.com/cloo-solutions/intranet-search/internal/api"
	"github.com/cloo-solutions/intranet-search/internal/api/handlers"
	"github.com/cloo-solutions/intranet-search/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Resolver          middleware.UserResolver
	Logger            *zap.Logger
	SearchHandler     *handlers.SearchHandler
	IndexHandler      *handlers.IndexHandler
	ContentGapHandler *handlers.ContentGapHandler
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog(cfg.Logger))
	r.Use(middleware.CORS)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.With(middleware.OptionalAuth(cfg.Resolver, cfg.Logger)).
		Post("/search", cfg.SearchHandler.Search)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.Resolver))

		r.Post("/search/index", cfg.IndexHandler.Rebuild)
		r.Get("/search/index/status", cfg.IndexHandler.Status)

		r.Route("/content-gaps", func(r chi.Router) {
			r.Get("/", cfg.ContentGapHandler.List)
			r.Patch("/{id}", cfg.ContentGapHandler.UpdateStatus)
			r.Post("/export", cfg.ContentGapHandler.Export)
		})
	})

	return r
}
