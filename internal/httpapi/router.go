// Package httpapi exposes the message pipeline over HTTP with chi.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/edgard/chatmessages/internal/config"
	"github.com/edgard/chatmessages/internal/logger"
)

// RouterDeps holds everything the router serves. Metrics and Gatherer may be
// nil to disable instrumentation.
type RouterDeps struct {
	Logger         *slog.Logger
	App            config.AppConfig
	RequestTimeout time.Duration
	MetricsPath    string
	Messages       *MessageHandler
	Health         *HealthHandler
	Metrics        *Metrics
	Gatherer       prometheus.Gatherer
}

// NewRouter builds the HTTP handler of the service.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(logger.HTTPMiddleware(log))
	r.Use(deps.Metrics.Middleware)
	r.Use(Recovery(log))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", "")
	})

	if deps.Health != nil {
		r.Get("/", deps.Health.Root)
		r.Get("/health", deps.Health.Live)
		r.Get("/health/live", deps.Health.Live)
		r.Get("/health/ready", deps.Health.Ready)
	}

	if deps.Gatherer != nil && deps.MetricsPath != "" {
		r.Method(http.MethodGet, deps.MetricsPath, promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	if deps.Messages != nil {
		r.Route("/api/v1/messages", func(api chi.Router) {
			if deps.RequestTimeout > 0 {
				api.Use(middleware.Timeout(deps.RequestTimeout))
			}
			api.Post("/", deps.Messages.Create)
			api.Get("/{session_id}", deps.Messages.List)
		})
	}

	return otelhttp.NewHandler(r, deps.App.Name)
}
