package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/edgard/chatmessages/internal/config"
)

const readinessTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the service info and health endpoints.
type HealthHandler struct {
	app    config.AppConfig
	db     Pinger
	logger *slog.Logger
}

func NewHealthHandler(app config.AppConfig, db Pinger, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{app: app, db: db, logger: logger.With("component", "health")}
}

// Root describes the running service.
func (h *HealthHandler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Chat Message API",
		"version": h.app.Version,
		"status":  "running",
	})
}

// Live reports that the process is serving requests.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "healthy",
		"app_name":    h.app.Name,
		"version":     h.app.Version,
		"environment": h.app.Environment,
	})
}

// Ready additionally checks the database.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.logger.WarnContext(r.Context(), "Readiness check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"reason": "database unreachable",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
