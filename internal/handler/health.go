package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrdesk-backend/internal/ports"
)

// HealthHandler exposes a readiness check.
type HealthHandler struct {
	DB    ports.HealthChecker
	Cache ports.HealthChecker
}

func (h HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
}

func (h HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"database": "ok"}
	status := "ok"
	if err := h.DB.Health(ctx); err != nil {
		checks["database"] = "down"
		status = "degraded"
	}
	if h.Cache != nil {
		checks["cache"] = "ok"
		if err := h.Cache.Health(ctx); err != nil {
			checks["cache"] = "down"
			status = "degraded"
		}
	}
	code := http.StatusOK
	if checks["database"] != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeRawJSON(w, code, map[string]any{"status": status, "checks": checks})
}
