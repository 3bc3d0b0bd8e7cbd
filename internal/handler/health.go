package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/ramzan118/gke-node-backend/internal/repository"
)

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	handle *repository.Handle
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(handle *repository.Handle) *HealthHandler {
	return &HealthHandler{handle: handle}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe endpoint.
// It returns 200 if the server is running; no dependency checks.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz is a readiness probe endpoint.
// It returns 200 only once the database handle is initialized and answers a
// liveness query.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	store, ok := h.handle.Get()
	switch {
	case !ok:
		checks["spanner"] = "not initialized"
		healthy = false
	default:
		if err := store.Ping(ctx); err != nil {
			checks["spanner"] = "error: " + err.Error()
			healthy = false
		} else {
			checks["spanner"] = "ok"
		}
	}

	status := "ok"
	statusCode := http.StatusOK
	if !healthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, HealthResponse{Status: status, Checks: checks})
}
