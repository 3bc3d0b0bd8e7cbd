package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ramzan118/gke-node-backend/internal/metrics"
	"github.com/ramzan118/gke-node-backend/internal/middleware"
	"github.com/ramzan118/gke-node-backend/internal/model"
	"github.com/ramzan118/gke-node-backend/internal/repository"
)

// Plain-text bodies for /api/users failures. The two messages are kept
// distinct so clients can tell transient unavailability from query failures.
const (
	msgNotInitialized = "Database not initialized."
	msgFetchFailed    = "Error fetching users."
)

// UsersHandler serves the users API.
type UsersHandler struct {
	handle       *repository.Handle
	logger       *slog.Logger
	recorder     metrics.Recorder
	queryTimeout time.Duration
}

// NewUsersHandler creates a new UsersHandler.
// A zero queryTimeout leaves the request context as the only deadline.
func NewUsersHandler(handle *repository.Handle, logger *slog.Logger, recorder metrics.Recorder, queryTimeout time.Duration) *UsersHandler {
	return &UsersHandler{
		handle:       handle,
		logger:       logger,
		recorder:     recorder,
		queryTimeout: queryTimeout,
	}
}

// List returns every user as a JSON array.
// GET /api/users
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	store, ok := h.handle.Get()
	if !ok {
		writeText(w, http.StatusInternalServerError, msgNotInitialized)
		return
	}

	ctx := r.Context()
	if h.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	users, err := store.ListUsers(ctx)
	if err != nil {
		h.recorder.ObserveUsersQuery(metrics.StatusError, 0, time.Since(start))
		h.logger.Error("error fetching users",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("error", err.Error()),
		)
		writeText(w, http.StatusInternalServerError, msgFetchFailed)
		return
	}
	h.recorder.ObserveUsersQuery(metrics.StatusSuccess, len(users), time.Since(start))

	if users == nil {
		users = []model.User{}
	}

	// Encode before writing headers so an encoding failure can still
	// become a clean 500.
	body, err := json.Marshal(users)
	if err != nil {
		h.logger.Error("failed to encode users",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("error", err.Error()),
		)
		writeText(w, http.StatusInternalServerError, msgFetchFailed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
