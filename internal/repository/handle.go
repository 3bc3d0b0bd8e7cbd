package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/ramzan118/gke-node-backend/internal/model"
)

// ErrAlreadySet is returned when a Handle is initialized twice.
var ErrAlreadySet = errors.New("database handle already set")

// Store is the read-only database surface used by request handlers.
type Store interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	Ping(ctx context.Context) error
}

// Handle holds the process-wide Store. It is empty until startup finishes and
// is set at most once; readers never block on initialization.
type Handle struct {
	mu    sync.RWMutex
	store Store
}

// NewHandle returns an empty Handle.
func NewHandle() *Handle {
	return &Handle{}
}

// Set publishes store to all readers.
func (h *Handle) Set(store Store) error {
	if store == nil {
		return errors.New("database handle: nil store")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.store != nil {
		return ErrAlreadySet
	}
	h.store = store
	return nil
}

// Get returns the Store and true once initialization has completed.
func (h *Handle) Get() (Store, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.store, h.store != nil
}

// Ready reports whether a Store has been set.
func (h *Handle) Ready() bool {
	_, ok := h.Get()
	return ok
}
