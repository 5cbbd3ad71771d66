// Package tasks holds the worker-side notification dispatch. The financial
// flow only ever enqueues; delivery, retries and audit live here so a
// notification outage is structurally incapable of touching a ledger.
package tasks

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"schoolpay_backend/internal/services"
)

// Handler delivers one notification message
type Handler func(ctx context.Context, db *gorm.DB, msg services.NotificationMessage) error

// Registry maps notification categories to handlers
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	fallback Handler
}

// GlobalRegistry is the default global registry
var GlobalRegistry = &Registry{
	handlers: make(map[string]Handler),
}

// Register adds a handler for a category
func (r *Registry) Register(category string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[category] = handler
}

// SetFallback sets the handler for categories with no dedicated handler
func (r *Registry) SetFallback(handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = handler
}

// Get retrieves the handler for a category, falling back if none matches
func (r *Registry) Get(category string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h, ok := r.handlers[category]; ok {
		return h, true
	}
	if r.fallback != nil {
		return r.fallback, true
	}
	return nil, false
}

// RegisterHandler is a helper to register to the global registry
func RegisterHandler(category string, handler Handler) {
	GlobalRegistry.Register(category, handler)
}

// GetHandler is a helper to get from the global registry
func GetHandler(category string) (Handler, bool) {
	return GlobalRegistry.Get(category)
}
