// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package session tracks which participants have authenticated in this process.
//
// The registry is process-scoped and never persisted: every participant starts
// a fresh connection unauthenticated, regardless of any prior session.
package session

import (
	"sync"

	"github.com/oklog/ulid/v2"
)

// Registry is the set of currently authenticated participant identities.
// It is safe for concurrent use.
type Registry struct {
	mu  sync.RWMutex
	ids map[ulid.ULID]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		ids: make(map[ulid.ULID]struct{}),
	}
}

// MarkAuthenticated records a participant as authenticated. Idempotent.
func (r *Registry) MarkAuthenticated(id ulid.ULID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids[id] = struct{}{}
}

// IsAuthenticated reports whether a participant has authenticated this session.
func (r *Registry) IsAuthenticated(id ulid.ULID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ids[id]
	return ok
}

// Clear removes a participant's authenticated state. Idempotent; called once
// per disconnect regardless of whether the participant ever authenticated.
func (r *Registry) Clear(id ulid.ULID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ids, id)
}

// Count returns the number of authenticated participants.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ids)
}
