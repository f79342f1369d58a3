package system

import (
	"errors"
	"fmt"
	"sync"

	"github.com/txecs/runtime/internal/core/ident"
)

// ErrDuplicate is returned when a system ID is registered twice.
var ErrDuplicate = errors.New("system already registered")

// Identified is anything registered under a SystemID.
type Identified interface {
	ID() ident.SystemID
}

// Registry keeps systems in registration order and rejects duplicate IDs.
// Registration order is update order and event delivery order.
type Registry[S Identified] struct {
	mu      sync.RWMutex
	ordered []S
	byID    map[ident.SystemID]int
}

func NewRegistry[S Identified]() *Registry[S] {
	return &Registry[S]{
		ordered: make([]S, 0, 16),
		byID:    make(map[ident.SystemID]int, 16),
	}
}

// Register appends s.
func (r *Registry[S]) Register(s S) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := s.ID()
	if _, ok := r.byID[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, id)
	}
	r.byID[id] = len(r.ordered)
	r.ordered = append(r.ordered, s)
	return nil
}

// Get looks a system up by ID.
func (r *Registry[S]) Get(id ident.SystemID) (S, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[id]
	if !ok {
		var zero S
		return zero, false
	}
	return r.ordered[i], true
}

// Snapshot returns the systems in registration order. Systems registered
// after the call are not included.
func (r *Registry[S]) Snapshot() []S {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]S, len(r.ordered))
	copy(out, r.ordered)
	return out
}

func (r *Registry[S]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}

// IDOf derives a SystemID from S's type name. Two systems of the same type
// need explicit IDs instead.
func IDOf[S any]() ident.SystemID {
	return ident.SystemID{Identifier: ident.OfType[S]()}
}
