// Package registry holds the user's chosen priorities and their weights.
package registry

import (
	"sync"

	"github.com/okian/vigia/internal/domain/model"
)

// Registry stores an ordered, validated priority set. Replacing the set bumps
// Version, which invalidates every score computed under the previous one.
type Registry struct {
	mu         sync.RWMutex
	priorities []model.Priority
	byID       map[string]int
	version    uint64
}

// New returns an empty registry at version 0.
func New() *Registry {
	return &Registry{byID: make(map[string]int)}
}

// SetPriorities validates the whole list and replaces the current set. On
// error the registry is left untouched.
func (r *Registry) SetPriorities(priorities []model.Priority) error {
	byID := make(map[string]int, len(priorities))
	for i, p := range priorities {
		if err := p.Validate(); err != nil {
			return err
		}
		if _, dup := byID[p.ID]; dup {
			return &model.ValidationError{Op: "registry.set_priorities", Field: "id", ID: p.ID, Reason: "duplicated"}
		}
		byID[p.ID] = i
	}

	set := make([]model.Priority, len(priorities))
	copy(set, priorities)

	r.mu.Lock()
	r.priorities = set
	r.byID = byID
	r.version++
	r.mu.Unlock()
	return nil
}

// Priorities returns a copy of the set in insertion order.
func (r *Registry) Priorities() []model.Priority {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Priority, len(r.priorities))
	copy(out, r.priorities)
	return out
}

// Snapshot returns the set together with its version, read atomically.
func (r *Registry) Snapshot() ([]model.Priority, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Priority, len(r.priorities))
	copy(out, r.priorities)
	return out, r.version
}

// Lookup returns the priority with the given id.
func (r *Registry) Lookup(id string) (model.Priority, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[id]
	if !ok {
		return model.Priority{}, false
	}
	return r.priorities[i], true
}

// Version returns the current priority set version.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Len returns the number of priorities in the set.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.priorities)
}
