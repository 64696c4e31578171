package resolve

import (
	"fmt"
	"sort"
	"sync"
)

// Registry stores descriptors keyed by entity type name. Registration is
// expected to complete at type-initialization time, before any resolution
// begins; lookups afterwards are read-only.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]*Descriptor
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		descriptors: make(map[string]*Descriptor),
	}
}

// Register validates and stores the descriptor. Registering the same entity
// type twice replaces the prior descriptor; the last registration wins.
func (r *Registry) Register(d *Descriptor) error {
	if d == nil {
		return fmt.Errorf("resolve: descriptor is nil")
	}
	if err := d.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.descriptors == nil {
		r.descriptors = make(map[string]*Descriptor)
	}
	r.descriptors[d.entityType] = d
	return nil
}

// Lookup returns the descriptor registered for the entity type.
func (r *Registry) Lookup(entityType string) (*Descriptor, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[entityType]
	return d, ok
}

// Types returns registered entity type names sorted alphabetically.
func (r *Registry) Types() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
