package zone

import (
	"sort"
	"sync"
)

type Registry struct {
	mu    sync.RWMutex
	zones map[string]*Zone
}

func NewRegistry() *Registry {
	return &Registry{zones: map[string]*Zone{}}
}

func (r *Registry) Add(z *Zone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.zones[z.ID()]; ok {
		return ErrDuplicateZone
	}
	r.zones[z.ID()] = z
	return nil
}

func (r *Registry) Zone(id string) (*Zone, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	z, ok := r.zones[id]
	return z, ok
}

// IDs returns the registered zone ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.zones))
	for id := range r.zones {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) All() []*Zone {
	ids := r.IDs()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Zone, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.zones[id])
	}
	return out
}
