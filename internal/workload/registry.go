package workload

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Nullvora/mabor-bench/internal/model"
)

// Registry holds registered benchmark suites keyed by bench id.
type Registry struct {
	mu     sync.RWMutex
	suites map[string]Workload
}

// NewRegistry creates an empty suite registry.
func NewRegistry() *Registry {
	return &Registry{
		suites: make(map[string]Workload),
	}
}

// Register adds a suite to the registry under the given bench id.
func (r *Registry) Register(benchID string, w Workload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suites[benchID] = w
}

// Resolve returns the suite registered for the given bench id.
func (r *Registry) Resolve(benchID string) (Workload, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.suites[benchID]
	if !ok {
		return nil, fmt.Errorf("bench suite %q is not registered", benchID)
	}
	return w, nil
}

// List returns all registered bench ids, sorted for stable output.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.suites))
	for id := range r.suites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BackendSet is the catalog of hardware backends the framework can target.
type BackendSet struct {
	byID map[string]model.Backend
}

// NewBackendSet creates a catalog from the given backend descriptors.
func NewBackendSet(backends ...model.Backend) *BackendSet {
	set := &BackendSet{byID: make(map[string]model.Backend, len(backends))}
	for _, b := range backends {
		set.byID[b.ID] = b
	}
	return set
}

// Resolve returns the descriptor for the given backend id.
func (s *BackendSet) Resolve(id string) (model.Backend, error) {
	b, ok := s.byID[id]
	if !ok {
		return model.Backend{}, fmt.Errorf("backend %q is not registered", id)
	}
	return b, nil
}

// List returns all backend descriptors, sorted by id for a stable response.
func (s *BackendSet) List() []model.Backend {
	backends := make([]model.Backend, 0, len(s.byID))
	for _, b := range s.byID {
		backends = append(backends, b)
	}
	sort.Slice(backends, func(i, j int) bool {
		return backends[i].ID < backends[j].ID
	})
	return backends
}
