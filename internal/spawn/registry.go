package spawn

import (
	"sort"
	"sync"
	"time"

	"github.com/tiltlab/arlabyrinth/internal/ball"
	"github.com/tiltlab/arlabyrinth/pkg/engine"
)

// Entry is the content spawned for one marker.
type Entry struct {
	Marker    string
	Instance  engine.Instance
	Ball      *ball.Machine // nil when the prefab has no ball
	SpawnedAt time.Time
}

// Registry maps marker names to their spawned content.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// Get retrieves an entry by marker name
func (r *Registry) Get(marker string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[marker]
	return e, ok
}

// Set stores an entry under its marker name
func (r *Registry) Set(e *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.Marker] = e
}

// Delete removes a marker
func (r *Registry) Delete(marker string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, marker)
}

// Len returns the number of spawned markers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Names returns the spawned marker names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Reset clears all entries without touching the instances
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*Entry)
}
