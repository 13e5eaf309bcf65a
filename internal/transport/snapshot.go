package transport

import (
	"slices"
	"sync"

	"github.com/mobil-koeln/ojp-sign/internal/models"
)

// Snapshot holds the latest departures. Readers get copies; writers swap the
// whole list at once, so a reader never sees a mix of two fetches.
type Snapshot struct {
	mu   sync.RWMutex
	deps []models.Departure
}

// Load returns a copy of the current departures. It never returns nil.
func (s *Snapshot) Load() []models.Departure {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deps == nil {
		return []models.Departure{}
	}
	return slices.Clone(s.deps)
}

// Replace stores a private copy of deps as the current departures
func (s *Snapshot) Replace(deps []models.Departure) {
	next := slices.Clone(deps)
	if next == nil {
		next = []models.Departure{}
	}
	s.mu.Lock()
	s.deps = next
	s.mu.Unlock()
}
