package trajectory

import (
	"sort"
	"sync"
)

// Set holds the current trajectories by body name. Replace swaps the whole
// set; there is no way to add to it incrementally.
type Set struct {
	mu      sync.RWMutex
	samples map[string]*Sample
	order   []string
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{samples: make(map[string]*Sample)}
}

// Replace discards the current trajectories and installs samples. Nil
// entries are ignored; a later sample wins over an earlier one with the
// same name.
func (s *Set) Replace(samples []*Sample) {
	m := make(map[string]*Sample, len(samples))
	order := make([]string, 0, len(samples))
	for _, smp := range samples {
		if smp == nil {
			continue
		}
		if _, dup := m[smp.Name]; !dup {
			order = append(order, smp.Name)
		}
		m[smp.Name] = smp
	}

	s.mu.Lock()
	s.samples = m
	s.order = order
	s.mu.Unlock()
}

// Clear discards every trajectory.
func (s *Set) Clear() {
	s.mu.Lock()
	s.samples = make(map[string]*Sample)
	s.order = nil
	s.mu.Unlock()
}

// Get returns the trajectory for a body.
func (s *Set) Get(name string) (*Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	smp, ok := s.samples[name]
	return smp, ok
}

// All returns the trajectories in the order they were supplied.
func (s *Set) All() []*Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Sample, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.samples[name])
	}
	return out
}

// Names returns the body names in sorted order.
func (s *Set) Names() []string {
	s.mu.RLock()
	names := append([]string(nil), s.order...)
	s.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Len returns the number of trajectories.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}
