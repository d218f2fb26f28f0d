package profile

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store. It's useful for testing and for hosts
// that only need stickiness for the life of the process.
type MemoryStore struct {
	profiles map[string]Profile
	mu       sync.RWMutex
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store seeded with initial profiles.
func NewMemoryStore(initial ...Profile) *MemoryStore {
	s := &MemoryStore{profiles: make(map[string]Profile, len(initial))}
	for _, p := range initial {
		if p.ID == "" {
			continue
		}
		s.profiles[p.ID] = p.Clone()
	}
	return s
}

// Lookup returns a copy of the stored profile.
func (s *MemoryStore) Lookup(_ context.Context, userID string) (Profile, error) {
	s.mu.RLock()
	p, ok := s.profiles[userID]
	s.mu.RUnlock()

	if !ok {
		return Profile{}, ErrNotFound
	}
	return p.Clone(), nil
}

// Save replaces the stored profile with a copy of p.
func (s *MemoryStore) Save(_ context.Context, p Profile) error {
	if p.ID == "" {
		return ErrInvalidProfile
	}
	s.mu.Lock()
	s.profiles[p.ID] = p.Clone()
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored profiles.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}
