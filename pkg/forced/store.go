package forced

import (
	"maps"
	"sync"
)

// Context identifies a forced decision. An empty RuleKey applies to the flag
// as a whole.
type Context struct {
	FlagKey string `json:"flag_key"`
	RuleKey string `json:"rule_key,omitempty"`
}

// Store is a thread-safe map of forced decisions.
type Store struct {
	mu        sync.RWMutex
	decisions map[Context]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{decisions: make(map[Context]string)}
}

// Set maps ctx to variationKey. It is a no-op returning false when the flag
// key or the variation key is empty.
func (s *Store) Set(ctx Context, variationKey string) bool {
	if ctx.FlagKey == "" || variationKey == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions[ctx] = variationKey
	return true
}

// Get returns the variation key forced for ctx.
func (s *Store) Get(ctx Context) (string, bool) {
	if ctx.FlagKey == "" {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.decisions[ctx]
	return v, ok
}

// Remove deletes the entry for ctx and reports whether it existed.
func (s *Store) Remove(ctx Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.decisions[ctx]; !ok {
		return false
	}
	delete(s.decisions, ctx)
	return true
}

// RemoveAll drops every entry.
func (s *Store) RemoveAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.decisions)
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.decisions)
}

// Copy returns an independent store with the same entries.
func (s *Store) Copy() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Store{decisions: maps.Clone(s.decisions)}
}
