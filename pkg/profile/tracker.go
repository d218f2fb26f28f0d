package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Tracker caches one user's profile across the decisions of a single decide
// call. It is safe for concurrent use.
type Tracker struct {
	store   Store
	userID  string
	mu      sync.Mutex
	loaded  bool
	changed bool
	profile Profile
}

// NewTracker creates a tracker for userID. A nil store makes every operation
// a no-op.
func NewTracker(store Store, userID string) *Tracker {
	return &Tracker{store: store, userID: userID, profile: New(userID)}
}

// Load fetches the profile once. A missing profile is not an error. On a
// store failure the tracker keeps an empty profile and the wrapped error is
// returned for the caller to log.
func (t *Tracker) Load(ctx context.Context) error {
	if t == nil || t.store == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.loaded {
		return nil
	}
	t.loaded = true

	p, err := t.store.Lookup(ctx, t.userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("%w: user %q: %w", ErrLookupFailed, t.userID, err)
	}

	p = p.Clone()
	p.ID = t.userID
	t.profile = p
	return nil
}

// VariationID returns the saved variation id for experimentID.
func (t *Tracker) VariationID(experimentID string) (string, bool) {
	if t == nil {
		return "", false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.profile.VariationID(experimentID)
}

// Update records an assignment in memory.
func (t *Tracker) Update(experimentID, variationID string) {
	if t == nil || t.store == nil || experimentID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if current, ok := t.profile.Decisions[experimentID]; ok && current.VariationID == variationID {
		return
	}
	t.profile.Decisions[experimentID] = Decision{VariationID: variationID}
	t.changed = true
}

// SaveIfChanged writes the profile back when Update recorded something new.
func (t *Tracker) SaveIfChanged(ctx context.Context) error {
	if t == nil || t.store == nil {
		return nil
	}
	t.mu.Lock()
	if !t.changed {
		t.mu.Unlock()
		return nil
	}
	p := t.profile.Clone()
	t.changed = false
	t.mu.Unlock()

	if err := t.store.Save(ctx, p); err != nil {
		return fmt.Errorf("%w: user %q: %w", ErrSaveFailed, t.userID, err)
	}
	return nil
}
