package profile

import (
	"context"
	"maps"
)

// Decision is a saved assignment for one experiment.
type Decision struct {
	VariationID string `json:"variation_id" bson:"variation_id"`
}

// Profile is the sticky-bucketing record of one user, keyed by experiment id.
type Profile struct {
	ID        string              `json:"user_id" bson:"_id"`
	Decisions map[string]Decision `json:"experiment_bucket_map" bson:"decisions"`
}

// New returns an empty profile for userID.
func New(userID string) Profile {
	return Profile{ID: userID, Decisions: make(map[string]Decision)}
}

// VariationID returns the saved variation id for experimentID.
func (p Profile) VariationID(experimentID string) (string, bool) {
	d, ok := p.Decisions[experimentID]
	if !ok || d.VariationID == "" {
		return "", false
	}
	return d.VariationID, true
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	c := Profile{ID: p.ID, Decisions: maps.Clone(p.Decisions)}
	if c.Decisions == nil {
		c.Decisions = make(map[string]Decision)
	}
	return c
}

// Store persists profiles. Implementations must be safe for concurrent use.
// Lookup returns ErrNotFound when the user has no profile.
type Store interface {
	Lookup(ctx context.Context, userID string) (Profile, error)
	Save(ctx context.Context, p Profile) error
}
