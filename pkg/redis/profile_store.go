package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/flagkit/pkg/profile"
)

// ProfileStore keeps one JSON-encoded profile per user.
type ProfileStore struct {
	db     redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ profile.Store = (*ProfileStore)(nil)

// NewProfileStore creates a store under cfg.KeyPrefix. Profiles expire after
// cfg.ProfileTTL when it is positive.
func NewProfileStore(client redis.UniversalClient, cfg Config) *ProfileStore {
	return &ProfileStore{
		db:     client,
		prefix: cfg.KeyPrefix + "profile:",
		ttl:    max(cfg.ProfileTTL, 0),
	}
}

func (s *ProfileStore) Lookup(ctx context.Context, userID string) (profile.Profile, error) {
	data, err := s.db.Get(ctx, s.prefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return profile.Profile{}, profile.ErrNotFound
	}
	if err != nil {
		return profile.Profile{}, err
	}

	var p profile.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return profile.Profile{}, errors.Join(ErrCorruptedValue, err)
	}
	if p.ID == "" {
		p.ID = userID
	}
	return p, nil
}

func (s *ProfileStore) Save(ctx context.Context, p profile.Profile) error {
	if p.ID == "" {
		return profile.ErrInvalidProfile
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.db.Set(ctx, s.prefix+p.ID, data, s.ttl).Err()
}
