package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/flagkit/pkg/profile"
)

// ProfileStore keeps one document per user, keyed by user id.
type ProfileStore struct {
	coll *mongo.Collection
}

var _ profile.Store = (*ProfileStore)(nil)

// NewProfileStore uses cfg.Database and cfg.ProfilesCollection.
func NewProfileStore(client *mongo.Client, cfg Config) *ProfileStore {
	return &ProfileStore{coll: client.Database(cfg.Database).Collection(cfg.ProfilesCollection)}
}

func (s *ProfileStore) Lookup(ctx context.Context, userID string) (profile.Profile, error) {
	var p profile.Profile
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: userID}}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return profile.Profile{}, profile.ErrNotFound
	}
	if err != nil {
		return profile.Profile{}, err
	}
	if p.Decisions == nil {
		p.Decisions = map[string]profile.Decision{}
	}
	return p, nil
}

// Save replaces the user's document, creating it when missing.
func (s *ProfileStore) Save(ctx context.Context, p profile.Profile) error {
	if p.ID == "" {
		return profile.ErrInvalidProfile
	}
	_, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: p.ID}},
		p,
		options.Replace().SetUpsert(true),
	)
	return err
}
