package mongo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/mongo"
	"github.com/dmitrymomot/flagkit/pkg/profile"
)

func TestNew_EmptyURL(t *testing.T) {
	t.Parallel()

	_, err := mongo.New(context.Background(), mongo.Config{})
	assert.ErrorIs(t, err, mongo.ErrEmptyConnectionURL)
}

func TestProfileStore(t *testing.T) {
	url := os.Getenv("MONGODB_URL")
	if url == "" {
		t.Skip("MONGODB_URL not set")
	}
	ctx := context.Background()
	cfg := mongo.Config{
		ConnectionURL:      url,
		ConnectTimeout:     5 * time.Second,
		RetryAttempts:      1,
		RetryInterval:      time.Second,
		Database:           "flagkit_test",
		ProfilesCollection: "profiles_" + uuid.NewString(),
	}

	client, err := mongo.New(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Database(cfg.Database).Collection(cfg.ProfilesCollection).Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	require.NoError(t, mongo.Healthcheck(client)(ctx))

	store := mongo.NewProfileStore(client, cfg)

	_, err = store.Lookup(ctx, "u1")
	assert.ErrorIs(t, err, profile.ErrNotFound)

	p := profile.New("u1")
	p.Decisions["exp_1"] = profile.Decision{VariationID: "var_1"}
	require.NoError(t, store.Save(ctx, p))

	p.Decisions["exp_1"] = profile.Decision{VariationID: "var_2"}
	require.NoError(t, store.Save(ctx, p))

	got, err := store.Lookup(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, p, got)
}
