package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/flagkit/pkg/profile"
)

const (
	selectDecisions = `SELECT experiment_id, variation_id FROM user_profile_decisions WHERE user_id = $1`
	upsertDecision  = `INSERT INTO user_profile_decisions (user_id, experiment_id, variation_id, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (user_id, experiment_id)
DO UPDATE SET variation_id = EXCLUDED.variation_id, updated_at = EXCLUDED.updated_at`
)

// ProfileStore keeps one row per user and experiment. Run Migrate first.
type ProfileStore struct {
	pool *pgxpool.Pool
}

var _ profile.Store = (*ProfileStore)(nil)

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

func (s *ProfileStore) Lookup(ctx context.Context, userID string) (profile.Profile, error) {
	rows, err := s.pool.Query(ctx, selectDecisions, userID)
	if err != nil {
		return profile.Profile{}, err
	}

	p := profile.New(userID)
	var experimentID, variationID string
	_, err = pgx.ForEachRow(rows, []any{&experimentID, &variationID}, func() error {
		p.Decisions[experimentID] = profile.Decision{VariationID: variationID}
		return nil
	})
	if err != nil {
		return profile.Profile{}, err
	}
	if len(p.Decisions) == 0 {
		return profile.Profile{}, profile.ErrNotFound
	}
	return p, nil
}

// Save upserts every decision of p in one transaction. Rows for experiments
// no longer in p are left untouched.
func (s *ProfileStore) Save(ctx context.Context, p profile.Profile) error {
	if p.ID == "" {
		return profile.ErrInvalidProfile
	}
	if len(p.Decisions) == 0 {
		return nil
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for experimentID, d := range p.Decisions {
			batch.Queue(upsertDecision, p.ID, experimentID, d.VariationID)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upsert profile %s: %w", p.ID, err)
		}
		return nil
	})
}
