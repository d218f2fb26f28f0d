package decision_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/decide"
	"github.com/dmitrymomot/flagkit/pkg/decision"
	"github.com/dmitrymomot/flagkit/pkg/profile"
)

func TestGetVariation_RealHash(t *testing.T) {
	t.Parallel()
	cfg := testSnapshot(t)
	exp, _ := cfg.ExperimentByKey("ab_test")

	// bucketValue("ppid1" + "1886780721") is 5254, inside the treatment range.
	v, cmabUUID, reasons := newService(nil).GetVariation(context.Background(), cfg, exp, user("ppid1", nil), withReasons)
	require.NotNil(t, v)
	assert.Equal(t, "treatment", v.Key)
	assert.Empty(t, cmabUUID)
	assert.Contains(t, reasons.ToReport(), "User [ppid1] is in variation [treatment] of experiment [ab_test].")
}

func TestGetVariation_Boundaries(t *testing.T) {
	t.Parallel()
	cfg := testSnapshot(t)
	exp, _ := cfg.ExperimentByKey("ab_test")

	v, _, _ := newService(buckets(4999, nil)).GetVariation(context.Background(), cfg, exp, user("u", nil), decide.Options{})
	require.NotNil(t, v)
	assert.Equal(t, "control", v.Key)

	v, _, _ = newService(buckets(5000, nil)).GetVariation(context.Background(), cfg, exp, user("u", nil), decide.Options{})
	require.NotNil(t, v)
	assert.Equal(t, "treatment", v.Key)
}

func TestGetVariation_NotRunning(t *testing.T) {
	t.Parallel()
	cfg := testSnapshot(t)
	exp, _ := cfg.ExperimentByKey("paused_test")

	v, _, reasons := newService(nil).GetVariation(context.Background(), cfg, exp, user("u", nil), withReasons)
	assert.Nil(t, v)
	assert.Equal(t, []string{"Experiment [paused_test] is not running."}, reasons.ToReport())
}

func TestGetVariation_AudienceGate(t *testing.T) {
	t.Parallel()
	cfg := testSnapshot(t)
	exp, _ := cfg.ExperimentByKey("audience_test")
	svc := newService(nil)

	v, _, reasons := svc.GetVariation(context.Background(), cfg, exp, user("u", map[string]any{"device": "android"}), withReasons)
	assert.Nil(t, v)
	assert.Contains(t, reasons.ToReport(), "Audiences for experiment [audience_test] collectively evaluated to [FALSE].")
	assert.Contains(t, reasons.ToReport(), "User [u] does not meet conditions to be in experiment [audience_test].")

	// A missing attribute is unknown and does not match either.
	v, _, _ = svc.GetVariation(context.Background(), cfg, exp, user("u", nil), withReasons)
	assert.Nil(t, v)

	v, _, _ = svc.GetVariation(context.Background(), cfg, exp, user("u", map[string]any{"device": "ios"}), withReasons)
	require.NotNil(t, v)
	assert.Equal(t, "a_v", v.Key)
}

func TestGetVariation_Precedence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := testSnapshot(t)
	exp, _ := cfg.ExperimentByKey("ab_test")

	t.Run("whitelist beats profile and bucketing", func(t *testing.T) {
		t.Parallel()
		store := profile.NewMemoryStore(profile.Profile{
			ID:        "white_user",
			Decisions: map[string]profile.Decision{"1886780721": {VariationID: "7721010009"}},
		})
		svc := newService(buckets(9999, nil), decision.WithProfileStore(store))

		v, _, reasons := svc.GetVariation(ctx, cfg, exp, user("white_user", nil), withReasons)
		require.NotNil(t, v)
		assert.Equal(t, "control", v.Key)
		assert.Equal(t, []string{"User [white_user] is forced in variation [control] of experiment [ab_test]."}, reasons.ToReport())
	})

	t.Run("invalid whitelist entry falls through", func(t *testing.T) {
		t.Parallel()
		svc := newService(buckets(9999, nil))

		v, _, reasons := svc.GetVariation(ctx, cfg, exp, user("broken_white", nil), decide.Options{})
		require.NotNil(t, v)
		assert.Equal(t, "treatment", v.Key)
		assert.Equal(t, []string{"Variation [gone] forced for user [broken_white] is not in experiment [ab_test]."}, reasons.ToReport())
	})

	t.Run("profile beats bucketing", func(t *testing.T) {
		t.Parallel()
		store := profile.NewMemoryStore(profile.Profile{
			ID:        "u",
			Decisions: map[string]profile.Decision{"1886780721": {VariationID: "7722370027"}},
		})
		svc := newService(buckets(9999, nil), decision.WithProfileStore(store))

		v, _, reasons := svc.GetVariation(ctx, cfg, exp, user("u", nil), withReasons)
		require.NotNil(t, v)
		assert.Equal(t, "control", v.Key)
		assert.Equal(t, []string{
			"Returning previously activated variation [control] of experiment [ab_test] for user [u] from user profile.",
		}, reasons.ToReport())
	})

	t.Run("ignore profile option", func(t *testing.T) {
		t.Parallel()
		store := profile.NewMemoryStore(profile.Profile{
			ID:        "u",
			Decisions: map[string]profile.Decision{"1886780721": {VariationID: "7722370027"}},
		})
		svc := newService(buckets(9999, nil), decision.WithProfileStore(store))

		v, _, _ := svc.GetVariation(ctx, cfg, exp, user("u", nil), decide.Options{IgnoreUserProfileService: true})
		require.NotNil(t, v)
		assert.Equal(t, "treatment", v.Key)
	})
}

func TestGetVariation_StickyIdempotence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := testSnapshot(t)
	exp, _ := cfg.ExperimentByKey("ab_test")
	store := profile.NewMemoryStore()

	first := newService(buckets(9999, nil), decision.WithProfileStore(store))
	v, _, _ := first.GetVariation(ctx, cfg, exp, user("u", nil), decide.Options{})
	require.NotNil(t, v)
	assert.Equal(t, "treatment", v.Key)

	saved, err := store.Lookup(ctx, "u")
	require.NoError(t, err)
	id, ok := saved.VariationID("1886780721")
	require.True(t, ok)
	assert.Equal(t, "7721010009", id)

	// Re-bucketing would now land in control; the saved decision wins.
	second := newService(buckets(0, nil), decision.WithProfileStore(store))
	for range 3 {
		v, _, _ = second.GetVariation(ctx, cfg, exp, user("u", nil), decide.Options{})
		require.NotNil(t, v)
		assert.Equal(t, "treatment", v.Key)
	}
}

func TestGetVariation_StaleProfileRebuckets(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := testSnapshot(t)
	exp, _ := cfg.ExperimentByKey("ab_test")
	store := profile.NewMemoryStore(profile.Profile{
		ID:        "u",
		Decisions: map[string]profile.Decision{"1886780721": {VariationID: "deleted"}},
	})

	svc := newService(buckets(0, nil), decision.WithProfileStore(store))
	v, _, reasons := svc.GetVariation(ctx, cfg, exp, user("u", nil), withReasons)
	require.NotNil(t, v)
	assert.Equal(t, "control", v.Key)
	assert.Contains(t, reasons.ToReport(),
		"User [u] was previously bucketed into variation with ID [deleted] for experiment [ab_test], but no matching variation was found. Re-bucketing user.")

	saved, err := store.Lookup(ctx, "u")
	require.NoError(t, err)
	id, _ := saved.VariationID("1886780721")
	assert.Equal(t, "7722370027", id)
}

func TestGetVariation_ProfileStoreFailuresAreSwallowed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := testSnapshot(t)
	exp, _ := cfg.ExperimentByKey("ab_test")

	store := &mockStore{}
	store.On("Lookup", ctx, "u").Return(profile.Profile{}, errors.New("redis down"))
	store.On("Save", ctx, mock.Anything).Return(errors.New("redis down"))

	svc := newService(buckets(0, nil), decision.WithProfileStore(store))
	v, _, _ := svc.GetVariation(ctx, cfg, exp, user("u", nil), decide.Options{})
	require.NotNil(t, v)
	assert.Equal(t, "control", v.Key)
	store.AssertExpectations(t)
}

func TestGetVariation_BucketingIDAttribute(t *testing.T) {
	t.Parallel()
	cfg := testSnapshot(t)
	exp, _ := cfg.ExperimentByKey("ab_test")

	svc := newService(buckets(9999, map[string]int{"shared1886780721": 0}))
	v, _, _ := svc.GetVariation(context.Background(), cfg, exp,
		user("u", map[string]any{"$opt_bucketing_id": "shared"}), decide.Options{})
	require.NotNil(t, v)
	assert.Equal(t, "control", v.Key)
}

func TestGetVariation_Cmab(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := testSnapshot(t)
	exp, _ := cfg.ExperimentByKey("cmab_test")

	t.Run("bandit rules bypass the user profile", func(t *testing.T) {
		t.Parallel()
		c := &mockCmab{}
		c.On("GetDecision", ctx, "u", "exp_cmab").Return(cmabDecision("arm_b", "uuid-1"), nil).Once()
		store := profile.NewMemoryStore(profile.Profile{
			ID:        "u",
			Decisions: map[string]profile.Decision{"exp_cmab": {VariationID: "arm_a"}},
		})

		svc := newService(buckets(0, nil), decision.WithCmabService(c), decision.WithProfileStore(store))
		v, cmabUUID, _ := svc.GetVariation(ctx, cfg, exp, user("u", map[string]any{"age": 30}), decide.Options{})
		require.NotNil(t, v)
		assert.Equal(t, "arm_b", v.Key)
		assert.Equal(t, "uuid-1", cmabUUID)

		saved, err := store.Lookup(ctx, "u")
		require.NoError(t, err)
		id, _ := saved.VariationID("exp_cmab")
		assert.Equal(t, "arm_a", id, "cmab decisions are not persisted")
		c.AssertExpectations(t)
	})

	t.Run("scorer failure yields no variation", func(t *testing.T) {
		t.Parallel()
		c := &mockCmab{}
		c.On("GetDecision", ctx, "u", "exp_cmab").Return(cmabDecision("", ""), errors.New("timeout"))

		svc := newService(buckets(0, nil), decision.WithCmabService(c))
		v, _, reasons := svc.GetVariation(ctx, cfg, exp, user("u", nil), decide.Options{})
		assert.Nil(t, v)
		assert.Equal(t, []string{"Failed to fetch CMAB data for experiment [cmab_test]."}, reasons.ToReport())
	})

	t.Run("unknown variation from scorer", func(t *testing.T) {
		t.Parallel()
		c := &mockCmab{}
		c.On("GetDecision", ctx, "u", "exp_cmab").Return(cmabDecision("arm_z", "uuid"), nil)

		svc := newService(buckets(0, nil), decision.WithCmabService(c))
		v, _, _ := svc.GetVariation(ctx, cfg, exp, user("u", nil), decide.Options{})
		assert.Nil(t, v)
	})
}
