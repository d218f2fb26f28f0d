package decision_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/audience"
	"github.com/dmitrymomot/flagkit/pkg/bucketing"
	"github.com/dmitrymomot/flagkit/pkg/cmab"
	"github.com/dmitrymomot/flagkit/pkg/datafile"
	"github.com/dmitrymomot/flagkit/pkg/decide"
	"github.com/dmitrymomot/flagkit/pkg/decision"
	"github.com/dmitrymomot/flagkit/pkg/entities"
	"github.com/dmitrymomot/flagkit/pkg/logger"
	"github.com/dmitrymomot/flagkit/pkg/profile"
)

func full(id string) []entities.Range {
	return []entities.Range{{EntityID: id, EndOfRange: 10000}}
}

func split(a, b string) []entities.Range {
	return []entities.Range{{EntityID: a, EndOfRange: 5000}, {EntityID: b, EndOfRange: 10000}}
}

func exact(name string, value any) []any {
	return []any{"and", map[string]any{"type": "custom_attribute", "name": name, "match": "exact", "value": value}}
}

func testSnapshot(t *testing.T) *datafile.Snapshot {
	t.Helper()
	snap, err := datafile.Build(&datafile.Datafile{
		Version:  "4",
		Revision: "1",
		Attributes: []datafile.Attribute{
			{ID: "attr_age", Key: "age"},
			{ID: "attr_device", Key: "device"},
		},
		TypedAudiences: []datafile.Audience{
			{ID: "aud_ios", Name: "iOS", Conditions: exact("device", "ios")},
			{ID: "aud_beta", Name: "Beta", Conditions: exact("beta", true)},
			{ID: "aud_adult", Name: "Adults", Conditions: []any{"and", map[string]any{
				"type": "custom_attribute", "name": "age", "match": "ge", "value": 18,
			}}},
		},
		Experiments: []datafile.Experiment{
			{
				ID: "1886780721", Key: "ab_test", Status: "Running",
				Variations: []datafile.Variation{
					{ID: "7722370027", Key: "control"},
					{ID: "7721010009", Key: "treatment"},
				},
				TrafficAllocation: split("7722370027", "7721010009"),
				ForcedVariations:  map[string]string{"white_user": "control", "broken_white": "gone"},
			},
			{
				ID: "exp_paused", Key: "paused_test", Status: "Paused",
				Variations:        []datafile.Variation{{ID: "p_v", Key: "p_v"}},
				TrafficAllocation: full("p_v"),
			},
			{
				ID: "exp_aud", Key: "audience_test", Status: "Running",
				AudienceIDs:       []string{"aud_ios"},
				Variations:        []datafile.Variation{{ID: "a_v", Key: "a_v"}},
				TrafficAllocation: full("a_v"),
			},
			{
				ID: "exp_feat", Key: "feature_test", Status: "Running",
				AudienceIDs: []string{"aud_beta"},
				Variations: []datafile.Variation{
					{ID: "ft_on", Key: "ft_on", FeatureEnabled: true},
					{ID: "ft_off", Key: "ft_off"},
				},
				TrafficAllocation: split("ft_on", "ft_off"),
				ForcedVariations:  map[string]string{"white_user": "ft_off"},
			},
			{
				ID: "exp_cmab", Key: "cmab_test", Status: "Running",
				Cmab: &datafile.Cmab{AttributeIDs: []string{"attr_age"}, TrafficAllocation: 10000},
				Variations: []datafile.Variation{
					{ID: "arm_a", Key: "arm_a", FeatureEnabled: true},
					{ID: "arm_b", Key: "arm_b", FeatureEnabled: true},
				},
			},
		},
		FeatureFlags: []datafile.FeatureFlag{
			{ID: "flag_1", Key: "checkout", RolloutID: "rollout_1", ExperimentIDs: []string{"exp_feat"}},
			{ID: "flag_2", Key: "recs", RolloutID: "rollout_2", ExperimentIDs: []string{"exp_cmab"}},
			{ID: "flag_3", Key: "held", RolloutID: "rollout_2"},
		},
		Rollouts: []datafile.Rollout{
			{ID: "rollout_1", Experiments: []datafile.Experiment{
				{
					ID: "rule_adult", Key: "adults", Status: "Running",
					AudienceIDs:       []string{"aud_adult"},
					Variations:        []datafile.Variation{{ID: "r_adult", Key: "adult_on", FeatureEnabled: true}},
					TrafficAllocation: []entities.Range{{EntityID: "r_adult", EndOfRange: 5000}},
				},
				{
					ID: "rule_everyone", Key: "everyone_else", Status: "Running",
					Variations:        []datafile.Variation{{ID: "r_default", Key: "default_on", FeatureEnabled: true}},
					TrafficAllocation: full("r_default"),
				},
			}},
			{ID: "rollout_2", Experiments: []datafile.Experiment{
				{
					ID: "rule_recs", Key: "recs_everyone", Status: "Running",
					Variations:        []datafile.Variation{{ID: "r2_default", Key: "recs_default", FeatureEnabled: true}},
					TrafficAllocation: full("r2_default"),
				},
			}},
		},
		Holdouts: []datafile.Holdout{
			{
				ID: "h_global", Key: "global_holdout", Status: "Running",
				Variations:        []datafile.Variation{{ID: "var_1", Key: "var_1"}},
				TrafficAllocation: []entities.Range{{EntityID: "var_1", EndOfRange: 5000}},
				ExcludedFlags:     []string{"flag_1", "flag_2"},
			},
			{
				ID: "h_incl", Key: "included_holdout", Status: "Running",
				AudienceIDs:       []string{"aud_ios"},
				Variations:        []datafile.Variation{{ID: "var_2", Key: "var_2"}},
				TrafficAllocation: full("var_2"),
				IncludedFlags:     []string{"flag_3"},
			},
		},
	})
	require.NoError(t, err)
	return snap
}

// buckets answers from table and falls back to def for other keys.
func buckets(def int, table map[string]int) func(string) int {
	return func(key string) int {
		if v, ok := table[key]; ok {
			return v
		}
		return def
	}
}

func newService(fn func(string) int, opts ...decision.Option) *decision.Service {
	var bopts []bucketing.Option
	if fn != nil {
		bopts = append(bopts, bucketing.WithBucketFunc(fn))
	}
	bopts = append(bopts, bucketing.WithLogger(logger.Discard()))
	return decision.New(
		bucketing.New(bopts...),
		audience.NewEvaluator(audience.WithLogger(logger.Discard())),
		append([]decision.Option{decision.WithLogger(logger.Discard())}, opts...)...,
	)
}

func user(id string, attrs map[string]any) decision.User {
	return decision.User{ID: id, Attributes: audience.NewAttributes(attrs)}
}

var withReasons = decide.Options{IncludeReasons: true}

type mockCmab struct {
	mock.Mock
}

func (m *mockCmab) GetDecision(ctx context.Context, cfg cmab.ConfigSource, userID string, attrs audience.Attributes, ruleID string, opts decide.Options) (cmab.Decision, error) {
	args := m.Called(ctx, userID, ruleID)
	return args.Get(0).(cmab.Decision), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Lookup(ctx context.Context, userID string) (profile.Profile, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(profile.Profile), args.Error(1)
}

func (m *mockStore) Save(ctx context.Context, p profile.Profile) error {
	return m.Called(ctx, p).Error(0)
}

func cmabDecision(variationID, cmabUUID string) cmab.Decision {
	return cmab.Decision{VariationID: variationID, CmabUUID: cmabUUID}
}
