package forced_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/entities"
	"github.com/dmitrymomot/flagkit/pkg/forced"
)

type flagVariations map[string]map[string]entities.Variation

func (f flagVariations) FlagVariationByKey(flagKey, variationKey string) (*entities.Variation, bool) {
	v, ok := f[flagKey][variationKey]
	if !ok {
		return nil, false
	}
	return &v, true
}

func TestStore(t *testing.T) {
	t.Parallel()

	t.Run("empty flag key is ignored", func(t *testing.T) {
		t.Parallel()
		s := forced.NewStore()
		assert.False(t, s.Set(forced.Context{RuleKey: "r"}, "v"))
		assert.False(t, s.Set(forced.Context{FlagKey: "f"}, ""))
		assert.Equal(t, 0, s.Len())
	})

	t.Run("flag and rule scopes are distinct", func(t *testing.T) {
		t.Parallel()
		s := forced.NewStore()
		require.True(t, s.Set(forced.Context{FlagKey: "f"}, "flag_level"))
		require.True(t, s.Set(forced.Context{FlagKey: "f", RuleKey: "r"}, "rule_level"))

		v, ok := s.Get(forced.Context{FlagKey: "f"})
		require.True(t, ok)
		assert.Equal(t, "flag_level", v)

		v, ok = s.Get(forced.Context{FlagKey: "f", RuleKey: "r"})
		require.True(t, ok)
		assert.Equal(t, "rule_level", v)

		_, ok = s.Get(forced.Context{FlagKey: "f", RuleKey: "other"})
		assert.False(t, ok)
	})

	t.Run("remove and remove all", func(t *testing.T) {
		t.Parallel()
		s := forced.NewStore()
		s.Set(forced.Context{FlagKey: "a"}, "v")
		s.Set(forced.Context{FlagKey: "b"}, "v")

		assert.True(t, s.Remove(forced.Context{FlagKey: "a"}))
		assert.False(t, s.Remove(forced.Context{FlagKey: "a"}))
		assert.Equal(t, 1, s.Len())

		s.RemoveAll()
		assert.Equal(t, 0, s.Len())
	})

	t.Run("copy is independent", func(t *testing.T) {
		t.Parallel()
		s := forced.NewStore()
		s.Set(forced.Context{FlagKey: "a"}, "v1")

		c := s.Copy()
		c.Set(forced.Context{FlagKey: "a"}, "v2")
		c.Set(forced.Context{FlagKey: "b"}, "v3")

		v, _ := s.Get(forced.Context{FlagKey: "a"})
		assert.Equal(t, "v1", v)
		assert.Equal(t, 1, s.Len())
		assert.Equal(t, 2, c.Len())
	})

	t.Run("concurrent access", func(t *testing.T) {
		t.Parallel()
		s := forced.NewStore()
		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(2)
			go func() {
				defer wg.Done()
				s.Set(forced.Context{FlagKey: "f", RuleKey: string(rune('a' + i%26))}, "v")
			}()
			go func() {
				defer wg.Done()
				s.Get(forced.Context{FlagKey: "f"})
			}()
		}
		wg.Wait()
		assert.Equal(t, 26, s.Len())
	})
}

func TestStore_Resolve(t *testing.T) {
	t.Parallel()

	cfg := flagVariations{
		"checkout": {
			"new_flow": {ID: "v2", Key: "new_flow", FeatureEnabled: true},
		},
	}

	t.Run("flag level", func(t *testing.T) {
		t.Parallel()
		s := forced.NewStore()
		s.Set(forced.Context{FlagKey: "checkout"}, "new_flow")

		v, reasons := s.Resolve(cfg, forced.Context{FlagKey: "checkout"}, "u1")
		require.NotNil(t, v)
		assert.Equal(t, "v2", v.ID)
		assert.Equal(t, []string{
			"Variation [new_flow] is mapped to flag [checkout] and user [u1] in the forced decision map.",
		}, reasons.ToReport())
	})

	t.Run("rule level", func(t *testing.T) {
		t.Parallel()
		s := forced.NewStore()
		s.Set(forced.Context{FlagKey: "checkout", RuleKey: "exp_1"}, "new_flow")

		v, reasons := s.Resolve(cfg, forced.Context{FlagKey: "checkout", RuleKey: "exp_1"}, "u1")
		require.NotNil(t, v)
		assert.Equal(t, []string{
			"Variation [new_flow] is mapped to flag [checkout], rule [exp_1] and user [u1] in the forced decision map.",
		}, reasons.ToReport())
	})

	t.Run("variation no longer in config", func(t *testing.T) {
		t.Parallel()
		s := forced.NewStore()
		s.Set(forced.Context{FlagKey: "checkout"}, "gone")
		s.Set(forced.Context{FlagKey: "checkout", RuleKey: "exp_1"}, "gone")

		v, reasons := s.Resolve(cfg, forced.Context{FlagKey: "checkout"}, "u1")
		assert.Nil(t, v)
		assert.Equal(t, []string{
			"Invalid variation is mapped to flag [checkout] and user [u1] in the forced decision map.",
		}, reasons.ToReport())

		v, reasons = s.Resolve(cfg, forced.Context{FlagKey: "checkout", RuleKey: "exp_1"}, "u1")
		assert.Nil(t, v)
		assert.Equal(t, []string{
			"Invalid variation is mapped to flag [checkout], rule [exp_1] and user [u1] in the forced decision map.",
		}, reasons.ToReport())
	})

	t.Run("nothing stored", func(t *testing.T) {
		t.Parallel()
		v, reasons := forced.NewStore().Resolve(cfg, forced.Context{FlagKey: "checkout"}, "u1")
		assert.Nil(t, v)
		assert.Empty(t, reasons.ToReport())
	})

	t.Run("nil store", func(t *testing.T) {
		t.Parallel()
		var s *forced.Store
		v, _ := s.Resolve(cfg, forced.Context{FlagKey: "checkout"}, "u1")
		assert.Nil(t, v)
	})
}

func TestStore_Resolves(t *testing.T) {
	t.Parallel()

	cfg := flagVariations{
		"checkout": {
			"new_flow": {ID: "v2", Key: "new_flow", FeatureEnabled: true},
		},
	}
	s := forced.NewStore()
	s.Set(forced.Context{FlagKey: "checkout", RuleKey: "exp_1"}, "new_flow")
	s.Set(forced.Context{FlagKey: "checkout", RuleKey: "exp_2"}, "gone")

	assert.True(t, s.Resolves(cfg, forced.Context{FlagKey: "checkout", RuleKey: "exp_1"}))
	assert.False(t, s.Resolves(cfg, forced.Context{FlagKey: "checkout", RuleKey: "exp_2"}))
	assert.False(t, s.Resolves(cfg, forced.Context{FlagKey: "checkout"}))

	var nilStore *forced.Store
	assert.False(t, nilStore.Resolves(cfg, forced.Context{FlagKey: "checkout", RuleKey: "exp_1"}))
}
