package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/metrics"
)

func TestCollector(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.ObserveDecision("ROLLOUT", time.Millisecond)
	c.ObserveDecision("ROLLOUT", time.Millisecond)
	c.ObserveDecision("FEATURE_TEST", time.Millisecond)
	c.CmabCacheHit()
	c.CmabCacheMiss()
	c.CmabCacheMiss()
	c.CmabFetchFailed()
	c.ProfileStoreFailed("lookup")
	c.ImpressionSent(true)
	c.ImpressionSent(false)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "flagkit_decisions_total")
	assert.Contains(t, names, "flagkit_decision_duration_seconds")
	assert.Contains(t, names, "flagkit_cmab_cache_lookups_total")
	assert.Contains(t, names, "flagkit_cmab_fetch_errors_total")
	assert.Contains(t, names, "flagkit_profile_store_errors_total")
	assert.Contains(t, names, "flagkit_impressions_total")

	// Two sources and two cache results.
	count, err := testutil.GatherAndCount(reg, "flagkit_decisions_total", "flagkit_cmab_cache_lookups_total")
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	count, err = testutil.GatherAndCount(reg, "flagkit_cmab_fetch_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCollector_NilIsNoop(t *testing.T) {
	t.Parallel()

	var c *metrics.Collector
	assert.NotPanics(t, func() {
		c.ObserveDecision("ROLLOUT", time.Second)
		c.CmabCacheHit()
		c.CmabCacheMiss()
		c.CmabFetchFailed()
		c.ProfileStoreFailed("save")
		c.ImpressionSent(true)
	})
}
