package cmab_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/audience"
	"github.com/dmitrymomot/flagkit/pkg/cache"
	"github.com/dmitrymomot/flagkit/pkg/cmab"
	"github.com/dmitrymomot/flagkit/pkg/decide"
	"github.com/dmitrymomot/flagkit/pkg/entities"
	"github.com/dmitrymomot/flagkit/pkg/logger"
)

type mockScorer struct {
	mock.Mock
}

func (m *mockScorer) Fetch(ctx context.Context, ruleID, userID string, attrs map[string]any, cmabUUID string) (string, error) {
	args := m.Called(ctx, ruleID, userID, attrs, cmabUUID)
	return args.String(0), args.Error(1)
}

type testConfig struct {
	experiments map[string]*entities.Experiment
	attributes  map[string]entities.Attribute
}

func (c testConfig) ExperimentByID(id string) (*entities.Experiment, bool) {
	e, ok := c.experiments[id]
	return e, ok
}

func (c testConfig) AttributeByID(id string) (entities.Attribute, bool) {
	a, ok := c.attributes[id]
	return a, ok
}

func newConfig() testConfig {
	return testConfig{
		experiments: map[string]*entities.Experiment{
			"rule_1": {ID: "rule_1", Key: "cmab_rule", Status: entities.StatusRunning,
				Cmab: &entities.Cmab{AttributeIDs: []string{"attr_age", "attr_device"}, TrafficAllocation: 10000}},
			"plain": {ID: "plain", Key: "plain_rule", Status: entities.StatusRunning},
		},
		attributes: map[string]entities.Attribute{
			"attr_age":    {ID: "attr_age", Key: "age"},
			"attr_device": {ID: "attr_device", Key: "device"},
		},
	}
}

func sequentialUUIDs() func() string {
	var n atomic.Int64
	return func() string {
		return "uuid-" + string(rune('0'+n.Add(1)))
	}
}

func TestService_GetDecision(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := newConfig()

	attrs := audience.NewAttributes(map[string]any{"age": 30, "device": "ios", "ignored": true})
	scored := map[string]any{"attr_age": float64(30), "attr_device": "ios"}

	t.Run("fetches once then serves from cache", func(t *testing.T) {
		t.Parallel()
		scorer := &mockScorer{}
		scorer.On("Fetch", mock.Anything, "rule_1", "u1", scored, "uuid-1").Return("arm_a", nil).Once()

		svc := cmab.NewService(scorer, cmab.WithUUIDFunc(sequentialUUIDs()), cmab.WithLogger(logger.Discard()))

		d, err := svc.GetDecision(ctx, cfg, "u1", attrs, "rule_1", decide.Options{})
		require.NoError(t, err)
		assert.Equal(t, cmab.Decision{VariationID: "arm_a", CmabUUID: "uuid-1"}, d)

		d, err = svc.GetDecision(ctx, cfg, "u1", attrs, "rule_1", decide.Options{})
		require.NoError(t, err)
		assert.Equal(t, "uuid-1", d.CmabUUID)

		scorer.AssertExpectations(t)
	})

	t.Run("attribute drift is a miss", func(t *testing.T) {
		t.Parallel()
		scorer := &mockScorer{}
		scorer.On("Fetch", mock.Anything, "rule_1", "u1", mock.Anything, mock.Anything).Return("arm_a", nil).Once()
		scorer.On("Fetch", mock.Anything, "rule_1", "u1", map[string]any{"attr_age": float64(31), "attr_device": "ios"}, mock.Anything).Return("arm_b", nil).Once()

		svc := cmab.NewService(scorer, cmab.WithLogger(logger.Discard()))

		_, err := svc.GetDecision(ctx, cfg, "u1", attrs, "rule_1", decide.Options{})
		require.NoError(t, err)

		older := audience.NewAttributes(map[string]any{"age": 31, "device": "ios"})
		d, err := svc.GetDecision(ctx, cfg, "u1", older, "rule_1", decide.Options{})
		require.NoError(t, err)
		assert.Equal(t, "arm_b", d.VariationID)
		scorer.AssertExpectations(t)
	})

	t.Run("unscored attribute changes keep the entry", func(t *testing.T) {
		t.Parallel()
		scorer := &mockScorer{}
		scorer.On("Fetch", mock.Anything, "rule_1", "u1", mock.Anything, mock.Anything).Return("arm_a", nil).Once()

		svc := cmab.NewService(scorer, cmab.WithLogger(logger.Discard()))
		_, err := svc.GetDecision(ctx, cfg, "u1", attrs, "rule_1", decide.Options{})
		require.NoError(t, err)

		changed := audience.NewAttributes(map[string]any{"age": 30, "device": "ios", "ignored": false})
		_, err = svc.GetDecision(ctx, cfg, "u1", changed, "rule_1", decide.Options{})
		require.NoError(t, err)
		scorer.AssertExpectations(t)
	})

	t.Run("ignore option bypasses read and write", func(t *testing.T) {
		t.Parallel()
		scorer := &mockScorer{}
		scorer.On("Fetch", mock.Anything, "rule_1", "u1", mock.Anything, mock.Anything).Return("arm_a", nil).Times(2)

		c := cache.NewLRUCache[string, cmab.CacheEntry](10)
		svc := cmab.NewService(scorer, cmab.WithCache(c), cmab.WithLogger(logger.Discard()))

		opts := decide.Options{IgnoreCMABCache: true}
		_, err := svc.GetDecision(ctx, cfg, "u1", attrs, "rule_1", opts)
		require.NoError(t, err)
		assert.Equal(t, 0, c.Len())
		_, err = svc.GetDecision(ctx, cfg, "u1", attrs, "rule_1", opts)
		require.NoError(t, err)
		scorer.AssertExpectations(t)
	})

	t.Run("invalidate and reset options force a fetch", func(t *testing.T) {
		t.Parallel()
		scorer := &mockScorer{}
		scorer.On("Fetch", mock.Anything, "rule_1", mock.Anything, mock.Anything, mock.Anything).Return("arm_a", nil).Times(4)

		c := cache.NewLRUCache[string, cmab.CacheEntry](10)
		svc := cmab.NewService(scorer, cmab.WithCache(c), cmab.WithLogger(logger.Discard()))

		_, err := svc.GetDecision(ctx, cfg, "u1", attrs, "rule_1", decide.Options{})
		require.NoError(t, err)
		_, err = svc.GetDecision(ctx, cfg, "u2", attrs, "rule_1", decide.Options{})
		require.NoError(t, err)
		assert.Equal(t, 2, c.Len())

		_, err = svc.GetDecision(ctx, cfg, "u1", attrs, "rule_1", decide.Options{InvalidateUserCMABCache: true})
		require.NoError(t, err)
		assert.Equal(t, 2, c.Len())

		_, err = svc.GetDecision(ctx, cfg, "u1", attrs, "rule_1", decide.Options{ResetCMABCache: true})
		require.NoError(t, err)
		assert.Equal(t, 1, c.Len(), "reset drops u2 as well")
		scorer.AssertExpectations(t)
	})

	t.Run("scorer error is returned and not cached", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("503")
		scorer := &mockScorer{}
		scorer.On("Fetch", mock.Anything, "rule_1", "u1", mock.Anything, mock.Anything).Return("", boom).Once()
		scorer.On("Fetch", mock.Anything, "rule_1", "u1", mock.Anything, mock.Anything).Return("arm_b", nil).Once()

		svc := cmab.NewService(scorer, cmab.WithLogger(logger.Discard()))

		_, err := svc.GetDecision(ctx, cfg, "u1", attrs, "rule_1", decide.Options{})
		assert.ErrorIs(t, err, cmab.ErrFetchFailed)
		assert.ErrorIs(t, err, boom)

		d, err := svc.GetDecision(ctx, cfg, "u1", attrs, "rule_1", decide.Options{})
		require.NoError(t, err)
		assert.Equal(t, "arm_b", d.VariationID)
	})

	t.Run("rule without cmab settings", func(t *testing.T) {
		t.Parallel()
		svc := cmab.NewService(&mockScorer{}, cmab.WithLogger(logger.Discard()))
		_, err := svc.GetDecision(ctx, cfg, "u1", attrs, "plain", decide.Options{})
		assert.ErrorIs(t, err, cmab.ErrNotCmabRule)
		_, err = svc.GetDecision(ctx, cfg, "u1", attrs, "missing", decide.Options{})
		assert.ErrorIs(t, err, cmab.ErrNotCmabRule)
	})

	t.Run("cache key separates users whose ids share a prefix", func(t *testing.T) {
		t.Parallel()
		scorer := &mockScorer{}
		scorer.On("Fetch", mock.Anything, "rule_1", "u1", mock.Anything, mock.Anything).Return("arm_a", nil).Once()
		scorer.On("Fetch", mock.Anything, "rule_1", "u1-rule_1", mock.Anything, mock.Anything).Return("arm_b", nil).Once()

		svc := cmab.NewService(scorer, cmab.WithLogger(logger.Discard()))
		d1, err := svc.GetDecision(ctx, cfg, "u1", attrs, "rule_1", decide.Options{})
		require.NoError(t, err)
		d2, err := svc.GetDecision(ctx, cfg, "u1-rule_1", attrs, "rule_1", decide.Options{})
		require.NoError(t, err)
		assert.NotEqual(t, d1.VariationID, d2.VariationID)
		scorer.AssertExpectations(t)
	})
}

func TestService_ConcurrentMissesShareOneFetch(t *testing.T) {
	t.Parallel()
	cfg := newConfig()
	attrs := audience.NewAttributes(map[string]any{"age": 30, "device": "ios"})

	var calls atomic.Int32
	release := make(chan struct{})
	scorer := cmab.ScorerFunc(func(ctx context.Context, ruleID, userID string, attrs map[string]any, cmabUUID string) (string, error) {
		calls.Add(1)
		<-release
		return "arm_a", nil
	})
	svc := cmab.NewService(scorer, cmab.WithLogger(logger.Discard()))

	const callers = 8
	var started, done sync.WaitGroup
	results := make([]cmab.Decision, callers)
	for i := range callers {
		started.Add(1)
		done.Add(1)
		go func() {
			defer done.Done()
			started.Done()
			d, err := svc.GetDecision(context.Background(), cfg, "u1", attrs, "rule_1", decide.Options{})
			assert.NoError(t, err)
			results[i] = d
		}()
	}
	started.Wait()
	// Give the callers time to reach the in-flight fetch before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	// Late callers may hit the cache instead of joining the flight, so the
	// scorer runs at least once and far fewer times than there are callers.
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
	assert.Less(t, calls.Load(), int32(callers))
	for _, d := range results {
		assert.Equal(t, "arm_a", d.VariationID)
	}
}

func TestService_AbandonedCallerDoesNotCancelSharedFetch(t *testing.T) {
	t.Parallel()
	cfg := newConfig()
	attrs := audience.NewAttributes(map[string]any{"age": 30, "device": "ios"})

	var calls atomic.Int32
	inFlight := make(chan struct{})
	release := make(chan struct{})
	fetchErr := make(chan error, 1)
	scorer := cmab.ScorerFunc(func(ctx context.Context, ruleID, userID string, attrs map[string]any, cmabUUID string) (string, error) {
		if calls.Add(1) == 1 {
			close(inFlight)
		}
		<-release
		fetchErr <- ctx.Err()
		return "arm_a", nil
	})
	lru := cache.NewLRUCache[string, cmab.CacheEntry](10)
	svc := cmab.NewService(scorer,
		cmab.WithCache(lru),
		cmab.WithLogger(logger.Discard()),
		cmab.WithUUIDFunc(func() string { return "uuid-1" }),
	)

	callerCtx, cancel := context.WithCancel(context.Background())
	abandoned := make(chan error, 1)
	go func() {
		_, err := svc.GetDecision(callerCtx, cfg, "u1", attrs, "rule_1", decide.Options{})
		abandoned <- err
	}()
	<-inFlight

	shared := make(chan cmab.Decision, 1)
	sharedErr := make(chan error, 1)
	go func() {
		d, err := svc.GetDecision(context.Background(), cfg, "u1", attrs, "rule_1", decide.Options{})
		shared <- d
		sharedErr <- err
	}()

	cancel()
	select {
	case err := <-abandoned:
		assert.ErrorIs(t, err, cmab.ErrFetchFailed)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting for the fetch")
	}

	// Let the second caller join the flight before it completes.
	time.Sleep(20 * time.Millisecond)
	close(release)

	require.NoError(t, <-sharedErr)
	d := <-shared
	assert.Equal(t, "arm_a", d.VariationID)
	assert.Equal(t, "uuid-1", d.CmabUUID)
	assert.NoError(t, <-fetchErr, "scorer context must not be cancelled by the caller")
	assert.Equal(t, int32(1), calls.Load())

	entry, ok := lru.Get("2-u1-rule_1")
	require.True(t, ok, "in-flight result is cached after the caller left")
	assert.Equal(t, "arm_a", entry.VariationID)
}

func TestService_AbandonedFetchStillFillsCache(t *testing.T) {
	t.Parallel()
	cfg := newConfig()
	attrs := audience.NewAttributes(map[string]any{"age": 30, "device": "ios"})

	inFlight := make(chan struct{})
	release := make(chan struct{})
	scorer := cmab.ScorerFunc(func(ctx context.Context, ruleID, userID string, attrs map[string]any, cmabUUID string) (string, error) {
		close(inFlight)
		<-release
		return "arm_b", ctx.Err()
	})
	lru := cache.NewLRUCache[string, cmab.CacheEntry](10)
	svc := cmab.NewService(scorer, cmab.WithCache(lru), cmab.WithLogger(logger.Discard()))

	callerCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.GetDecision(callerCtx, cfg, "u1", attrs, "rule_1", decide.Options{})
		done <- err
	}()
	<-inFlight
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	close(release)
	assert.Eventually(t, func() bool {
		entry, ok := lru.Get("2-u1-rule_1")
		return ok && entry.VariationID == "arm_b"
	}, time.Second, 5*time.Millisecond)
}
