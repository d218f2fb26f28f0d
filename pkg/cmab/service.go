package cmab

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/flagkit/pkg/audience"
	"github.com/dmitrymomot/flagkit/pkg/cache"
	"github.com/dmitrymomot/flagkit/pkg/decide"
	"github.com/dmitrymomot/flagkit/pkg/entities"
	"github.com/dmitrymomot/flagkit/pkg/logger"
	"github.com/dmitrymomot/flagkit/pkg/metrics"
)

const (
	DefaultCacheSize = 10000
	DefaultCacheTTL  = 30 * time.Minute
)

// Decision is the scorer's answer for one user and rule.
type Decision struct {
	VariationID string
	CmabUUID    string
}

// CacheEntry is what the service stores per (user, rule).
type CacheEntry struct {
	AttributesHash string `json:"attributes_hash"`
	VariationID    string `json:"variation_id"`
	CmabUUID       string `json:"cmab_uuid"`
}

// ConfigSource resolves the rule and the attribute ids it scores on.
type ConfigSource interface {
	ExperimentByID(id string) (*entities.Experiment, bool)
	AttributeByID(id string) (entities.Attribute, bool)
}

// Service returns contextual-bandit decisions, memoized per user and rule
// for as long as the user's scored attributes do not change.
type Service struct {
	cache   cache.Cache[string, CacheEntry]
	scorer  Scorer
	group   singleflight.Group
	logger  *slog.Logger
	metrics *metrics.Collector
	newUUID func() string
}

// Option configures a Service.
type Option func(*Service)

// WithCache replaces the default in-memory LRU cache.
func WithCache(c cache.Cache[string, CacheEntry]) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(s *Service) {
		s.metrics = c
	}
}

// WithUUIDFunc replaces the cmab UUID generator.
func WithUUIDFunc(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newUUID = fn
		}
	}
}

// NewService creates a Service backed by scorer. Without WithCache it uses an
// LRU cache of DefaultCacheSize entries expiring after DefaultCacheTTL.
func NewService(scorer Scorer, opts ...Option) *Service {
	s := &Service{
		scorer:  scorer,
		logger:  slog.Default(),
		newUUID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.NewLRUCache[string, CacheEntry](DefaultCacheSize, cache.WithTTL(DefaultCacheTTL))
	}
	s.logger = s.logger.With(logger.Component("cmab"))
	return s
}

// GetDecision returns the variation the scorer picked for userID in ruleID.
// Scorer failures are returned wrapped in ErrFetchFailed and nothing is
// cached. A caller whose ctx ends stops waiting; the fetch it started still
// completes for callers sharing it and fills the cache.
func (s *Service) GetDecision(ctx context.Context, cfg ConfigSource, userID string, attrs audience.Attributes, ruleID string, opts decide.Options) (Decision, error) {
	rule, ok := cfg.ExperimentByID(ruleID)
	if !ok || rule.Cmab == nil {
		return Decision{}, fmt.Errorf("%w: %s", ErrNotCmabRule, ruleID)
	}

	filtered := filterAttributes(cfg, rule, attrs)
	hash, err := hashAttributes(filtered)
	if err != nil {
		return Decision{}, err
	}
	key := cacheKey(userID, ruleID)

	if opts.ResetCMABCache {
		if r, ok := s.cache.(cache.Resetter); ok {
			r.Reset()
		}
	}
	if opts.InvalidateUserCMABCache {
		s.cache.Remove(key)
	}

	if !opts.IgnoreCMABCache {
		if entry, ok := s.cache.Get(key); ok {
			if entry.AttributesHash == hash {
				s.metrics.CmabCacheHit()
				return Decision{VariationID: entry.VariationID, CmabUUID: entry.CmabUUID}, nil
			}
			s.cache.Remove(key)
		}
		s.metrics.CmabCacheMiss()
	}

	// The fetch and its cache write outlive a caller that gives up: they run
	// detached from ctx cancellation, bounded only by the scorer's timeout.
	cacheable := !opts.IgnoreCMABCache
	flightKey := key + "|" + hash
	if !cacheable {
		flightKey += "|uncached"
	}
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(flightKey, func() (any, error) {
		cmabUUID := s.newUUID()
		variationID, err := s.scorer.Fetch(fetchCtx, ruleID, userID, filtered, cmabUUID)
		if err != nil {
			return nil, err
		}
		decision := Decision{VariationID: variationID, CmabUUID: cmabUUID}
		if cacheable {
			s.cache.Put(key, CacheEntry{
				AttributesHash: hash,
				VariationID:    decision.VariationID,
				CmabUUID:       decision.CmabUUID,
			})
		}
		return decision, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		s.logger.DebugContext(ctx, "cmab decision abandoned by caller", logger.UserID(userID))
		return Decision{}, fmt.Errorf("%w: rule %s: %w", ErrFetchFailed, ruleID, ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		s.metrics.CmabFetchFailed()
		s.logger.WarnContext(ctx, "cmab fetch failed",
			logger.UserID(userID), logger.ExperimentKey(rule.Key), logger.Error(res.Err))
		return Decision{}, fmt.Errorf("%w: rule %s: %w", ErrFetchFailed, ruleID, res.Err)
	}
	if res.Shared {
		s.logger.DebugContext(ctx, "cmab fetch shared with a concurrent caller", logger.UserID(userID))
	}
	return res.Val.(Decision), nil
}

// filterAttributes keeps the user attributes the rule scores on, keyed by
// attribute id.
func filterAttributes(cfg ConfigSource, rule *entities.Experiment, attrs audience.Attributes) map[string]any {
	out := make(map[string]any, len(rule.Cmab.AttributeIDs))
	for _, id := range rule.Cmab.AttributeIDs {
		attr, ok := cfg.AttributeByID(id)
		if !ok {
			continue
		}
		if v, ok := attrs.Lookup(attr.Key); ok {
			out[id] = v.Any()
		}
	}
	return out
}

// hashAttributes hashes the canonical JSON of attrs. encoding/json writes map
// keys sorted, so equal maps hash equally.
func hashAttributes(attrs map[string]any) (string, error) {
	data, err := json.Marshal(attrs)
	if err != nil {
		return "", fmt.Errorf("hash cmab attributes: %w", err)
	}
	return strconv.FormatUint(xxhash.Sum64(data), 16), nil
}

func cacheKey(userID, ruleID string) string {
	return strconv.Itoa(len(userID)) + "-" + userID + "-" + ruleID
}
