package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/flagkit/pkg/cache"
	"github.com/dmitrymomot/flagkit/pkg/logger"
)

const defaultOpTimeout = 500 * time.Millisecond

// Cache stores JSON-encoded values in Redis with a server-side TTL. It
// satisfies cache.Cache so several engine instances can share contextual
// bandit decisions.
//
// The cache contract has no error returns: failures are logged and treated
// as misses.
type Cache[V any] struct {
	db        redis.UniversalClient
	prefix    string
	ttl       time.Duration
	opTimeout time.Duration
	logger    *slog.Logger
}

var (
	_ cache.Cache[string, struct{}] = (*Cache[struct{}])(nil)
	_ cache.Resetter                = (*Cache[struct{}])(nil)
)

// CacheOption configures a Cache.
type CacheOption func(*cacheSettings)

type cacheSettings struct {
	opTimeout time.Duration
	logger    *slog.Logger
}

// WithOpTimeout bounds each Redis call made by the cache.
func WithOpTimeout(d time.Duration) CacheOption {
	return func(s *cacheSettings) {
		if d > 0 {
			s.opTimeout = d
		}
	}
}

func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(s *cacheSettings) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewCache creates a cache whose keys live under cfg.KeyPrefix+namespace.
// A non-positive ttl keeps entries until they are removed.
func NewCache[V any](client redis.UniversalClient, cfg Config, namespace string, ttl time.Duration, opts ...CacheOption) *Cache[V] {
	settings := cacheSettings{opTimeout: defaultOpTimeout, logger: slog.Default()}
	for _, opt := range opts {
		opt(&settings)
	}
	return &Cache[V]{
		db:        client,
		prefix:    cfg.KeyPrefix + namespace + ":",
		ttl:       max(ttl, 0),
		opTimeout: settings.opTimeout,
		logger:    settings.logger.With(logger.Component("redis_cache")),
	}
}

// TTL is the expiry applied to every written entry. Zero means none.
func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}

func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	ctx, cancel := context.WithTimeout(context.Background(), c.opTimeout)
	defer cancel()

	data, err := c.db.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false
	}
	if err != nil {
		c.logger.WarnContext(ctx, "cache get failed", logger.Error(err))
		return zero, false
	}

	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.WarnContext(ctx, "cache value cannot be decoded", logger.Error(errors.Join(ErrCorruptedValue, err)))
		return zero, false
	}
	return v, true
}

func (c *Cache[V]) Put(key string, value V) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opTimeout)
	defer cancel()

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.WarnContext(ctx, "cache value cannot be encoded", logger.Error(err))
		return
	}
	if err := c.db.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache put failed", logger.Error(err))
	}
}

func (c *Cache[V]) Remove(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opTimeout)
	defer cancel()

	if err := c.db.Del(ctx, c.prefix+key).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache remove failed", logger.Error(err))
	}
}

// Reset deletes every key of this cache's namespace.
func (c *Cache[V]) Reset() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*c.opTimeout)
	defer cancel()

	iter := c.db.Scan(ctx, 0, c.prefix+"*", 1000).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 1000 {
			c.del(ctx, batch)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.WarnContext(ctx, "cache reset scan failed", logger.Error(err))
	}
	if len(batch) > 0 {
		c.del(ctx, batch)
	}
}

func (c *Cache[V]) del(ctx context.Context, keys []string) {
	if err := c.db.Del(ctx, keys...).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache reset delete failed", logger.Error(err))
	}
}
