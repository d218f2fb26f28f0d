package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/flagkit/pkg/cache"
	"github.com/dmitrymomot/flagkit/pkg/cmab"
	"github.com/dmitrymomot/flagkit/pkg/config"
	"github.com/dmitrymomot/flagkit/pkg/event"
	"github.com/dmitrymomot/flagkit/pkg/mongo"
	"github.com/dmitrymomot/flagkit/pkg/opensearch"
	"github.com/dmitrymomot/flagkit/pkg/pg"
	"github.com/dmitrymomot/flagkit/pkg/profile"
	"github.com/dmitrymomot/flagkit/pkg/redis"
)

type stores struct {
	profiles  profile.Store
	cmabCache cache.Cache[string, cmab.CacheEntry]
	closers   []func()
}

func (s *stores) close() {
	for _, fn := range s.closers {
		fn()
	}
}

// openStores connects the selected profile backend. Redis also backs the
// contextual-bandit cache, with entries expiring after cmabTTL.
func openStores(ctx context.Context, kind string, cmabTTL time.Duration, log *slog.Logger) (*stores, error) {
	s := &stores{}
	switch kind {
	case "", "none":
	case "memory":
		s.profiles = profile.NewMemoryStore()

	case "redis":
		var cfg redis.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		rdb, err := redis.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = rdb.Close() })
		s.profiles = redis.NewProfileStore(rdb, cfg)
		s.cmabCache = newCmabCache(rdb, cfg, cmabTTL, log)

	case "postgres":
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
			s.close()
			return nil, err
		}
		s.profiles = pg.NewProfileStore(pool)

	case "mongo":
		var cfg mongo.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		client, err := mongo.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = client.Disconnect(context.Background()) })
		s.profiles = mongo.NewProfileStore(client, cfg)

	default:
		return nil, fmt.Errorf("unknown profile store %q", kind)
	}
	return s, nil
}

func newCmabCache(rdb goredis.UniversalClient, cfg redis.Config, ttl time.Duration, log *slog.Logger) *redis.Cache[cmab.CacheEntry] {
	return redis.NewCache[cmab.CacheEntry](rdb, cfg, "cmab", ttl, redis.WithCacheLogger(log))
}

// openSink selects where impressions go. An empty kind keeps the client's
// default sink.
func openSink(ctx context.Context, kind string, log *slog.Logger) (event.Sink, error) {
	switch kind {
	case "", "none":
		return nil, nil
	case "log":
		return event.NewLogSink(log, slog.LevelInfo), nil
	case "opensearch":
		var cfg opensearch.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		client, err := opensearch.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return opensearch.NewSink(client, cfg), nil
	default:
		return nil, fmt.Errorf("unknown event sink %q", kind)
	}
}
