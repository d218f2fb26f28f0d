// Package redis backs the decision engine's collaborators with Redis.
//
// It provides a retrying Connect, a Healthcheck probe, a profile.Store that
// keeps one JSON document per user, and a generic Cache that satisfies the
// cache.Cache contract so contextual-bandit decisions can be shared between
// engine instances:
//
//	rdb, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	c, err := client.New(provider,
//		client.WithProfileStore(redis.NewProfileStore(rdb, cfg)),
//		client.WithCmabCache(redis.NewCache[cmab.CacheEntry](rdb, cfg, "cmab", cmab.DefaultCacheTTL)),
//	)
//
// Config is populated from REDIS_* environment variables with pkg/config.
package redis
