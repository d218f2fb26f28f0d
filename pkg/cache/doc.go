// Package cache provides the bounded cache contract used to memoize
// contextual-bandit decisions, and a generic in-memory implementation.
//
// Cache is the capability interface (Get, Put, Remove) the decision engine
// is written against. Hosts may plug in any implementation, for example the
// Redis-backed cache in package redis. Implementations that can drop all
// entries at once also implement Resetter.
//
// # LRUCache
//
// LRUCache is a mutex-guarded, container/list based LRU with an optional
// per-entry TTL:
//
//	c := cache.NewLRUCache[string, Entry](10000, cache.WithTTL(30*time.Minute))
//	c.Put("4-user-rule", entry)
//	entry, ok := c.Get("4-user-rule")
//
// Expiry is lazy. An entry whose TTL elapsed is reported as a miss and
// dropped on the read that finds it; expired entries are also purged when a
// Put pushes the cache over capacity, before any live entry is evicted.
// There is no background sweeper.
//
// A non-positive capacity panics. A non-positive TTL disables expiry.
//
// # Eviction callbacks
//
//	c.SetEvictCallback(func(key string, e Entry) {
//		log.Debug("cmab entry dropped", "key", key)
//	})
//
// The callback runs under the cache lock for every entry that leaves the
// cache, so it must not call back into the cache.
//
// # Statistics
//
// Stats returns hit, miss, eviction and expiration counters, which the
// metrics package exports.
package cache
