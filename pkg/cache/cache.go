package cache

// Cache is the capability the decision engine needs from a bounded cache.
// Hosts may substitute any implementation that is safe for concurrent use.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Put(key K, value V)
	Remove(key K)
}

// Resetter is implemented by caches that can drop every entry at once.
type Resetter interface {
	Reset()
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits        uint64
	Misses      uint64
	Evictions   uint64
	Expirations uint64
}
