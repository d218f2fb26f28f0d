package cache

import "time"

type settings struct {
	ttl time.Duration
	now func() time.Time
}

// Option configures an LRUCache.
type Option func(*settings)

// WithTTL sets the per-entry time to live. A non-positive ttl disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) {
		s.ttl = ttl
	}
}

// WithClock replaces time.Now. Used by tests to move time forward.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}
