package client

import (
	"log/slog"

	"github.com/dmitrymomot/flagkit/pkg/cache"
	"github.com/dmitrymomot/flagkit/pkg/cmab"
	"github.com/dmitrymomot/flagkit/pkg/decide"
	"github.com/dmitrymomot/flagkit/pkg/event"
	"github.com/dmitrymomot/flagkit/pkg/metrics"
	"github.com/dmitrymomot/flagkit/pkg/notify"
	"github.com/dmitrymomot/flagkit/pkg/profile"
)

// Option configures a Client.
type Option func(*Client)

// WithConfig replaces the default settings.
func WithConfig(cfg Config) Option {
	return func(c *Client) {
		c.cfg = cfg
	}
}

// WithLogger sets the logger. Without it a logger is built from the
// configured environment and level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithProfileStore enables sticky bucketing.
func WithProfileStore(store profile.Store) Option {
	return func(c *Client) {
		c.profiles = store
	}
}

// WithCmabScorer replaces the HTTP prediction client.
func WithCmabScorer(s cmab.Scorer) Option {
	return func(c *Client) {
		c.scorer = s
	}
}

// WithCmabCache replaces the in-memory CMAB decision cache, for example with
// a Redis-backed one.
func WithCmabCache(store cache.Cache[string, cmab.CacheEntry]) Option {
	return func(c *Client) {
		c.cmabCache = store
	}
}

func WithEventSink(sink event.Sink) Option {
	return func(c *Client) {
		if sink != nil {
			c.sink = sink
		}
	}
}

func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithDefaultDecideOptions applies opts to every decide call in addition to
// Config.DefaultDecideOptions.
func WithDefaultDecideOptions(opts ...decide.Option) Option {
	return func(c *Client) {
		c.extraOptions = append(c.extraOptions, opts...)
	}
}

// WithDecisionNotifications publishes every decision to b.
func WithDecisionNotifications(b *notify.Broadcaster[notify.Decision]) Option {
	return func(c *Client) {
		c.notifier = b
	}
}
