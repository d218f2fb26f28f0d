package opensearch

import "time"

type Config struct {
	Addresses    []string      `env:"OPENSEARCH_ADDRESSES,required"`
	Username     string        `env:"OPENSEARCH_USERNAME"`
	Password     string        `env:"OPENSEARCH_PASSWORD"`
	MaxRetries   int           `env:"OPENSEARCH_MAX_RETRIES" envDefault:"3"`
	DisableRetry bool          `env:"OPENSEARCH_DISABLE_RETRY" envDefault:"false"`
	EventsIndex  string        `env:"OPENSEARCH_EVENTS_INDEX" envDefault:"flagkit-impressions"`
	IndexTimeout time.Duration `env:"OPENSEARCH_INDEX_TIMEOUT" envDefault:"5s"`
}
