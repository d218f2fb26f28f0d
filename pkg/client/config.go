package client

import (
	"time"

	"github.com/dmitrymomot/flagkit/pkg/cmab"
	"github.com/dmitrymomot/flagkit/pkg/config"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "DECISION_"

// Config holds the engine settings that are read from the environment.
type Config struct {
	CmabCacheSize int           `env:"CMAB_CACHE_SIZE" envDefault:"10000"`
	CmabCacheTTL  time.Duration `env:"CMAB_CACHE_TTL" envDefault:"30m"`
	CmabEndpoint  string        `env:"CMAB_ENDPOINT" envDefault:"https://prediction.cmab.optimizely.com/predict/%s"`
	// CmabTimeout bounds each prediction request. It is applied to the HTTP
	// client only.
	CmabTimeout time.Duration `env:"CMAB_TIMEOUT" envDefault:"10s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Env      string `env:"ENV" envDefault:"development"`

	// DefaultDecideOptions are option names applied to every decide call.
	DefaultDecideOptions []string `env:"DEFAULT_DECIDE_OPTIONS" envSeparator:","`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		CmabCacheSize: cmab.DefaultCacheSize,
		CmabCacheTTL:  cmab.DefaultCacheTTL,
		CmabEndpoint:  cmab.DefaultEndpoint,
		CmabTimeout:   10 * time.Second,
		LogLevel:      "info",
		Env:           "development",
	}
}

// LoadConfig reads Config from DECISION_* environment variables.
func LoadConfig(opts ...config.Option) (Config, error) {
	var cfg Config
	opts = append([]config.Option{config.WithPrefix(EnvPrefix)}, opts...)
	if err := config.Load(&cfg, opts...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
