// Package config loads typed configuration from environment variables.
//
// It wraps `github.com/joho/godotenv` and `github.com/caarlos0/env/v11`:
// an optional `.env` file is read once, then each call to Load parses the
// environment into a struct annotated with `env` tags.
//
// # Usage
//
//	type CmabConfig struct {
//	    CacheSize int           `env:"CMAB_CACHE_SIZE" envDefault:"10000"`
//	    CacheTTL  time.Duration `env:"CMAB_CACHE_TTL" envDefault:"30m"`
//	}
//
//	var cfg CmabConfig
//	if err := config.Load(&cfg, config.WithPrefix("DECISION_")); err != nil {
//	    log.Fatalf("parsing env: %v", err)
//	}
//
// Parsed values are not cached. Tests can pass WithEnvironment to parse from
// a map instead of the process environment.
//
// # Error Handling
//
//   - `ErrParsingConfig` : failed to parse env vars into struct.
//   - `ErrLoadingEnvFile`: an explicit .env file could not be read.
//   - `ErrNilPointer`    : nil pointer passed to `Load`/`MustLoad`.
package config
