package config

// Option adjusts how a single Load call reads the environment.
type Option func(*options)

type options struct {
	prefix      string
	environment map[string]string
}

// WithPrefix prepends prefix to every env tag of the target struct.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithEnvironment parses from the given map instead of the process
// environment. Intended for tests.
func WithEnvironment(env map[string]string) Option {
	return func(o *options) {
		o.environment = env
	}
}
