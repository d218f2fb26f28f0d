package flagkit

import (
	"github.com/dmitrymomot/flagkit/pkg/client"
	"github.com/dmitrymomot/flagkit/pkg/config"
	"github.com/dmitrymomot/flagkit/pkg/datafile"
)

// NewFromFile loads a JSON or YAML datafile and builds a client configured
// from DECISION_* environment variables. opts are applied after the
// environment configuration, so WithConfig overrides it.
func NewFromFile(path string, opts ...client.Option) (*client.Client, error) {
	snapshot, err := datafile.Load(path)
	if err != nil {
		return nil, err
	}
	return NewFromSnapshot(snapshot, opts...)
}

// NewFromSnapshot builds a client around an already parsed snapshot.
func NewFromSnapshot(snapshot *datafile.Snapshot, opts ...client.Option) (*client.Client, error) {
	cfg, err := client.LoadConfig()
	if err != nil {
		return nil, err
	}
	opts = append([]client.Option{client.WithConfig(cfg)}, opts...)
	return client.New(datafile.NewStaticProvider(snapshot), opts...)
}

// LoadEnv loads .env files before the first NewFromFile call.
func LoadEnv(paths ...string) error {
	return config.LoadEnv(paths...)
}
