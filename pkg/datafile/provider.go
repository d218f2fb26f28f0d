package datafile

import "sync/atomic"

// Provider supplies the current configuration snapshot. Successive calls may
// return different snapshots; callers hold one for the duration of a decision.
type Provider interface {
	GetConfig() (*Snapshot, error)
}

// StaticProvider holds a snapshot replaced atomically on Update.
type StaticProvider struct {
	current atomic.Pointer[Snapshot]
}

var _ Provider = (*StaticProvider)(nil)

// NewStaticProvider creates a provider. A nil snapshot leaves it not ready.
func NewStaticProvider(s *Snapshot) *StaticProvider {
	p := &StaticProvider{}
	if s != nil {
		p.current.Store(s)
	}
	return p
}

// GetConfig returns the current snapshot or ErrNotReady.
func (p *StaticProvider) GetConfig() (*Snapshot, error) {
	s := p.current.Load()
	if s == nil {
		return nil, ErrNotReady
	}
	return s, nil
}

// Update publishes a new snapshot. In-flight decisions keep the one they hold.
func (p *StaticProvider) Update(s *Snapshot) {
	if s != nil {
		p.current.Store(s)
	}
}
