package client

import (
	"context"
	"maps"
	"sync"

	"github.com/dmitrymomot/flagkit/pkg/audience"
	"github.com/dmitrymomot/flagkit/pkg/decide"
	"github.com/dmitrymomot/flagkit/pkg/decision"
	"github.com/dmitrymomot/flagkit/pkg/forced"
)

// UserContext binds a user id, attributes and forced decisions to a Client.
// It is safe for concurrent use.
type UserContext struct {
	client *Client
	userID string

	mu     sync.RWMutex
	attrs  map[string]any
	forced *forced.Store
}

func newUserContext(c *Client, userID string, attrs map[string]any) *UserContext {
	if attrs == nil {
		attrs = map[string]any{}
	}
	return &UserContext{
		client: c,
		userID: userID,
		attrs:  maps.Clone(attrs),
		forced: forced.NewStore(),
	}
}

func (u *UserContext) UserID() string { return u.userID }

// Attributes returns a copy of the user's attributes.
func (u *UserContext) Attributes() map[string]any {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return maps.Clone(u.attrs)
}

func (u *UserContext) SetAttribute(key string, value any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.attrs[key] = value
}

// SetForcedDecision maps the flag (and optionally a rule) to variationKey.
// It reports false when the flag key or variation key is empty.
func (u *UserContext) SetForcedDecision(fctx forced.Context, variationKey string) bool {
	return u.forced.Set(fctx, variationKey)
}

func (u *UserContext) GetForcedDecision(fctx forced.Context) (string, bool) {
	return u.forced.Get(fctx)
}

func (u *UserContext) RemoveForcedDecision(fctx forced.Context) bool {
	return u.forced.Remove(fctx)
}

func (u *UserContext) RemoveAllForcedDecisions() {
	u.forced.RemoveAll()
}

// Decide resolves one flag.
func (u *UserContext) Decide(ctx context.Context, flagKey string, opts ...decide.Option) Decision {
	return u.client.decide(ctx, u.snapshot(), flagKey, opts)
}

// DecideForKeys resolves the given flags. With ENABLED_FLAGS_ONLY disabled
// flags are left out of the result.
func (u *UserContext) DecideForKeys(ctx context.Context, keys []string, opts ...decide.Option) map[string]Decision {
	return u.client.decideForKeys(ctx, u.snapshot(), keys, opts)
}

// DecideAll resolves every flag in the current configuration.
func (u *UserContext) DecideAll(ctx context.Context, opts ...decide.Option) map[string]Decision {
	return u.client.decideAll(ctx, u.snapshot(), opts)
}

// snapshot freezes the user state for one decide call so concurrent
// attribute or forced-decision updates do not leak into it.
func (u *UserContext) snapshot() *UserContext {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return &UserContext{
		client: u.client,
		userID: u.userID,
		attrs:  maps.Clone(u.attrs),
		forced: u.forced.Copy(),
	}
}

func (u *UserContext) decisionUser() decision.User {
	return decision.User{
		ID:         u.userID,
		Attributes: audience.NewAttributes(u.attrs),
		Forced:     u.forced,
	}
}
