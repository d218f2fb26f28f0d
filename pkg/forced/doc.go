// Package forced holds per-user forced decisions: explicit overrides of a
// flag, or of a single rule of a flag, to a named variation.
//
// A Store is keyed by Context. An empty RuleKey scopes the override to the
// flag as a whole; a non-empty RuleKey scopes it to that experiment or
// rollout rule. Entries with an empty flag key are never stored.
//
//	store := forced.NewStore()
//	store.Set(forced.Context{FlagKey: "checkout"}, "new_flow")
//	store.Set(forced.Context{FlagKey: "checkout", RuleKey: "exp_1"}, "control")
//
// Resolve checks a stored override against the current configuration and
// returns the variation only while it still exists.
package forced
