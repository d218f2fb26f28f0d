// Package profile models sticky bucketing: the per-user record of variations
// a user was already assigned, persisted through a host-supplied Store.
//
// The decision engine treats the store as best effort. A failing Lookup is
// handled like an empty profile and a failing Save is logged and dropped, so
// stores never block or abort a decision. Concurrent saves for the same user
// follow last-write-wins.
//
// MemoryStore is the in-process implementation; packages redis, pg and mongo
// provide persistent ones.
//
// Tracker wraps a Store for the duration of one decide call: it loads the
// profile lazily at most once, records new assignments in memory and writes
// back only when something changed.
package profile
