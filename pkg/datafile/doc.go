// Package datafile decodes the experiment configuration document and exposes
// it as an immutable Snapshot of flat, id-indexed tables.
//
// Experiments, groups, flags, rollouts, audiences, attributes and holdouts
// reference each other by id only. Snapshot resolves those ids on demand,
// which keeps the graph acyclic in memory and lets one snapshot be shared by
// any number of concurrent decisions.
//
//	snap, err := datafile.Parse(jsonBytes)
//	provider := datafile.NewStaticProvider(snap)
//	// later, after fetching a newer revision
//	provider.Update(newer)
//
// ParseYAML accepts the same document written as YAML, which is convenient
// for fixtures. Only structural decoding and traffic range ordering are
// checked; there is no schema validation.
package datafile
