// Package entities defines the read-only configuration model the decision
// engine works against: experiments, variations, mutual-exclusion groups,
// feature flags, rollouts, holdouts and attributes.
//
// Every reference between entities is logical (a string id) and resolved on
// demand through the snapshot that owns the tables, so the model never forms
// object cycles. Values are produced once when a configuration snapshot is
// built and never mutated afterwards.
package entities
