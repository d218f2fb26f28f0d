// Package event defines the decision event handed to the host after every
// externally visible decision, and a few sinks.
//
// Batching, retries and dispatch to an analytics backend belong to the host:
// a Sink receives one fully formed Impression per decision and may buffer,
// forward or drop it. Sink errors never affect the decision itself.
package event
