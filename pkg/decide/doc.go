// Package decide holds the per-call knobs of a decision (Options) and the
// reason accumulator every evaluation step writes to.
//
// Reasons are a replayable record of how a decision was reached. Their
// wording is stable: hosts and tests compare them verbatim.
package decide
