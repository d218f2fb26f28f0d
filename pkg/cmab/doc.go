// Package cmab resolves contextual multi-armed bandit rules: instead of
// static traffic allocation, an external prediction service picks the
// variation per request.
//
// Service wraps a Scorer behind a cache.Cache keyed by user and rule. Each
// entry remembers a hash of the attributes that were scored; when the user's
// relevant attributes change the entry is dropped and the scorer is asked
// again. Concurrent misses for the same user, rule and attributes share one
// outstanding fetch.
//
// Decide options control the cache per call:
//
//   - IGNORE_CMAB_CACHE skips both the read and the write.
//   - INVALIDATE_USER_CMAB_CACHE drops the user's entry for the rule first.
//   - RESET_CMAB_CACHE empties the whole cache when it implements
//     cache.Resetter.
//
// HTTPScorer is the default Scorer. It POSTs a single prediction request per
// fetch and never retries.
package cmab
