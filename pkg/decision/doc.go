// Package decision is the decision engine orchestrator. It composes the
// audience evaluator, the bucketer, the contextual-bandit service, forced
// decisions and sticky user profiles into one precedence chain.
//
// For a single experiment the first definitive answer wins:
//
//  1. the experiment must be running
//  2. whitelisted users get their listed variation
//  3. a variation saved in the user's profile is reused while it still exists
//  4. the audience gate must evaluate to true
//  5. contextual-bandit rules ask the cmab service, everything else is bucketed
//  6. a fresh bucketing result is saved to the user's profile
//
// For a feature flag the order is: a flag-level forced decision, then each
// feature experiment (a rule-level forced decision first, then the chain
// above), then the holdouts applying to the flag (global before included),
// and finally the rollout rules strictly in order. When nothing matches the
// result is a rollout decision without a variation.
//
// Every step records a reason. Collaborator failures (profile store, cmab
// scorer) are logged and skipped; nothing in this package returns an error
// for a decision.
package decision
