package cmab

import "errors"

var (
	// ErrFetchFailed indicates the scorer could not produce a decision.
	ErrFetchFailed = errors.New("cmab decision fetch failed")

	// ErrInvalidResponse indicates the scorer answered with an unusable body.
	ErrInvalidResponse = errors.New("invalid cmab response")

	// ErrInvalidEndpoint indicates a malformed scorer endpoint.
	ErrInvalidEndpoint = errors.New("invalid cmab endpoint")

	// ErrNotCmabRule indicates the rule has no contextual-bandit settings.
	ErrNotCmabRule = errors.New("rule is not a cmab rule")
)
