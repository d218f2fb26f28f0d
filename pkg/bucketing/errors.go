package bucketing

import "errors"

// ErrInvalidAllocation indicates traffic ranges that overlap, descend or
// exceed the bucket space.
var ErrInvalidAllocation = errors.New("invalid traffic allocation")
