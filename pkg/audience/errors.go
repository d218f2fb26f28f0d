package audience

import "errors"

var (
	// ErrInvalidConditions indicates a condition tree that cannot be decoded.
	ErrInvalidConditions = errors.New("invalid audience conditions")
	// ErrInvalidSemver indicates a version string that cannot be compared.
	ErrInvalidSemver = errors.New("invalid semantic version")
)
