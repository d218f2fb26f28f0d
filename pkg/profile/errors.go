package profile

import "errors"

var (
	// ErrNotFound is returned by Lookup when no profile exists for the user.
	ErrNotFound = errors.New("user profile not found")

	// ErrInvalidProfile is returned by Save for a profile without a user id.
	ErrInvalidProfile = errors.New("invalid user profile")

	// ErrLookupFailed wraps store failures during Lookup.
	ErrLookupFailed = errors.New("user profile lookup failed")

	// ErrSaveFailed wraps store failures during Save.
	ErrSaveFailed = errors.New("user profile save failed")
)
