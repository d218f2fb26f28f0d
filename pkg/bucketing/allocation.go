package bucketing

import (
	"fmt"

	"github.com/dmitrymomot/flagkit/pkg/entities"
)

// FindEntity returns the entity owning bucket: the first range whose
// EndOfRange exceeds it. A bucket at or past the last range's end matches
// nothing.
func FindEntity(ranges []entities.Range, bucket int) (string, bool) {
	for _, r := range ranges {
		if bucket < r.EndOfRange {
			return r.EntityID, true
		}
	}
	return "", false
}

// ValidateRanges checks that range ends never descend and stay within the
// bucket space. Zero-width ranges are allowed.
func ValidateRanges(ranges []entities.Range) error {
	prev := 0
	for i, r := range ranges {
		if r.EndOfRange < prev {
			return fmt.Errorf("%w: range %d ends at %d before previous end %d", ErrInvalidAllocation, i, r.EndOfRange, prev)
		}
		if r.EndOfRange > MaxTrafficValue {
			return fmt.Errorf("%w: range %d ends at %d past %d", ErrInvalidAllocation, i, r.EndOfRange, MaxTrafficValue)
		}
		prev = r.EndOfRange
	}
	return nil
}
