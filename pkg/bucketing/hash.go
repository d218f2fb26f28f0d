package bucketing

import "github.com/twmb/murmur3"

const (
	// HashSeed is the MurmurHash3 seed shared by every implementation.
	HashSeed uint32 = 1
	// MaxTrafficValue is the size of the bucket space.
	MaxTrafficValue = 10000

	maxHashValue = float64(1 << 32)
)

// Hash32 returns the 32-bit MurmurHash3 of key's UTF-8 bytes.
func Hash32(key string) uint32 {
	return murmur3.SeedSum32(HashSeed, []byte(key))
}

// BucketValue maps key into [0, MaxTrafficValue).
func BucketValue(key string) int {
	ratio := float64(Hash32(key)) / maxHashValue
	return int(ratio * MaxTrafficValue)
}
