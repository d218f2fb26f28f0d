// Package bucketing maps users onto traffic allocations deterministically.
//
// A bucketing key (the bucketing id concatenated with an experiment, group or
// holdout id) is hashed with MurmurHash3 x86_32, seed 1, and scaled into the
// bucket space [0, 10000). The bucket is matched against sorted, half-open
// traffic ranges: a bucket belongs to the first range whose end exceeds it.
// The hash, seed and scaling are a wire contract shared by every SDK that
// reads the same configuration, so independently running processes agree on
// an assignment without coordination:
//
//	bucketing.BucketValue("ppid1" + "1886780721") // 5254
//
// Bucketer adds the mutual-exclusion group step, variation resolution and
// holdout bucketing on top of the primitive, and records every step as a
// reason string.
package bucketing
