package shuffle

import "math"

// BucketCount derives the number of temporary buckets from the estimated
// total input size and the per-output size ceiling:
//
//	max(1, ceil(totalBytes / maxOutputBytes))
//
// Per-bucket size is controlled statistically through uniform random
// assignment, not tracked during distribution, so small inputs or very uneven
// line-size distributions can yield output files noticeably larger or smaller
// than the nominal ceiling.
func BucketCount(totalBytes, maxOutputBytes int64) int {
	if totalBytes <= 0 || maxOutputBytes <= 0 {
		return 1
	}
	n := (totalBytes + maxOutputBytes - 1) / maxOutputBytes
	if n < 1 {
		n = 1
	}
	// Clamp rather than truncate where int is narrower than int64.
	if n > math.MaxInt {
		n = math.MaxInt
	}
	return int(n)
}
