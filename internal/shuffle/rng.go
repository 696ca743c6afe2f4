package shuffle

import (
	"math/rand"
	"time"
)

// PhaseRNGs returns the random sources for the two shuffle phases. With a
// seed, distribution uses the seed as-is and the permutation phase uses
// seed+1, so the phases stay decorrelated while both remain deterministic.
// Without a seed each phase draws fresh time-based entropy.
//
// The two phases must never share one source: sharing would couple phase-1
// consumption order to phase-2 permutation order.
func PhaseRNGs(seed *int64) (dist, perm *rand.Rand) {
	if seed != nil {
		return rand.New(rand.NewSource(*seed)), rand.New(rand.NewSource(*seed + 1))
	}
	now := time.Now().UTC().UnixNano()
	return rand.New(rand.NewSource(now)), rand.New(rand.NewSource(now + 1))
}
