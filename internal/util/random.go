package util

import (
	"math/rand"
	"time"
)

// NewRand builds the random source for a simulation run. A zero seed
// falls back to the clock; any other seed makes the run reproducible.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
