package ports

// Inspector extracts the free-chunk picture from the allocator's private
// structures. Implementations must enumerate every free chunk exactly
// once, skip busy chunks, and degrade to (0, 0) on any structural
// failure instead of returning an error: a snapshot is never fatal to
// the simulation.
type Inspector interface {
	Inspect() (totalFree, largestFree uint64)
}
