package models

// HeapStats holds every metric collected for a single simulation timestep.
// A record is immutable once it has been appended to the time series.
type HeapStats struct {
	// Sequence index of the snapshot, 0-based
	TimeStep int

	// Sum of sizes the workload asked for, across live allocations
	TotalUserRequested uint64

	// Sum of usable sizes the allocator actually granted for those allocations
	TotalHeapCommitted uint64

	// Committed minus requested; waste inside used blocks
	InternalFragmentation uint64

	// Sum of all free chunk sizes visible to the inspector
	TotalFreeOnHeap uint64

	// Size of the single largest free chunk
	BiggestFreeBlock uint64

	// 1 - biggest/total when total > 0, else 0; how scattered free space is
	ExternalFragmentationRatio float64
}
