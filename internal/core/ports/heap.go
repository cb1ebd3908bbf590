package ports

import "github.com/genc-murat/heapscope/internal/core/models"

// Heap is the allocator boundary the workload driver and the stats
// aggregator talk to. Implementations own their internal bookkeeping;
// callers only ever see opaque handles.
type Heap interface {
	Alloc(size uint64) (models.Handle, error)
	Free(h models.Handle) error
	// UsableSize reports the number of bytes actually committed for a
	// live handle. Always >= the size passed to Alloc.
	UsableSize(h models.Handle) (uint64, error)
	Destroy()
}
