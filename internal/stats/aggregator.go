// Package stats turns one workload timestep into a HeapStats record.
package stats

import (
	"fmt"

	"github.com/genc-murat/heapscope/internal/core/models"
	"github.com/genc-murat/heapscope/internal/core/ports"
)

// SizeFunc reports the committed (usable) size for a live handle. It is
// supplied by the allocator boundary; the aggregator never derives
// committed sizes on its own.
type SizeFunc func(models.Handle) uint64

// Aggregator combines the caller-owned live-allocation set with the
// inspector's free-space figures into per-timestep records.
type Aggregator struct {
	insp  ports.Inspector
	sizer SizeFunc
	errs  chan<- error
}

func NewAggregator(insp ports.Inspector, sizer SizeFunc, errs chan<- error) *Aggregator {
	return &Aggregator{insp: insp, sizer: sizer, errs: errs}
}

// Snapshot builds the record for one timestep. The live set is summed
// exactly once for requested and once for committed sizes, the inspector
// runs exactly once, and the derived ratio carries the zero-division
// guard for an empty free list.
func (g *Aggregator) Snapshot(timeStep int, live []models.Allocation) models.HeapStats {
	s := models.HeapStats{TimeStep: timeStep}
	for _, a := range live {
		s.TotalUserRequested += a.Requested
		s.TotalHeapCommitted += g.sizer(a.Handle)
	}

	// The allocator never grants less than requested. If a sizer ever
	// reports otherwise the difference must not wrap.
	if s.TotalHeapCommitted >= s.TotalUserRequested {
		s.InternalFragmentation = s.TotalHeapCommitted - s.TotalUserRequested
	} else {
		s.InternalFragmentation = 0
		if g.errs != nil {
			select {
			case g.errs <- fmt.Errorf("stats: committed %d < requested %d at step %d", s.TotalHeapCommitted, s.TotalUserRequested, timeStep):
			default:
			}
		}
	}

	s.TotalFreeOnHeap, s.BiggestFreeBlock = g.insp.Inspect()
	if s.TotalFreeOnHeap > 0 {
		s.ExternalFragmentationRatio = 1 - float64(s.BiggestFreeBlock)/float64(s.TotalFreeOnHeap)
	}
	return s
}
