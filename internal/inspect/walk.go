package inspect

import (
	"fmt"

	"github.com/genc-murat/heapscope/internal/heap"
)

// WalkInspector enumerates the arena's chunk list directly through the
// Walk primitive, classifying each entry by its busy flag.
type WalkInspector struct {
	arena *heap.Arena
	errs  chan<- error
}

// Inspect returns the total free bytes and the largest free chunk. The
// arena lock is held only for the enumeration itself.
func (w *WalkInspector) Inspect() (totalFree, largestFree uint64) {
	total, largest, err := w.walk()
	if err != nil {
		report(w.errs, fmt.Errorf("inspect: heap walk: %w", err))
		return 0, 0
	}
	return total, largest
}

func (w *WalkInspector) walk() (total, largest uint64, err error) {
	w.arena.Lock()
	defer w.arena.Unlock()
	err = w.arena.Walk(func(e heap.Entry) bool {
		if !e.Busy {
			total += e.Size
			if e.Size > largest {
				largest = e.Size
			}
		}
		return true
	})
	return total, largest, err
}
