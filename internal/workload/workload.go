// Package workload drives the synthetic allocation pattern the
// fragmentation metrics are measured against.
package workload

import (
	"math/rand"

	"github.com/genc-murat/heapscope/internal/core/models"
	"github.com/genc-murat/heapscope/internal/core/ports"
	"github.com/genc-murat/heapscope/internal/metrics"
)

// Config shapes the per-step allocation pattern.
type Config struct {
	// AllocsPerStep new blocks are requested on every step.
	AllocsPerStep int

	// Each request is MinAllocSize plus a random amount in [0, AllocJitter).
	MinAllocSize uint64
	AllocJitter  uint64

	// Once the live set grows past FreeThreshold, one randomly chosen
	// block is freed per step.
	FreeThreshold int
}

// Driver owns the live-allocation set. Nothing else mutates it, and a
// freed handle is dropped from the set immediately and never reused.
type Driver struct {
	heap    ports.Heap
	cfg     Config
	rng     *rand.Rand
	metrics *metrics.Metrics
	live    []models.Allocation
}

func NewDriver(h ports.Heap, cfg Config, rng *rand.Rand, m *metrics.Metrics) *Driver {
	return &Driver{heap: h, cfg: cfg, rng: rng, metrics: m}
}

// Step performs one round of workload mutations: a batch of allocations
// followed by at most one random free. An allocation failure simply
// skips that block; the run keeps going.
func (d *Driver) Step() {
	for i := 0; i < d.cfg.AllocsPerStep; i++ {
		size := d.cfg.MinAllocSize
		if d.cfg.AllocJitter > 0 {
			size += uint64(d.rng.Int63n(int64(d.cfg.AllocJitter)))
		}
		h, err := d.heap.Alloc(size)
		if err != nil {
			d.metrics.IncrFailedAlloc()
			continue
		}
		d.metrics.IncrAlloc()
		d.live = append(d.live, models.Allocation{Handle: h, Requested: size})
	}

	if len(d.live) > d.cfg.FreeThreshold {
		i := d.rng.Intn(len(d.live))
		if err := d.heap.Free(d.live[i].Handle); err == nil {
			d.metrics.IncrFree()
		}
		d.live = append(d.live[:i], d.live[i+1:]...)
	}
}

// Live exposes the current live-allocation set for snapshotting. The
// returned slice is owned by the driver; callers must not mutate it.
func (d *Driver) Live() []models.Allocation {
	return d.live
}

func (d *Driver) LiveCount() int {
	return len(d.live)
}

// ReleaseAll frees every outstanding allocation, leaving the live set
// empty. Called once at the end of a run.
func (d *Driver) ReleaseAll() {
	for _, a := range d.live {
		if err := d.heap.Free(a.Handle); err == nil {
			d.metrics.IncrFree()
		}
	}
	d.live = nil
}
