// Package app wires the arena, workload driver, inspector and
// aggregator into a complete simulation run.
package app

import (
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/inhies/go-bytesize"

	"github.com/genc-murat/heapscope/config"
	"github.com/genc-murat/heapscope/internal/core/models"
	"github.com/genc-murat/heapscope/internal/heap"
	"github.com/genc-murat/heapscope/internal/inspect"
	"github.com/genc-murat/heapscope/internal/metrics"
	"github.com/genc-murat/heapscope/internal/stats"
	"github.com/genc-murat/heapscope/internal/util"
	"github.com/genc-murat/heapscope/internal/workload"
)

// inspectErrorBuffer bounds how many structural failure reports can pile
// up between drains.
const inspectErrorBuffer = 64

// Simulation owns the arena for its entire lifetime: created in
// NewSimulation, destroyed when Run returns, on every path.
type Simulation struct {
	cfg     *config.Config
	arena   *heap.Arena
	driver  *workload.Driver
	agg     *stats.Aggregator
	metrics *metrics.Metrics
	errs    chan error
}

func NewSimulation(cfg *config.Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	capacity, err := cfg.CapacityBytes()
	if err != nil {
		return nil, err
	}
	mode, err := heap.ParseMode(cfg.Heap.Mode)
	if err != nil {
		return nil, err
	}
	arena, err := heap.NewArena(capacity, mode)
	if err != nil {
		return nil, err
	}

	errs := make(chan error, inspectErrorBuffer)
	bufSize, err := cfg.DumpBufferBytes()
	if err != nil {
		arena.Destroy()
		return nil, err
	}
	insp, err := inspect.New(cfg.Inspector.Strategy, arena, inspect.Options{
		DumpBufferSize: int(bufSize),
		Errors:         errs,
	})
	if err != nil {
		arena.Destroy()
		return nil, err
	}

	m := metrics.New()
	minSize, err := cfg.MinAllocBytes()
	if err != nil {
		arena.Destroy()
		return nil, err
	}
	jitter, err := cfg.JitterBytes()
	if err != nil {
		arena.Destroy()
		return nil, err
	}
	driver := workload.NewDriver(arena, workload.Config{
		AllocsPerStep: cfg.Workload.AllocsPerStep,
		MinAllocSize:  minSize,
		AllocJitter:   jitter,
		FreeThreshold: cfg.Workload.FreeThreshold,
	}, util.NewRand(cfg.Simulation.Seed), m)

	// The usable-size query is the allocator boundary's; the aggregator
	// only ever sums what it reports. A dead handle reports 0, which the
	// aggregator clamps and flags.
	sizer := func(h models.Handle) uint64 {
		n, err := arena.UsableSize(h)
		if err != nil {
			return 0
		}
		return n
	}

	return &Simulation{
		cfg:     cfg,
		arena:   arena,
		driver:  driver,
		agg:     stats.NewAggregator(insp, sizer, errs),
		metrics: m,
		errs:    errs,
	}, nil
}

// Run executes the configured number of timesteps and returns the
// collected series. It always runs to completion: degraded snapshots are
// logged and kept, every allocation is released, and the arena is torn
// down before returning.
func (s *Simulation) Run() *stats.TimeSeries {
	defer s.arena.Destroy()
	defer s.driver.ReleaseAll()

	series := stats.NewTimeSeries(s.cfg.Simulation.Steps)
	for t := 0; t < s.cfg.Simulation.Steps; t++ {
		s.driver.Step()

		start := time.Now()
		record := s.agg.Snapshot(t, s.driver.Live())
		s.metrics.AddInspectDuration(time.Since(start))

		if s.drainErrors(t) > 0 {
			s.metrics.IncrDegradedSnapshot()
		}
		series.Append(record)
	}

	s.logSummary()
	return series
}

func (s *Simulation) Metrics() *metrics.Metrics {
	return s.metrics
}

// drainErrors empties the inspection error channel, logging each report
// against the step it degraded.
func (s *Simulation) drainErrors(step int) int {
	n := 0
	for {
		select {
		case err := <-s.errs:
			log.Printf("step %d: %v", step, err)
			n++
		default:
			return n
		}
	}
}

func (s *Simulation) logSummary() {
	log.Printf("simulation complete:\n%s", s.metrics.Summary())

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	log.Printf("host process: heap_alloc=%s heap_sys=%s gc_cycles=%d",
		bytesize.New(float64(ms.HeapAlloc)),
		bytesize.New(float64(ms.HeapSys)),
		ms.NumGC)
}
