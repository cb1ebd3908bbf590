package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks run-level counters for a simulation: workload
// operations, degraded snapshots, and inspection timings.
type Metrics struct {
	startTime         time.Time
	allocCount        int64
	freeCount         int64
	failedAllocs      int64
	degradedSnapshots int64
	inspectCount      int64
	inspectTotalNs    int64
}

func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

func (m *Metrics) IncrAlloc() {
	atomic.AddInt64(&m.allocCount, 1)
}

func (m *Metrics) IncrFree() {
	atomic.AddInt64(&m.freeCount, 1)
}

func (m *Metrics) IncrFailedAlloc() {
	atomic.AddInt64(&m.failedAllocs, 1)
}

func (m *Metrics) IncrDegradedSnapshot() {
	atomic.AddInt64(&m.degradedSnapshots, 1)
}

func (m *Metrics) AddInspectDuration(d time.Duration) {
	atomic.AddInt64(&m.inspectCount, 1)
	atomic.AddInt64(&m.inspectTotalNs, d.Nanoseconds())
}

func (m *Metrics) AllocCount() int64 {
	return atomic.LoadInt64(&m.allocCount)
}

func (m *Metrics) FreeCount() int64 {
	return atomic.LoadInt64(&m.freeCount)
}

func (m *Metrics) FailedAllocCount() int64 {
	return atomic.LoadInt64(&m.failedAllocs)
}

func (m *Metrics) DegradedSnapshotCount() int64 {
	return atomic.LoadInt64(&m.degradedSnapshots)
}

// GetStats returns the counters as a flat map for logging.
func (m *Metrics) GetStats() map[string]interface{} {
	stats := make(map[string]interface{})
	stats["uptime_in_seconds"] = int(time.Since(m.startTime).Seconds())
	stats["total_allocations"] = atomic.LoadInt64(&m.allocCount)
	stats["total_frees"] = atomic.LoadInt64(&m.freeCount)
	stats["failed_allocations"] = atomic.LoadInt64(&m.failedAllocs)
	stats["degraded_snapshots"] = atomic.LoadInt64(&m.degradedSnapshots)

	count := atomic.LoadInt64(&m.inspectCount)
	stats["inspections"] = count
	if count > 0 {
		stats["avg_inspect_time_us"] = atomic.LoadInt64(&m.inspectTotalNs) / count / 1000
	}
	return stats
}

// Summary formats GetStats as sorted key:value lines for the end-of-run
// log message.
func (m *Metrics) Summary() string {
	stats := m.GetStats()
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for _, k := range keys {
		builder.WriteString(fmt.Sprintf("%s:%v\n", k, stats[k]))
	}
	return builder.String()
}
