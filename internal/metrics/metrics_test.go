package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()

	m.IncrAlloc()
	m.IncrAlloc()
	m.IncrFree()
	m.IncrFailedAlloc()
	m.IncrDegradedSnapshot()

	assert.Equal(t, int64(2), m.AllocCount())
	assert.Equal(t, int64(1), m.FreeCount())
	assert.Equal(t, int64(1), m.FailedAllocCount())
	assert.Equal(t, int64(1), m.DegradedSnapshotCount())
}

func TestGetStats(t *testing.T) {
	m := New()
	m.IncrAlloc()
	m.AddInspectDuration(4 * time.Millisecond)
	m.AddInspectDuration(2 * time.Millisecond)

	stats := m.GetStats()
	assert.Equal(t, int64(1), stats["total_allocations"])
	assert.Equal(t, int64(2), stats["inspections"])
	assert.Equal(t, int64(3000), stats["avg_inspect_time_us"])
}

func TestSummaryIsSortedAndComplete(t *testing.T) {
	m := New()
	m.IncrAlloc()

	summary := m.Summary()
	lines := strings.Split(strings.TrimRight(summary, "\n"), "\n")

	var keys []string
	for _, line := range lines {
		key, _, ok := strings.Cut(line, ":")
		assert.True(t, ok, "line %q is not key:value", line)
		keys = append(keys, key)
	}
	assert.IsIncreasing(t, keys)
	assert.Contains(t, keys, "total_allocations")
	assert.Contains(t, keys, "degraded_snapshots")
}
