package stats

import "github.com/genc-murat/heapscope/internal/core/models"

// TimeSeries is the append-only collection of per-timestep records.
type TimeSeries struct {
	records []models.HeapStats
}

func NewTimeSeries(capacity int) *TimeSeries {
	return &TimeSeries{records: make([]models.HeapStats, 0, capacity)}
}

func (ts *TimeSeries) Append(s models.HeapStats) {
	ts.records = append(ts.records, s)
}

func (ts *TimeSeries) Len() int {
	return len(ts.records)
}

// Records returns the underlying records. Callers treat them as
// read-only.
func (ts *TimeSeries) Records() []models.HeapStats {
	return ts.records
}
