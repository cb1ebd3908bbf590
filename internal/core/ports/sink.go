package ports

import "github.com/genc-murat/heapscope/internal/core/models"

// StatsSink persists a completed time series. A sink failure only skips
// persistence; the records stay in memory with the caller.
type StatsSink interface {
	Write(records []models.HeapStats) error
}
