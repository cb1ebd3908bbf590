package storage

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/gofrs/flock"

	"github.com/genc-murat/heapscope/internal/core/models"
	"github.com/genc-murat/heapscope/internal/core/ports"
)

var _ ports.StatsSink = (*CSVSink)(nil)

// Header is the exact column schema downstream analysis scripts key on.
// Do not reorder or rename columns.
const Header = "Time,InternalFrag_Bytes,ExternalFrag_Ratio,TotalFree_Bytes,BiggestBlock_Bytes,TotalUserRequested"

// CSVSink writes a completed time series to a CSV file. A failure here
// only loses persistence; the records stay with the caller.
type CSVSink struct {
	path     string
	lockFile bool
}

func NewCSVSink(path string, lockFile bool) *CSVSink {
	return &CSVSink{path: path, lockFile: lockFile}
}

func (s *CSVSink) Write(records []models.HeapStats) error {
	if s.lockFile {
		fl := flock.New(s.path + ".lock")
		locked, err := fl.TryLock()
		if err != nil {
			return fmt.Errorf("locking output file: %w", err)
		}
		if !locked {
			return fmt.Errorf("output file %s is locked by another process", s.path)
		}
		defer fl.Unlock()
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("opening output file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, Header)
	for _, r := range records {
		fmt.Fprintf(w, "%d,%d,%s,%d,%d,%d\n",
			r.TimeStep,
			r.InternalFragmentation,
			strconv.FormatFloat(r.ExternalFragmentationRatio, 'f', -1, 64),
			r.TotalFreeOnHeap,
			r.BiggestFreeBlock,
			r.TotalUserRequested)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return f.Sync()
}
