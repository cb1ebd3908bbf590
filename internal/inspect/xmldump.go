package inspect

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/genc-murat/heapscope/internal/heap"
)

var (
	errNoFreeSection = errors.New("inspect: dump has no <free> section")
	errUnterminated  = errors.New("inspect: dump <free> section is unterminated")
)

var chunkPattern = regexp.MustCompile(`<chunk size="(\d+)"/>`)

// XMLDumpInspector asks the arena for a malloc_info-style text report
// and extracts chunk sizes from it. The report lists chunk tokens in
// several sections; only the ones between <free> and </free> are free
// chunks, so the scan is scoped to that span before any token matching
// happens. Counting tokens from the <sizes> or <busy> sections is the
// classic way to get this wrong.
type XMLDumpInspector struct {
	arena *heap.Arena
	buf   []byte
	errs  chan<- error
}

func (x *XMLDumpInspector) Inspect() (totalFree, largestFree uint64) {
	// The dump call is atomic with respect to the arena lock; parsing
	// below runs on a private copy with no lock held.
	n, err := x.arena.DumpXML(x.buf)
	if err != nil {
		report(x.errs, fmt.Errorf("inspect: xml dump: %w", err))
		return 0, 0
	}
	total, largest, err := parseFreeSection(x.buf[:n])
	if err != nil {
		report(x.errs, err)
		return 0, 0
	}
	return total, largest
}

// parseFreeSection sums the chunk tokens inside the first
// <free>...</free> span. A token that does not parse as uint64 is
// skipped, never fatal to the scan.
func parseFreeSection(dump []byte) (total, largest uint64, err error) {
	start := bytes.Index(dump, []byte("<free>"))
	if start < 0 {
		return 0, 0, errNoFreeSection
	}
	rest := dump[start+len("<free>"):]
	end := bytes.Index(rest, []byte("</free>"))
	if end < 0 {
		return 0, 0, errUnterminated
	}
	for _, m := range chunkPattern.FindAllSubmatch(rest[:end], -1) {
		size, perr := strconv.ParseUint(string(m[1]), 10, 64)
		if perr != nil {
			continue
		}
		total += size
		if size > largest {
			largest = size
		}
	}
	return total, largest, nil
}
