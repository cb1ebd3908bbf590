package inspect

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/genc-murat/heapscope/internal/heap"
)

var (
	errMalformedJSON = errors.New("inspect: dump is not valid JSON")
	errNoFreeChunks  = errors.New("inspect: dump has no free.chunks array")
)

// JSONDumpInspector reads the arena's JSON report and pulls the free
// chunk sizes out of the free.chunks path, ignoring the busy and summary
// sections entirely.
type JSONDumpInspector struct {
	arena *heap.Arena
	buf   []byte
	errs  chan<- error
}

func (j *JSONDumpInspector) Inspect() (totalFree, largestFree uint64) {
	n, err := j.arena.DumpJSON(j.buf)
	if err != nil {
		report(j.errs, fmt.Errorf("inspect: json dump: %w", err))
		return 0, 0
	}
	total, largest, err := parseFreeChunks(j.buf[:n])
	if err != nil {
		report(j.errs, err)
		return 0, 0
	}
	return total, largest
}

func parseFreeChunks(data []byte) (total, largest uint64, err error) {
	if !gjson.ValidBytes(data) {
		return 0, 0, errMalformedJSON
	}
	chunks := gjson.GetBytes(data, "free.chunks")
	if !chunks.Exists() || !chunks.IsArray() {
		return 0, 0, errNoFreeChunks
	}
	for _, r := range chunks.Array() {
		if r.Type != gjson.Number {
			continue
		}
		size, perr := strconv.ParseUint(r.Raw, 10, 64)
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
