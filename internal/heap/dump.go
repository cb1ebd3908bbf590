package heap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// dumpSnapshot captures the chunk list under the arena lock so the
// expensive formatting below runs without holding it.
func (a *Arena) dumpSnapshot() ([]Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return nil, ErrDestroyed
	}
	entries := make([]Entry, 0, len(a.chunks))
	for _, c := range a.chunks {
		entries = append(entries, Entry{Offset: c.off, Size: c.size, Busy: c.busy})
	}
	return entries, nil
}

// DumpXML writes a malloc_info-style report of the arena into buf and
// returns the number of bytes written. The report has three chunk
// sections: a <sizes> summary, the busy chunks, and the free chunks.
// Only chunks inside <free>...</free> are free chunks; consumers that
// count anything else will overcount. Returns ErrBufferTooSmall without
// writing anything if the report does not fit.
func (a *Arena) DumpXML(buf []byte) (int, error) {
	entries, err := a.dumpSnapshot()
	if err != nil {
		return 0, err
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "<arena capacity=\"%d\" mode=\"%s\">\n", a.capacity, a.mode)

	b.WriteString("<sizes>\n")
	for _, sc := range freeSizeClasses(entries) {
		fmt.Fprintf(&b, "  <size bytes=\"%d\" count=\"%d\"/>\n", sc.bytes, sc.count)
	}
	b.WriteString("</sizes>\n")

	var totalFree, totalBusy uint64
	b.WriteString("<busy>\n")
	for _, e := range entries {
		if e.Busy {
			totalBusy += e.Size
			fmt.Fprintf(&b, "<chunk size=\"%d\"/>\n", e.Size)
		}
	}
	b.WriteString("</busy>\n")

	b.WriteString("<free>\n")
	for _, e := range entries {
		if !e.Busy {
			totalFree += e.Size
			fmt.Fprintf(&b, "<chunk size=\"%d\"/>\n", e.Size)
		}
	}
	b.WriteString("</free>\n")

	fmt.Fprintf(&b, "<total busy=\"%d\" free=\"%d\"/>\n", totalBusy, totalFree)
	b.WriteString("</arena>\n")

	if b.Len() > len(buf) {
		return 0, ErrBufferTooSmall
	}
	return copy(buf, b.Bytes()), nil
}

type jsonDump struct {
	Capacity uint64          `json:"capacity"`
	Mode     string          `json:"mode"`
	Sizes    []jsonSizeClass `json:"sizes"`
	Busy     jsonChunkSet    `json:"busy"`
	Free     jsonChunkSet    `json:"free"`
	Total    jsonTotals      `json:"total"`
}

type jsonSizeClass struct {
	Bytes uint64 `json:"bytes"`
	Count int    `json:"count"`
}

type jsonChunkSet struct {
	Chunks []uint64 `json:"chunks"`
}

type jsonTotals struct {
	Busy uint64 `json:"busy"`
	Free uint64 `json:"free"`
}

// DumpJSON is DumpXML with a JSON report: free chunk sizes under
// "free.chunks", busy ones under "busy.chunks".
func (a *Arena) DumpJSON(buf []byte) (int, error) {
	entries, err := a.dumpSnapshot()
	if err != nil {
		return 0, err
	}

	d := jsonDump{
		Capacity: a.capacity,
		Mode:     a.mode.String(),
		Busy:     jsonChunkSet{Chunks: []uint64{}},
		Free:     jsonChunkSet{Chunks: []uint64{}},
	}
	for _, sc := range freeSizeClasses(entries) {
		d.Sizes = append(d.Sizes, jsonSizeClass{Bytes: sc.bytes, Count: sc.count})
	}
	for _, e := range entries {
		if e.Busy {
			d.Busy.Chunks = append(d.Busy.Chunks, e.Size)
			d.Total.Busy += e.Size
		} else {
			d.Free.Chunks = append(d.Free.Chunks, e.Size)
			d.Total.Free += e.Size
		}
	}

	data, err := json.Marshal(&d)
	if err != nil {
		return 0, fmt.Errorf("heap: encoding dump: %w", err)
	}
	if len(data) > len(buf) {
		return 0, ErrBufferTooSmall
	}
	return copy(buf, data), nil
}

type sizeClass struct {
	bytes uint64
	count int
}

// freeSizeClasses buckets free chunks by power-of-two class for the
// summary section of a dump.
func freeSizeClasses(entries []Entry) []sizeClass {
	counts := make(map[uint64]int)
	for _, e := range entries {
		if !e.Busy {
			counts[poolClass(e.Size)]++
		}
	}
	classes := make([]sizeClass, 0, len(counts))
	for b, c := range counts {
		classes = append(classes, sizeClass{bytes: b, count: c})
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].bytes < classes[j].bytes })
	return classes
}
