// Package inspect extracts free-space figures from the arena's private
// chunk bookkeeping. Each strategy implements ports.Inspector and
// degrades to (0, 0) on structural failure so a bad snapshot never stops
// a simulation run.
package inspect

import (
	"fmt"
	"sort"

	"github.com/genc-murat/heapscope/internal/core/ports"
	"github.com/genc-murat/heapscope/internal/heap"
)

// DefaultDumpBufferSize bounds the in-memory diagnostic dump used by the
// dump-based strategies.
const DefaultDumpBufferSize = 64 * 1024

// Options configures an inspector instance.
type Options struct {
	// DumpBufferSize overrides DefaultDumpBufferSize when > 0.
	DumpBufferSize int

	// Errors receives structural failure reports. Sends never block; if
	// the channel is full the report is dropped. May be nil.
	Errors chan<- error
}

func (o Options) bufferSize() int {
	if o.DumpBufferSize > 0 {
		return o.DumpBufferSize
	}
	return DefaultDumpBufferSize
}

type factory func(*heap.Arena, Options) ports.Inspector

var strategies = map[string]factory{
	"walk": func(a *heap.Arena, o Options) ports.Inspector {
		return &WalkInspector{arena: a, errs: o.Errors}
	},
	"xmldump": func(a *heap.Arena, o Options) ports.Inspector {
		return &XMLDumpInspector{arena: a, buf: make([]byte, o.bufferSize()), errs: o.Errors}
	},
	"jsondump": func(a *heap.Arena, o Options) ports.Inspector {
		return &JSONDumpInspector{arena: a, buf: make([]byte, o.bufferSize()), errs: o.Errors}
	},
}

// Strategies lists the registered strategy names.
func Strategies() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the named inspector strategy for an arena.
func New(name string, arena *heap.Arena, opts Options) (ports.Inspector, error) {
	f, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("inspect: unknown strategy %q (have %v)", name, Strategies())
	}
	return f(arena, opts), nil
}

// report forwards a structural failure without ever blocking the
// inspection path.
func report(errs chan<- error, err error) {
	if errs == nil {
		return
	}
	select {
	case errs <- err:
	default:
	}
}
