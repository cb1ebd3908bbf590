package heap

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/genc-murat/heapscope/internal/core/models"
)

const (
	// Chunk sizes are rounded up to this alignment. The rounding is the
	// source of internal fragmentation inside busy chunks.
	ChunkAlignment = 16

	// Smallest chunk worth tracking on its own; a split tail below this
	// stays attached to the busy chunk instead.
	minSplitSize = ChunkAlignment

	// Upper bound for size-class pooling in ModePooled.
	maxPooledSize = 4096

	// Smallest pooled size class.
	minPoolClass = 64
)

var (
	ErrOutOfMemory    = errors.New("heap: out of memory")
	ErrInvalidSize    = errors.New("heap: invalid allocation size")
	ErrBadHandle      = errors.New("heap: handle does not refer to a live allocation")
	ErrDestroyed      = errors.New("heap: arena destroyed")
	ErrBufferTooSmall = errors.New("heap: dump buffer too small")
)

// Mode selects the allocation policy for an arena.
type Mode int

const (
	// ModeClassic is plain first-fit with coalescing on free. Free space
	// fragments the way a classic heap does, which is what the
	// fragmentation metrics are meant to observe.
	ModeClassic Mode = iota

	// ModePooled keeps per-size-class free lists for small chunks, so
	// small allocations recycle exactly and fragmentation stays mostly
	// hidden. The counterpart of a low-fragmentation heap frontend.
	ModePooled
)

func (m Mode) String() string {
	switch m {
	case ModeClassic:
		return "classic"
	case ModePooled:
		return "pooled"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode name from configuration.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "classic", "":
		return ModeClassic, nil
	case "pooled":
		return ModePooled, nil
	default:
		return 0, fmt.Errorf("heap: unknown arena mode %q", s)
	}
}

// chunk is one contiguous span of the arena. The chunk list covers
// [0, capacity) exactly, sorted by offset, with no gaps or overlaps.
type chunk struct {
	off  uint64
	size uint64
	busy bool
}

// Entry is the view of a chunk handed out by Walk.
type Entry struct {
	Offset uint64
	Size   uint64
	Busy   bool
}

// Stats summarizes arena bookkeeping counters.
type Stats struct {
	Capacity   uint64
	UsedBytes  uint64
	FreeBytes  uint64
	ChunkCount int
	AllocCount int64
	FreeCount  int64
}

// Arena is a fixed-capacity managed heap. All mutation goes through its
// mutex; Walk is the one operation that relies on the caller holding the
// lock via Lock/Unlock, mirroring allocator walk primitives that require
// an explicit heap lock around the enumeration.
type Arena struct {
	mu        sync.Mutex
	buf       []byte
	capacity  uint64
	mode      Mode
	chunks    []chunk
	pools     map[uint64][]uint64 // class size -> free chunk offsets
	destroyed bool
	stats     Stats
}

// NewArena creates an arena backed by a region of the given capacity.
// The mode is fixed for the arena's lifetime; there is no way to switch
// policies once allocations exist.
func NewArena(capacity uint64, mode Mode) (*Arena, error) {
	if capacity == 0 || capacity%ChunkAlignment != 0 {
		return nil, fmt.Errorf("heap: capacity must be a positive multiple of %d, got %d", ChunkAlignment, capacity)
	}
	a := &Arena{
		buf:      make([]byte, capacity),
		capacity: capacity,
		mode:     mode,
		chunks:   []chunk{{off: 0, size: capacity}},
	}
	if mode == ModePooled {
		a.pools = make(map[uint64][]uint64)
	}
	a.stats.Capacity = capacity
	a.stats.FreeBytes = capacity
	return a, nil
}

// Mode reports the allocation policy the arena was created with.
func (a *Arena) Mode() Mode {
	return a.mode
}

// Lock acquires the arena's internal lock for an external enumeration.
func (a *Arena) Lock() {
	a.mu.Lock()
}

// Unlock releases the lock taken by Lock.
func (a *Arena) Unlock() {
	a.mu.Unlock()
}

// Alloc reserves size bytes and returns a handle for the block. The
// committed span is size rounded up to the arena's alignment (and to the
// containing size class in pooled mode), so UsableSize is always at
// least the requested size.
func (a *Arena) Alloc(size uint64) (models.Handle, error) {
	if size == 0 {
		return models.InvalidHandle, ErrInvalidSize
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return models.InvalidHandle, ErrDestroyed
	}

	rounded := alignUp(size)
	if a.mode == ModePooled && rounded <= maxPooledSize {
		rounded = poolClass(rounded)
		if off, ok := a.popPool(rounded); ok {
			i := a.findChunk(off)
			a.chunks[i].busy = true
			a.stats.AllocCount++
			a.stats.UsedBytes += rounded
			a.stats.FreeBytes -= rounded
			return models.Handle(off + 1), nil
		}
	}

	// First fit.
	for i := range a.chunks {
		c := &a.chunks[i]
		if c.busy || c.size < rounded {
			continue
		}
		if tail := c.size - rounded; tail >= minSplitSize {
			c.size = rounded
			a.insertChunk(i+1, chunk{off: c.off + rounded, size: tail})
		}
		c = &a.chunks[i] // insert may have reallocated
		c.busy = true
		a.stats.AllocCount++
		a.stats.UsedBytes += c.size
		a.stats.FreeBytes -= c.size
		return models.Handle(c.off + 1), nil
	}
	return models.InvalidHandle, ErrOutOfMemory
}

// Free releases a live allocation. In classic mode the chunk is merged
// with free neighbors immediately; in pooled mode class-sized chunks go
// back on their free list unmerged.
func (a *Arena) Free(h models.Handle) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return ErrDestroyed
	}
	i := a.lookupBusy(h)
	if i < 0 {
		return ErrBadHandle
	}
	c := &a.chunks[i]
	c.busy = false
	a.stats.FreeCount++
	a.stats.UsedBytes -= c.size
	a.stats.FreeBytes += c.size

	if a.mode == ModePooled {
		if c.size >= minPoolClass && c.size <= maxPooledSize && c.size == poolClass(c.size) {
			a.pools[c.size] = append(a.pools[c.size], c.off)
		}
		return nil
	}
	a.coalesce(i)
	return nil
}

// UsableSize reports the committed span of a live allocation.
func (a *Arena) UsableSize(h models.Handle) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return 0, ErrDestroyed
	}
	i := a.lookupBusy(h)
	if i < 0 {
		return 0, ErrBadHandle
	}
	return a.chunks[i].size, nil
}

// Walk calls fn for every chunk in address order until fn returns false.
// The caller must hold the arena lock for the whole enumeration:
//
//	a.Lock()
//	defer a.Unlock()
//	err := a.Walk(func(e heap.Entry) bool { ... })
func (a *Arena) Walk(fn func(Entry) bool) error {
	if a.destroyed {
		return ErrDestroyed
	}
	for _, c := range a.chunks {
		if !fn(Entry{Offset: c.off, Size: c.size, Busy: c.busy}) {
			break
		}
	}
	return nil
}

// Stats returns a copy of the arena counters.
func (a *Arena) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.stats
	s.ChunkCount = len(a.chunks)
	return s
}

// Destroy releases the arena. Every later operation fails with
// ErrDestroyed. Safe to call more than once.
func (a *Arena) Destroy() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.destroyed = true
	a.buf = nil
	a.chunks = nil
	a.pools = nil
}

func (a *Arena) lookupBusy(h models.Handle) int {
	if h == models.InvalidHandle {
		return -1
	}
	off := uint64(h) - 1
	i := a.findChunk(off)
	if i < 0 || !a.chunks[i].busy {
		return -1
	}
	return i
}

func (a *Arena) findChunk(off uint64) int {
	i := sort.Search(len(a.chunks), func(i int) bool {
		return a.chunks[i].off >= off
	})
	if i < len(a.chunks) && a.chunks[i].off == off {
		return i
	}
	return -1
}

func (a *Arena) insertChunk(i int, c chunk) {
	a.chunks = append(a.chunks, chunk{})
	copy(a.chunks[i+1:], a.chunks[i:])
	a.chunks[i] = c
}

func (a *Arena) removeChunk(i int) {
	copy(a.chunks[i:], a.chunks[i+1:])
	a.chunks = a.chunks[:len(a.chunks)-1]
}

// coalesce merges the free chunk at index i with free neighbors.
func (a *Arena) coalesce(i int) {
	if i+1 < len(a.chunks) && !a.chunks[i+1].busy {
		a.chunks[i].size += a.chunks[i+1].size
		a.removeChunk(i + 1)
	}
	if i > 0 && !a.chunks[i-1].busy {
		a.chunks[i-1].size += a.chunks[i].size
		a.removeChunk(i)
	}
}

// popPool pops a free offset of the given class, dropping entries that
// went stale because the general first-fit path reused the chunk.
func (a *Arena) popPool(class uint64) (uint64, bool) {
	list := a.pools[class]
	for len(list) > 0 {
		off := list[len(list)-1]
		list = list[:len(list)-1]
		a.pools[class] = list
		if i := a.findChunk(off); i >= 0 && !a.chunks[i].busy && a.chunks[i].size == class {
			return off, true
		}
	}
	return 0, false
}

func alignUp(size uint64) uint64 {
	return (size + ChunkAlignment - 1) &^ uint64(ChunkAlignment-1)
}

// poolClass rounds up to the next power-of-two size class, at least
// minPoolClass.
func poolClass(size uint64) uint64 {
	class := uint64(minPoolClass)
	for class < size {
		class <<= 1
	}
	return class
}
