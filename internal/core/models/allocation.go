package models

// Handle identifies a live allocation inside the managed arena. The zero
// value is never a valid handle.
type Handle uint64

// InvalidHandle is returned by failed allocations.
const InvalidHandle Handle = 0

// Allocation is one entry of the live-allocation set: the handle the
// allocator returned and the size the workload originally requested.
// The set is owned exclusively by the workload driver; a handle must not
// be used after it has been freed.
type Allocation struct {
	Handle    Handle
	Requested uint64
}
