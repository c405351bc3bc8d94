// Package vm implements the per-process virtual address space: the
// vmarea/vmmap data model, the memory-object lookup/dirty contract
// (including copy-on-write via shadow objects), the page-fault handler,
// and the brk heap-break manager.
//
// vm depends on sched only for the blocking shape of Object.Lookup
// (backing-store I/O can suspend the calling thread); it does not depend
// on tty.
package vm

import (
	"sync"

	"github.com/Jacky12315/Weenix/internal/kernel"
)

// Frame is a physical page frame: an opaque backing address plus a dirty
// flag settable through Dirty. Frame is shared by reference wherever it
// is returned from a lookup, the same way the real kernel's pframe_t is
// shared between a memory object's page cache and the page tables.
type Frame struct {
	mu    sync.Mutex
	paddr uintptr
	dirty bool
}

// NewFrame allocates a frame backed by the given (simulated) physical
// address. A zero address is valid — it still denotes a distinct frame
// identity via the pointer.
func NewFrame(paddr uintptr) *Frame {
	return &Frame{paddr: paddr}
}

// PAddr returns the frame's backing physical address.
func (f *Frame) PAddr() uintptr { return f.paddr }

// Dirty marks the frame dirty. Idempotent.
func (f *Frame) Dirty() {
	f.mu.Lock()
	f.dirty = true
	f.mu.Unlock()
}

// IsDirty reports whether Dirty has been called on this frame.
func (f *Frame) IsDirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirty
}

// Object is the memory-object contract every vmarea backing store
// implements: an opaque producer of page frames indexed by
// object-relative page number.
//
// When forWrite is true, the returned frame must belong to the topmost
// writable object in any shadow chain rooted at the receiver — this is
// how copy-on-write resolves transparently at the fault handler, which
// never needs to know whether it is looking at a plain anonymous object
// or several layers of shadow.
type Object interface {
	// Lookup returns the frame backing index, possibly blocking on
	// backing-store I/O. Returns kernel.EFAULT if the page cannot be
	// produced.
	Lookup(index int, forWrite bool) (*Frame, error)
}

// AnonObject is a memory object backed by anonymous (zero-fill-on-demand)
// pages, with no backing file. It is the base of a shadow chain and is
// itself always writable.
type AnonObject struct {
	mu     sync.Mutex
	frames map[int]*Frame
}

// NewAnonObject returns an empty anonymous memory object.
func NewAnonObject() *AnonObject {
	return &AnonObject{frames: make(map[int]*Frame)}
}

// Lookup returns the frame at index, allocating a fresh zeroed frame on
// first access. AnonObject never fails.
func (o *AnonObject) Lookup(index int, forWrite bool) (*Frame, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	f, ok := o.frames[index]
	if !ok {
		f = NewFrame(0)
		o.frames[index] = f
	}
	return f, nil
}

// ShadowObject layers copy-on-write atop an underlying Object: writes
// allocate and store a private frame in the shadow, reads fall through to
// the underlying chain whenever the shadow itself has not yet captured
// that index.
type ShadowObject struct {
	mu       sync.Mutex
	under    Object
	frames   map[int]*Frame
	refcount int
}

// NewShadowObject layers a new shadow in front of under. refcount starts
// at 1, representing the single vmarea that will reference it; callers
// sharing the shadow across multiple areas (fork-style) must call Ref.
func NewShadowObject(under Object) *ShadowObject {
	return &ShadowObject{under: under, frames: make(map[int]*Frame), refcount: 1}
}

// Ref increments the shadow's reference count.
func (o *ShadowObject) Ref() {
	o.mu.Lock()
	o.refcount++
	o.mu.Unlock()
}

// Unref decrements the shadow's reference count and reports the count
// after decrementing, so callers can decide whether to collapse or free.
func (o *ShadowObject) Unref() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.refcount--
	return o.refcount
}

// Collapsible reports whether this shadow is a candidate for chain
// collapsing: a shadow referenced by exactly one vmarea has no sibling
// that still needs the underlying object's copy, so (in a fuller
// implementation) it could be merged with its single underlying shadow.
// This mirrors the classic two-level shadow-collapse check; it is
// exercised by tests but the fault handler never requires a collapse to
// make progress, since Lookup always falls through the chain regardless.
func (o *ShadowObject) Collapsible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.refcount == 1
}

// Lookup implements copy-on-write: for a write fault, it returns (copying
// lazily from the chain on first write) the shadow's own private frame at
// index; for a read, it returns the shadow's frame if already captured,
// else falls through to the underlying object.
func (o *ShadowObject) Lookup(index int, forWrite bool) (*Frame, error) {
	o.mu.Lock()
	if f, ok := o.frames[index]; ok {
		o.mu.Unlock()
		return f, nil
	}
	if !forWrite {
		under := o.under
		o.mu.Unlock()
		return under.Lookup(index, false)
	}
	o.mu.Unlock()

	// First write: copy-on-write. Fetch the source frame (read-only) from
	// the chain, then allocate our own private frame seeded from it.
	src, err := o.under.Lookup(index, false)
	if err != nil {
		return nil, kernel.EFAULT
	}
	kernel.Assertf(src != nil, "shadow copy-on-write: nil source frame for index %d", index)

	o.mu.Lock()
	defer o.mu.Unlock()
	if f, ok := o.frames[index]; ok {
		// Lost a race with a concurrent writer to the same index.
		return f, nil
	}
	f := NewFrame(src.PAddr())
	o.frames[index] = f
	return f, nil
}
