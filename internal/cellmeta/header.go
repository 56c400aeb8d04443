// Package cellmeta defines the on-heap cell layout shared by every free
// list in tinyalloc, and the free list itself: first-fit search and
// splitting. Coalesce-on-free is done by internal/heap, which owns both a
// list and the blocks its cells live in. It is the load-bearing ~40% of the allocator the
// rest of the module exists to serve.
//
// A cell is a two-word header followed by its payload. The header's low two
// bits are stolen from the size word as flags, because payloads are always
// word-size multiples and so the low log2(word size) bits of a size are
// otherwise always zero. Every pointer-crossing operation here is unsafe by
// necessity (§9 of the design doc this package implements); callers outside
// this package should never need to reach for unsafe.Pointer themselves.
package cellmeta

import "unsafe"

// WordSize is the machine word width tinyalloc aligns payloads and header
// fields to. It resolves at compile time to the target's pointer width (8 on
// amd64, arm64 and wasm, 4 on 386 and arm), so a single build is correct on
// every target without
// conditional arithmetic.
const WordSize = unsafe.Sizeof(uintptr(0))

// HeaderSize is the size in bytes of a cell's two-word header.
const HeaderSize = 2 * WordSize

const (
	flagNextIsFree uintptr = 1 << 0
	flagAllocated  uintptr = 1 << 1
	flagMask               = flagNextIsFree | flagAllocated
)

// Header is a handle to a cell's two-word header, embedded directly in the
// memory the cell occupies. Header values are cheap to copy; they carry no
// state of their own beyond the address.
type Header struct {
	base unsafe.Pointer
}

// HeaderAt wraps an existing header at the given address. addr must point
// to a live, previously-initialized cell header, or to raw memory about to
// be initialized with Init.
func HeaderAt(addr unsafe.Pointer) Header {
	return Header{base: addr}
}

// HeaderFromPayload recovers a cell's header from a pointer previously
// returned by Payload: the inverse of Payload, stepping back one header's
// width.
func HeaderFromPayload(payload unsafe.Pointer) Header {
	return HeaderAt(unsafe.Add(payload, -int(HeaderSize)))
}

// Addr returns the header's base address, suitable for storage as a link
// word elsewhere or for pointer arithmetic.
func (h Header) Addr() unsafe.Pointer { return h.base }

// IsNil reports whether the header is the zero Header.
func (h Header) IsNil() bool { return h.base == nil }

func (h Header) sizeWordPtr() *uintptr { return (*uintptr)(h.base) }
func (h Header) linkWordPtr() *uintptr {
	return (*uintptr)(unsafe.Add(h.base, WordSize))
}

// Init stamps a fresh header over raw memory with the given payload size
// and allocated state. The free-list/physical-next link word is left
// zeroed; callers set it via SetFreeNext or SetPhysNext afterward.
func (h Header) Init(payloadSize int, allocated bool) {
	v := uintptr(payloadSize)
	if allocated {
		v |= flagAllocated
	}
	*h.sizeWordPtr() = v
	*h.linkWordPtr() = 0
}

// Size returns the cell's payload size in bytes (header excluded).
func (h Header) Size() int {
	return int(*h.sizeWordPtr() &^ flagMask)
}

// SetSize overwrites the payload size, preserving both flag bits.
func (h Header) SetSize(size int) {
	v := *h.sizeWordPtr()
	*h.sizeWordPtr() = uintptr(size) | (v & flagMask)
}

// IsAllocated reports whether the cell is currently handed out to a caller.
func (h Header) IsAllocated() bool {
	return *h.sizeWordPtr()&flagAllocated != 0
}

// SetAllocated flips the IS_ALLOCATED bit, preserving size and the sibling
// flag.
func (h Header) SetAllocated(allocated bool) {
	v := *h.sizeWordPtr()
	if allocated {
		v |= flagAllocated
	} else {
		v &^= flagAllocated
	}
	*h.sizeWordPtr() = v
}

// NextIsFree reports whether this cell's physical successor is currently on
// a free list. It is maintained on every split, free, and coalesce so that
// coalesce-on-free can tell, in O(1), whether it needs to absorb a
// neighbor.
func (h Header) NextIsFree() bool {
	return *h.sizeWordPtr()&flagNextIsFree != 0
}

// SetNextIsFree flips the NEXT_IS_FREE bit, preserving size and the sibling
// flag.
func (h Header) SetNextIsFree(free bool) {
	v := *h.sizeWordPtr()
	if free {
		v |= flagNextIsFree
	} else {
		v &^= flagNextIsFree
	}
	*h.sizeWordPtr() = v
}

// Payload returns the address immediately following the header, where the
// cell's usable bytes begin.
func (h Header) Payload() unsafe.Pointer {
	return unsafe.Add(h.base, HeaderSize)
}

// PhysSuccessor returns the header of the cell immediately following this
// one in memory: header_base + 2 words + payload_size. This is always valid
// regardless of this cell's allocated/free state, since it depends only on
// the size field, never on the link word.
func (h Header) PhysSuccessor() Header {
	return HeaderAt(unsafe.Add(h.Payload(), h.Size()))
}

// SetPhysNext records the physical-next pointer in the link word. Valid
// only while the cell is allocated; callers must not call this on a free
// cell, since the same word is simultaneously the free-list link. Nothing
// ever reads this back - PhysSuccessor recomputes the same address from
// size instead - but it keeps an allocated cell's link word populated for
// external corruption checks that walk the allocated chain.
func (h Header) SetPhysNext(next Header) {
	*h.linkWordPtr() = uintptr(next.base)
}

// SetFreeNext records the free-list "next" pointer in the link word. Valid
// only while the cell is free; this is the same storage SetPhysNext uses,
// discriminated by the IS_ALLOCATED flag.
func (h Header) SetFreeNext(next Header) {
	*h.linkWordPtr() = uintptr(next.base)
}

// FreeNext reads back the pointer written by SetFreeNext. Valid only while
// the cell is free.
func (h Header) FreeNext() Header {
	return HeaderAt(unsafe.Pointer(*h.linkWordPtr()))
}

// PayloadBytes exposes the cell's payload as a byte slice of length Size().
// Used for poisoning and corruption checks under extra_assertions; never
// touched by the allocation fast path.
func (h Header) PayloadBytes() []byte {
	return unsafe.Slice((*byte)(h.Payload()), h.Size())
}
