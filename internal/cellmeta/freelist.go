package cellmeta

import (
	"unsafe"

	cerrors "github.com/cockroachdb/errors"

	"github.com/tinyalloc/tinyalloc/internal/allocutils"
)

// MinCellPayload is the smallest payload, in bytes, worth carving a free
// cell for. A remainder smaller than this is left as internal fragmentation
// inside whichever cell produced it rather than becoming its own free cell.
const MinCellPayload = WordSize

// splitThreshold is the minimum excess (header + minimum payload) that
// justifies splitting a cell rather than handing it out whole.
const splitThreshold = HeaderSize + MinCellPayload

// FreeList is a singly linked, LIFO free list. It knows nothing about the
// blocks its cells live in or about the NEXT_IS_FREE bit on neighbors
// outside the list itself; that bookkeeping belongs to whoever owns both
// the list and the block the cells came from (internal/heap), since
// coalescing needs to reach across list and block boundaries at once.
type FreeList struct {
	head Header
}

// IsEmpty reports whether the list has no free cells.
func (l *FreeList) IsEmpty() bool { return l.head.IsNil() }

// Walk calls fn for every cell currently on the list, head first, stopping
// early if fn returns false.
func (l *FreeList) Walk(fn func(Header) bool) {
	cur := l.head
	for !cur.IsNil() {
		if !fn(cur) {
			return
		}
		cur = cur.FreeNext()
	}
}

// Contains reports whether target is currently linked into the list.
// O(n); intended for tests and Validate, never the allocation fast path.
func (l *FreeList) Contains(target Header) bool {
	found := false
	l.Walk(func(h Header) bool {
		if h.Addr() == target.Addr() {
			found = true
			return false
		}
		return true
	})
	return found
}

// Push inserts c at the head of the list. The caller guarantees c is not
// already present in this or any other free list.
func (l *FreeList) Push(c Header) {
	c.SetAllocated(false)
	c.SetFreeNext(l.head)
	l.head = c
	allocutils.DebugValidate(l)
}

// RemoveNode unlinks target from the list if present, scanning from the
// head. This is the O(n) free-list-predecessor lookup spec.md calls out as
// the source of the allocator's asymptotic cost: a singly linked list has
// no back-pointers, so removing an arbitrary known-free neighbor during
// coalescing means walking from the head until it turns up.
func (l *FreeList) RemoveNode(target Header) bool {
	removed := l.removeNode(target)
	allocutils.DebugValidate(l)
	return removed
}

func (l *FreeList) removeNode(target Header) bool {
	if l.head.Addr() == target.Addr() {
		l.head = l.head.FreeNext()
		return true
	}
	prev := l.head
	for !prev.IsNil() {
		cur := prev.FreeNext()
		if cur.IsNil() {
			return false
		}
		if cur.Addr() == target.Addr() {
			prev.SetFreeNext(cur.FreeNext())
			return true
		}
		prev = cur
	}
	return false
}

// Validate checks that every cell currently on the list is unallocated and
// appears exactly once, per invariant 4. O(n) in list length; intended for
// extra_assertions builds and tests, not the allocation fast path.
func (l *FreeList) Validate() error {
	seen := make(map[unsafe.Pointer]bool)
	var err error
	l.Walk(func(h Header) bool {
		if h.IsAllocated() {
			err = cerrors.Wrapf(allocutils.ErrCorruption, "cell %p on free list is marked allocated", h.Addr())
			return false
		}
		if seen[h.Addr()] {
			err = cerrors.Wrapf(allocutils.ErrCorruption, "cell %p appears twice on the free list", h.Addr())
			return false
		}
		seen[h.Addr()] = true
		return true
	})
	return err
}

// split divides cell into a front fragment of frontPayload bytes and a back
// fragment holding the rest, stamping a fresh header for back. front keeps
// cell's address and its NEXT_IS_FREE bit ends up true (back is free); back
// inherits cell's old NEXT_IS_FREE bit, since back is now what physically
// precedes whatever used to follow cell.
func split(cell Header, frontPayload int) (front, back Header) {
	backBase := unsafe.Add(cell.Payload(), frontPayload)
	backPayload := cell.Size() - frontPayload - int(HeaderSize)

	back = HeaderAt(backBase)
	back.Init(backPayload, false)
	back.SetNextIsFree(cell.NextIsFree())

	cell.SetSize(frontPayload)
	cell.SetNextIsFree(true)

	return cell, back
}

// FirstFitAlloc walks the list for the first cell that can satisfy reqSize
// bytes at reqAlign, splitting off a front alignment-padding fragment and/or
// a trailing size remainder as needed (§4.C). reqSize must already be
// rounded up to a word multiple by the caller. It reports ok=false if no
// cell in the list fits.
//
// The caller is responsible for marking the returned cell allocated and for
// updating its physical predecessor's NEXT_IS_FREE bit, since FreeList has
// no notion of blocks or physical neighbors outside itself.
func (l *FreeList) FirstFitAlloc(reqSize int, reqAlign uint) (Header, bool) {
	var prev Header
	cur := l.head

	for !cur.IsNil() {
		payloadAddr := uintptr(cur.Payload())
		aligned := allocutils.AlignUp(payloadAddr, uintptr(reqAlign))
		padding := int(aligned - payloadAddr)
		usable := cur.Size() - padding

		if usable < reqSize {
			prev, cur = cur, cur.FreeNext()
			continue
		}

		if padding > 0 {
			if padding < int(splitThreshold) {
				// Front fragment would be too small to become a free cell.
				// Only the nearest aligned address is tried, so this cell
				// is skipped for this request.
				prev, cur = cur, cur.FreeNext()
				continue
			}
			// The front fragment (head of padding) stays in the list at
			// cur's address; no relinking needed since its address, and
			// therefore prev's link to it, is unchanged.
			_, back := split(cur, padding-int(HeaderSize))
			cur = back
		} else {
			// No alignment split: cur is still a live list node about to be
			// consumed whole or partially, so unlink it before splitting
			// further.
			if prev.IsNil() {
				l.head = cur.FreeNext()
			} else {
				prev.SetFreeNext(cur.FreeNext())
			}
		}

		excess := cur.Size() - reqSize
		if excess >= int(splitThreshold) {
			allocCell, remainder := split(cur, reqSize)
			l.Push(remainder)
			return finishAlloc(allocCell), true
		}
		return finishAlloc(cur), true
	}

	return Header{}, false
}

// finishAlloc marks a cell allocated and records its physical-next pointer,
// the allocated-cell interpretation of the link word (§4.B). The pointer is
// never consulted internally - PhysSuccessor is always recomputed from size
// - but it keeps the header's own bookkeeping honest for external
// corruption checks that walk the allocated chain.
func finishAlloc(c Header) Header {
	c.SetAllocated(true)
	c.SetPhysNext(c.PhysSuccessor())
	return c
}
