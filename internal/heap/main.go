// Package heap implements the allocator's two upper layers: the main
// allocator (component D), which owns the big free list and refills it
// from a page provider, and, when built with the size_classes tag, a
// segregated fast path for small fixed-size allocations (component E)
// layered on top of it.
package heap

import (
	"math"
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"

	"github.com/tinyalloc/tinyalloc/internal/allocutils"
	"github.com/tinyalloc/tinyalloc/internal/cellmeta"
	"github.com/tinyalloc/tinyalloc/internal/provider"
)

// refillSlackBytes pads a refill request so a just-grown block isn't
// immediately exhausted by the request that triggered it. Zero is a valid,
// conservative choice; raising it trades a larger minimum footprint for
// fewer provider round trips.
const refillSlackBytes = 0

// defaultRefillPages is the minimum number of provider pages a single
// refill acquires, even for a request smaller than one page. One page is
// the smallest unit the page provider will hand back anyway, so refilling
// for less would just waste a round trip.
const defaultRefillPages = 1

// Main owns the main free list: every allocation too large for a size
// class, and every size class's own refill requests, eventually pass
// through here. It is not safe for concurrent use; the caller (the root
// tinyalloc package) is responsible for serializing access.
type Main struct {
	provider provider.Provider
	list     cellmeta.FreeList
	blocks   []*cellmeta.Block
	stats    allocutils.Statistics
	log      *slog.Logger
}

// NewMain constructs a Main allocator drawing pages from p.
func NewMain(p provider.Provider, log *slog.Logger) *Main {
	if log == nil {
		log = slog.Default()
	}
	return &Main{provider: p, log: log}
}

// roundRequest rounds a requested payload size up to a word multiple of at
// least MinCellPayload, per spec step 1 of the main allocator's Alloc.
func roundRequest(size int) int {
	size = int(allocutils.AlignUp(uintptr(size), uintptr(cellmeta.WordSize)))
	if size < int(cellmeta.MinCellPayload) {
		size = int(cellmeta.MinCellPayload)
	}
	return size
}

// Alloc returns size bytes aligned to align, refilling from the page
// provider at most once if the main list can't satisfy the request
// outright.
func (m *Main) Alloc(size int, align uint) (unsafe.Pointer, error) {
	allocutils.DebugCheckPow2(align, "align")
	size = roundRequest(size)

	if cell, ok := m.list.FirstFitAlloc(size, align); ok {
		m.onAllocated(cell)
		allocutils.DebugValidate(m)
		return cell.Payload(), nil
	}

	// A fresh block's first payload is only word-aligned, so a stricter
	// alignment needs room for the front padding as well.
	refillSize := size
	if align > uint(cellmeta.WordSize) {
		refillSize += int(align)
	}
	if err := m.refill(refillSize); err != nil {
		return nil, err
	}

	cell, ok := m.list.FirstFitAlloc(size, align)
	if !ok {
		return nil, cerrors.Wrapf(allocutils.ErrOutOfMemory, "no cell fits %d bytes at align %d after refill", size, align)
	}
	m.onAllocated(cell)
	allocutils.DebugValidate(m)
	return cell.Payload(), nil
}

// refill asks the page provider for a fresh block sized to cover at least
// size bytes of payload plus its header, installs it as one large free
// cell, and pushes that cell onto the main list.
func (m *Main) refill(size int) error {
	pageSize := m.provider.PageSize()
	want := size + int(cellmeta.HeaderSize) + refillSlackBytes
	if defaultRefill := defaultRefillPages * pageSize; want < defaultRefill {
		want = defaultRefill
	}

	base, actual, err := m.provider.Acquire(want)
	if err != nil {
		return cerrors.Wrapf(err, "refill for %d bytes", size)
	}

	block := cellmeta.NewBlock(base, actual)
	m.blocks = append(m.blocks, block)
	m.list.Push(block.First())

	m.stats.BlockCount++
	m.stats.BlockBytes += actual

	m.log.Debug("tinyalloc: installed new block", "bytes", actual, "blocks", len(m.blocks))
	allocutils.DebugValidate(m)
	return nil
}

// onAllocated flips the physical predecessor's NEXT_IS_FREE bit to false,
// maintaining invariant 5 now that cell has moved from free to allocated.
func (m *Main) onAllocated(cell cellmeta.Header) {
	if block := m.blockContaining(cell.Addr()); block != nil {
		if pred, ok := block.PhysPredecessor(cell); ok {
			pred.SetNextIsFree(false)
		}
	}
	m.stats.AllocationCount++
	m.stats.AllocationBytes += cell.Size()
}

func (m *Main) blockContaining(addr unsafe.Pointer) *cellmeta.Block {
	for _, b := range m.blocks {
		if b.Contains(addr) {
			return b
		}
	}
	return nil
}

// Dealloc returns a cell to the main list, coalescing with any free
// physical neighbors (§4.C). The cell's header, not the caller, is the
// source of truth for its size; ptr only needs to locate that header.
func (m *Main) Dealloc(ptr unsafe.Pointer) {
	cell := cellmeta.HeaderFromPayload(ptr)
	allocutils.Poison(cell.Payload(), cell.Size())

	m.stats.AllocationCount--
	m.stats.AllocationBytes -= cell.Size()

	block := m.blockContaining(cell.Addr())

	// Step 1: absorb a free physical successor.
	if cell.NextIsFree() {
		succ := cell.PhysSuccessor()
		m.list.RemoveNode(succ)
		cell.SetSize(cell.Size() + int(cellmeta.HeaderSize) + succ.Size())
		cell.SetNextIsFree(succ.NextIsFree())
	}

	// Step 2: absorb a free physical predecessor, letting it take cell's
	// place.
	if block != nil {
		if pred, ok := block.PhysPredecessor(cell); ok && !pred.IsAllocated() {
			m.list.RemoveNode(pred)
			pred.SetSize(pred.Size() + int(cellmeta.HeaderSize) + cell.Size())
			pred.SetNextIsFree(cell.NextIsFree())
			cell = pred
		}
	}

	m.list.Push(cell)

	// The cell that ends up free after coalescing may be a different
	// address than the one the caller freed; whichever it is, its physical
	// predecessor's NEXT_IS_FREE bit must now read true.
	if block != nil {
		if pred, ok := block.PhysPredecessor(cell); ok {
			pred.SetNextIsFree(true)
		}
	}

	allocutils.DebugValidate(m)
}

// Statistics returns a snapshot of the main allocator's bookkeeping.
func (m *Main) Statistics() allocutils.Statistics { return m.stats }

// DetailedStatistics walks every block's physical chain and classifies each
// cell as free or allocated, giving the fragmentation detail Statistics
// alone can't: how many free ranges exist and how their sizes spread,
// alongside the same for live allocations.
func (m *Main) DetailedStatistics() allocutils.DetailedStatistics {
	stats := allocutils.DetailedStatistics{
		Statistics: allocutils.Statistics{
			BlockCount: m.stats.BlockCount,
			BlockBytes: m.stats.BlockBytes,
		},
		AllocationSizeMin:  math.MaxInt,
		UnusedRangeSizeMin: math.MaxInt,
	}

	for _, block := range m.blocks {
		block.VisitCells(func(h cellmeta.Header) bool {
			size := h.Size()
			if h.IsAllocated() {
				stats.AllocationCount++
				stats.AllocationBytes += size
				if size < stats.AllocationSizeMin {
					stats.AllocationSizeMin = size
				}
				if size > stats.AllocationSizeMax {
					stats.AllocationSizeMax = size
				}
				return true
			}
			stats.UnusedRangeCount++
			if size < stats.UnusedRangeSizeMin {
				stats.UnusedRangeSizeMin = size
			}
			if size > stats.UnusedRangeSizeMax {
				stats.UnusedRangeSizeMax = size
			}
			return true
		})
	}
	return stats
}

// Validate checks invariants 3-6 from the data model: every free cell is
// unallocated and appears on exactly one free list, and no two physically
// adjacent cells are both free.
func (m *Main) Validate() error {
	if err := m.list.Validate(); err != nil {
		return err
	}

	seen := make(map[unsafe.Pointer]bool)
	m.list.Walk(func(h cellmeta.Header) bool {
		seen[h.Addr()] = true
		return true
	})

	for _, block := range m.blocks {
		var adjErr error
		blockEnd := uintptr(block.First().Addr()) + uintptr(block.Size())
		block.VisitCells(func(h cellmeta.Header) bool {
			if !h.IsAllocated() && !seen[h.Addr()] {
				adjErr = cerrors.Wrapf(allocutils.ErrCorruption, "free cell %p is not present on the free list", h.Addr())
				return false
			}
			if !h.IsAllocated() {
				succ := h.PhysSuccessor()
				if uintptr(succ.Addr()) < blockEnd && !succ.IsAllocated() {
					adjErr = cerrors.Wrapf(allocutils.ErrCorruption, "free cells %p and %p are physically adjacent", h.Addr(), succ.Addr())
					return false
				}
			}
			if h.NextIsFree() {
				succ := h.PhysSuccessor()
				if uintptr(succ.Addr()) < blockEnd && succ.IsAllocated() {
					adjErr = cerrors.Wrapf(allocutils.ErrCorruption, "cell %p flagged NEXT_IS_FREE but successor is allocated", h.Addr())
					return false
				}
			}
			return true
		})
		if adjErr != nil {
			return adjErr
		}
	}
	return nil
}
