//go:build size_classes

package heap

import (
	"unsafe"

	"golang.org/x/exp/slog"

	"github.com/tinyalloc/tinyalloc/internal/allocutils"
	"github.com/tinyalloc/tinyalloc/internal/cellmeta"
	"github.com/tinyalloc/tinyalloc/internal/provider"
)

// Allocator is the top-level heap the root package drives: the main
// allocator plus a segregated size-class fast path, when built with the
// size_classes tag.
type Allocator struct {
	main    *Main
	classes *classes
}

// NewAllocator constructs an Allocator drawing pages from p.
func NewAllocator(p provider.Provider, log *slog.Logger) *Allocator {
	main := NewMain(p, log)
	return &Allocator{main: main, classes: newClasses(main, log)}
}

// Alloc returns size bytes aligned to align, routing through a size class
// when size and align fit one (§4.E), and through the main allocator
// otherwise.
func (a *Allocator) Alloc(size int, align uint) (unsafe.Pointer, error) {
	if _, ok := classFor(size, align); ok {
		return a.classes.Alloc(size, align)
	}
	return a.main.Alloc(size, align)
}

// Dealloc returns a previously allocated pointer to the heap, routing to the
// same size class Alloc would have chosen for this size and align, or to
// the main allocator if neither fits a class. This mirrors the routing rule
// Alloc uses rather than inspecting the cell itself, since a cell's current
// size alone can't distinguish a class-class-index-less main cell that
// happens to be a multiple of the word size.
func (a *Allocator) Dealloc(ptr unsafe.Pointer, size int, align uint) {
	if i, ok := classFor(size, align); ok {
		a.classes.Dealloc(ptr, i)
		return
	}
	a.main.Dealloc(ptr)
}

// Statistics returns a snapshot of the heap's bookkeeping, summed across the
// main list (size-class refill blocks are counted as main-list allocations
// at the point they're carved, so no separate accounting is needed here).
func (a *Allocator) Statistics() allocutils.Statistics {
	return a.main.Statistics()
}

// DetailedStatistics returns fragmentation detail for the main list, plus
// one unused range per size class for every cell still sitting on that
// class's list (a class cell counts as allocated the moment it's carved and
// only becomes "unused" again once it's actually free, so this still
// reflects live fragmentation rather than the class's total carved
// capacity).
func (a *Allocator) DetailedStatistics() allocutils.DetailedStatistics {
	stats := a.main.DetailedStatistics()
	for i := range a.classes.list {
		classSize := (i + 1) * int(cellmeta.WordSize)
		a.classes.list[i].Walk(func(h cellmeta.Header) bool {
			stats.UnusedRangeCount++
			if classSize < stats.UnusedRangeSizeMin {
				stats.UnusedRangeSizeMin = classSize
			}
			if classSize > stats.UnusedRangeSizeMax {
				stats.UnusedRangeSizeMax = classSize
			}
			return true
		})
	}
	return stats
}

// Validate checks the main allocator's invariants. Size-class cells are not
// walked individually since they carry no physical-neighbor bookkeeping of
// their own (§4.E: no coalescing across size-class cells).
func (a *Allocator) Validate() error {
	return a.main.Validate()
}

// DumpJSON renders the main list's block and cell layout as JSON. Size-class
// memory is counted within the main list's own blocks and cells (it is
// carved out of main-allocated cells), so it already appears in the dump as
// part of whichever main cell donated it.
func (a *Allocator) DumpJSON() ([]byte, error) {
	return a.main.DumpJSON()
}
