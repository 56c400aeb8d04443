//go:build !size_classes

package heap

import (
	"unsafe"

	"golang.org/x/exp/slog"

	"github.com/tinyalloc/tinyalloc/internal/allocutils"
	"github.com/tinyalloc/tinyalloc/internal/provider"
)

// Allocator is the top-level heap the root package drives: the main
// allocator alone, when built without the size_classes tag.
type Allocator struct {
	main *Main
}

// NewAllocator constructs an Allocator drawing pages from p.
func NewAllocator(p provider.Provider, log *slog.Logger) *Allocator {
	return &Allocator{main: NewMain(p, log)}
}

// Alloc returns size bytes aligned to align.
func (a *Allocator) Alloc(size int, align uint) (unsafe.Pointer, error) {
	return a.main.Alloc(size, align)
}

// Dealloc returns a previously allocated pointer to the heap. size and align
// are accepted to match the tagged build's routing contract but are not
// needed here, since the main allocator always recovers the true size from
// the cell header itself.
func (a *Allocator) Dealloc(ptr unsafe.Pointer, size int, align uint) {
	a.main.Dealloc(ptr)
}

// Statistics returns a snapshot of the heap's bookkeeping.
func (a *Allocator) Statistics() allocutils.Statistics {
	return a.main.Statistics()
}

// DetailedStatistics returns fragmentation detail (free/allocation range
// counts and size extremes) alongside the coarse counts Statistics gives.
func (a *Allocator) DetailedStatistics() allocutils.DetailedStatistics {
	return a.main.DetailedStatistics()
}

// Validate checks the heap's invariants, returning the first violation
// found.
func (a *Allocator) Validate() error {
	return a.main.Validate()
}

// DumpJSON renders the heap's block and cell layout as JSON for diagnosis.
func (a *Allocator) DumpJSON() ([]byte, error) {
	return a.main.DumpJSON()
}
