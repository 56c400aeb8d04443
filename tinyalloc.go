// Package tinyalloc is a general-purpose dynamic memory allocator built
// around a free-list of variable-size cells, with an optional segregated
// fast path for small fixed-size allocations. It is sized and shaped for
// WebAssembly deployment: a single global instance, lazily initialized, no
// return-to-OS path, and no logging or formatting on the allocation fast
// path.
//
// Allocate, Deallocate, and Reallocate are the only entry points a language
// runtime's glue code needs. None of them return an error; a failed
// Allocate returns nil, matching the allocator contract a runtime's malloc
// shim expects.
package tinyalloc

import (
	"sync"
	"unsafe"

	"github.com/tinyalloc/tinyalloc/internal/allocutils"
	"github.com/tinyalloc/tinyalloc/internal/heap"
	"github.com/tinyalloc/tinyalloc/internal/provider"
)

var (
	once sync.Once
	inst *instance
)

// instance is the process-wide allocator: one heap.Allocator behind a
// mutex that is compiled to a no-op on WASM (locking_wasm.go /
// locking_default.go). Allocation is a critical section because the free
// lists and cell chains are shared mutable state (§5); re-entering it from
// within Allocate/Deallocate is forbidden and not guarded against, the same
// contract the teacher's OptionalMutex-guarded allocators assume of their
// callers.
type instance struct {
	mu    allocutils.OptionalMutex
	alloc *heap.Allocator
}

func get() *instance {
	once.Do(func() {
		inst = &instance{
			alloc: heap.NewAllocator(provider.Default(), nil),
		}
		inst.mu.UseMutex = useMutex
	})
	return inst
}

// Allocate returns a pointer to size bytes aligned to align, or nil if the
// request cannot be satisfied. align must be a power of two.
func Allocate(size, align uintptr) unsafe.Pointer {
	i := get()
	i.mu.Lock()
	defer i.mu.Unlock()

	ptr, err := i.alloc.Alloc(int(size), uint(align))
	if err != nil {
		return nil
	}
	return ptr
}

// Deallocate returns ptr to the allocator. ptr must have been returned by a
// prior Allocate call with the same size and align, and not yet
// deallocated.
func Deallocate(ptr unsafe.Pointer, size, align uintptr) {
	if ptr == nil {
		return
	}
	i := get()
	i.mu.Lock()
	defer i.mu.Unlock()

	i.alloc.Dealloc(ptr, int(size), uint(align))
}

// Reallocate resizes a live allocation, implemented as allocate-copy-
// deallocate (§6's permitted safe default): it never assumes the
// underlying cell can grow in place, since a size class's cells are
// fixed-size and the main list's cells may have no free neighbor to
// absorb. Returns nil, leaving ptr untouched, if the new allocation fails.
func Reallocate(ptr unsafe.Pointer, oldSize, newSize, align uintptr) unsafe.Pointer {
	if ptr == nil {
		return Allocate(newSize, align)
	}

	newPtr := Allocate(newSize, align)
	if newPtr == nil {
		return nil
	}

	copySize := oldSize
	if newSize < copySize {
		copySize = newSize
	}
	src := unsafe.Slice((*byte)(ptr), copySize)
	dst := unsafe.Slice((*byte)(newPtr), copySize)
	copy(dst, src)

	Deallocate(ptr, oldSize, align)
	return newPtr
}

// Statistics returns a snapshot of the allocator's bookkeeping: block and
// allocation counts and byte totals.
func Statistics() allocutils.Statistics {
	i := get()
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.alloc.Statistics()
}

// Validate walks the allocator's internal state and returns the first
// invariant violation found, or nil if none. Intended for tests and
// extra_assertions builds, not the allocation fast path.
func Validate() error {
	i := get()
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.alloc.Validate()
}

// DumpJSON renders the allocator's block and cell layout as JSON, for
// offline diagnosis.
func DumpJSON() ([]byte, error) {
	i := get()
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.alloc.DumpJSON()
}
