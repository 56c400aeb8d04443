// Package provider implements the page-acquisition backends tinyalloc
// delegates to for coarse-grained memory: WebAssembly linear memory growth,
// Unix anonymous mmap, Windows VirtualAlloc, and a fixed static array for
// hosts with neither. None of them can release memory once acquired.
package provider

import (
	"unsafe"

	"github.com/tinyalloc/tinyalloc/internal/allocutils"
)

// Provider acquires coarse-grained, page-aligned memory on demand. It never
// gives memory back.
type Provider interface {
	// Acquire returns page-aligned memory of at least minBytes, or an error
	// if the backing store is exhausted. The returned size may be larger
	// than requested (rounded up to whole pages).
	Acquire(minBytes int) (base unsafe.Pointer, actualBytes int, err error)
	// PageSize returns the backend's page granularity in bytes.
	PageSize() int
}

// ErrOutOfMemory is returned by Acquire when the backend has nothing left
// to give: growth denied, mmap failed, or the static region is full.
var ErrOutOfMemory = allocutils.ErrOutOfMemory

// pagesFor returns the number of whole pages of size pageSize needed to
// cover minBytes.
func pagesFor(minBytes, pageSize int) int {
	return (minBytes + pageSize - 1) / pageSize
}
