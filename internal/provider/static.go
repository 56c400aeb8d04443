//go:build static_array_backend

package provider

import (
	"os"
	"strconv"
	"sync"
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
)

// defaultStaticBytes is the fallback size of the static region when
// TINYALLOC_STATIC_BYTES is unset or unparsable: 32 MiB, matching spec's
// STATIC_ARRAY_BACKEND_BYTES default.
const defaultStaticBytes = 33554432

const staticPageSize = 65536

var staticArrayBytes = readStaticArrayBytes()

func readStaticArrayBytes() int {
	v := os.Getenv("TINYALLOC_STATIC_BYTES")
	if v == "" {
		return defaultStaticBytes
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultStaticBytes
	}
	return n
}

// scratchHeap is the fixed-size region the static provider bumps an offset
// through. It is a []uint64 rather than []byte purely so the runtime
// word-aligns it the way a real static array backend would in a language
// with alignment attributes.
var scratchHeap = make([]uint64, (staticArrayBytes+7)/8)

// StaticProvider is a bump-pointer allocator over a fixed-size, process-wide
// array, for hosts with no page-acquisition primitive at all (or embedded
// targets that want a hard upper bound on heap size known at build time).
// There is exactly one per process: scratchHeap is itself a single
// package-level backing array, matching the original's single `static mut
// SCRATCH_HEAP` / `static mut OFFSET` pair, so a second, independently
// offset-tracking StaticProvider over the same array would hand out
// overlapping regions.
type StaticProvider struct {
	mu     sync.Mutex
	offset int
}

var _ Provider = (*StaticProvider)(nil)

var defaultStatic = &StaticProvider{}

// NewStaticProvider returns the process's single static provider, backed by
// scratchHeap and sized from TINYALLOC_STATIC_BYTES (default 32 MiB). It is
// not a constructor in the usual sense - there is only one static backend
// per process, so every call returns the same instance rather than a fresh
// one bumping through the same shared array from offset zero.
func NewStaticProvider() *StaticProvider { return defaultStatic }

// Default returns the platform's default provider.
func Default() Provider { return defaultStatic }

func (p *StaticProvider) PageSize() int { return staticPageSize }

func (p *StaticProvider) Acquire(minBytes int) (unsafe.Pointer, int, error) {
	size := pagesFor(minBytes, staticPageSize) * staticPageSize

	p.mu.Lock()
	defer p.mu.Unlock()

	end := p.offset + size
	if end > len(scratchHeap)*8 {
		return nil, 0, cerrors.Wrapf(ErrOutOfMemory, "static backend exhausted: %d of %d bytes used", p.offset, len(scratchHeap)*8)
	}

	base := unsafe.Add(unsafe.Pointer(&scratchHeap[0]), p.offset)
	p.offset = end
	return base, size, nil
}
