package provider

import (
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
)

// FakeProvider is an in-process, heap-backed stand-in for a real page
// provider, used by internal/heap's tests so they don't depend on which
// platform backend a given build tag selects. It hands out successive
// slices from a single pre-allocated arena and never reuses them, the same
// contract a real provider has.
type FakeProvider struct {
	pageSize int
	arena    []uint64
	offset   int
}

var _ Provider = (*FakeProvider)(nil)

// NewFakeProvider builds a FakeProvider with totalBytes available, handed
// out in pageSize chunks.
func NewFakeProvider(totalBytes, pageSize int) *FakeProvider {
	return &FakeProvider{
		pageSize: pageSize,
		arena:    make([]uint64, (totalBytes+7)/8),
	}
}

func (p *FakeProvider) PageSize() int { return p.pageSize }

func (p *FakeProvider) Acquire(minBytes int) (unsafe.Pointer, int, error) {
	size := pagesFor(minBytes, p.pageSize) * p.pageSize
	end := p.offset + size
	if end > len(p.arena)*8 {
		return nil, 0, cerrors.Wrapf(ErrOutOfMemory, "fake provider exhausted: %d of %d bytes used", p.offset, len(p.arena)*8)
	}
	base := unsafe.Add(unsafe.Pointer(&p.arena[0]), p.offset)
	p.offset = end
	return base, size, nil
}
