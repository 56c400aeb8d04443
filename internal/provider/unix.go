//go:build unix && !wasm && !static_array_backend

package provider

import (
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// UnixProvider acquires anonymous, private mmap'd pages. It never munmaps
// them: per spec, returning memory to the backing store is out of scope.
type UnixProvider struct {
	pageSize int
}

var _ Provider = UnixProvider{}

// NewUnixProvider constructs a UnixProvider using the host's page size.
func NewUnixProvider() UnixProvider {
	return UnixProvider{pageSize: unix.Getpagesize()}
}

// Default returns the platform's default provider.
func Default() Provider { return NewUnixProvider() }

func (p UnixProvider) PageSize() int { return p.pageSize }

func (p UnixProvider) Acquire(minBytes int) (unsafe.Pointer, int, error) {
	size := pagesFor(minBytes, p.pageSize) * p.pageSize
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, 0, cerrors.Wrapf(ErrOutOfMemory, "mmap %d bytes: %v", size, err)
	}
	return unsafe.Pointer(&data[0]), size, nil
}
