//go:build windows && !static_array_backend

package provider

import (
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
	"golang.org/x/sys/windows"
)

const windowsPageSize = 4096

// WindowsProvider acquires committed pages via VirtualAlloc. It never calls
// VirtualFree: per spec, returning memory to the backing store is out of
// scope.
type WindowsProvider struct{}

var _ Provider = WindowsProvider{}

// NewWindowsProvider constructs a WindowsProvider.
func NewWindowsProvider() WindowsProvider { return WindowsProvider{} }

// Default returns the platform's default provider.
func Default() Provider { return NewWindowsProvider() }

func (WindowsProvider) PageSize() int { return windowsPageSize }

func (p WindowsProvider) Acquire(minBytes int) (unsafe.Pointer, int, error) {
	size := pagesFor(minBytes, windowsPageSize) * windowsPageSize
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, 0, cerrors.Wrapf(ErrOutOfMemory, "VirtualAlloc %d bytes: %v", size, err)
	}
	return unsafe.Pointer(addr), size, nil
}
