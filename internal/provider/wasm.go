//go:build wasm && !static_array_backend

package provider

import (
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
)

// wasmPageSize is fixed by the WebAssembly specification: every
// memory.grow call moves linear memory by whole 64 KiB pages.
const wasmPageSize = 64 * 1024

// memoryGrow grows the module's linear memory by deltaPages 64 KiB pages
// and returns the previous size in pages, or -1 if growth was denied. It is
// implemented in wasm.s as a single `memory.grow 0` instruction, the same
// primitive the Go runtime itself uses to grow the heap on this target;
// there is no host import involved, so no host environment needs to
// cooperate.
func memoryGrow(deltaPages int32) int32

// WasmProvider grows WebAssembly linear memory on demand. It is the default
// backend on GOARCH=wasm builds.
type WasmProvider struct{}

var _ Provider = WasmProvider{}

// NewWasmProvider constructs a WasmProvider.
func NewWasmProvider() WasmProvider { return WasmProvider{} }

// Default returns the platform's default provider.
func Default() Provider { return NewWasmProvider() }

func (WasmProvider) PageSize() int { return wasmPageSize }

func (p WasmProvider) Acquire(minBytes int) (unsafe.Pointer, int, error) {
	pages := int32(pagesFor(minBytes, wasmPageSize))
	prevPages := memoryGrow(pages)
	if prevPages < 0 {
		return nil, 0, cerrors.Wrapf(ErrOutOfMemory, "memory.grow denied for %d pages", pages)
	}

	base := unsafe.Pointer(uintptr(prevPages) * wasmPageSize)
	return base, int(pages) * wasmPageSize, nil
}
