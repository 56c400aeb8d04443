//go:build !wasm

package tinyalloc

// useMutex is true on every non-WASM target: multiple OS threads may call
// Allocate/Deallocate concurrently, and the free lists are shared mutable
// state (§5).
const useMutex = true
