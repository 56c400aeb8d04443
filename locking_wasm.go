//go:build wasm

package tinyalloc

// useMutex is false on WebAssembly: the target is single-threaded, so the
// global lock would cost only code size for no correctness benefit.
const useMutex = false
