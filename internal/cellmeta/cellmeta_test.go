package cellmeta

import (
	"unsafe"
)

// testArena allocates n bytes, word-aligned, for use as a fake block in
// tests. Backed by a []uint64 so the runtime guarantees 8-byte alignment
// regardless of GOARCH.
func testArena(n int) unsafe.Pointer {
	words := (n + 7) / 8
	buf := make([]uint64, words)
	return unsafe.Pointer(&buf[0])
}
