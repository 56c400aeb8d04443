package cellmeta

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFreeListPushAndAllocWholeCell(t *testing.T) {
	base := testArena(256)
	b := NewBlock(base, 256)

	var fl FreeList
	fl.Push(b.First())
	require.False(t, fl.IsEmpty())

	// Ask for one word less than the whole cell: the excess is too small to
	// hold a header plus a minimum payload, so the cell is handed out whole.
	req := 256 - int(HeaderSize) - int(WordSize)
	cell, ok := fl.FirstFitAlloc(req, uint(WordSize))
	require.True(t, ok)
	require.True(t, cell.IsAllocated())
	require.Equal(t, 256-int(HeaderSize), cell.Size())
	require.True(t, fl.IsEmpty(), "exact-ish fit with no room for a split remainder empties the list")
}

func TestFreeListSplitsLargeCell(t *testing.T) {
	base := testArena(4096)
	b := NewBlock(base, 4096)

	var fl FreeList
	fl.Push(b.First())

	cell, ok := fl.FirstFitAlloc(32, uint(WordSize))
	require.True(t, ok)
	require.Equal(t, 32, cell.Size())
	require.False(t, fl.IsEmpty(), "large cell should leave a free remainder behind")
}

func TestFreeListNoSplitWhenExactSize(t *testing.T) {
	base := testArena(256)
	b := NewBlock(base, 256)

	// Shrink the cell so it's exactly big enough, with no room for a
	// header-sized remainder.
	full := b.First()
	full.SetSize(32)

	var fl FreeList
	fl.Push(full)

	cell, ok := fl.FirstFitAlloc(32, uint(WordSize))
	require.True(t, ok)
	require.Equal(t, 32, cell.Size())
	require.True(t, fl.IsEmpty())
}

func TestFreeListFirstFitSkipsTooSmall(t *testing.T) {
	base := testArena(1024)
	whole := HeaderAt(base)
	whole.Init(1024-int(HeaderSize), false)

	small, big := split(whole, 16)

	var fl FreeList
	fl.Push(big)
	fl.Push(small)

	cell, ok := fl.FirstFitAlloc(64, uint(WordSize))
	require.True(t, ok)
	require.Equal(t, big.Addr(), cell.Addr(), "first-fit must skip the cell too small to serve the request")
}

func TestFreeListAlignmentSplitsFrontFragment(t *testing.T) {
	base := testArena(8192)
	b := NewBlock(base, 8192)

	var fl FreeList
	fl.Push(b.First())

	cell, ok := fl.FirstFitAlloc(8, 4096)
	require.True(t, ok)
	require.Equal(t, uintptr(0), uintptr(cell.Payload())%4096, "payload must satisfy the requested alignment")
	require.False(t, fl.IsEmpty(), "the alignment padding should become its own free cell")
}

func TestFreeListRemoveNode(t *testing.T) {
	base := testArena(512)
	a := HeaderAt(base)
	a.Init(32, false)
	rest := a.PhysSuccessor()
	rest.Init(512-int(HeaderSize)*2-32, false)

	var fl FreeList
	fl.Push(rest)
	fl.Push(a)

	require.True(t, fl.RemoveNode(a))
	require.False(t, fl.RemoveNode(a), "removing twice must fail the second time")
	require.True(t, fl.RemoveNode(rest))
	require.True(t, fl.IsEmpty())
}
