package tinyalloc

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/tinyalloc/tinyalloc/internal/heap"
	"github.com/tinyalloc/tinyalloc/internal/provider"
)

// resetInstance points the package singleton at a fresh, small in-process
// heap so tests don't share state or depend on the platform's real
// provider. once is reset too, since Allocate/Deallocate/etc. all funnel
// through get(), which otherwise only initializes inst on the very first
// call in the process.
func resetInstance(t *testing.T, totalBytes, pageSize int) {
	t.Helper()
	once = sync.Once{}
	inst = &instance{alloc: heap.NewAllocator(provider.NewFakeProvider(totalBytes, pageSize), nil)}
	inst.mu.UseMutex = useMutex
	once.Do(func() {})
}

func TestAllocateReturnsAlignedNonNilPointer(t *testing.T) {
	resetInstance(t, 1<<20, 4096)

	ptr := Allocate(128, 16)
	require.NotNil(t, ptr)
	require.Zero(t, uintptr(ptr)%16)
}

func TestAllocateZeroSizeReturnsNonNil(t *testing.T) {
	resetInstance(t, 1<<20, 4096)

	ptr := Allocate(0, 1)
	require.NotNil(t, ptr)
}

func TestDeallocateThenAllocateReusesCell(t *testing.T) {
	resetInstance(t, 1<<20, 4096)

	a := Allocate(64, 1)
	require.NotNil(t, a)
	Deallocate(a, 64, 1)

	b := Allocate(64, 1)
	require.Equal(t, a, b)
}

func TestCoalesceAfterThreeFreesReclaimsLargerRegion(t *testing.T) {
	resetInstance(t, 1<<20, 4096)

	a := Allocate(64, 1)
	b := Allocate(64, 1)
	c := Allocate(64, 1)
	require.NotNil(t, a)
	require.NotNil(t, b)
	require.NotNil(t, c)

	Deallocate(a, 64, 1)
	Deallocate(b, 64, 1)
	Deallocate(c, 64, 1)

	require.NoError(t, Validate())

	big := Allocate(3000, 1)
	require.NotNil(t, big)
}

func TestReallocateCopiesOverlappingPrefix(t *testing.T) {
	resetInstance(t, 1<<20, 4096)

	a := Allocate(64, 1)
	require.NotNil(t, a)
	bytes := unsafe.Slice((*byte)(a), 64)
	for i := range bytes {
		bytes[i] = byte(i)
	}

	b := Reallocate(a, 64, 256, 1)
	require.NotNil(t, b)
	grown := unsafe.Slice((*byte)(b), 64)
	for i := range grown {
		require.Equal(t, byte(i), grown[i])
	}
}

func TestReallocateNilPointerActsLikeAllocate(t *testing.T) {
	resetInstance(t, 1<<20, 4096)

	ptr := Reallocate(nil, 0, 128, 8)
	require.NotNil(t, ptr)
	require.Zero(t, uintptr(ptr)%8)
}

func TestAllocateAt4096AlignmentSucceeds(t *testing.T) {
	resetInstance(t, 1<<20, 4096)

	ptr := Allocate(64, 4096)
	require.NotNil(t, ptr)
	require.Zero(t, uintptr(ptr)%4096)
}

func TestAllocateExhaustionReturnsNil(t *testing.T) {
	resetInstance(t, 4096, 4096)

	ptr := Allocate(4096, 1)
	require.Nil(t, ptr)
}

func TestTraceReplayAllocFreeAllocRoundTripPreservesLiveData(t *testing.T) {
	resetInstance(t, 1<<20, 4096)

	const n = 50
	ptrs := make([]unsafe.Pointer, n)
	for i := 0; i < n; i++ {
		ptrs[i] = Allocate(32, 1)
		require.NotNil(t, ptrs[i])
		unsafe.Slice((*byte)(ptrs[i]), 32)[0] = byte(i)
	}
	for i := 0; i < n; i += 2 {
		Deallocate(ptrs[i], 32, 1)
		ptrs[i] = nil
	}
	for i := 0; i < n; i += 2 {
		ptrs[i] = Allocate(32, 1)
		require.NotNil(t, ptrs[i])
	}
	for i := 1; i < n; i += 2 {
		require.Equal(t, byte(i), unsafe.Slice((*byte)(ptrs[i]), 32)[0])
	}
	require.NoError(t, Validate())
}
