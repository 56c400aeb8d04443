package heap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinyalloc/tinyalloc/internal/cellmeta"
	"github.com/tinyalloc/tinyalloc/internal/provider"
)

func newTestMain(totalBytes, pageSize int) *Main {
	return NewMain(provider.NewFakeProvider(totalBytes, pageSize), nil)
}

func TestMainAllocRefillsOnMiss(t *testing.T) {
	m := newTestMain(1<<20, 4096)

	ptr, err := m.Alloc(64, uint(cellmeta.WordSize))
	require.NoError(t, err)
	require.NotNil(t, ptr)
	require.Equal(t, 1, m.Statistics().BlockCount)
}

func TestMainAllocExhaustionReturnsOutOfMemory(t *testing.T) {
	m := newTestMain(4096, 4096)

	_, err := m.Alloc(4096, 1)
	require.Error(t, err)
}

func TestMainDeallocReusesSpaceViaFirstFit(t *testing.T) {
	m := newTestMain(1<<20, 4096)

	a, err := m.Alloc(64, 1)
	require.NoError(t, err)
	m.Dealloc(a)

	b, err := m.Alloc(64, 1)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestMainDeallocCoalescesForwardAndBackward(t *testing.T) {
	m := newTestMain(1<<20, 4096)

	a, err := m.Alloc(64, 1)
	require.NoError(t, err)
	b, err := m.Alloc(64, 1)
	require.NoError(t, err)
	c, err := m.Alloc(64, 1)
	require.NoError(t, err)

	m.Dealloc(a)
	m.Dealloc(c)
	m.Dealloc(b)

	require.NoError(t, m.Validate())

	// The whole block should now be one coalesced free cell, able to serve
	// a request for most of the original page.
	d, err := m.Alloc(3000, 1)
	require.NoError(t, err)
	require.NotNil(t, d)
}

func TestMainValidateDetectsNothingWrongOnFreshHeap(t *testing.T) {
	m := newTestMain(1<<20, 4096)
	_, err := m.Alloc(64, 1)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
}

func TestMainAllocRespectsAlignment(t *testing.T) {
	m := newTestMain(1<<20, 4096)

	ptr, err := m.Alloc(32, 64)
	require.NoError(t, err)
	require.Zero(t, uintptr(ptr)%64)
}

func TestMainDetailedStatisticsTracksFreeAndAllocatedRanges(t *testing.T) {
	m := newTestMain(1<<20, 4096)

	a, err := m.Alloc(64, 1)
	require.NoError(t, err)
	_, err = m.Alloc(128, 1)
	require.NoError(t, err)
	m.Dealloc(a)

	stats := m.DetailedStatistics()
	require.Equal(t, 1, stats.AllocationCount)
	require.GreaterOrEqual(t, stats.UnusedRangeCount, 1)
	require.LessOrEqual(t, stats.UnusedRangeSizeMin, stats.UnusedRangeSizeMax)
}

func TestMainDumpJSONIncludesBlocks(t *testing.T) {
	m := newTestMain(1<<20, 4096)
	_, err := m.Alloc(64, 1)
	require.NoError(t, err)

	out, err := m.DumpJSON()
	require.NoError(t, err)
	require.Contains(t, string(out), "Blocks")
}
