package allocutils

// Statistics is a coarse summary of an allocator's state: how many blocks
// it holds, how many cells are live, and how many bytes each accounts for.
type Statistics struct {
	BlockCount      int
	AllocationCount int
	BlockBytes      int
	AllocationBytes int
}

// DetailedStatistics adds the fragmentation detail a cell-by-cell walk can
// expose: how many free ranges a heap has fallen into and how their sizes
// spread, alongside the same for live allocations.
//
// The teacher's equivalent struct carries AddStatistics/AddDetailedStatistics
// merge methods because VMA aggregates statistics across many independently
// walked memory pools. tinyalloc has exactly one Main walking exactly one
// set of blocks, so there's nothing to merge: internal/heap.Main's
// DetailedStatistics method fills these fields directly off a single cell
// walk instead of accumulating partial results through setter methods.
type DetailedStatistics struct {
	Statistics
	UnusedRangeCount   int
	AllocationSizeMin  int
	AllocationSizeMax  int
	UnusedRangeSizeMin int
	UnusedRangeSizeMax int
}
