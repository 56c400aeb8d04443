package heap

import (
	cerrors "github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"

	"github.com/tinyalloc/tinyalloc/internal/cellmeta"
)

// DumpJSON renders the main list's block and cell layout as JSON, in the
// shape of the teacher's BlockMetadata.BlockJsonData/PrintDetailedMap dump:
// one object per block, each carrying its total size and an array of its
// physical cells in address order. Not on the allocation fast path; walks
// every block and cell, intended for tests and offline diagnosis.
func (m *Main) DumpJSON() ([]byte, error) {
	w := jwriter.NewWriter()
	root := w.Object()

	blocksArr := root.Name("Blocks").Array()
	for _, block := range m.blocks {
		blockObj := blocksArr.Object()
		blockObj.Name("TotalBytes").Int(block.Size())

		cellsArr := blockObj.Name("Cells").Array()
		block.VisitCells(func(h cellmeta.Header) bool {
			cellObj := cellsArr.Object()
			cellObj.Name("PayloadBytes").Int(h.Size())
			cellObj.Name("Allocated").Bool(h.IsAllocated())
			cellObj.Name("NextIsFree").Bool(h.NextIsFree())
			cellObj.End()
			return true
		})
		cellsArr.End()
		blockObj.End()
	}
	blocksArr.End()

	detail := m.DetailedStatistics()
	root.Name("BlockCount").Int(detail.BlockCount)
	root.Name("AllocationCount").Int(detail.AllocationCount)
	root.Name("BlockBytes").Int(detail.BlockBytes)
	root.Name("AllocationBytes").Int(detail.AllocationBytes)
	root.Name("UnusedRangeCount").Int(detail.UnusedRangeCount)
	root.Name("UnusedRangeSizeMin").Int(detail.UnusedRangeSizeMin)
	root.Name("UnusedRangeSizeMax").Int(detail.UnusedRangeSizeMax)
	root.Name("AllocationSizeMin").Int(detail.AllocationSizeMin)
	root.Name("AllocationSizeMax").Int(detail.AllocationSizeMax)
	root.End()

	if err := w.Error(); err != nil {
		return nil, cerrors.Wrap(err, "dump heap state as json")
	}
	return w.Bytes(), nil
}
