package cellmeta

import "unsafe"

// Block describes one page-aligned region acquired from a page provider: a
// single physical chain of cells, starting life as one large free cell.
// Coalescing and NEXT_IS_FREE maintenance never cross a Block boundary,
// since adjacent blocks are not guaranteed to be physically adjacent in
// memory (invariant 1 only promises a chain within a single block).
type Block struct {
	first Header
	size  int
}

// NewBlock wraps a freshly acquired region of totalSize bytes as a Block and
// stamps its first cell as one large free cell spanning the whole region.
func NewBlock(base unsafe.Pointer, totalSize int) *Block {
	first := HeaderAt(base)
	first.Init(totalSize-int(HeaderSize), false)
	return &Block{first: first, size: totalSize}
}

// First returns the header of the first cell in the block.
func (b *Block) First() Header { return b.first }

// Size returns the total size in bytes of the block, header included.
func (b *Block) Size() int { return b.size }

// end returns the address immediately past the end of the block.
func (b *Block) end() unsafe.Pointer {
	return unsafe.Add(b.first.Addr(), b.size)
}

// Contains reports whether addr falls within this block's region.
func (b *Block) Contains(addr unsafe.Pointer) bool {
	base := uintptr(b.first.Addr())
	a := uintptr(addr)
	return a >= base && a < base+uintptr(b.size)
}

// PhysPredecessor reconstructs the physical predecessor of target by walking
// the block's cell chain from its first cell, per invariant 1: the
// predecessor is never stored, only the forward chain via each cell's size
// is, so finding it costs O(n) in cells-per-block. Returns ok=false if
// target is the block's first cell (no predecessor exists).
func (b *Block) PhysPredecessor(target Header) (Header, bool) {
	if target.Addr() == b.first.Addr() {
		return Header{}, false
	}

	cur := b.first
	end := b.end()
	for uintptr(cur.Addr()) < uintptr(end) {
		next := cur.PhysSuccessor()
		if next.Addr() == target.Addr() {
			return cur, true
		}
		cur = next
	}
	return Header{}, false
}

// LastCell walks the block's chain to find the final physical cell, the one
// whose PhysSuccessor would fall outside the block.
func (b *Block) LastCell() Header {
	cur := b.first
	end := uintptr(b.end())
	for {
		next := cur.PhysSuccessor()
		if uintptr(next.Addr()) >= end {
			return cur
		}
		cur = next
	}
}

// VisitCells calls fn once for every physical cell in the block, in
// ascending address order, stopping early if fn returns false.
func (b *Block) VisitCells(fn func(Header) bool) {
	cur := b.first
	end := uintptr(b.end())
	for uintptr(cur.Addr()) < end {
		if !fn(cur) {
			return
		}
		cur = cur.PhysSuccessor()
	}
}
