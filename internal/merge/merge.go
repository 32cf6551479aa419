// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package merge implements the streaming k-way merge used both within a
// TableFamily (across its segments and memtable) and across a Table's
// families (§4.D, §4.G): a merge of k sorted cell sources producing one
// globally §3-ordered output, collapsing exact duplicates across sources.
package merge

import (
	"container/heap"
	"context"

	"github.com/stapislaw/wide-db/internal/base"
)

// Iterator is the common interface every cell source (a segment scan, a
// memtable range scan, or a nested merge) implements.
type Iterator interface {
	// Next returns the next cell in §3 order, or ok=false once exhausted.
	Next(ctx context.Context) (base.Cell, bool, error)
	// Close releases any resources the iterator holds.
	Close() error
}

type heapItem struct {
	iter Iterator
	cell base.Cell
}

type cellHeap []*heapItem

func (h cellHeap) Len() int            { return len(h) }
func (h cellHeap) Less(i, j int) bool  { return base.Less(h[i].cell, h[j].cell) }
func (h cellHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *cellHeap) Push(x interface{}) { *h = append(*h, x.(*heapItem)) }
func (h *cellHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// merger is an Iterator that performs a k-way merge across a fixed set of
// sorted sources. Equal cells across sources (forbidden within one segment,
// but expected across segments per §4.A) collapse into a single emitted
// cell, taking the first occurrence popped off the heap.
type merger struct {
	h   cellHeap
	last     base.Cell
	haveLast bool
}

// New returns an Iterator merging every source in sources. Ownership of the
// sources transfers to the returned Iterator; closing it closes them all.
func New(ctx context.Context, sources []Iterator) (Iterator, error) {
	m := &merger{}
	for _, s := range sources {
		cell, ok, err := s.Next(ctx)
		if err != nil {
			m.Close()
			return nil, err
		}
		if !ok {
			_ = s.Close()
			continue
		}
		heap.Push(&m.h, &heapItem{iter: s, cell: cell})
	}
	heap.Init(&m.h)
	return m, nil
}

func (m *merger) Next(ctx context.Context) (base.Cell, bool, error) {
	for m.h.Len() > 0 {
		top := m.h[0]
		cell := top.cell

		next, ok, err := top.iter.Next(ctx)
		if err != nil {
			return base.Cell{}, false, err
		}
		if ok {
			top.cell = next
			heap.Fix(&m.h, 0)
		} else {
			heap.Pop(&m.h)
			_ = top.iter.Close()
		}

		if m.haveLast && cell.Equal(m.last) {
			// Exact duplicate across sources; the earlier occurrence was
			// already emitted, so this one is dropped.
			continue
		}
		m.last = cell
		m.haveLast = true
		return cell, true, nil
	}
	return base.Cell{}, false, nil
}

func (m *merger) Close() error {
	var firstErr error
	for _, item := range m.h {
		if err := item.iter.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.h = nil
	return firstErr
}

// Filter wraps src, yielding only cells for which keep returns true.
type filterIterator struct {
	src  Iterator
	keep func(base.Cell) bool
}

// Filter returns an Iterator yielding only the cells of src for which keep
// returns true.
func Filter(src Iterator, keep func(base.Cell) bool) Iterator {
	return &filterIterator{src: src, keep: keep}
}

func (f *filterIterator) Next(ctx context.Context) (base.Cell, bool, error) {
	for {
		c, ok, err := f.src.Next(ctx)
		if err != nil || !ok {
			return base.Cell{}, false, err
		}
		if f.keep(c) {
			return c, true, nil
		}
	}
}

func (f *filterIterator) Close() error { return f.src.Close() }

// SliceIterator adapts a pre-sorted, in-memory slice of cells (such as a
// memtable snapshot) to the Iterator interface.
type SliceIterator struct {
	cells []base.Cell
	pos   int
}

// NewSliceIterator returns an Iterator over cells, which must already be in
// §3 order.
func NewSliceIterator(cells []base.Cell) *SliceIterator {
	return &SliceIterator{cells: cells}
}

func (s *SliceIterator) Next(context.Context) (base.Cell, bool, error) {
	if s.pos >= len(s.cells) {
		return base.Cell{}, false, nil
	}
	c := s.cells[s.pos]
	s.pos++
	return c, true, nil
}

func (s *SliceIterator) Close() error { return nil }
