// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package memtable implements the in-memory, mutable cell buffer for a
// column family's recent writes. §3 treats it as "just another sorted cell
// source" for the merge; this package keeps a sorted slice under a
// read-write mutex rather than a lock-free skiplist, the idiomatic Go
// analogue of the teacher's sorted in-memory structures (grounded on the
// pack's LSM memtable implementations, which likewise keep a sorted slice
// of keys alongside a map).
package memtable

import (
	"sort"
	"sync"

	"github.com/stapislaw/wide-db/internal/base"
	"github.com/stapislaw/wide-db/internal/merge"
)

// Memtable is a concurrency-safe, sorted buffer of cells not yet flushed to
// a segment.
type Memtable struct {
	mu    sync.RWMutex
	cells []base.Cell // kept sorted under base.Compare
}

// New returns an empty Memtable.
func New() *Memtable {
	return &Memtable{}
}

// Put inserts c in sorted position. Cells are immutable once inserted;
// callers wanting to overwrite a coordinate add a new cell with a fresher
// write_num rather than mutating in place, consistent with the engine's
// MVCC model.
func (m *Memtable) Put(c base.Cell) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := sort.Search(len(m.cells), func(i int) bool { return base.Compare(m.cells[i], c) >= 0 })
	m.cells = append(m.cells, base.Cell{})
	copy(m.cells[i+1:], m.cells[i:])
	m.cells[i] = c
}

// Len reports the number of cells currently buffered.
func (m *Memtable) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cells)
}

// NewIter returns an Iterator over a point-in-time copy of the cells in
// [start, end] as of the call to NewIter. Later Puts are not observed by an
// in-flight scan, matching the snapshot semantics the table coordinator
// relies on.
func (m *Memtable) NewIter(start, end *base.Cell) merge.Iterator {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lo := sort.Search(len(m.cells), func(i int) bool {
		return start == nil || base.Compare(m.cells[i], *start) >= 0
	})
	hi := len(m.cells)
	if end != nil {
		hi = sort.Search(len(m.cells), func(i int) bool { return base.Compare(m.cells[i], *end) > 0 })
	}
	if lo > hi {
		lo = hi
	}

	snap := make([]base.Cell, hi-lo)
	copy(snap, m.cells[lo:hi])
	return merge.NewSliceIterator(snap)
}
