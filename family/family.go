// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package family implements §4.D: a column family's set of segments (plus
// its memtable), and the per-family MVCC-filtered merged cell stream the
// table coordinator folds into its cross-family merge.
package family

import (
	"context"
	"sync"

	"github.com/stapislaw/wide-db/internal/base"
	"github.com/stapislaw/wide-db/internal/memtable"
	"github.com/stapislaw/wide-db/internal/merge"
	"github.com/stapislaw/wide-db/internal/sstable"
)

// Family owns an ordered list of SSTable segments plus the current
// in-memory memtable, per §3's TableFamily. The merge imposes order, so the
// segment list need not be maintained newest-first.
type Family struct {
	name []byte

	mu       sync.RWMutex
	segments []*sstable.Segment
	mem      *memtable.Memtable
}

// New returns an empty Family for name, with a fresh memtable.
func New(name []byte) *Family {
	return &Family{
		name: append([]byte(nil), name...),
		mem:  memtable.New(),
	}
}

// Name returns the family's name.
func (f *Family) Name() []byte { return f.name }

// Memtable returns the family's current in-memory buffer, for callers
// staging new writes.
func (f *Family) Memtable() *memtable.Memtable { return f.mem }

// AddSegment registers a newly-opened or newly-flushed segment with the
// family. Safe to call concurrently with Scan: a scan already in flight
// holds its own snapshot of the segment list and never observes the
// addition.
func (f *Family) AddSegment(seg *sstable.Segment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.segments = append(f.segments, seg)
}

// snapshot captures the current segment list under the family's lock,
// without copying the Segment values themselves (they are immutable after
// Open), satisfying the "snapshot read" requirement of §4.D and §4.G: later
// segment additions from flushes must not surprise an in-progress scan.
func (f *Family) snapshot() []*sstable.Segment {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*sstable.Segment, len(f.segments))
	copy(out, f.segments)
	return out
}

// Scan performs the §4.D merge: every segment plus the memtable, filtered to
// [start, end] and to write_num <= readPoint, combined by a single k-way
// merge. The returned stream is lazy, single-pass, and finite, and borrows
// only the segment snapshot captured here — it holds no locks.
func (f *Family) Scan(ctx context.Context, start, end *base.Cell, readPoint uint64) (merge.Iterator, error) {
	segs := f.snapshot()

	sources := make([]merge.Iterator, 0, len(segs)+1)
	for _, seg := range segs {
		// §9 open question: skipping a segment outright when its oldest
		// write is already invisible is a safe superset of the per-cell
		// filter below, never a replacement for it — a segment can still
		// contain some writes <= readPoint and others > readPoint.
		if seg.MinWriteNum() > readPoint {
			continue
		}
		it := seg.NewIter(start, end)
		sources = append(sources, withReadPointFilter(it, readPoint))
	}
	sources = append(sources, withReadPointFilter(f.mem.NewIter(start, end), readPoint))

	return merge.New(ctx, sources)
}

func withReadPointFilter(it merge.Iterator, readPoint uint64) merge.Iterator {
	return merge.Filter(it, func(c base.Cell) bool { return c.WriteNum <= readPoint })
}
