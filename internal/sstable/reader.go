// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/stapislaw/wide-db/internal/base"
	"github.com/stapislaw/wide-db/persistence"
)

// Segment is the §4.B SSTable view: an ordered, bounded, read-only scan over
// a sorted index of data blocks. The index is loaded eagerly on Open; data
// blocks are fetched lazily by the scanner on demand via the PersistenceLayer.
type Segment struct {
	table, family, segment []byte

	layer persistence.Layer
	index []indexEntry

	minWriteNum uint64
	maxWriteNum uint64
}

// Open reads the trailing footer, seeks to the index, and deserializes it
// into a sorted in-memory index. A missing or corrupt footer is fatal to
// segment open, per §4.B.
func Open(ctx context.Context, layer persistence.Layer, table, family, segment []byte) (*Segment, error) {
	size, err := layer.SegmentSize(ctx, table, family, segment)
	if err != nil {
		return nil, base.WrapPersistenceError(err, "widedb/sstable: segment size")
	}
	if size < footerLen {
		return nil, errors.Newf("widedb/sstable: segment %q shorter than its footer", segment)
	}

	footerBytes, err := layer.LoadBlock(ctx, table, family, segment, size-footerLen, footerLen)
	if err != nil {
		return nil, base.WrapPersistenceError(err, "widedb/sstable: load footer")
	}
	ft, err := decodeFooter(footerBytes)
	if err != nil {
		return nil, err
	}

	indexBytes, err := layer.LoadBlock(ctx, table, family, segment, ft.indexOffset, ft.indexSize)
	if err != nil {
		return nil, base.WrapPersistenceError(err, "widedb/sstable: load index")
	}
	index, err := decodeIndex(indexBytes)
	if err != nil {
		return nil, errors.Wrapf(err, "widedb/sstable: segment %q", segment)
	}

	return &Segment{
		table:       append([]byte(nil), table...),
		family:      append([]byte(nil), family...),
		segment:     append([]byte(nil), segment...),
		layer:       layer,
		index:       index,
		minWriteNum: ft.minWriteNum,
		maxWriteNum: ft.maxWriteNum,
	}, nil
}

// MaxWriteNum is the largest MVCC write number recorded in the segment.
func (s *Segment) MaxWriteNum() uint64 { return s.maxWriteNum }

// MinWriteNum is the smallest MVCC write number recorded in the segment. Used
// by TableFamily to skip a segment outright when even its oldest write is
// not yet visible at the current read point (§9 open question).
func (s *Segment) MinWriteNum() uint64 { return s.minWriteNum }

// Name returns the segment's identifying bytes.
func (s *Segment) Name() []byte { return s.segment }

// blocksIn returns every index entry whose block may intersect [start, end],
// using a floor seek: it positions at the greatest index entry whose first
// cell is <= start, then walks forward until a block's first cell exceeds
// end. This guarantees no cell in [start, end] is missed across block
// boundaries, per §4.B.
func (s *Segment) blocksIn(start, end *base.Cell) []indexEntry {
	if len(s.index) == 0 {
		return nil
	}

	startIdx := 0
	if start != nil {
		// First entry with firstKey > start...
		i := sort.Search(len(s.index), func(i int) bool {
			return base.Compare(s.index[i].firstKey, *start) > 0
		})
		// ...the floor is one before that, clamped to the first block (a
		// block's first cell may still be <= start and contain matches).
		if i > 0 {
			startIdx = i - 1
		} else {
			startIdx = 0
		}
	}

	var out []indexEntry
	for i := startIdx; i < len(s.index); i++ {
		if end != nil && base.Compare(s.index[i].firstKey, *end) > 0 {
			break
		}
		out = append(out, s.index[i])
	}
	return out
}

// NewIter returns a lazy, single-pass iterator over the cells in [start,
// end] (either bound may be nil for unbounded). Blocks are fetched and
// decoded on demand as the iterator advances.
func (s *Segment) NewIter(start, end *base.Cell) *Iterator {
	return &Iterator{
		seg:     s,
		entries: s.blocksIn(start, end),
		start:   start,
		end:     end,
	}
}
