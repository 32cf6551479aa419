// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/stapislaw/wide-db/internal/base"
)

// Iterator is a lazy, single-pass, finite scan over a Segment's cells within
// [start, end]. It holds no locks; the index snapshot it walks was captured
// at NewIter time. I/O errors during block fetch surface as scan-level
// errors, per §4.B.
type Iterator struct {
	seg     *Segment
	entries []indexEntry
	start   *base.Cell
	end     *base.Cell

	blockIdx int
	block    []base.Cell
	cellIdx  int
	err      error

	// prefetched and isPrefetched support NewIterPrefetch: when set, Next
	// reads blocks already fetched and decoded instead of calling LoadBlock.
	prefetched   [][]base.Cell
	isPrefetched bool
}

// Next advances to and returns the next cell in range, or ok=false once the
// scan is exhausted. A fetch or decode error is returned as err, and every
// later call returns the same error.
func (it *Iterator) Next(ctx context.Context) (base.Cell, bool, error) {
	if it.err != nil {
		return base.Cell{}, false, it.err
	}
	for {
		if it.cellIdx < len(it.block) {
			c := it.block[it.cellIdx]
			it.cellIdx++
			if !base.InRange(c, it.start, it.end) {
				continue
			}
			return c, true, nil
		}
		if it.blockIdx >= len(it.entries) {
			return base.Cell{}, false, nil
		}

		if it.isPrefetched {
			it.block = it.prefetched[it.blockIdx]
			it.blockIdx++
			it.cellIdx = 0
			continue
		}

		entry := it.entries[it.blockIdx]
		it.blockIdx++

		raw, err := it.seg.layer.LoadBlock(ctx, it.seg.table, it.seg.family, it.seg.segment,
			entry.handle.Offset, entry.handle.Length)
		if err != nil {
			it.err = base.WrapPersistenceError(err, "widedb/sstable: fetch block at offset %d", entry.handle.Offset)
			return base.Cell{}, false, it.err
		}
		block, err := decodeBlock(raw)
		if err != nil {
			it.err = err
			return base.Cell{}, false, it.err
		}
		it.block = block
		it.cellIdx = 0
	}
}

// Close releases nothing, since the iterator holds no resources beyond
// decoded blocks; it returns the error the scan stopped on, if any.
func (it *Iterator) Close() error {
	return it.err
}

// NewIterPrefetch behaves like NewIter, but fetches and decodes every
// relevant block up front, bounded to concurrency simultaneous
// PersistenceLayer calls, rather than one block at a time as Next advances.
// Worthwhile for a large bounded scan over a remote-backed Layer (§6's S3
// tier, for instance) where block fetch latency, not decode CPU, dominates.
func (s *Segment) NewIterPrefetch(ctx context.Context, start, end *base.Cell, concurrency int) (*Iterator, error) {
	entries := s.blocksIn(start, end)
	blocks := make([][]base.Cell, len(entries))

	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	g, gctx := errgroup.WithContext(ctx)

	for i, entry := range entries {
		i, entry := i, entry
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()

			raw, err := s.layer.LoadBlock(gctx, s.table, s.family, s.segment, entry.handle.Offset, entry.handle.Length)
			if err != nil {
				return base.WrapPersistenceError(err, "widedb/sstable: prefetch block at offset %d", entry.handle.Offset)
			}
			block, err := decodeBlock(raw)
			if err != nil {
				return err
			}
			blocks[i] = block
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Iterator{
		seg:          s,
		entries:      entries,
		start:        start,
		end:          end,
		blockIdx:     0,
		prefetched:   blocks,
		isPrefetched: true,
	}, nil
}
