// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stapislaw/wide-db/internal/base"
)

// memLayer is a minimal in-memory persistence.Layer used only to exercise
// Writer/Open/Iterator round-trips within this package's own tests.
type memLayer struct {
	segments map[string][]byte
}

func newMemLayer() *memLayer { return &memLayer{segments: map[string][]byte{}} }

func key(table, family, segment []byte) string {
	return string(table) + "/" + string(family) + "/" + string(segment)
}

func (m *memLayer) put(table, family, segment, data []byte) {
	m.segments[key(table, family, segment)] = data
}

func (m *memLayer) LoadBlock(_ context.Context, table, family, segment []byte, offset, length uint64) ([]byte, error) {
	data := m.segments[key(table, family, segment)]
	return data[offset : offset+length], nil
}

func (m *memLayer) SegmentSize(_ context.Context, table, family, segment []byte) (uint64, error) {
	return uint64(len(m.segments[key(table, family, segment)])), nil
}

func (m *memLayer) SegmentNames(_ context.Context, table, family []byte) ([][]byte, error) {
	return nil, nil
}

func cell(row string, ts, wn uint64, typ base.CellType, val string) base.Cell {
	return base.Cell{Row: []byte(row), Family: []byte("f"), Qualifier: []byte("q"), Timestamp: ts, WriteNum: wn, Type: typ, Value: []byte(val)}
}

func TestWriterReaderRoundTrip(t *testing.T) {
	ctx := context.Background()
	w := NewWriter(DefaultWriterOptions())

	cells := []base.Cell{
		cell("a", 10, 1, base.CellTypePut, "v1"),
		cell("b", 5, 2, base.CellTypePut, "v2"),
		cell("c", 7, 3, base.CellTypePut, "v3"),
	}
	for _, c := range cells {
		require.NoError(t, w.Add(c))
	}
	data, err := w.Finish()
	require.NoError(t, err)

	layer := newMemLayer()
	layer.put([]byte("t"), []byte("f"), []byte("s1"), data)

	seg, err := Open(ctx, layer, []byte("t"), []byte("f"), []byte("s1"))
	require.NoError(t, err)
	require.EqualValues(t, 1, seg.MinWriteNum())
	require.EqualValues(t, 3, seg.MaxWriteNum())

	it := seg.NewIter(nil, nil)
	var got []base.Cell
	for {
		c, ok, err := it.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, c)
	}
	require.Len(t, got, 3)
	require.Equal(t, "a", string(got[0].Row))
	require.Equal(t, "b", string(got[1].Row))
	require.Equal(t, "c", string(got[2].Row))
}

func TestBlocksInBoundedRange(t *testing.T) {
	ctx := context.Background()
	opts := DefaultWriterOptions()
	opts.BlockTargetSize = 1 // force a new block per cell
	w := NewWriter(opts)

	for i, row := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, w.Add(cell(row, 1, uint64(i+1), base.CellTypePut, "v")))
	}
	data, err := w.Finish()
	require.NoError(t, err)

	layer := newMemLayer()
	layer.put([]byte("t"), []byte("f"), []byte("s1"), data)
	seg, err := Open(ctx, layer, []byte("t"), []byte("f"), []byte("s1"))
	require.NoError(t, err)
	require.True(t, len(seg.index) >= 5)

	start := base.LowerBound([]byte("b"), []byte("f"), []byte("q"))
	end := base.UpperBound([]byte("d"), []byte("f"), []byte("q"))
	it := seg.NewIter(&start, &end)
	var rows []string
	for {
		c, ok, err := it.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		rows = append(rows, string(c.Row))
	}
	require.Equal(t, []string{"b", "c", "d"}, rows)
}

func TestWriterRejectsOutOfOrderCells(t *testing.T) {
	w := NewWriter(DefaultWriterOptions())
	require.NoError(t, w.Add(cell("b", 1, 1, base.CellTypePut, "v")))
	require.Error(t, w.Add(cell("a", 1, 2, base.CellTypePut, "v")))
}

func TestNewIterPrefetchMatchesNewIter(t *testing.T) {
	ctx := context.Background()
	opts := DefaultWriterOptions()
	opts.BlockTargetSize = 1 // force a new block per cell, so prefetch spans several blocks
	w := NewWriter(opts)

	for i, row := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, w.Add(cell(row, 1, uint64(i+1), base.CellTypePut, "v")))
	}
	data, err := w.Finish()
	require.NoError(t, err)

	layer := newMemLayer()
	layer.put([]byte("t"), []byte("f"), []byte("s1"), data)
	seg, err := Open(ctx, layer, []byte("t"), []byte("f"), []byte("s1"))
	require.NoError(t, err)

	it, err := seg.NewIterPrefetch(ctx, nil, nil, 3)
	require.NoError(t, err)

	var rows []string
	for {
		c, ok, err := it.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		rows = append(rows, string(c.Row))
	}
	require.Equal(t, []string{"a", "b", "c", "d", "e"}, rows)
}

func TestCompressionRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, comp := range []Compression{CompressionNone, CompressionSnappy, CompressionZstd} {
		opts := WriterOptions{BlockTargetSize: 4096, Compression: comp}
		w := NewWriter(opts)
		require.NoError(t, w.Add(cell("a", 1, 1, base.CellTypePut, "hello world")))
		data, err := w.Finish()
		require.NoError(t, err)

		layer := newMemLayer()
		layer.put([]byte("t"), []byte("f"), []byte("s"), data)
		seg, err := Open(ctx, layer, []byte("t"), []byte("f"), []byte("s"))
		require.NoError(t, err)
		it := seg.NewIter(nil, nil)
		c, ok, err := it.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "hello world", string(c.Value))
	}
}
