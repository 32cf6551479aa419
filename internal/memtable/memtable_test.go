// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package memtable

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stapislaw/wide-db/internal/base"
)

func cell(row string, ts, wn uint64) base.Cell {
	return base.Cell{Row: []byte(row), Family: []byte("f"), Qualifier: []byte("q"), Timestamp: ts, WriteNum: wn, Type: base.CellTypePut}
}

func TestPutKeepsSortedOrder(t *testing.T) {
	m := New()
	m.Put(cell("c", 1, 1))
	m.Put(cell("a", 1, 2))
	m.Put(cell("b", 1, 3))

	it := m.NewIter(nil, nil)
	ctx := context.Background()
	var rows []string
	for {
		c, ok, err := it.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		rows = append(rows, string(c.Row))
	}
	require.Equal(t, []string{"a", "b", "c"}, rows)
}

func TestNewIterIsSnapshot(t *testing.T) {
	m := New()
	m.Put(cell("a", 1, 1))
	it := m.NewIter(nil, nil)
	m.Put(cell("b", 1, 2))

	ctx := context.Background()
	var rows []string
	for {
		c, ok, err := it.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		rows = append(rows, string(c.Row))
	}
	require.Equal(t, []string{"a"}, rows, "snapshot must not observe a Put that races the scan")
}

func TestNewIterRespectsBounds(t *testing.T) {
	m := New()
	for _, row := range []string{"a", "b", "c", "d"} {
		m.Put(cell(row, 1, 1))
	}
	start := base.LowerBound([]byte("b"), []byte("f"), []byte("q"))
	end := base.UpperBound([]byte("c"), []byte("f"), []byte("q"))
	it := m.NewIter(&start, &end)

	ctx := context.Background()
	var rows []string
	for {
		c, ok, err := it.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		rows = append(rows, string(c.Row))
	}
	require.Equal(t, []string{"b", "c"}, rows)
}
