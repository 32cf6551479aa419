// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package family

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stapislaw/wide-db/internal/base"
	"github.com/stapislaw/wide-db/testutil"
)

func TestScanMergesSegmentsAndMemtable(t *testing.T) {
	ctx := context.Background()
	f := New([]byte("cf"))

	seg := testutil.BuildSegment(t, ctx, []byte("t"), []byte("cf"), []byte("s1"), []base.Cell{
		{Row: []byte("a"), Family: []byte("cf"), Qualifier: []byte("q"), Timestamp: 1, WriteNum: 1, Type: base.CellTypePut, Value: []byte("seg")},
		{Row: []byte("c"), Family: []byte("cf"), Qualifier: []byte("q"), Timestamp: 1, WriteNum: 2, Type: base.CellTypePut, Value: []byte("seg")},
	})
	f.AddSegment(seg)
	f.Memtable().Put(base.Cell{Row: []byte("b"), Family: []byte("cf"), Qualifier: []byte("q"), Timestamp: 1, WriteNum: 3, Type: base.CellTypePut, Value: []byte("mem")})

	it, err := f.Scan(ctx, nil, nil, 3)
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
	require.Equal(t, []string{"a", "b", "c"}, rows)
}

func TestScanFiltersByReadPoint(t *testing.T) {
	ctx := context.Background()
	f := New([]byte("cf"))
	f.Memtable().Put(base.Cell{Row: []byte("a"), Family: []byte("cf"), Qualifier: []byte("q"), Timestamp: 1, WriteNum: 1, Type: base.CellTypePut})
	f.Memtable().Put(base.Cell{Row: []byte("b"), Family: []byte("cf"), Qualifier: []byte("q"), Timestamp: 1, WriteNum: 2, Type: base.CellTypePut})

	it, err := f.Scan(ctx, nil, nil, 1)
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
	require.Equal(t, []string{"a"}, rows, "a write_num above the read point must never be returned")
}
