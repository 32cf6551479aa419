// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompareRowFamilyQualifier(t *testing.T) {
	a := Cell{Row: []byte("a"), Family: []byte("f"), Qualifier: []byte("q")}
	b := Cell{Row: []byte("b"), Family: []byte("f"), Qualifier: []byte("q")}
	require.Negative(t, Compare(a, b))
	require.Positive(t, Compare(b, a))
	require.Equal(t, 0, Compare(a, a))
}

func TestCompareTimestampDescending(t *testing.T) {
	older := Cell{Row: []byte("a"), Timestamp: 5}
	newer := Cell{Row: []byte("a"), Timestamp: 9}
	require.True(t, Less(newer, older), "newer timestamp must sort first")
}

func TestCompareWriteNumTieBreak(t *testing.T) {
	low := Cell{Row: []byte("a"), Timestamp: 5, WriteNum: 1}
	high := Cell{Row: []byte("a"), Timestamp: 5, WriteNum: 2}
	require.True(t, Less(high, low), "larger write_num wins the tie at equal timestamp")
}

func TestCompareDeleteBeforePut(t *testing.T) {
	del := Cell{Row: []byte("a"), Timestamp: 5, WriteNum: 1, Type: CellTypeDeleteColumn}
	put := Cell{Row: []byte("a"), Timestamp: 5, WriteNum: 1, Type: CellTypePut}
	require.True(t, Less(del, put), "tombstones must be observed before the put they mask")
}

func TestBoundsSpanCoordinate(t *testing.T) {
	lo := LowerBound([]byte("a"), []byte("f"), []byte("q"))
	hi := UpperBound([]byte("a"), []byte("f"), []byte("q"))
	mid := Cell{Row: []byte("a"), Family: []byte("f"), Qualifier: []byte("q"), Timestamp: 42, WriteNum: 1, Type: CellTypePut}
	require.True(t, Compare(lo, mid) <= 0)
	require.True(t, Compare(mid, hi) <= 0)
	require.True(t, InRange(mid, &lo, &hi))
}

func TestInRangeUnbounded(t *testing.T) {
	c := Cell{Row: []byte("z")}
	require.True(t, InRange(c, nil, nil))
}
