// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package table

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stapislaw/wide-db/internal/base"
	"github.com/stapislaw/wide-db/internal/sstable"
	"github.com/stapislaw/wide-db/testutil"
)

// stage writes c (with its Timestamp/Type/Value already set) tagged with a
// freshly-assigned write ticket, then completes the ticket — the write
// sketch of §2 and §4.F.
func stage(tb *Table, family []byte, c base.Cell) {
	ticket := tb.BeginWrite()
	f, err := tb.GetFamily(family)
	if err != nil {
		panic(err)
	}
	c.WriteNum = ticket.WriteNum()
	f.Memtable().Put(c)
	tb.CompleteWrite(ticket)
}

func drainRows(t *testing.T, it interface {
	Next(ctx context.Context) (base.Cell, bool, error)
}) []base.Cell {
	ctx := context.Background()
	var out []base.Cell
	for {
		c, ok, err := it.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		out = append(out, c)
	}
	return out
}

func newTestTable(t *testing.T, families ...string) *Table {
	tb := New([]byte("t"), testutil.NewMemoryLayer())
	for _, f := range families {
		require.NoError(t, tb.CreateFamily([]byte(f)))
	}
	return tb
}

// S1 — basic visibility.
func TestS1BasicVisibility(t *testing.T) {
	tb := newTestTable(t, "F1")
	stage(tb, []byte("F1"), base.Cell{Row: []byte("A"), Family: []byte("F1"), Qualifier: []byte("Q"), Timestamp: 10, Type: base.CellTypePut, Value: []byte("v1")})

	it, err := tb.Scan(context.Background(), nil, nil)
	require.NoError(t, err)
	out := drainRows(t, it)
	require.Len(t, out, 1)
	require.Equal(t, "v1", string(out[0].Value))
}

// S2 — pending hides newer.
func TestS2PendingHidesNewer(t *testing.T) {
	tb := newTestTable(t, "F1")
	f, err := tb.GetFamily([]byte("F1"))
	require.NoError(t, err)

	t1 := tb.BeginWrite()
	t2 := tb.BeginWrite()
	f.Memtable().Put(base.Cell{Row: []byte("A"), Family: []byte("F1"), Qualifier: []byte("Q"), Timestamp: 1, WriteNum: t1.WriteNum(), Type: base.CellTypePut, Value: []byte("w1")})
	f.Memtable().Put(base.Cell{Row: []byte("A"), Family: []byte("F1"), Qualifier: []byte("Q"), Timestamp: 2, WriteNum: t2.WriteNum(), Type: base.CellTypePut, Value: []byte("w2")})

	tb.CompleteWrite(t2)
	require.EqualValues(t, 0, tb.ReadPoint())
	it, err := tb.Scan(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Empty(t, drainRows(t, it))

	tb.CompleteWrite(t1)
	require.EqualValues(t, 2, tb.ReadPoint())
	it, err = tb.Scan(context.Background(), nil, nil)
	require.NoError(t, err)
	out := drainRows(t, it)
	require.Len(t, out, 2)
	require.Equal(t, "w2", string(out[0].Value), "newer timestamp sorts first at the same coordinate")
	require.Equal(t, "w1", string(out[1].Value))
}

// S3 — tombstone masks older put.
func TestS3TombstoneMasksOlderPut(t *testing.T) {
	tb := newTestTable(t, "F1")
	stage(tb, []byte("F1"), base.Cell{Row: []byte("A"), Family: []byte("F1"), Qualifier: []byte("Q"), Timestamp: 5, Type: base.CellTypePut, Value: []byte("old")})
	stage(tb, []byte("F1"), base.Cell{Row: []byte("A"), Family: []byte("F1"), Qualifier: []byte("Q"), Timestamp: 7, Type: base.CellTypeDeleteColumn})

	it, err := tb.Scan(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Empty(t, drainRows(t, it))
}

// S4 — tombstone spares newer put.
func TestS4TombstoneSparesNewerPut(t *testing.T) {
	tb := newTestTable(t, "F1")
	stage(tb, []byte("F1"), base.Cell{Row: []byte("A"), Family: []byte("F1"), Qualifier: []byte("Q"), Timestamp: 5, Type: base.CellTypePut, Value: []byte("old")})
	stage(tb, []byte("F1"), base.Cell{Row: []byte("A"), Family: []byte("F1"), Qualifier: []byte("Q"), Timestamp: 7, Type: base.CellTypeDeleteColumn})
	stage(tb, []byte("F1"), base.Cell{Row: []byte("A"), Family: []byte("F1"), Qualifier: []byte("Q"), Timestamp: 9, Type: base.CellTypePut, Value: []byte("new")})

	it, err := tb.Scan(context.Background(), nil, nil)
	require.NoError(t, err)
	out := drainRows(t, it)
	require.Len(t, out, 1)
	require.Equal(t, "new", string(out[0].Value))
}

// S5 — cross-family merge.
func TestS5CrossFamilyMerge(t *testing.T) {
	tb := newTestTable(t, "F1", "F2")
	stage(tb, []byte("F1"), base.Cell{Row: []byte("A"), Family: []byte("F1"), Qualifier: []byte("Q"), Timestamp: 1, Type: base.CellTypePut, Value: []byte("x")})
	stage(tb, []byte("F2"), base.Cell{Row: []byte("A"), Family: []byte("F2"), Qualifier: []byte("Q"), Timestamp: 1, Type: base.CellTypePut, Value: []byte("y")})

	it, err := tb.Scan(context.Background(), nil, nil)
	require.NoError(t, err)
	out := drainRows(t, it)
	require.Len(t, out, 2)
	require.Equal(t, "F1", string(out[0].Family))
	require.Equal(t, "F2", string(out[1].Family))
}

// S6 — DeleteFamily masks every qualifier in the family.
func TestS6DeleteFamily(t *testing.T) {
	tb := newTestTable(t, "F1")
	stage(tb, []byte("F1"), base.Cell{Row: []byte("A"), Family: []byte("F1"), Qualifier: []byte("Q1"), Timestamp: 1, Type: base.CellTypePut, Value: []byte("v1")})
	stage(tb, []byte("F1"), base.Cell{Row: []byte("A"), Family: []byte("F1"), Qualifier: []byte("Q2"), Timestamp: 2, Type: base.CellTypePut, Value: []byte("v2")})
	stage(tb, []byte("F1"), base.Cell{Row: []byte("A"), Family: []byte("F1"), Qualifier: nil, Timestamp: 3, Type: base.CellTypeDeleteFamily})

	it, err := tb.Scan(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Empty(t, drainRows(t, it))
}

// Property 3 — snapshot isolation: a scan must not observe a ticket that
// completes after the scan captured its read point.
func TestSnapshotIsolationMidScan(t *testing.T) {
	tb := newTestTable(t, "F1")
	f, err := tb.GetFamily([]byte("F1"))
	require.NoError(t, err)

	t1 := tb.BeginWrite()
	f.Memtable().Put(base.Cell{Row: []byte("A"), Family: []byte("F1"), Qualifier: []byte("Q"), Timestamp: 1, WriteNum: t1.WriteNum(), Type: base.CellTypePut, Value: []byte("v1")})
	tb.CompleteWrite(t1)

	it, err := tb.Scan(context.Background(), nil, nil)
	require.NoError(t, err)

	// A second write completes after the scan's read point was captured.
	t2 := tb.BeginWrite()
	f.Memtable().Put(base.Cell{Row: []byte("B"), Family: []byte("F1"), Qualifier: []byte("Q"), Timestamp: 1, WriteNum: t2.WriteNum(), Type: base.CellTypePut, Value: []byte("v2")})
	tb.CompleteWrite(t2)

	out := drainRows(t, it)
	require.Len(t, out, 1, "a scan's snapshot must not pick up a write completed after it started")
	require.Equal(t, "A", string(out[0].Row))
}

// CreateFamily twice must fail idempotently.
func TestCreateFamilyAlreadyExists(t *testing.T) {
	tb := newTestTable(t, "F1")
	require.ErrorIs(t, tb.CreateFamily([]byte("F1")), base.ErrFamilyAlreadyExists)
}

func TestGetFamilyNotFound(t *testing.T) {
	tb := newTestTable(t)
	_, err := tb.GetFamily([]byte("missing"))
	require.ErrorIs(t, err, base.ErrFamilyNotFound)
}

// A Table reopened over a pre-existing segment (the §6 "opened SSTable
// handles at startup" path) must see that segment's cells on the very next
// scan: OpenSegment seeds the MVCC read point up from the segment's own
// write numbers, so a fresh Table's read_point of 0 doesn't hide every
// segment whose MinWriteNum is necessarily >= 1.
func TestOpenSegmentSeedsReadPointForImmediateVisibility(t *testing.T) {
	ctx := context.Background()
	layer := testutil.NewMemoryLayer()

	w := sstable.NewWriter(sstable.DefaultWriterOptions())
	require.NoError(t, w.Add(base.Cell{Row: []byte("A"), Family: []byte("F1"), Qualifier: []byte("Q"), Timestamp: 1, WriteNum: 1, Type: base.CellTypePut, Value: []byte("v1")}))
	data, err := w.Finish()
	require.NoError(t, err)
	layer.Put([]byte("t"), []byte("F1"), []byte("s1"), data)

	tb := New([]byte("t"), layer)
	require.NoError(t, tb.CreateFamily([]byte("F1")))
	require.EqualValues(t, 0, tb.ReadPoint())

	require.NoError(t, tb.OpenSegment(ctx, []byte("F1"), []byte("s1")))
	require.EqualValues(t, 1, tb.ReadPoint(), "opening a segment must advance the read point past its own write numbers")

	it, err := tb.Scan(ctx, nil, nil)
	require.NoError(t, err)
	out := drainRows(t, it)
	require.Len(t, out, 1)
	require.Equal(t, "v1", string(out[0].Value))
}
