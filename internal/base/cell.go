// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package base holds the primitive types shared across the storage engine:
// the immutable Cell record, its total order, and the sentinel errors raised
// at the package boundary.
package base

import (
	"bytes"
	"math"
)

// CellType distinguishes a live value from the three tombstone variants that
// can mask it.
type CellType uint8

const (
	// CellTypePut is a live value.
	CellTypePut CellType = iota
	// CellTypeDelete masks a single (family, qualifier, timestamp) cell.
	CellTypeDelete
	// CellTypeDeleteColumn masks every cell in (family, qualifier) with a
	// timestamp less than or equal to the tombstone's.
	CellTypeDeleteColumn
	// CellTypeDeleteFamily masks every cell in family with a timestamp less
	// than or equal to the tombstone's.
	CellTypeDeleteFamily
)

// IsDelete reports whether t is one of the tombstone variants.
func (t CellType) IsDelete() bool {
	return t != CellTypePut
}

func (t CellType) String() string {
	switch t {
	case CellTypePut:
		return "Put"
	case CellTypeDelete:
		return "Delete"
	case CellTypeDeleteColumn:
		return "DeleteColumn"
	case CellTypeDeleteFamily:
		return "DeleteFamily"
	default:
		return "Unknown"
	}
}

// typeRank orders cell types at an otherwise-equal coordinate so that
// tombstones are observed before the Put they mask, per the total order of
// §3: "type with delete variants ordered before Put at equal key". The
// relative order among the three tombstone variants is otherwise
// unconstrained by the contract; DeleteFamily sorts first since it is the
// broadest-scoped tombstone, matching how a merge naturally widens scope.
func typeRank(t CellType) int {
	switch t {
	case CellTypeDeleteFamily:
		return 0
	case CellTypeDeleteColumn:
		return 1
	case CellTypeDelete:
		return 2
	default: // CellTypePut
		return 3
	}
}

// Cell is the immutable unit of storage: a single versioned value (or
// tombstone) at a (row, family, qualifier) coordinate.
type Cell struct {
	Row       []byte
	Family    []byte
	Qualifier []byte
	Value     []byte
	Timestamp uint64
	WriteNum  uint64
	Type      CellType
}

// Equal reports whether a and b agree on all six ordering fields (the value
// is not part of the cell's identity).
func (c Cell) Equal(o Cell) bool {
	return bytes.Equal(c.Row, o.Row) &&
		bytes.Equal(c.Family, o.Family) &&
		bytes.Equal(c.Qualifier, o.Qualifier) &&
		c.Timestamp == o.Timestamp &&
		c.WriteNum == o.WriteNum &&
		c.Type == o.Type
}

// Clone returns a Cell holding its own copies of every byte slice, safe to
// retain past the lifetime of the buffer it was decoded from.
func (c Cell) Clone() Cell {
	return Cell{
		Row:       append([]byte(nil), c.Row...),
		Family:    append([]byte(nil), c.Family...),
		Qualifier: append([]byte(nil), c.Qualifier...),
		Value:     append([]byte(nil), c.Value...),
		Timestamp: c.Timestamp,
		WriteNum:  c.WriteNum,
		Type:      c.Type,
	}
}

// Compare implements the total order of §3: row, family, qualifier
// ascending; timestamp descending; write_num descending (tie-break);
// tombstones before Put. It is the single ordering used by segment indexes,
// memtables, and the k-way merge, so that on-disk and in-memory order never
// diverge.
func Compare(a, b Cell) int {
	if c := bytes.Compare(a.Row, b.Row); c != 0 {
		return c
	}
	if c := bytes.Compare(a.Family, b.Family); c != 0 {
		return c
	}
	if c := bytes.Compare(a.Qualifier, b.Qualifier); c != 0 {
		return c
	}
	if a.Timestamp != b.Timestamp {
		if a.Timestamp > b.Timestamp {
			return -1
		}
		return 1
	}
	if a.WriteNum != b.WriteNum {
		if a.WriteNum > b.WriteNum {
			return -1
		}
		return 1
	}
	ar, br := typeRank(a.Type), typeRank(b.Type)
	if ar != br {
		return ar - br
	}
	return 0
}

// Less reports whether a sorts strictly before b under Compare.
func Less(a, b Cell) bool {
	return Compare(a, b) < 0
}

// LowerBound builds a synthetic cell for the given (row, family, qualifier)
// coordinate that sorts at or before every real cell sharing that
// coordinate — suitable as an inclusive scan start. Fields left unset by the
// caller (nil row/family/qualifier) are already the minimum under
// bytes.Compare, satisfying "missing fields are treated as the minimum" for
// start bounds.
func LowerBound(row, family, qualifier []byte) Cell {
	return Cell{
		Row:       row,
		Family:    family,
		Qualifier: qualifier,
		Timestamp: math.MaxUint64,
		WriteNum:  math.MaxUint64,
		Type:      CellTypeDeleteFamily, // lowest typeRank
	}
}

// UpperBound builds a synthetic cell for the given (row, family, qualifier)
// coordinate that sorts at or after every real cell sharing that
// coordinate — suitable as an inclusive scan end.
func UpperBound(row, family, qualifier []byte) Cell {
	return Cell{
		Row:       row,
		Family:    family,
		Qualifier: qualifier,
		Timestamp: 0,
		WriteNum:  0,
		Type:      CellTypePut, // highest typeRank
	}
}

// InRange reports whether c falls within the inclusive [start, end] bounds,
// where either bound may be nil to mean unbounded.
func InRange(c Cell, start, end *Cell) bool {
	if start != nil && Compare(c, *start) < 0 {
		return false
	}
	if end != nil && Compare(c, *end) > 0 {
		return false
	}
	return true
}
