// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package deletetracker implements §4.C: per-row tombstone state used to
// filter live cells out of a merged scan.
package deletetracker

import (
	"strconv"

	"github.com/stapislaw/wide-db/internal/base"
)

// Tracker holds every tombstone observed so far within the current row
// window. The merge delivers cells for a given coordinate newest-first with
// deletes ordered before puts (rule 6 of §3), so a tombstone is always
// recorded before the puts it shadows; is_deleted is therefore a pure
// lookup against already-seen state, never a second pass.
type Tracker struct {
	familyDeletes map[string]uint64 // family -> max DeleteFamily timestamp
	columnDeletes map[string]uint64 // family+"\x00"+qualifier -> max DeleteColumn timestamp
	pointDeletes  map[string]struct{}
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{
		familyDeletes: make(map[string]uint64),
		columnDeletes: make(map[string]uint64),
		pointDeletes:  make(map[string]struct{}),
	}
}

// Reset clears all recorded tombstones. Called at every row boundary during
// a merge.
func (t *Tracker) Reset() {
	for k := range t.familyDeletes {
		delete(t.familyDeletes, k)
	}
	for k := range t.columnDeletes {
		delete(t.columnDeletes, k)
	}
	for k := range t.pointDeletes {
		delete(t.pointDeletes, k)
	}
}

func columnKey(family, qualifier []byte) string {
	return string(family) + "\x00" + string(qualifier)
}

func pointKey(family, qualifier []byte, ts uint64) string {
	return string(family) + "\x00" + string(qualifier) + "\x00" + strconv.FormatUint(ts, 10)
}

// Add records c if it is a tombstone; puts are ignored.
func (t *Tracker) Add(c base.Cell) {
	switch c.Type {
	case base.CellTypeDeleteFamily:
		k := string(c.Family)
		if existing, ok := t.familyDeletes[k]; !ok || c.Timestamp > existing {
			t.familyDeletes[k] = c.Timestamp
		}
	case base.CellTypeDeleteColumn:
		k := columnKey(c.Family, c.Qualifier)
		if existing, ok := t.columnDeletes[k]; !ok || c.Timestamp > existing {
			t.columnDeletes[k] = c.Timestamp
		}
	case base.CellTypeDelete:
		t.pointDeletes[pointKey(c.Family, c.Qualifier, c.Timestamp)] = struct{}{}
	}
}

// IsDeleted reports whether a Put cell is masked by any tombstone recorded
// so far, applying the three masking rules of §4.C.
func (t *Tracker) IsDeleted(c base.Cell) bool {
	if maxTS, ok := t.familyDeletes[string(c.Family)]; ok && c.Timestamp <= maxTS {
		return true
	}
	if maxTS, ok := t.columnDeletes[columnKey(c.Family, c.Qualifier)]; ok && c.Timestamp <= maxTS {
		return true
	}
	if _, ok := t.pointDeletes[pointKey(c.Family, c.Qualifier, c.Timestamp)]; ok {
		return true
	}
	return false
}
