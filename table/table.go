// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package table implements §4.G: the per-table coordinator that composes
// the MVCC sequencer, row-lock registry, and per-family merged scans into a
// single deletion-aware, ordered cell stream.
package table

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/stapislaw/wide-db/internal/base"
	"github.com/stapislaw/wide-db/internal/deletetracker"
	"github.com/stapislaw/wide-db/internal/merge"
	"github.com/stapislaw/wide-db/internal/mvcc"
	"github.com/stapislaw/wide-db/internal/rowlock"
	"github.com/stapislaw/wide-db/internal/sstable"
	"github.com/stapislaw/wide-db/metrics"
	"github.com/stapislaw/wide-db/persistence"

	"github.com/stapislaw/wide-db/family"
)

// Table owns a name, a family map keyed by hashed family name, a row-lock
// registry, and the MVCC state of §3.
type Table struct {
	name []byte

	familiesMu sync.Mutex
	families   map[uint64]*family.Family

	rowLocks *rowlock.Registry
	seq      *mvcc.Sequencer
	layer    persistence.Layer
	metrics  *metrics.Metrics
}

// New returns an empty Table backed by layer for segment I/O.
func New(name []byte, layer persistence.Layer) *Table {
	return &Table{
		name:     append([]byte(nil), name...),
		families: make(map[uint64]*family.Family),
		rowLocks: rowlock.New(),
		seq:      mvcc.New(0),
		layer:    layer,
	}
}

// WithMetrics attaches m, so subsequent Scan calls record latency and merge
// fan-in against it. Optional: a Table with no metrics attached behaves
// identically, just unobserved.
func (t *Table) WithMetrics(m *metrics.Metrics) *Table {
	t.metrics = m
	return t
}

// Name returns the table's name.
func (t *Table) Name() []byte { return t.name }

func familyHash(name []byte) uint64 { return xxhash.Sum64(name) }

// CreateFamily registers a new, empty column family. Serialized by the
// families mutex; fails with base.ErrFamilyAlreadyExists if the name is
// already registered, per §4.G and §6.
func (t *Table) CreateFamily(name []byte) error {
	h := familyHash(name)

	t.familiesMu.Lock()
	defer t.familiesMu.Unlock()
	if _, ok := t.families[h]; ok {
		return base.ErrFamilyAlreadyExists
	}
	t.families[h] = family.New(name)
	return nil
}

// GetFamily looks up a family by name, returning base.ErrFamilyNotFound if
// it is not registered.
func (t *Table) GetFamily(name []byte) (*family.Family, error) {
	h := familyHash(name)

	t.familiesMu.Lock()
	defer t.familiesMu.Unlock()
	f, ok := t.families[h]
	if !ok {
		return nil, base.ErrFamilyNotFound
	}
	return f, nil
}

// OpenSegment opens an on-disk segment via the table's PersistenceLayer and
// registers it with family. This is the startup / post-flush path sketched
// in §6 ("the core receives opened SSTable handles at startup or from flush
// notifications"); segment enumeration itself remains the collaborator's
// job (persistence.Layer.SegmentNames).
//
// Opening a segment seeds the table's MVCC write/read point up to the
// segment's MaxWriteNum, so cells already on disk are visible to the very
// next Scan rather than being skipped by family.Family.Scan's
// MinWriteNum > readPoint check (every real segment has MinWriteNum >= 1,
// which a fresh Table's read_point of 0 would never clear). This mirrors the
// original implementation's mvcc-id-seeded reopen constructor; see
// mvcc.Sequencer.SeedWritePoint.
func (t *Table) OpenSegment(ctx context.Context, familyName, segment []byte) error {
	f, err := t.GetFamily(familyName)
	if err != nil {
		return err
	}
	seg, err := sstable.Open(ctx, t.layer, t.name, familyName, segment)
	if err != nil {
		return err
	}
	f.AddSegment(seg)
	t.seq.SeedWritePoint(seg.MaxWriteNum())
	return nil
}

// SeedWritePoint advances the table's MVCC write/read point to at least
// writeNum, if it is not already there. Exposed so a caller reopening a
// table can seed from the highest MaxWriteNum across every family's
// segments in one call, instead of relying solely on OpenSegment's implicit
// per-segment seeding (e.g. when segment metadata is inspected up front).
// Must be called before any BeginWrite, per mvcc.Sequencer.SeedWritePoint.
func (t *Table) SeedWritePoint(writeNum uint64) {
	t.seq.SeedWritePoint(writeNum)
}

// GetRowLock returns the row's exclusion lease, creating one on first
// reference, per §4.E.
func (t *Table) GetRowLock(row []byte) *rowlock.Context {
	return t.rowLocks.GetOrCreate(row)
}

// BeginWrite assigns a new MVCC write ticket, per §4.F.
func (t *Table) BeginWrite() *mvcc.Ticket {
	ticket := t.seq.BeginWrite()
	if t.metrics != nil {
		t.metrics.WriteQueueDepth.Set(float64(t.seq.QueueLen()))
	}
	return ticket
}

// CompleteWrite marks ticket completed and advances the read point as far
// as the contiguous completed prefix allows, per §4.F.
func (t *Table) CompleteWrite(ticket *mvcc.Ticket) {
	t.seq.Complete(ticket)
	if t.metrics != nil {
		t.metrics.WriteQueueDepth.Set(float64(t.seq.QueueLen()))
	}
}

// ReadPoint returns the table's current read point.
func (t *Table) ReadPoint() uint64 {
	return t.seq.ReadPoint()
}

// familiesSnapshot copies the current family set under the families mutex,
// so a scan's family list is fixed at its start: later CreateFamily calls
// must not surprise an in-progress scan, per §4.G.
func (t *Table) familiesSnapshot() []*family.Family {
	t.familiesMu.Lock()
	defer t.familiesMu.Unlock()
	out := make([]*family.Family, 0, len(t.families))
	for _, f := range t.families {
		out = append(out, f)
	}
	return out
}

// Scan performs the full §4.G pipeline: snapshot the read point and family
// set, obtain each family's MVCC-filtered stream, k-way merge them, and
// thread the result through a DeleteTracker so only live Puts are emitted.
// The returned stream is lazy, single-pass, and finite; it holds no locks
// beyond the snapshots already taken.
func (t *Table) Scan(ctx context.Context, start, end *base.Cell) (merge.Iterator, error) {
	started := time.Now()
	readPoint := t.seq.ReadPoint()
	families := t.familiesSnapshot()

	sources := make([]merge.Iterator, 0, len(families))
	for _, f := range families {
		it, err := f.Scan(ctx, start, end, readPoint)
		if err != nil {
			return nil, err
		}
		sources = append(sources, it)
	}

	if t.metrics != nil {
		t.metrics.MergeFanIn.Observe(float64(len(sources)))
	}

	merged, err := merge.New(ctx, sources)
	if err != nil {
		return nil, err
	}
	if t.metrics != nil {
		t.metrics.ScanLatencySeconds.Observe(time.Since(started).Seconds())
	}
	return newDeleteFilteredScan(merged), nil
}

// deleteFilteredScan threads a merged, globally-ordered cell stream through
// a DeleteTracker: on every row change the tracker resets, every cell is
// recorded if it is a tombstone, and a Put is only emitted when it survives
// IsDeleted — the step 4 of §4.G.
type deleteFilteredScan struct {
	src        merge.Iterator
	tracker    *deletetracker.Tracker
	currentRow []byte
	haveRow    bool
}

func newDeleteFilteredScan(src merge.Iterator) *deleteFilteredScan {
	return &deleteFilteredScan{src: src, tracker: deletetracker.New()}
}

func (d *deleteFilteredScan) Next(ctx context.Context) (base.Cell, bool, error) {
	for {
		c, ok, err := d.src.Next(ctx)
		if err != nil || !ok {
			return base.Cell{}, false, err
		}

		if !d.haveRow || string(c.Row) != string(d.currentRow) {
			d.tracker.Reset()
			d.currentRow = append(d.currentRow[:0], c.Row...)
			d.haveRow = true
		}

		d.tracker.Add(c)
		if c.Type != base.CellTypePut {
			continue
		}
		if d.tracker.IsDeleted(c) {
			continue
		}
		return c, true, nil
	}
}

func (d *deleteFilteredScan) Close() error { return d.src.Close() }
