// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package mvcc implements §4.F: the per-table write-number sequencer that
// assigns monotonic write tickets, tracks their completion, and advances
// the published read point as far as the contiguous completed prefix
// allows.
package mvcc

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/stapislaw/wide-db/internal/base"
)

// Ticket is a single in-flight write's handle on the sequencer. A ticket
// transitions from pending to completed exactly once; the caller that holds
// it is responsible for calling Complete exactly once (§4.F).
type Ticket struct {
	writeNum  uint64
	completed atomic.Bool
}

// WriteNum is the MVCC sequence number assigned to this write.
func (t *Ticket) WriteNum() uint64 { return t.writeNum }

// Sequencer is the table's MVCC state machine: write_point, read_point, and
// the FIFO write_queue of §3, with the ordering contract of §4.F. No reader
// blocks writers and no writer blocks readers except via the short
// queue-lock critical section in Complete.
type Sequencer struct {
	writePoint uint64 // atomic
	readPoint  uint64 // atomic

	queueMu sync.Mutex
	queue   *list.List // of *Ticket, oldest (smallest write_num) at Front
}

// New returns a Sequencer with write_point and read_point both initialized
// to initial (0 for a fresh table, or the table's last-known MVCC id when
// reopening one with existing segments).
func New(initial uint64) *Sequencer {
	return &Sequencer{
		writePoint: initial,
		readPoint:  initial,
		queue:      list.New(),
	}
}

// BeginWrite assigns the next write number, pushes a pending ticket to the
// tail of the write queue, and returns it to the caller.
func (s *Sequencer) BeginWrite() *Ticket {
	writeNum := atomic.AddUint64(&s.writePoint, 1)
	t := &Ticket{writeNum: writeNum}

	s.queueMu.Lock()
	s.queue.PushBack(t)
	s.queueMu.Unlock()
	return t
}

// ReadPoint returns the highest write number w such that every write <= w
// has completed. A reader sampling ReadPoint repeatedly observes a
// non-decreasing sequence (§5, §8 property 1).
func (s *Sequencer) ReadPoint() uint64 {
	return atomic.LoadUint64(&s.readPoint)
}

// WritePoint returns the most recently assigned write number.
func (s *Sequencer) WritePoint() uint64 {
	return atomic.LoadUint64(&s.writePoint)
}

// QueueLen returns the number of tickets still pending completion, for
// callers wanting to observe write-queue depth (e.g. as a gauge).
func (s *Sequencer) QueueLen() int {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	return s.queue.Len()
}

// SeedWritePoint raises write_point to n if n is higher than it, and
// separately raises read_point to n if n is higher than it; a point already
// at or above n is left unchanged. It exists
// for reopening a table over pre-existing segments, whose cells already
// carry write numbers assigned by a prior process — mirroring the original
// implementation's mvcc-id-seeded constructor
// (_examples/original_source/wdb-storage-engine/src/table/table.rs's
// Table::new_from_families_vec). Not safe to call concurrently with
// BeginWrite/Complete; callers must seed before issuing any write.
func (s *Sequencer) SeedWritePoint(n uint64) {
	for {
		cur := atomic.LoadUint64(&s.writePoint)
		if n <= cur {
			break
		}
		if atomic.CompareAndSwapUint64(&s.writePoint, cur, n) {
			break
		}
	}
	for {
		cur := atomic.LoadUint64(&s.readPoint)
		if n <= cur {
			return
		}
		if atomic.CompareAndSwapUint64(&s.readPoint, cur, n) {
			return
		}
	}
}

// Complete marks t as completed and advances the read point as far as the
// now-contiguous completed prefix allows. Complete is idempotent on a given
// ticket (marking an already-completed ticket again is a no-op), but the
// caller must not call Complete concurrently for the same ticket from two
// goroutines expecting two distinct advancements — each ticket is completed
// by exactly one caller.
//
// An out-of-order queue head — the popped head's write_num not equal to
// read_point+1 — indicates a caller bug (double-complete or a missing
// BeginWrite) and is fatal, per §4.F and the design note in §9: it is not
// recovered.
func (s *Sequencer) Complete(t *Ticket) {
	t.completed.Store(true)

	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	read := atomic.LoadUint64(&s.readPoint)
	for e := s.queue.Front(); e != nil; e = s.queue.Front() {
		head := e.Value.(*Ticket)
		if !head.completed.Load() {
			break
		}
		if read+1 != head.writeNum {
			base.InvariantViolation("widedb/mvcc: write queue desynchronized: read_point=%d but head write_num=%d", read, head.writeNum)
		}
		read = head.writeNum
		s.queue.Remove(e)
	}
	atomic.StoreUint64(&s.readPoint, read)
}
