// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package rowlock implements §4.E: per-row exclusion leases keyed by a
// 64-bit hash of the row, for read-modify-write flows that must serialize
// on a single row without taking a table-wide lock.
package rowlock

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Context is a reader/writer lease for one row (or one hash bucket of
// colliding rows — acceptable per §4.E: collisions coalesce onto the same
// lease, over-serializing the colliders but never breaking correctness).
type Context struct {
	Row []byte // the row that first created this lease, kept so callers may detect a collision explicitly
	mu  sync.RWMutex

	lastAccess atomic.Int64 // unix nanos, for the external pruner's idle check
}

// Lock acquires the row's exclusive lease, serializing writers on this row.
func (c *Context) Lock() {
	c.mu.Lock()
	c.touch()
}

// Unlock releases the row's exclusive lease.
func (c *Context) Unlock() {
	c.mu.Unlock()
}

// RLock acquires the row's shared lease, for readers that only need to
// observe a consistent row without blocking other readers.
func (c *Context) RLock() {
	c.mu.RLock()
	c.touch()
}

// RUnlock releases the row's shared lease.
func (c *Context) RUnlock() {
	c.mu.RUnlock()
}

func (c *Context) touch() {
	c.lastAccess.Store(time.Now().UnixNano())
}

// Registry is a concurrent map from row hash to lease. It never garbage
// collects entries itself — an external collaborator may Prune idle entries
// under its own schedule, per §4.E and the open question of §9 — but must
// not invalidate references held by current callers, so Prune only removes
// entries it can additionally observe are both idle and uncontended.
type Registry struct {
	mu      sync.Mutex
	entries map[uint64]*Context
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[uint64]*Context)}
}

// GetOrCreate returns the lease for row, creating one on first reference.
// Insertion is race-free: concurrent callers for the same row hash always
// observe the same *Context.
func (r *Registry) GetOrCreate(row []byte) *Context {
	h := xxhash.Sum64(row)

	r.mu.Lock()
	defer r.mu.Unlock()
	if ctx, ok := r.entries[h]; ok {
		return ctx
	}
	ctx := &Context{Row: append([]byte(nil), row...)}
	r.entries[h] = ctx
	return ctx
}

// Len reports the number of distinct row hashes currently leased.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Prune removes leases whose lastAccess is older than idleSince and whose
// inner lock is currently uncontended (a successful non-blocking TryLock).
// Nothing in this core calls Prune; it is provided for an external
// background collaborator, per §4.E and §9.
func (r *Registry) Prune(idleSince time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for h, ctx := range r.entries {
		if time.Unix(0, ctx.lastAccess.Load()).After(idleSince) {
			continue
		}
		if !ctx.mu.TryLock() {
			continue
		}
		ctx.mu.Unlock()
		delete(r.entries, h)
		removed++
	}
	return removed
}
