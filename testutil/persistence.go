// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package testutil provides an in-memory PersistenceLayer and a segment
// builder used across the engine's test suites, so each package's tests
// don't each reinvent a fake collaborator.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stapislaw/wide-db/internal/base"
	"github.com/stapislaw/wide-db/internal/sstable"
)

// MemoryLayer is a persistence.Layer backed entirely by an in-memory map,
// for use in tests that don't want to touch a filesystem.
type MemoryLayer struct {
	mu       sync.RWMutex
	segments map[string][]byte
	families map[string]map[string][][]byte // table/family -> segment name
}

// NewMemoryLayer returns an empty MemoryLayer.
func NewMemoryLayer() *MemoryLayer {
	return &MemoryLayer{
		segments: make(map[string][]byte),
		families: make(map[string]map[string][][]byte),
	}
}

func segKey(table, family, segment []byte) string {
	return string(table) + "\x00" + string(family) + "\x00" + string(segment)
}

func famKey(table, family []byte) string {
	return string(table) + "\x00" + string(family)
}

// Put registers a segment's raw bytes under (table, family, segment).
func (m *MemoryLayer) Put(table, family, segment, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.segments[segKey(table, family, segment)] = data
	fk := famKey(table, family)
	if m.families[fk] == nil {
		m.families[fk] = make(map[string][][]byte)
	}
	m.families[fk][string(segment)] = [][]byte{append([]byte(nil), segment...)}
}

// LoadBlock implements persistence.Layer.
func (m *MemoryLayer) LoadBlock(_ context.Context, table, family, segment []byte, offset, length uint64) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data := m.segments[segKey(table, family, segment)]
	return data[offset : offset+length], nil
}

// SegmentSize implements persistence.Layer.
func (m *MemoryLayer) SegmentSize(_ context.Context, table, family, segment []byte) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.segments[segKey(table, family, segment)])), nil
}

// SegmentNames implements persistence.Layer.
func (m *MemoryLayer) SegmentNames(_ context.Context, table, family []byte) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out [][]byte
	for _, entries := range m.families[famKey(table, family)] {
		out = append(out, entries[0])
	}
	return out, nil
}

// BuildSegment writes cells (which must already be in §3 order) through an
// sstable.Writer, registers the result with a fresh MemoryLayer, and opens
// it, returning a ready-to-scan *sstable.Segment.
func BuildSegment(t *testing.T, ctx context.Context, table, family, segment []byte, cells []base.Cell) *sstable.Segment {
	t.Helper()
	w := sstable.NewWriter(sstable.DefaultWriterOptions())
	for _, c := range cells {
		require.NoError(t, w.Add(c))
	}
	data, err := w.Finish()
	require.NoError(t, err)

	layer := NewMemoryLayer()
	layer.Put(table, family, segment, data)

	seg, err := sstable.Open(ctx, layer, table, family, segment)
	require.NoError(t, err)
	return seg
}
