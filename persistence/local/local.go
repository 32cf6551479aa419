// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package local implements persistence.Layer against ordinary files on a
// local directory tree: dir/table/family/segment, one file per segment.
package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/stapislaw/wide-db/internal/base"
)

// Layer is a persistence.Layer rooted at a local directory.
type Layer struct {
	dir string
}

// New returns a Layer rooted at dir. The directory must already exist;
// creating it is outside the core's responsibility (§6 leaves durability
// policy to the collaborator).
func New(dir string) *Layer {
	return &Layer{dir: dir}
}

func (l *Layer) path(table, family, segment []byte) string {
	return filepath.Join(l.dir, string(table), string(family), string(segment))
}

// LoadBlock implements persistence.Layer.
func (l *Layer) LoadBlock(_ context.Context, table, family, segment []byte, offset, length uint64) ([]byte, error) {
	f, err := os.Open(l.path(table, family, segment))
	if err != nil {
		return nil, base.WrapPersistenceError(err, "widedb/persistence/local: open segment")
	}
	defer f.Close()

	buf := make([]byte, length)
	if _, err := f.ReadAt(buf, int64(offset)); err != nil && err != io.EOF {
		return nil, base.WrapPersistenceError(err, "widedb/persistence/local: read segment")
	}
	return buf, nil
}

// SegmentSize implements persistence.Layer.
func (l *Layer) SegmentSize(_ context.Context, table, family, segment []byte) (uint64, error) {
	fi, err := os.Stat(l.path(table, family, segment))
	if err != nil {
		return 0, base.WrapPersistenceError(err, "widedb/persistence/local: stat segment")
	}
	return uint64(fi.Size()), nil
}

// SegmentNames implements persistence.Layer by listing dir/table/family.
func (l *Layer) SegmentNames(_ context.Context, table, family []byte) ([][]byte, error) {
	dir := filepath.Join(l.dir, string(table), string(family))
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, base.WrapPersistenceError(err, "widedb/persistence/local: list segments")
	}

	names := make([][]byte, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, []byte(e.Name()))
	}
	sort.Slice(names, func(i, j int) bool { return string(names[i]) < string(names[j]) })
	return names, nil
}

// WriteSegment writes data atomically to dir/table/family/segment, creating
// parent directories as needed. This is the write-side counterpart the
// flush/compaction collaborator (outside this package's scope) would call
// after an sstable.Writer has produced a finished segment's bytes.
func WriteSegment(dir string, table, family, segment, data []byte) error {
	segDir := filepath.Join(dir, string(table), string(family))
	if err := os.MkdirAll(segDir, 0o755); err != nil {
		return base.WrapPersistenceError(err, "widedb/persistence/local: mkdir")
	}

	tmp, err := os.CreateTemp(segDir, string(segment)+".tmp*")
	if err != nil {
		return base.WrapPersistenceError(err, "widedb/persistence/local: create temp segment")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return base.WrapPersistenceError(err, "widedb/persistence/local: write temp segment")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return base.WrapPersistenceError(err, "widedb/persistence/local: sync temp segment")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return base.WrapPersistenceError(err, "widedb/persistence/local: close temp segment")
	}
	if err := os.Rename(tmp.Name(), filepath.Join(segDir, string(segment))); err != nil {
		return base.WrapPersistenceError(err, "widedb/persistence/local: rename temp segment")
	}
	return nil
}
