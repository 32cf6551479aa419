// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package persistence declares the PersistenceLayer boundary the engine
// core consumes (§6): it reads opened segments and fetches data blocks by
// byte range, and is otherwise uninvolved in durability or compaction
// policy, which remain external collaborator responsibilities.
package persistence

import "context"

// Layer is the external collaborator the core requires "at least" a
// load_block method from (§6). We additionally require SegmentSize, since
// the footer's fixed size must be located relative to the end of the file
// and the core has no other way to learn a segment's length; this is an
// addendum to the minimal contract, not a violation of it.
type Layer interface {
	// LoadBlock returns the length bytes at offset within the named segment.
	// I/O errors surface here and are wrapped as PersistenceError by callers.
	LoadBlock(ctx context.Context, table, family, segment []byte, offset, length uint64) ([]byte, error)

	// SegmentSize returns the total byte length of the named segment, used
	// to locate the trailing footer.
	SegmentSize(ctx context.Context, table, family, segment []byte) (uint64, error)

	// SegmentNames lists every segment currently persisted for (table,
	// family), in no particular order. The table coordinator does not call
	// it; callers such as cmd/wdb use it to find the segments they then open
	// with table.Table.OpenSegment.
	SegmentNames(ctx context.Context, table, family []byte) ([][]byte, error)
}
