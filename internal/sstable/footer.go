// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/stapislaw/wide-db/internal/base"
)

// footerLen is the fixed size of the trailing footer: index offset, index
// size, min write_num, and max write_num, each a big-endian uint64. §6
// requires a stable, self-describing footer of fixed size occupying the
// last N bytes of the file; we fix N here rather than length-prefixing it,
// since the reader always knows the footer's size up front.
const footerLen = 8 * 4

// footer is the decoded form of the segment's trailing footer.
type footer struct {
	indexOffset uint64
	indexSize   uint64
	minWriteNum uint64
	maxWriteNum uint64
}

func (f footer) encode() []byte {
	buf := make([]byte, footerLen)
	binary.BigEndian.PutUint64(buf[0:8], f.indexOffset)
	binary.BigEndian.PutUint64(buf[8:16], f.indexSize)
	binary.BigEndian.PutUint64(buf[16:24], f.minWriteNum)
	binary.BigEndian.PutUint64(buf[24:32], f.maxWriteNum)
	return buf
}

func decodeFooter(buf []byte) (footer, error) {
	if len(buf) != footerLen {
		return footer{}, errors.Newf("widedb/sstable: corrupt footer: want %d bytes, got %d", footerLen, len(buf))
	}
	return footer{
		indexOffset: binary.BigEndian.Uint64(buf[0:8]),
		indexSize:   binary.BigEndian.Uint64(buf[8:16]),
		minWriteNum: binary.BigEndian.Uint64(buf[16:24]),
		maxWriteNum: binary.BigEndian.Uint64(buf[24:32]),
	}, nil
}

// indexEntry pairs a data block's first cell with its location, the unit
// stored in the segment's index block per §6.
type indexEntry struct {
	firstKey base.Cell
	handle   BlockHandle
}

func encodeIndex(entries []indexEntry) []byte {
	var buf []byte
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], uint64(len(entries)))
	buf = append(buf, tmp[:n]...)
	for _, e := range entries {
		buf = encodeCell(buf, e.firstKey)
		var hbuf [2 * binary.MaxVarintLen64]byte
		hn := encodeBlockHandle(hbuf[:], e.handle)
		buf = append(buf, hbuf[:hn]...)
	}
	return buf
}

func decodeIndex(buf []byte) ([]indexEntry, error) {
	count, n := binary.Uvarint(buf)
	if n <= 0 {
		return nil, errors.New("widedb/sstable: corrupt index: bad entry count")
	}
	pos := n
	entries := make([]indexEntry, 0, count)
	for i := uint64(0); i < count; i++ {
		cell, cn, err := decodeCell(buf[pos:])
		if err != nil {
			return nil, errors.Wrap(err, "widedb/sstable: corrupt index entry key")
		}
		pos += cn
		handle, hn := decodeBlockHandle(buf[pos:])
		if hn == 0 {
			return nil, errors.New("widedb/sstable: corrupt index entry handle")
		}
		pos += hn
		entries = append(entries, indexEntry{firstKey: cell, handle: handle})
	}
	return entries, nil
}
