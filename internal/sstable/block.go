// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package sstable implements the §4.B SSTable view: an immutable,
// disk-resident sorted run of cells with an eagerly-loaded block index and
// lazily-fetched data blocks, grounded on the teacher's BlockHandle/footer
// convention (github.com/cockroachdb/pebble's sstable package) and the
// pack's LevelDB-family sstable readers.
package sstable

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"github.com/stapislaw/wide-db/internal/base"
)

// Compression selects the codec applied to a data block's payload before it
// is written to the segment file.
type Compression uint8

const (
	// CompressionNone stores the block's encoded cells verbatim.
	CompressionNone Compression = iota
	// CompressionSnappy applies github.com/golang/snappy, a real dependency
	// of the teacher module.
	CompressionSnappy
	// CompressionZstd applies github.com/klauspost/compress/zstd, wired in
	// from the rest of the retrieved pack as an alternate, higher-ratio
	// codec selectable alongside snappy.
	CompressionZstd
)

// castagnoliTable is the CRC32C polynomial table pebble's own internal/crc
// package wraps; we cannot import that internal package from outside the
// pebble module, so hash/crc32 with the same polynomial is the direct
// stdlib equivalent (see DESIGN.md).
var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// BlockHandle locates a data block within a segment file.
type BlockHandle struct {
	Offset uint64
	Length uint64
}

func encodeBlockHandle(dst []byte, h BlockHandle) int {
	n := binary.PutUvarint(dst, h.Offset)
	m := binary.PutUvarint(dst[n:], h.Length)
	return n + m
}

func decodeBlockHandle(src []byte) (BlockHandle, int) {
	offset, n := binary.Uvarint(src)
	length, m := binary.Uvarint(src[n:])
	if n == 0 || m == 0 {
		return BlockHandle{}, 0
	}
	return BlockHandle{Offset: offset, Length: length}, n + m
}

// blockTrailerLen is the fixed size of the trailer appended after every
// compressed block payload: one compression-kind byte plus a CRC32C of the
// payload that precedes it.
const blockTrailerLen = 1 + 4

func encodeCell(dst []byte, c base.Cell) []byte {
	var tmp [binary.MaxVarintLen64]byte
	putBytes := func(b []byte) {
		n := binary.PutUvarint(tmp[:], uint64(len(b)))
		dst = append(dst, tmp[:n]...)
		dst = append(dst, b...)
	}
	putBytes(c.Row)
	putBytes(c.Family)
	putBytes(c.Qualifier)
	putBytes(c.Value)
	var fixed [17]byte
	binary.BigEndian.PutUint64(fixed[0:8], c.Timestamp)
	binary.BigEndian.PutUint64(fixed[8:16], c.WriteNum)
	fixed[16] = byte(c.Type)
	dst = append(dst, fixed[:]...)
	return dst
}

func decodeCell(src []byte) (base.Cell, int, error) {
	var c base.Cell
	pos := 0
	readBytes := func() ([]byte, error) {
		l, n := binary.Uvarint(src[pos:])
		if n <= 0 {
			return nil, errors.New("widedb/sstable: truncated cell length")
		}
		pos += n
		if pos+int(l) > len(src) {
			return nil, errors.New("widedb/sstable: truncated cell payload")
		}
		b := src[pos : pos+int(l)]
		pos += int(l)
		return b, nil
	}
	var err error
	if c.Row, err = readBytes(); err != nil {
		return c, 0, err
	}
	if c.Family, err = readBytes(); err != nil {
		return c, 0, err
	}
	if c.Qualifier, err = readBytes(); err != nil {
		return c, 0, err
	}
	if c.Value, err = readBytes(); err != nil {
		return c, 0, err
	}
	if pos+17 > len(src) {
		return c, 0, errors.New("widedb/sstable: truncated cell trailer")
	}
	c.Timestamp = binary.BigEndian.Uint64(src[pos : pos+8])
	c.WriteNum = binary.BigEndian.Uint64(src[pos+8 : pos+16])
	c.Type = base.CellType(src[pos+16])
	pos += 17
	return c, pos, nil
}

// encodeBlock serializes cells (already in §3 order) and applies the
// requested compression, returning a self-describing block: payload +
// 1-byte compression kind + 4-byte CRC32C of the payload.
func encodeBlock(cells []base.Cell, compression Compression) ([]byte, error) {
	var raw []byte
	for _, c := range cells {
		raw = encodeCell(raw, c)
	}

	var payload []byte
	switch compression {
	case CompressionNone:
		payload = raw
	case CompressionSnappy:
		payload = snappy.Encode(nil, raw)
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, errors.Wrap(err, "widedb/sstable: zstd encoder")
		}
		payload = enc.EncodeAll(raw, nil)
		_ = enc.Close()
	default:
		return nil, errors.Newf("widedb/sstable: unknown compression kind %d", compression)
	}

	out := make([]byte, 0, len(payload)+blockTrailerLen)
	out = append(out, payload...)
	out = append(out, byte(compression))
	var crcBuf [4]byte
	binary.BigEndian.PutUint32(crcBuf[:], crc32.Checksum(payload, castagnoliTable))
	out = append(out, crcBuf[:]...)
	return out, nil
}

// decodeBlock validates the trailer checksum, decompresses, and decodes
// every cell in the block, in order.
func decodeBlock(data []byte) ([]base.Cell, error) {
	if len(data) < blockTrailerLen {
		return nil, errors.New("widedb/sstable: block shorter than its trailer")
	}
	payload := data[:len(data)-blockTrailerLen]
	compression := Compression(data[len(data)-blockTrailerLen])
	wantCRC := binary.BigEndian.Uint32(data[len(data)-4:])
	if gotCRC := crc32.Checksum(payload, castagnoliTable); gotCRC != wantCRC {
		return nil, errors.Newf("widedb/sstable: block checksum mismatch: got %x want %x", gotCRC, wantCRC)
	}

	var raw []byte
	var err error
	switch compression {
	case CompressionNone:
		raw = payload
	case CompressionSnappy:
		raw, err = snappy.Decode(nil, payload)
		if err != nil {
			return nil, errors.Wrap(err, "widedb/sstable: snappy decode")
		}
	case CompressionZstd:
		dec, derr := zstd.NewReader(nil)
		if derr != nil {
			return nil, errors.Wrap(derr, "widedb/sstable: zstd decoder")
		}
		raw, err = dec.DecodeAll(payload, nil)
		dec.Close()
		if err != nil {
			return nil, errors.Wrap(err, "widedb/sstable: zstd decode")
		}
	default:
		return nil, errors.Newf("widedb/sstable: unknown compression kind %d", compression)
	}

	var cells []base.Cell
	for pos := 0; pos < len(raw); {
		c, n, err := decodeCell(raw[pos:])
		if err != nil {
			return nil, err
		}
		cells = append(cells, c)
		pos += n
	}
	return cells, nil
}
