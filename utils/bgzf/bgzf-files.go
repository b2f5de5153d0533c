// elGeno: a high-performance tool for genotyping structural variants
// in long-read alignments.
// Copyright (c) 2020-2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elgeno/blob/master/LICENSE.txt>.

package bgzf

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"io"
	"log"
)

// An Address is a virtual file offset into a BGZF file: the upper 48
// bits are the file offset of the start of a compressed block, the
// lower 16 bits the offset into the uncompressed contents of that
// block. See http://samtools.github.io/hts-specs/SAMv1.pdf - Section 4.1.
type Address uint64

// LastAddress is the largest possible virtual file offset.
const LastAddress = Address(1<<64 - 1)

// NewAddress composes a virtual file offset.
func NewAddress(blockOffset int64, dataOffset uint16) Address {
	return Address(blockOffset)<<16 | Address(dataOffset)
}

// BlockOffset returns the file offset of the compressed block.
func (a Address) BlockOffset() int64 {
	return int64(a >> 16)
}

// DataOffset returns the offset into the uncompressed block contents.
func (a Address) DataOffset() uint16 {
	return uint16(a)
}

// A Chunk is a half-open interval of virtual file offsets.
type Chunk struct {
	Start, End Address
}

// Merge coalesces chunks whose compressed blocks are adjacent or
// overlapping, assuming the input is sorted by Start. This reduces
// the number of distinct scans over a BGZF file.
func Merge(chunks []Chunk) (merged []Chunk) {
	for _, chunk := range chunks {
		if n := len(merged); n > 0 && chunk.Start.BlockOffset() <= merged[n-1].End.BlockOffset() {
			if chunk.End > merged[n-1].End {
				merged[n-1].End = chunk.End
			}
		} else {
			merged = append(merged, chunk)
		}
	}
	return merged
}

// maxBlockSize defines the maximum block size for BGZF files.
const maxBlockSize = 0x10000

const (
	gzipID1 = 0x1f
	gzipID2 = 0x8b
)

// IsGzip determines if the given byte scanner produces a gzip file.
// It uses ReadByte and UnreadByte to check only the initial byte from
// the input.
func IsGzip(scanner io.ByteScanner) (bool, error) {
	b, err := scanner.ReadByte()
	if err != nil {
		return false, err
	}
	if err := scanner.UnreadByte(); err != nil {
		return false, err
	}
	return b == gzipID1, nil
}

// DecodeBlockAt inflates the BGZF block that starts at the given file
// offset in the given reader. It returns the uncompressed contents
// and the file offset of the next block. A nil result with next ==
// offset signals the BGZF EOF marker.
func DecodeBlockAt(reader io.ReaderAt, offset int64) (data []byte, next int64) {
	var header [12]byte
	if n, err := reader.ReadAt(header[:], offset); err != nil {
		if err == io.EOF && n == 0 {
			return nil, offset
		}
		log.Panic(err)
	}
	if header[0] != gzipID1 || header[1] != gzipID2 {
		log.Panicf("invalid BGZF block magic at offset %v", offset)
	}
	xlen := int64(binary.LittleEndian.Uint16(header[10:12]))
	extra := make([]byte, xlen)
	if _, err := reader.ReadAt(extra, offset+12); err != nil {
		log.Panic(err)
	}
	bsize := -1
	for i, slen := 0, 0; i < len(extra); i += 4 + slen {
		slen = int(binary.LittleEndian.Uint16(extra[i+2 : i+4]))
		if extra[i] == 66 && extra[i+1] == 67 && slen == 2 {
			bsize = int(binary.LittleEndian.Uint16(extra[i+4:i+6])) + 1
		}
	}
	if bsize < 0 {
		log.Panicf("missing BC subfield in BGZF block at offset %v", offset)
	}
	cdata := make([]byte, int64(bsize)-12-xlen-8)
	if _, err := reader.ReadAt(cdata, offset+12+xlen); err != nil {
		log.Panic(err)
	}
	var tail [8]byte
	if _, err := reader.ReadAt(tail[:], offset+int64(bsize)-8); err != nil {
		log.Panic(err)
	}
	isize := binary.LittleEndian.Uint32(tail[4:8])
	if isize == 0 {
		// proper EOF marker block
		return nil, offset
	}
	if isize > maxBlockSize {
		log.Panicf("invalid BGZF block size %v at offset %v", isize, offset)
	}
	data = make([]byte, 0, isize)
	buffer := bytes.NewBuffer(data)
	inflater := flate.NewReader(bytes.NewReader(cdata))
	if _, err := io.Copy(buffer, inflater); err != nil {
		log.Panic(fmt.Errorf("%v, while inflating BGZF block at offset %v", err, offset))
	}
	if err := inflater.Close(); err != nil {
		log.Panic(err)
	}
	return buffer.Bytes(), offset + int64(bsize)
}

// A Scanner sequentially decodes the uncompressed byte stream of a
// BGZF file starting at a virtual file offset.
type Scanner struct {
	reader io.ReaderAt
	block  []byte
	offset int64 // file offset of the current block
	next   int64 // file offset of the next block
	index  int   // read position in the current block
}

// NewScanner creates a Scanner positioned at the given virtual file
// offset.
func NewScanner(reader io.ReaderAt, address Address) *Scanner {
	sc := &Scanner{reader: reader}
	sc.block, sc.next = DecodeBlockAt(reader, address.BlockOffset())
	sc.offset = address.BlockOffset()
	sc.index = int(address.DataOffset())
	return sc
}

// Address returns the virtual file offset of the next byte to be read.
func (sc *Scanner) Address() Address {
	return NewAddress(sc.offset, uint16(sc.index))
}

func (sc *Scanner) advance() bool {
	for sc.index >= len(sc.block) {
		if sc.next == sc.offset {
			return false
		}
		block, next := DecodeBlockAt(sc.reader, sc.next)
		sc.offset, sc.block, sc.index = sc.next, block, 0
		if next == sc.offset {
			sc.next = sc.offset
			if block == nil {
				return false
			}
		} else {
			sc.next = next
		}
	}
	return true
}

// Read implements io.Reader over the uncompressed stream. It returns
// io.EOF at the BGZF EOF marker or the physical end of the file.
func (sc *Scanner) Read(p []byte) (n int, err error) {
	for n < len(p) {
		if !sc.advance() {
			if n == 0 {
				return 0, io.EOF
			}
			return n, nil
		}
		c := copy(p[n:], sc.block[sc.index:])
		sc.index += c
		n += c
	}
	return n, nil
}
