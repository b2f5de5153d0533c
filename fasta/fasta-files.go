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

package fasta

import (
	"bufio"
	"bytes"
	"log"
	"os"

	"github.com/exascience/elgeno/internal"

	"golang.org/x/sys/unix"
)

// FaiReference represents an entry in an FAI file.
type FaiReference struct {
	Length    int64
	Offset    int64
	LineBases int64
	LineWidth int64
}

// ParseFai parses an FAI file.
func ParseFai(filename string) (fai map[string]FaiReference, order []string) {
	f := internal.FileOpen(filename)
	defer internal.Close(f)

	fai = make(map[string]FaiReference)

	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		b := bytes.Split(scanner.Bytes(), []byte("\t"))
		if len(b) != 5 {
			log.Panicf("badly formatted fai file %v - invalid number of entries", filename)
		}

		fai[string(b[0])] = FaiReference{
			Length:    internal.ParseInt(string(b[1]), 10, 64),
			Offset:    internal.ParseInt(string(b[2]), 10, 64),
			LineBases: internal.ParseInt(string(b[3]), 10, 64),
			LineWidth: internal.ParseInt(string(b[4]), 10, 64),
		}
		order = append(order, string(b[0]))
	}

	if err := scanner.Err(); err != nil {
		log.Panic(err)
	}

	return fai, order
}

var iupacUpperTable = map[byte]byte{
	'A': 'A', 'a': 'A',
	'C': 'C', 'c': 'C',
	'G': 'G', 'g': 'G',
	'T': 'T', 't': 'T',
	'N': 'N', 'n': 'N',
	'R': 'N', 'r': 'N',
	'Y': 'N', 'y': 'N',
	'M': 'N', 'm': 'N',
	'K': 'N', 'k': 'N',
	'W': 'N', 'w': 'N',
	'S': 'N', 's': 'N',
	'B': 'N', 'b': 'N',
	'D': 'N', 'd': 'N',
	'H': 'N', 'h': 'N',
	'V': 'N', 'v': 'N',
}

// ToUpperAndN normalizes ambiguity codes over the 5-letter DNA
// alphabet, and converts all codes to upper case.
func ToUpperAndN(base byte) byte {
	if n, ok := iupacUpperTable[base]; ok {
		return n
	}
	return base
}

// An Index provides random interval reads into an indexed FASTA file.
// The file contents are memory mapped; interval reads translate
// sequence positions into file offsets using the FAI line geometry.
//
// An Index is read-only after opening and can be shared by multiple
// goroutines.
type Index struct {
	fai   map[string]FaiReference
	order []string
	data  []byte
	file  *os.File
}

// Open opens an indexed FASTA file. The FAI index is expected next to
// the file with an additional .fai extension.
func Open(filename string) *Index {
	fai, order := ParseFai(filename + ".fai")
	file := internal.FileOpen(filename)
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		log.Panic(err)
	}
	data, err := unix.Mmap(int(file.Fd()), 0, int(stat.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		_ = file.Close()
		log.Panic(err)
	}
	return &Index{fai: fai, order: order, data: data, file: file}
}

// Close unmaps and closes the FASTA file.
func (idx *Index) Close() {
	err := unix.Munmap(idx.data)
	idx.data = nil
	if nerr := idx.file.Close(); err == nil {
		err = nerr
	}
	idx.file = nil
	if err != nil {
		log.Panic(err)
	}
}

// HasContig tells whether the FAI index has an entry for the given
// contig name.
func (idx *Index) HasContig(contig string) bool {
	_, ok := idx.fai[contig]
	return ok
}

// Contigs returns the contig names in index order.
func (idx *Index) Contigs() []string {
	return idx.order
}

// ContigLength returns the sequence length for the given contig, or
// -1 if the contig is not in the index.
func (idx *Index) ContigLength(contig string) int {
	ref, ok := idx.fai[contig]
	if !ok {
		return -1
	}
	return int(ref.Length)
}

// ReadRegion reads the bases of the zero-based half-open interval
// [beg, end) of the given contig. The interval is clamped to the
// contig bounds; bases are upper-cased with ambiguity codes
// normalized to N. Returns nil for a contig missing from the index.
func (idx *Index) ReadRegion(contig string, beg, end int) []byte {
	ref, ok := idx.fai[contig]
	if !ok {
		return nil
	}
	if beg < 0 {
		beg = 0
	}
	if end > int(ref.Length) {
		end = int(ref.Length)
	}
	if beg >= end {
		return nil
	}
	seq := make([]byte, 0, end-beg)
	for pos := int64(beg); pos < int64(end); {
		line := pos / ref.LineBases
		col := pos % ref.LineBases
		n := ref.LineBases - col
		if left := int64(end) - pos; left < n {
			n = left
		}
		offset := ref.Offset + line*ref.LineWidth + col
		for _, b := range idx.data[offset : offset+n] {
			seq = append(seq, ToUpperAndN(b))
		}
		pos += n
	}
	return seq
}
