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

package sam

import (
	"encoding/binary"
	"io"
	"log"
	"os"

	"github.com/exascience/elgeno/internal"
	"github.com/exascience/elgeno/utils"
	"github.com/exascience/elgeno/utils/bgzf"
)

// BAMReference is an entry in the BAM-encoded sequence dictionary.
// See http://samtools.github.io/hts-specs/SAMv1.pdf - Section 4.2.
type BAMReference struct {
	Name   string
	Length int32
}

// bamMagic is the magic string for the BAM format. See
// http://samtools.github.io/hts-specs/SAMv1.pdf - Section 4.2.
const bamMagic = "BAM\x01"

func parseBamHeaderReferences(reader io.Reader) (references []BAMReference) {
	var nRef int32
	internal.BinaryRead(reader, &nRef)
	var text []byte
	for i := int32(0); i < nRef; i++ {
		var lName int32
		internal.BinaryRead(reader, &lName)
		for cap(text) < int(lName) {
			text = append(text[:cap(text)], 0)
		}
		text = text[:int(lName)]
		internal.ReadFull(reader, text)
		var lRef int32
		internal.BinaryRead(reader, &lRef)
		references = append(references, BAMReference{
			Name:   *utils.Intern(string(text[:len(text)-1])),
			Length: lRef,
		})
	}
	return references
}

// skipBamHeaderText skips the plain-text header section of a BAM file
// and returns the BAM-encoded sequence dictionary.
func skipBamHeaderText(reader io.Reader) []BAMReference {
	text := make([]byte, 4)
	internal.ReadFull(reader, text)
	if string(text) != bamMagic {
		log.Panic("invalid BAM file header")
	}
	var lText int32
	internal.BinaryRead(reader, &lText)
	if _, err := io.CopyN(io.Discard, reader, int64(lText)); err != nil {
		log.Panic(err)
	}
	return parseBamHeaderReferences(reader)
}

var cigarOps = []byte("MIDNSHP=X")

// seqNT16 maps the 4-bit BAM base encoding onto the 5-letter
// alphabet A, C, G, T, N; '=' and the ambiguity codes become N.
const seqNT16 = "NACNGNNNTNNNNNNN"

const (
	refIDIndex     = 0
	posIndex       = 4
	lReadNameIndex = posIndex + 4
	mapqIndex      = lReadNameIndex + 1
	binIndex       = mapqIndex + 1
	nCigarOpIndex  = binIndex + 2
	flagIndex      = nCigarOpIndex + 2
	lSeqIndex      = flagIndex + 2
	nextRefIDIndex = lSeqIndex + 4
	nextPosIndex   = nextRefIDIndex + 4
	tlenIndex      = nextPosIndex + 4
	readNameIndex  = tlenIndex + 4
)

// parseBamAlignment parses a read alignment record in a BAM file into
// a freshly allocated alignment. Optional fields are not retained;
// the genotyper does not consume them. See
// http://samtools.github.io/hts-specs/SAMv1.pdf - Section 4.2.
func parseBamAlignment(record []byte) *Alignment {
	aln := new(Alignment)

	aln.RefID = int32(binary.LittleEndian.Uint32(record[refIDIndex : refIDIndex+4]))
	aln.POS = int32(binary.LittleEndian.Uint32(record[posIndex : posIndex+4]))

	lReadName := int(record[lReadNameIndex])

	aln.MAPQ = record[mapqIndex]

	nCigarOp := binary.LittleEndian.Uint16(record[nCigarOpIndex : nCigarOpIndex+2])

	aln.FLAG = binary.LittleEndian.Uint16(record[flagIndex : flagIndex+2])

	lSeq := int(int32(binary.LittleEndian.Uint32(record[lSeqIndex : lSeqIndex+4])))

	aln.QNAME = string(record[readNameIndex : readNameIndex+lReadName-1])

	index := readNameIndex + lReadName

	aln.CIGAR = make([]CigarOperation, nCigarOp)

	for i := uint16(0); i < nCigarOp; i, index = i+1, index+4 {
		cigar := binary.LittleEndian.Uint32(record[index : index+4])
		aln.CIGAR[i] = CigarOperation{
			Length:    int32(cigar >> 4),
			Operation: cigarOps[int(0xF&cigar)],
		}
	}

	seq := make([]byte, lSeq)
	for i := 0; i < lSeq; i++ {
		b := record[index+(i>>1)]
		if i&1 == 0 {
			b >>= 4
		}
		seq[i] = seqNT16[b&0xF]
	}
	aln.SEQ = string(seq)

	return aln
}

// An IndexedBamFile provides random region reads into a
// coordinate-sorted BAM file with a .bai neighbor index.
//
// The file handle is only used through ReadAt, so a single
// IndexedBamFile can be shared by concurrent chunk workers.
type IndexedBamFile struct {
	file       *os.File
	index      *BaiIndex
	references []BAMReference
	refIDs     map[string]int32
}

// OpenIndexed opens a BAM file and its .bai index. Missing or
// unreadable inputs panic; callers treat this as fatal.
func OpenIndexed(filename string) *IndexedBamFile {
	file := internal.FileOpen(filename)
	references := skipBamHeaderText(bgzf.NewScanner(file, 0))
	refIDs := make(map[string]int32, len(references))
	for i, ref := range references {
		refIDs[ref.Name] = int32(i)
	}
	return &IndexedBamFile{
		file:       file,
		index:      ParseBai(filename + ".bai"),
		references: references,
		refIDs:     refIDs,
	}
}

// Close closes the BAM file.
func (f *IndexedBamFile) Close() {
	internal.Close(f.file)
}

// RefID maps a contig name to its BAM reference id.
func (f *IndexedBamFile) RefID(contig string) (int32, bool) {
	id, ok := f.refIDs[contig]
	return id, ok
}

// ViewRecords reads all alignment records overlapping the zero-based
// half-open interval [beg, end) on the given reference, in file
// order. Unmapped, secondary, and supplementary records are not
// reported.
func (f *IndexedBamFile) ViewRecords(refID, beg, end int32) (alns []*Alignment) {
	for _, chunk := range f.index.Query(refID, beg, end) {
		scanner := bgzf.NewScanner(f.file, chunk.Start)
		var blockSize int32
		record := make([]byte, 0, 0x10000)
		for scanner.Address() < chunk.End {
			if err := binary.Read(scanner, binary.LittleEndian, &blockSize); err != nil {
				if err == io.EOF {
					break
				}
				log.Panic(err)
			}
			for cap(record) < int(blockSize) {
				record = append(record[:cap(record)], 0)
			}
			record = record[:int(blockSize)]
			internal.ReadFull(scanner, record)
			pos := int32(binary.LittleEndian.Uint32(record[posIndex : posIndex+4]))
			if rid := int32(binary.LittleEndian.Uint32(record[refIDIndex : refIDIndex+4])); rid != refID {
				if rid > refID {
					break
				}
				continue
			}
			if pos >= end {
				break
			}
			aln := parseBamAlignment(record)
			if aln.IsUnmapped() || aln.IsSecondary() || aln.IsSupplementary() {
				continue
			}
			if aln.End() <= beg {
				continue
			}
			alns = append(alns, aln)
		}
	}
	return alns
}
