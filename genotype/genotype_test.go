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

package genotype

import (
	"math/rand"
	"strconv"

	"github.com/exascience/elgeno/sam"
	"github.com/exascience/elgeno/vcf"
)

// stubReference serves interval reads from in-memory contigs.
type stubReference map[string][]byte

func (r stubReference) HasContig(contig string) bool {
	_, ok := r[contig]
	return ok
}

func (r stubReference) ReadRegion(contig string, beg, end int) []byte {
	seq, ok := r[contig]
	if !ok {
		return nil
	}
	if beg < 0 {
		beg = 0
	}
	if end > len(seq) {
		end = len(seq)
	}
	if beg >= end {
		return nil
	}
	return append([]byte(nil), seq[beg:end]...)
}

// makeGenome produces a deterministic pseudo-random contig.
func makeGenome(length int, seed int64) []byte {
	bases := []byte("ACGT")
	rng := rand.New(rand.NewSource(seed))
	genome := make([]byte, length)
	for i := range genome {
		genome[i] = bases[rng.Intn(4)]
	}
	return genome
}

// cigarOps parses a CIGAR string like "100M8I92M" into operations.
func cigarOps(cigar string) (ops []sam.CigarOperation) {
	start := 0
	for i := 0; i < len(cigar); i++ {
		if c := cigar[i]; c < '0' || c > '9' {
			length, err := strconv.Atoi(cigar[start:i])
			if err != nil {
				panic(err)
			}
			ops = append(ops, sam.CigarOperation{Length: int32(length), Operation: c})
			start = i + 1
		}
	}
	return ops
}

func makeRead(qname string, pos int, cigar string, seq []byte) *sam.Alignment {
	return &sam.Alignment{
		QNAME: qname,
		POS:   int32(pos),
		MAPQ:  60,
		CIGAR: cigarOps(cigar),
		SEQ:   string(seq),
	}
}

func makeVariant(chrom string, pos int, ref string, alt ...string) *vcf.Variant {
	return &vcf.Variant{
		Chrom: chrom,
		Pos:   int32(pos),
		Ref:   ref,
		Alt:   alt,
	}
}

// insertionRead builds a read carrying the given insertion directly
// after reference position pos.
func insertionRead(qname string, genome []byte, readBeg, pos int, insert string, readEnd int) *sam.Alignment {
	seq := append([]byte(nil), genome[readBeg:pos+1]...)
	seq = append(seq, insert...)
	seq = append(seq, genome[pos+1:readEnd]...)
	cigar := strconv.Itoa(pos+1-readBeg) + "M" + strconv.Itoa(len(insert)) + "I" + strconv.Itoa(readEnd-pos-1) + "M"
	return makeRead(qname, readBeg, cigar, seq)
}

// deletionRead builds a read with the reference bases [delBeg, delEnd)
// deleted.
func deletionRead(qname string, genome []byte, readBeg, delBeg, delEnd, readEnd int) *sam.Alignment {
	seq := append([]byte(nil), genome[readBeg:delBeg]...)
	seq = append(seq, genome[delEnd:readEnd]...)
	cigar := strconv.Itoa(delBeg-readBeg) + "M" + strconv.Itoa(delEnd-delBeg) + "D" + strconv.Itoa(readEnd-delEnd) + "M"
	return makeRead(qname, readBeg, cigar, seq)
}

// referenceRead builds a read cleanly matching the reference.
func referenceRead(qname string, genome []byte, readBeg, readEnd int) *sam.Alignment {
	return makeRead(qname, readBeg, strconv.Itoa(readEnd-readBeg)+"M", genome[readBeg:readEnd])
}
