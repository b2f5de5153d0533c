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
	"bufio"
	"log"
	"sort"

	"github.com/willf/bitset"

	"github.com/exascience/elgeno/internal"
	"github.com/exascience/elgeno/utils/bgzf"
)

// baiMagic is the magic string for the BAI format. See
// http://samtools.github.io/hts-specs/SAMv1.pdf - Section 5.2.
const baiMagic = "BAI\x01"

const (
	// The bin that carries per-reference metadata pseudo-chunks.
	metadataBin = 37450

	// Number of bins in the 5-level binning scheme.
	binCount = ((1 << 18) - 1) / 7 // 37449

	// Width of a linear index window.
	linearWindowSize = 1 << 14

	// The maximum reference length the binning scheme can address.
	maximumReferenceLength = 1 << 29
)

type baiBin struct {
	id     uint32
	chunks []bgzf.Chunk
}

type baiReference struct {
	bins      []baiBin
	intervals []bgzf.Address
}

// A BaiIndex is the parsed contents of a .bai index file.
type BaiIndex struct {
	references []baiReference
}

// ParseBai parses a .bai index file. See
// http://samtools.github.io/hts-specs/SAMv1.pdf - Section 5.2.
func ParseBai(filename string) *BaiIndex {
	f := internal.FileOpen(filename)
	defer internal.Close(f)
	reader := bufio.NewReader(f)

	magic := make([]byte, 4)
	internal.ReadFull(reader, magic)
	if string(magic) != baiMagic {
		log.Panicf("invalid BAI file %v - bad magic byte sequence", filename)
	}

	var nRef int32
	internal.BinaryRead(reader, &nRef)
	bai := &BaiIndex{references: make([]baiReference, nRef)}
	for i := int32(0); i < nRef; i++ {
		ref := &bai.references[i]
		var nBin int32
		internal.BinaryRead(reader, &nBin)
		for j := int32(0); j < nBin; j++ {
			var bin struct {
				ID     uint32
				Chunks int32
			}
			internal.BinaryRead(reader, &bin)
			chunks := make([]bgzf.Chunk, bin.Chunks)
			internal.BinaryRead(reader, chunks)
			if bin.ID == metadataBin {
				continue
			}
			ref.bins = append(ref.bins, baiBin{id: bin.ID, chunks: chunks})
		}
		var nIntv int32
		internal.BinaryRead(reader, &nIntv)
		ref.intervals = make([]bgzf.Address, nIntv)
		internal.BinaryRead(reader, ref.intervals)
	}
	return bai
}

// binsForRange computes the set of bins that may contain reads
// overlapping the zero-based half-open interval [beg, end). Derived
// from the C examples in the BAM index specification.
func binsForRange(beg, end int32) *bitset.BitSet {
	bins := bitset.New(binCount)
	if beg < 0 {
		beg = 0
	}
	if end > maximumReferenceLength {
		end = maximumReferenceLength
	}
	if beg >= end {
		return bins
	}
	end--
	bins.Set(0)
	for k := uint(1 + (beg >> 26)); k <= uint(1+(end>>26)); k++ {
		bins.Set(k)
	}
	for k := uint(9 + (beg >> 23)); k <= uint(9+(end>>23)); k++ {
		bins.Set(k)
	}
	for k := uint(73 + (beg >> 20)); k <= uint(73+(end>>20)); k++ {
		bins.Set(k)
	}
	for k := uint(585 + (beg >> 17)); k <= uint(585+(end>>17)); k++ {
		bins.Set(k)
	}
	for k := uint(4681 + (beg >> 14)); k <= uint(4681+(end>>14)); k++ {
		bins.Set(k)
	}
	return bins
}

// Query returns the merged chunks of the BGZF file that may contain
// alignments overlapping [beg, end) on the given reference, filtered
// against the linear index.
func (bai *BaiIndex) Query(refID, beg, end int32) []bgzf.Chunk {
	if refID < 0 || int(refID) >= len(bai.references) {
		return nil
	}
	ref := &bai.references[refID]
	bins := binsForRange(beg, end)

	var minOffset bgzf.Address
	if index := int(beg / linearWindowSize); index >= 0 && index < len(ref.intervals) {
		minOffset = ref.intervals[index]
	}

	var chunks []bgzf.Chunk
	for _, bin := range ref.bins {
		if !bins.Test(uint(bin.id)) {
			continue
		}
		for _, chunk := range bin.chunks {
			if chunk.End <= minOffset {
				continue
			}
			chunks = append(chunks, chunk)
		}
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Start < chunks[j].Start })
	return bgzf.Merge(chunks)
}
