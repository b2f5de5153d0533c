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
	"log"

	"github.com/exascience/elgeno/vcf"
)

// A Reference provides random interval reads into the reference
// genome. Intervals are zero-based half-open and clamped to the
// contig bounds by the implementation.
type Reference interface {
	HasContig(contig string) bool
	ReadRegion(contig string, beg, end int) []byte
}

// alleleWindows builds the reference window sequence and one
// candidate sequence per alternate allele for a variant. Window index
// 0 is the reference allele, 1..nAlts the alternates.
//
// In the default left-breakpoint regime the windows are anchored at
// the begin position of the variant; with GenotypeRightBreakpoint
// they are anchored at the position right of the reference allele.
func alleleWindows(ref Reference, v *vcf.Variant, wSizeActual int, o *Options) (refSeq []byte, altSeqs [][]byte) {
	beginPos := int(v.Pos)
	refLen := len(v.Ref)

	if o.GenotypeRightBreakpoint {
		refSeq = ref.ReadRegion(v.Chrom, beginPos-wSizeActual+refLen, beginPos+refLen+wSizeActual)
	} else {
		refSeq = ref.ReadRegion(v.Chrom, beginPos-wSizeActual, beginPos+wSizeActual)
	}

	if o.Verbose {
		log.Printf("refSeq %s %v %v", refSeq, v.Chrom, beginPos)
	}

	altSeqs = make([][]byte, len(v.Alt))
	for i, alt := range v.Alt {
		altLen := len(alt)
		var seq []byte
		if !o.GenotypeRightBreakpoint {
			seq = append(seq, ref.ReadRegion(v.Chrom, beginPos-wSizeActual, beginPos)...)
			if altLen < wSizeActual {
				seq = append(seq, alt...)
				seq = append(seq, ref.ReadRegion(v.Chrom, beginPos+refLen, beginPos+refLen+wSizeActual-altLen)...)
			} else {
				seq = append(seq, alt[:wSizeActual]...)
			}
		} else {
			if altLen < wSizeActual {
				seq = append(seq, ref.ReadRegion(v.Chrom, beginPos-wSizeActual+altLen, beginPos)...)
				seq = append(seq, alt...)
			} else {
				seq = append(seq, alt[altLen-wSizeActual:]...)
			}
			seq = append(seq, ref.ReadRegion(v.Chrom, beginPos+refLen, beginPos+refLen+wSizeActual)...)
		}
		altSeqs[i] = seq
	}

	return refSeq, altSeqs
}

// maskRuns collapses adjacent equal bases, keeping the first base of
// each run.
func maskRuns(in []byte) []byte {
	if len(in) == 0 {
		return in
	}
	ret := make([]byte, 0, len(in))
	ret = append(ret, in[0])
	for i := 1; i < len(in); i++ {
		if in[i] != in[i-1] {
			ret = append(ret, in[i])
		}
	}
	return ret
}
