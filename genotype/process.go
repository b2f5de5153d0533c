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
	"math"

	"github.com/exascience/elgeno/sam"
	"github.com/exascience/elgeno/vcf"
)

// processReads computes the per-allele alignment scores for every
// candidate read of a variant: it builds the allele windows, crops
// each read to the variant window, and aligns the cropped read
// against every window with the banded kernel.
func processReads(ref Reference, v *vcf.Variant, candidates []*sam.Alignment, alignInfos []*varAlignInfo, wSizeActual int, o *Options) {
	refSeq, altSeqs := alleleWindows(ref, v, wSizeActual, o)

	if o.OutputRefAlt {
		log.Printf("%v %v %v %s %s", v.Chrom, v.Pos+1, v.Info, refSeq, altSeqs)
		return
	}

	if o.Mask {
		refSeq = maskRuns(refSeq)
	}

	bandFac := math.Min(o.BandedAlignmentPercent, 100) / 100

	// The set of allele windows is the same for all reads.
	subjects := make([][]byte, len(altSeqs)+1)
	subjects[0] = refSeq
	copy(subjects[1:], altSeqs)

	vBand := int(math.Round(float64(len(refSeq)) * bandFac))

	for i, record := range candidates {
		vai := alignInfos[i]
		var seqToAlign []byte
		if o.CropRead {
			seqToAlign = []byte(cropSeq(record, v, wSizeActual, o))
		} else {
			seqToAlign = []byte(record.SEQ)
		}

		hBand := int(math.Round(float64(len(seqToAlign)) * bandFac))

		scores := localAlignmentScores(seqToAlign, subjects, vBand, hBand, o)
		for j := range vai.alignS {
			vai.alignS[j] = float64(scores[j])
		}
	}
}
