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

	"github.com/exascience/elgeno/sam"
	"github.com/exascience/elgeno/vcf"
)

// cropSeq extracts the substring of the read expected to overlap the
// variant window, by walking the CIGAR to translate the window anchor
// from reference coordinates into read coordinates.
func cropSeq(r *sam.Alignment, v *vcf.Variant, wSizeActual int, o *Options) string {
	cigar := r.CIGAR
	alignPos := int(r.POS)
	readPos := 0
	lReadPos := 0
	cigarI := 0
	var cigarOperation byte
	if len(cigar) > 0 {
		cigarOperation = cigar[0].Operation
	}

	// The anchor is the left edge of the window (right edge for
	// right-breakpoint genotyping).
	searchPos := int(v.Pos) - wSizeActual
	if o.GenotypeRightBreakpoint {
		searchPos = int(v.Pos) + len(v.Ref) + wSizeActual
	}
	if searchPos < 0 {
		searchPos = 0
	}

	for alignPos < searchPos && cigarI < len(cigar) {
		lReadPos = readPos
		cigarOperation = cigar[cigarI].Operation

		switch cigarOperation {
		case 'D':
			alignPos += int(cigar[cigarI].Length)
		case '=', 'X', 'M':
			alignPos += int(cigar[cigarI].Length)
			readPos += int(cigar[cigarI].Length)
		case 'S', 'I':
			readPos += int(cigar[cigarI].Length)
		case 'H': // this is untested
		default:
			log.Printf("WARNING: unknown CIGAR operation %c in read %v", cigarOperation, r.QNAME)
		}

		if o.Verbose {
			log.Printf("%v readpos %v %v %v %v %v %v %c", r.QNAME, alignPos, v.Pos, searchPos, cigarI, readPos, cigar[cigarI].Length, cigarOperation)
		}
		cigarI++
	}
	if alignPos < searchPos && o.Verbose {
		log.Printf("read clipped %v %v %v %v %v", alignPos, v.Pos, searchPos, cigarI, len(cigar))
	}

	if cigarOperation == 'S' || cigarOperation == 'H' {
		readPos = lReadPos
	}

	var rBeg, rEnd int
	if o.GenotypeRightBreakpoint {
		if alignPos >= searchPos-2*wSizeActual {
			rShift := searchPos - alignPos
			rBeg = readPos - 2*wSizeActual + rShift
			rEnd = readPos + rShift
		} else {
			rBeg = readPos
			rEnd = readPos + wSizeActual
			if o.Verbose {
				log.Printf("insensible case for read %v %v %v %v %v %v", r.QNAME, alignPos, v.Pos, searchPos, cigarI, len(cigar))
			}
		}
	} else {
		rShift := alignPos - searchPos
		rBeg = readPos - rShift
		rEnd = readPos + 2*wSizeActual - rShift
		if rShift < 0 && o.Verbose {
			log.Printf("poorly formatted read, case not accounted for %v %v %v %v %v %v", r.QNAME, alignPos, v.Pos, searchPos, cigarI, len(cigar))
		}
	}
	if o.Verbose {
		log.Printf("cropped read %v %v %v %v %v %v %v %v", r.QNAME, alignPos, v.Pos, searchPos, cigarI, len(cigar), rBeg, rEnd)
	}
	if rBeg < 0 {
		rBeg = 0
	}
	if rEnd < 2*wSizeActual {
		rEnd = 2 * wSizeActual
	}
	if rEnd > len(r.SEQ) {
		rEnd = len(r.SEQ)
	}
	if rEnd == rBeg {
		rBeg--
	}
	if rBeg < 0 {
		rBeg = 0
	}
	if rBeg > rEnd {
		rBeg = rEnd
	}
	return r.SEQ[rBeg:rEnd]
}
