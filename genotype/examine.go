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
	"strconv"
	"strings"

	"github.com/exascience/elgeno/sam"
	"github.com/exascience/elgeno/vcf"
)

// examineRegion computes the reference interval over which the
// examiner counts indel evidence: the variant padded by VarWindow on
// both sides, expanded by any TRRBEGIN/TRREND/REGBEGIN/REGEND hints
// in the variant info. A "." value means the hint is absent.
func examineRegion(v *vcf.Variant, o *Options) (regionBeg, regionEnd int) {
	regionBeg = int(v.Pos) - o.VarWindow
	regionEnd = int(v.Pos) + len(v.Ref) + o.VarWindow

	for _, entry := range strings.Split(v.Info, ";") {
		key, value, found := strings.Cut(entry, "=")
		if !found || value == "." {
			continue
		}
		switch key {
		case "TRRBEGIN", "REGBEGIN":
			if cVal, err := strconv.Atoi(value); err == nil && cVal-o.VarWindow < regionBeg {
				regionBeg = cVal - o.VarWindow
			}
		case "TRREND", "REGEND":
			if cVal, err := strconv.Atoi(value); err == nil && cVal+o.VarWindow > regionEnd {
				regionEnd = cVal + o.VarWindow
			}
		}
	}
	return regionBeg, regionEnd
}

// examineAlignment walks the CIGAR of a read for evidence of
// supporting a variant and writes the evidence into vai: summed
// insertion/deletion lengths of at least MinDelIns inside the region,
// whether the read aligns strictly left and strictly right of the
// region, and whether its breakpoint-side terminal clip exceeds
// MaxSoftClipped.
func examineAlignment(r *sam.Alignment, v *vcf.Variant, vai *varAlignInfo, o *Options) {
	vai.reset()
	vai.qname = r.QNAME

	cigar := r.CIGAR
	alignPos := int(r.POS)
	regionBeg, regionEnd := examineRegion(v, o)
	if o.Verbose {
		log.Printf("examine region %v %v", regionBeg, regionEnd)
	}

	if alignPos < regionBeg {
		vai.alignsLeft = true
	}

	// Find the first position that overlaps the region we are
	// interested in.
	cigarI := 0
	var cigarOperation byte
	if len(cigar) > 0 {
		cigarOperation = cigar[0].Operation
	}
	for alignPos < regionBeg && cigarI < len(cigar) {
		cigarOperation = cigar[cigarI].Operation
		if cigarOperation == 'M' || cigarOperation == '=' || cigarOperation == 'D' || cigarOperation == 'X' {
			alignPos += int(cigar[cigarI].Length)
		}
		cigarI++
	}

	// A deletion that reaches into the region contributes its
	// overshoot.
	if alignPos > regionBeg && cigarOperation == 'D' && alignPos-regionBeg >= o.MinDelIns {
		vai.nD = alignPos - regionBeg
	}

	for alignPos < regionEnd && cigarI < len(cigar) {
		op := cigar[cigarI]
		switch op.Operation {
		case 'D':
			if int(op.Length) >= o.MinDelIns {
				vai.nD += int(op.Length)
			}
			alignPos += int(op.Length)
		case '=', 'X', 'M':
			alignPos += int(op.Length)
		case 'I':
			if int(op.Length) >= o.MinDelIns {
				vai.nI += int(op.Length)
			}
		case 'S':
			if int(op.Length) > o.MaxSoftClipped {
				if !o.GenotypeRightBreakpoint {
					if cigarI == len(cigar)-1 {
						vai.softClipped = true
					}
				} else {
					if cigarI == 0 {
						vai.softClipped = true
					}
				}
			}
		case 'H': // this is untested
		default:
			log.Printf("WARNING: unknown CIGAR operation %c in read %v", op.Operation, r.QNAME)
		}
		if o.Verbose {
			log.Printf("%v %c %v %v %v %v %v", r.QNAME, op.Operation, op.Length, alignPos, cigarI, vai.nD, vai.nI)
		}
		cigarI++
	}
	if alignPos > regionEnd {
		vai.alignsRight = true
	}

	if o.Verbose {
		log.Printf("examined %v %v %v %v", r.QNAME, vai.nD, vai.nI, vai.softClipped)
	}
}
