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

// selectReads filters the position-sorted reads near a variant down
// to a unique set of candidates and collects per-read CIGAR evidence.
// Reads that do not stretch to the window, map poorly, are
// duplicates, failed QC, are hard clipped, or carry an excessive
// breakpoint-side soft clip are dropped. Multiple alignments of the
// same read are collapsed: the last record with a given query name
// overwrites the earlier slot in place.
func selectReads(reads []*sam.Alignment, v *vcf.Variant, wSizeActual int, o *Options) (candidates []*sam.Alignment, alignInfos []*varAlignInfo) {
	beg := int(v.Pos) - wSizeActual
	end := int(v.Pos) + wSizeActual

	if o.GenotypeRightBreakpoint {
		beg += len(v.Ref)
		end += len(v.Ref)
	}

	nAlts := len(v.Alt)
	vai := newVarAlignInfo(nAlts + 1)

	stopReading := beg
	if o.GenotypeRightBreakpoint {
		stopReading = end
	}

	nameCache := make(map[string]int)

	for _, record := range reads {
		if len(candidates) >= o.MaxBARCount || int(record.POS) > stopReading {
			return candidates, alignInfos
		}

		// Ignore the read if it does not stretch to the region we
		// are interested in.
		if int(record.POS)+len(record.SEQ) < beg ||
			int(record.POS)+int(sam.ReferenceLengthFromCigar(record.CIGAR)) < beg ||
			record.MAPQ < o.MinMapQ {
			continue
		}

		examineAlignment(record, v, vai, o)

		if o.Verbose {
			log.Printf("read record %v", record.QNAME)
		}

		if int(record.POS) >= end {
			break
		}

		softClipRemove := false
		if !o.GenotypeRightBreakpoint {
			if op := record.CIGAR[0]; op.Operation == 'S' && int(op.Length) > o.MaxSoftClipped {
				softClipRemove = true
				if o.Verbose {
					log.Printf("soft clip removed left breakpoint %v %v %v", record.QNAME, op.Length, o.MaxSoftClipped)
				}
			}
		} else {
			if op := record.CIGAR[len(record.CIGAR)-1]; op.Operation == 'S' && int(op.Length) > o.MaxSoftClipped {
				softClipRemove = true
				if o.Verbose {
					log.Printf("soft clip removed right breakpoint %v %v %v", record.QNAME, op.Length, o.MaxSoftClipped)
				}
			}
		}

		hardClipped := false
		if record.CIGAR[0].Operation == 'H' || record.CIGAR[len(record.CIGAR)-1].Operation == 'H' {
			hardClipped = true
			if o.Verbose {
				log.Printf("read %v is hardclipped at %v", record.QNAME, record.POS)
			}
		}

		if !softClipRemove && !record.IsDuplicate() && !record.IsQCFailed() && !hardClipped {
			// prevent multiple alignments of the same read from
			// being used
			if index, ok := nameCache[record.QNAME]; ok { // replace existing
				candidates[index] = record
				alignInfos[index] = vai.clone()
			} else {
				nameCache[record.QNAME] = len(candidates)
				candidates = append(candidates, record)
				alignInfos = append(alignInfos, vai.clone())
			}
		}
	}

	return candidates, alignInfos
}
