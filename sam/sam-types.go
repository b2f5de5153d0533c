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
	"sort"

	psort "github.com/exascience/pargo/sort"
)

// A CigarOperation is one entry in the CIGAR of an alignment.
type CigarOperation struct {
	Length    int32
	Operation byte
}

// An Alignment is one read alignment record from a BAM file, reduced
// to the fields the genotyper consumes. POS is the zero-based begin
// position on the reference; SEQ is over the 5-letter DNA alphabet
// A, C, G, T, N.
type Alignment struct {
	QNAME string
	FLAG  uint16
	RefID int32
	POS   int32
	MAPQ  byte
	CIGAR []CigarOperation
	SEQ   string
}

// Alignment record flags, as in the SAM specification.
const (
	Multiple      = 0x1
	Proper        = 0x2
	Unmapped      = 0x4
	NextUnmapped  = 0x8
	Reversed      = 0x10
	NextReversed  = 0x20
	First         = 0x40
	Last          = 0x80
	Secondary     = 0x100
	QCFailed      = 0x200
	Duplicate     = 0x400
	Supplementary = 0x800
)

func (aln *Alignment) IsUnmapped() bool      { return (aln.FLAG & Unmapped) != 0 }
func (aln *Alignment) IsSecondary() bool     { return (aln.FLAG & Secondary) != 0 }
func (aln *Alignment) IsQCFailed() bool      { return (aln.FLAG & QCFailed) != 0 }
func (aln *Alignment) IsDuplicate() bool     { return (aln.FLAG & Duplicate) != 0 }
func (aln *Alignment) IsSupplementary() bool { return (aln.FLAG & Supplementary) != 0 }

// PositionLess orders alignments by begin position on the reference.
func PositionLess(aln1, aln2 *Alignment) bool {
	return aln1.POS < aln2.POS
}

type (
	By func(aln1, aln2 *Alignment) bool

	AlignmentSorter struct {
		alns []*Alignment
		by   By
	}
)

func (s AlignmentSorter) SequentialSort(i, j int) {
	alns, by := s.alns[i:j], s.by
	sort.SliceStable(alns, func(i, j int) bool {
		return by(alns[i], alns[j])
	})
}

func (s AlignmentSorter) NewTemp() psort.StableSorter {
	return AlignmentSorter{make([]*Alignment, len(s.alns)), s.by}
}

func (s AlignmentSorter) Len() int {
	return len(s.alns)
}

func (s AlignmentSorter) Less(i, j int) bool {
	return s.by(s.alns[i], s.alns[j])
}

func (s AlignmentSorter) Assign(p psort.StableSorter) func(i, j, len int) {
	dst, src := s.alns, p.(AlignmentSorter).alns
	return func(i, j, len int) {
		for k := 0; k < len; k++ {
			dst[i+k] = src[j+k]
		}
	}
}

// ParallelStableSort sorts alignments by the given ordering.
func (by By) ParallelStableSort(alns []*Alignment) {
	psort.StableSort(AlignmentSorter{alns, by})
}
