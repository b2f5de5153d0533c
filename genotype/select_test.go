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
	"strconv"
	"testing"

	"github.com/exascience/elgeno/sam"
)

func TestSelectReadsBasic(t *testing.T) {
	o := DefaultOptions()
	genome := makeGenome(2000, 50)
	v := makeVariant("chr1", 500, string(genome[500]), string(genome[500])+"TG")

	reads := []*sam.Alignment{
		referenceRead("a", genome, 300, 700),
		referenceRead("b", genome, 350, 700),
	}
	candidates, alignInfos := selectReads(reads, v, 100, o)
	if len(candidates) != 2 || len(alignInfos) != 2 {
		t.Errorf("selected %v candidates, want 2", len(candidates))
	}
	for i, vai := range alignInfos {
		if len(vai.alignS) != 2 {
			t.Errorf("alignS of candidate %v has %v entries, want nAlts+1", i, len(vai.alignS))
		}
		if !vai.alignsLeft || !vai.alignsRight {
			t.Errorf("candidate %v not spanning", i)
		}
	}
}

func TestSelectReadsFilters(t *testing.T) {
	o := DefaultOptions()
	genome := makeGenome(2000, 51)
	v := makeVariant("chr1", 500, string(genome[500]), string(genome[500])+"TG")

	short := referenceRead("short", genome, 100, 300) // ends before the window
	poor := referenceRead("poor", genome, 300, 700)
	poor.MAPQ = 10
	dup := referenceRead("dup", genome, 300, 700)
	dup.FLAG |= sam.Duplicate
	qcfail := referenceRead("qcfail", genome, 300, 700)
	qcfail.FLAG |= sam.QCFailed
	hard := makeRead("hard", 300, "10H400M", genome[300:700])
	good := referenceRead("good", genome, 310, 700)

	candidates, _ := selectReads([]*sam.Alignment{short, poor, dup, qcfail, hard, good}, v, 100, o)
	if len(candidates) != 1 || candidates[0].QNAME != "good" {
		t.Errorf("candidates = %v, want only the clean read", len(candidates))
	}
}

func TestSelectReadsSoftClipRemoval(t *testing.T) {
	o := DefaultOptions()
	o.MaxSoftClipped = 10
	genome := makeGenome(2000, 52)
	v := makeVariant("chr1", 500, string(genome[500]), string(genome[500])+"TG")

	// leading soft clip beyond the tolerance drops the read in
	// left-breakpoint mode
	seq := append(makeGenome(50, 95), genome[300:700]...)
	clipped := makeRead("clipped", 300, "50S400M", seq)
	kept := referenceRead("kept", genome, 300, 700)

	candidates, _ := selectReads([]*sam.Alignment{clipped, kept}, v, 100, o)
	if len(candidates) != 1 || candidates[0].QNAME != "kept" {
		t.Error("soft-clipped read not removed in left-breakpoint mode")
	}
}

func TestSelectReadsDeduplication(t *testing.T) {
	o := DefaultOptions()
	genome := makeGenome(2000, 53)
	v := makeVariant("chr1", 500, string(genome[500]), string(genome[500])+"TGTGTGTG")

	first := referenceRead("same", genome, 300, 700)
	other := referenceRead("other", genome, 305, 700)
	second := insertionRead("same", genome, 310, 500, "TGTGTGTG", 700)

	candidates, alignInfos := selectReads([]*sam.Alignment{first, other, second}, v, 100, o)
	if len(candidates) != 2 {
		t.Errorf("selected %v candidates, want 2 after deduplication", len(candidates))
	}
	if candidates[0] != second {
		t.Error("the later record with the duplicated name must win in place")
	}
	if alignInfos[0].nI != 8 {
		t.Errorf("align info of the replaced slot nI = %v, want the later record's evidence", alignInfos[0].nI)
	}
}

func TestSelectReadsMaxBARCount(t *testing.T) {
	o := DefaultOptions()
	o.MaxBARCount = 3
	genome := makeGenome(2000, 54)
	v := makeVariant("chr1", 500, string(genome[500]), string(genome[500])+"TG")

	var reads []*sam.Alignment
	for i := 0; i < 10; i++ {
		reads = append(reads, referenceRead("r"+strconv.Itoa(i), genome, 300+i, 700))
	}
	candidates, _ := selectReads(reads, v, 100, o)
	if len(candidates) != 3 {
		t.Errorf("selected %v candidates, want the cap of 3", len(candidates))
	}
}

func TestSelectReadsStopsAtWindow(t *testing.T) {
	o := DefaultOptions()
	genome := makeGenome(2000, 55)
	v := makeVariant("chr1", 500, string(genome[500]), string(genome[500])+"TG")

	inWindow := referenceRead("in", genome, 350, 700)
	tooLate := referenceRead("late", genome, 450, 900) // begins past the window start

	candidates, _ := selectReads([]*sam.Alignment{inWindow, tooLate}, v, 100, o)
	if len(candidates) != 1 || candidates[0].QNAME != "in" {
		t.Error("iteration must stop at the first read beginning past the selection bound")
	}
}
