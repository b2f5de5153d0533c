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

import "testing"

func TestCropLeftBreakpoint(t *testing.T) {
	o := DefaultOptions()
	genome := makeGenome(1000, 20)
	w := 10

	v := makeVariant("chr1", 300, string(genome[300]), string(genome[300])+"TT")
	r := referenceRead("plain", genome, 200, 400)
	cropped := cropSeq(r, v, w, o)
	if cropped != string(genome[290:310]) {
		t.Errorf("crop = %v, want the 2w bases around the window anchor", cropped)
	}
}

func TestCropLeadingSoftClip(t *testing.T) {
	o := DefaultOptions()
	genome := makeGenome(1000, 21)
	w := 10

	// a leading soft clip consumes read bases but no reference bases
	v := makeVariant("chr1", 300, string(genome[300]), string(genome[300])+"TT")
	seq := append(makeGenome(30, 97), genome[200:400]...)
	r := makeRead("clipped", 200, "30S200M", seq)
	cropped := cropSeq(r, v, w, o)
	if cropped != string(genome[290:310]) {
		t.Errorf("crop = %v, want window unaffected by the leading clip", cropped)
	}
}

func TestCropInsertionRead(t *testing.T) {
	o := DefaultOptions()
	genome := makeGenome(1000, 22)
	w := 10

	// the crop keeps the inserted bases inside the window
	v := makeVariant("chr1", 300, string(genome[300]), string(genome[300])+"TGTGTG")
	r := insertionRead("ins", genome, 200, 300, "TGTGTG", 400)
	cropped := cropSeq(r, v, w, o)
	want := string(genome[290:301]) + "TGTGTG" + string(genome[301:304])
	if cropped != want {
		t.Errorf("crop = %v, want %v", cropped, want)
	}
}

func TestCropRightBreakpoint(t *testing.T) {
	o := DefaultOptions()
	o.GenotypeRightBreakpoint = true
	genome := makeGenome(1000, 23)
	w := 10

	v := makeVariant("chr1", 300, string(genome[300:305]), string(genome[300]))
	r := referenceRead("plain", genome, 200, 400)
	// anchor is pos + len(ref) + w = 315
	cropped := cropSeq(r, v, w, o)
	if cropped != string(genome[295:315]) {
		t.Errorf("crop = %v, want the 2w bases left of the right anchor", cropped)
	}
}

func TestCropShortReadFallback(t *testing.T) {
	o := DefaultOptions()
	genome := makeGenome(1000, 24)
	w := 10

	// the whole read lies left of the window anchor: the clamps
	// collapse the interval and the fallback widens it by one base
	v := makeVariant("chr1", 310, string(genome[310]), string(genome[310])+"TT")
	r := referenceRead("short", genome, 200, 300)
	cropped := cropSeq(r, v, w, o)
	if cropped != string(genome[299:300]) {
		t.Errorf("crop = %v, want the one-base fallback", cropped)
	}
}

func TestCropClampAtWindowStart(t *testing.T) {
	o := DefaultOptions()
	genome := makeGenome(1000, 25)
	w := 50

	// the read begins after the window anchor; the crop start clamps
	// to the read start and the end is widened back to 2w
	v := makeVariant("chr1", 60, string(genome[60]), string(genome[60])+"TT")
	r := referenceRead("late", genome, 20, 300)
	cropped := cropSeq(r, v, w, o)
	if cropped != string(genome[20:120]) {
		t.Errorf("crop = %v, want clamp to the read start", cropped)
	}
}
