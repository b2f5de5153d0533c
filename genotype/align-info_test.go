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

func TestAlignmentPreference(t *testing.T) {
	o := DefaultOptions()
	vai := newVarAlignInfo(2)
	prefs := make([]float64, 2)

	// reference scores higher: alt is 5 bits less likely
	vai.alignS[0] = 200
	vai.alignS[1] = 150
	if best := vai.alignmentPreference(100, o, prefs); best != 0 {
		t.Errorf("best = %v, want 0", best)
	}
	if prefs[0] != 0 || prefs[1] != 5 {
		t.Errorf("prefs = %v, want [0 5]", prefs)
	}

	// a missing alt score falls back to the minimum alignment score
	vai.reset()
	vai.alignS[0] = 200
	prefs = make([]float64, 2)
	if best := vai.alignmentPreference(100, o, prefs); best != 0 {
		t.Errorf("best = %v, want 0", best)
	}
	// d = (200 - floor(1.2*100)) / 10 = 8
	if prefs[1] != 8 {
		t.Errorf("prefs[1] = %v, want 8", prefs[1])
	}

	// the preference is capped at maxAlignBits
	vai.reset()
	vai.alignS[0] = 400
	vai.alignS[1] = 121
	prefs = make([]float64, 2)
	vai.alignmentPreference(100, o, prefs)
	if prefs[1] != o.MaxAlignBits {
		t.Errorf("prefs[1] = %v, want the cap %v", prefs[1], o.MaxAlignBits)
	}
}

func TestAlignmentPreferenceNoBest(t *testing.T) {
	o := DefaultOptions()
	vai := newVarAlignInfo(2)
	prefs := make([]float64, 2)

	// nothing aligned
	if best := vai.alignmentPreference(100, o, prefs); best != noBest {
		t.Errorf("best = %v, want noBest", best)
	}
	if prefs[0] != 0 || prefs[1] != 0 {
		t.Errorf("prefs = %v, want untouched", prefs)
	}

	// best score below the minimum alignment score
	vai.alignS[0] = 100
	vai.alignS[1] = 90
	if best := vai.alignmentPreference(100, o, prefs); best != noBest {
		t.Errorf("best = %v, want noBest for weak alignments", best)
	}
}

func TestVaPreference(t *testing.T) {
	o := DefaultOptions()
	vai := newVarAlignInfo(2)
	prefs := make([]float64, 2)

	// 8bp insertion matches the 8bp longer alt best
	vai.alignsLeft = true
	vai.alignsRight = true
	vai.nI = 8
	if best := vai.vaPreference(1, []int{9}, o, prefs); best != 1 {
		t.Errorf("best = %v, want 1", best)
	}
	if prefs[0] != o.OverlapBits || prefs[1] != 0 {
		t.Errorf("prefs = %v, want [%v 0]", prefs, o.OverlapBits)
	}

	// a clean read matches the reference best
	vai.reset()
	vai.alignsLeft = true
	vai.alignsRight = true
	prefs = make([]float64, 2)
	if best := vai.vaPreference(1, []int{9}, o, prefs); best != 0 {
		t.Errorf("best = %v, want 0", best)
	}
	if prefs[0] != 0 || prefs[1] != o.OverlapBits {
		t.Errorf("prefs = %v, want [0 %v]", prefs, o.OverlapBits)
	}
}

func TestVaPreferenceSoftClipped(t *testing.T) {
	o := DefaultOptions()
	vai := newVarAlignInfo(3)
	prefs := make([]float64, 3)

	// a soft-clipped read only disfavors the reference; all other
	// alleles stay untouched
	vai.softClipped = true
	if best := vai.vaPreference(1, []int{5, 10}, o, prefs); best != noBest {
		t.Errorf("best = %v, want noBest", best)
	}
	if prefs[0] != o.OverlapBits || prefs[1] != 0 || prefs[2] != 0 {
		t.Errorf("prefs = %v, want only the reference disfavored", prefs)
	}
}

func TestVaPreferenceNotSpanning(t *testing.T) {
	o := DefaultOptions()
	vai := newVarAlignInfo(2)
	prefs := make([]float64, 2)

	vai.alignsLeft = true // alignsRight false
	vai.nI = 8
	if best := vai.vaPreference(1, []int{9}, o, prefs); best != noBest {
		t.Errorf("best = %v, want noBest for a non-spanning read", best)
	}
	if prefs[0] != 0 || prefs[1] != 0 {
		t.Errorf("prefs = %v, want untouched", prefs)
	}
}

func TestVaPreferenceTwoAlts(t *testing.T) {
	o := DefaultOptions()
	vai := newVarAlignInfo(3)
	prefs := make([]float64, 3)

	// a 10bp insertion picks the closer of the 5bp and 10bp alts
	vai.alignsLeft = true
	vai.alignsRight = true
	vai.nI = 10
	if best := vai.vaPreference(1, []int{6, 11}, o, prefs); best != 2 {
		t.Errorf("best = %v, want 2", best)
	}
	if prefs[0] != o.OverlapBits || prefs[1] != o.OverlapBits || prefs[2] != 0 {
		t.Errorf("prefs = %v", prefs)
	}
}

func TestLegacyPreference(t *testing.T) {
	o := DefaultOptions()
	vai := newVarAlignInfo(2)
	prefs := make([]float64, 2)

	// insertion evidence inside the support band
	vai.alignsLeft = true
	vai.alignsRight = true
	vai.nI = 8
	if best := vai.legacyPreference(1, []int{9}, o, prefs); best != 1 {
		t.Errorf("best = %v, want 1", best)
	}
	if prefs[1] != -o.OverlapBits {
		t.Errorf("prefs[1] = %v, want %v", prefs[1], -o.OverlapBits)
	}

	// no indel evidence at all: the alt is rejected and allele 0
	// wins by default
	vai.reset()
	vai.alignsLeft = true
	vai.alignsRight = true
	prefs = make([]float64, 2)
	if best := vai.legacyPreference(1, []int{9}, o, prefs); best != 0 {
		t.Errorf("best = %v, want 0", best)
	}
	if prefs[1] != o.OverlapBits {
		t.Errorf("prefs[1] = %v, want %v", prefs[1], o.OverlapBits)
	}
}

func TestPresencePreference(t *testing.T) {
	o := DefaultOptions()
	vai := newVarAlignInfo(3)
	prefs := make([]float64, 3)

	vai.nI = o.MinPresent
	vai.presencePreference(o, prefs)
	if prefs[0] != o.OverlapBits || prefs[1] != 0 || prefs[2] != o.OverlapBits {
		t.Errorf("prefs = %v", prefs)
	}

	vai.reset()
	prefs = make([]float64, 3)
	vai.presencePreference(o, prefs)
	if prefs[0] != 0 || prefs[1] != o.OverlapBits || prefs[2] != o.OverlapBits {
		t.Errorf("prefs = %v", prefs)
	}
}

func TestSupportsRejects(t *testing.T) {
	o := DefaultOptions()
	vai := newVarAlignInfo(2)

	// 8bp insertion for a 9bp alt: inside [0.5, 2.0] of the alt
	// length
	vai.alignsLeft = true
	vai.alignsRight = true
	vai.nI = 8
	if !vai.supports(1, 9, o) {
		t.Error("supporting read not recognized")
	}
	if vai.rejects(1, 9, o) {
		t.Error("supporting read rejected")
	}

	// a clean spanning read rejects
	vai.reset()
	vai.alignsLeft = true
	vai.alignsRight = true
	if vai.supports(1, 9, o) {
		t.Error("clean read supports")
	}
	if !vai.rejects(1, 9, o) {
		t.Error("clean read not rejected")
	}

	// a soft-clipped read supports but never rejects
	vai.softClipped = true
	if !vai.supports(1, 9, o) {
		t.Error("soft-clipped read not supporting")
	}
	if vai.rejects(1, 9, o) {
		t.Error("soft-clipped read rejected")
	}

	// deletion branch: nD compared against the reference length
	vai.reset()
	vai.alignsLeft = true
	vai.alignsRight = true
	vai.nD = 60
	if !vai.supports(80, 1, o) {
		t.Error("deletion-supporting read not recognized")
	}
}
