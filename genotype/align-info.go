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

	"gonum.org/v1/gonum/floats"
)

const (
	// noAlignment marks an allele score that was not computed or was
	// rejected.
	noAlignment = -10000

	// noBest reports that a scorer found no best-supported allele.
	noBest = -1
)

// A varAlignInfo stores how one read aligns across one variant.
type varAlignInfo struct {
	qname       string
	nD          int       // summed deletion lengths inside the variant region
	nI          int       // summed insertion lengths inside the variant region
	alignS      []float64 // alignment score per allele, index 0 = reference
	softClipped bool
	alignsLeft  bool
	alignsRight bool
}

func newVarAlignInfo(nAlleles int) *varAlignInfo {
	vai := &varAlignInfo{alignS: make([]float64, nAlleles)}
	for i := range vai.alignS {
		vai.alignS[i] = noAlignment
	}
	return vai
}

func (vai *varAlignInfo) reset() {
	vai.nD = 0
	vai.nI = 0
	for i := range vai.alignS {
		vai.alignS[i] = noAlignment
	}
	vai.softClipped = false
	vai.alignsLeft = false
	vai.alignsRight = false
}

func (vai *varAlignInfo) clone() *varAlignInfo {
	copied := *vai
	copied.alignS = append([]float64(nil), vai.alignS...)
	return &copied
}

// aligns tells whether the read spans the variant region on both
// sides.
func (vai *varAlignInfo) aligns() bool {
	return vai.alignsLeft && vai.alignsRight
}

// supports tells whether the read CIGAR supports the alternate allele
// of the given length. The thresholds are simplistic for variants
// where alt and ref are of similar size.
func (vai *varAlignInfo) supports(refLen, altLen float64, o *Options) bool {
	if altLen > refLen { // insertion
		return (vai.alignsLeft && vai.alignsRight &&
			float64(vai.nI) > altLen*o.AltThreshFraction &&
			float64(vai.nI) < altLen*o.AltThreshFractionMax) ||
			vai.softClipped
	}
	return (vai.alignsLeft && vai.alignsRight &&
		float64(vai.nD) > refLen*o.AltThreshFraction &&
		float64(vai.nD) < refLen*o.AltThreshFractionMax) ||
		vai.softClipped
}

// rejects tells whether the read CIGAR rejects the alternate allele
// of the given length.
func (vai *varAlignInfo) rejects(refLen, altLen float64, o *Options) bool {
	if altLen > refLen { // insertion
		return vai.alignsLeft && vai.alignsRight &&
			float64(vai.nI) < altLen*o.RefThreshFraction &&
			!vai.softClipped
	}
	return vai.alignsLeft && vai.alignsRight &&
		float64(vai.nD) < refLen*o.RefThreshFraction &&
		!vai.softClipped
}

func (vai *varAlignInfo) present(o *Options) bool {
	return vai.nI >= o.MinPresent || vai.nD >= o.MinPresent
}

// alignmentPreference converts per-allele alignment scores into log2
// preferences relative to the most likely allele. A value x in prefs
// represents that the allele is 2^x times less likely than the most
// likely one. Returns the index of the most likely allele, or noBest.
func (vai *varAlignInfo) alignmentPreference(wSizeActual int, o *Options, prefs []float64) int {
	maxI := floats.MaxIdx(vai.alignS)
	maxScore := vai.alignS[maxI]
	minAlignScore := math.Floor(1.2 * float64(wSizeActual))

	if maxScore == noAlignment || maxScore <= minAlignScore {
		return noBest
	}
	for i, s := range vai.alignS {
		d := (maxScore - s) / o.LogScaleFactor
		if s == noAlignment || s <= minAlignScore {
			d = (maxScore - minAlignScore) / o.LogScaleFactor
		}
		if d > o.MaxAlignBits {
			d = o.MaxAlignBits
		}
		if d < 0 && o.Verbose {
			log.Printf("negative alignment preference for read %v", vai.qname)
		}
		prefs[i] += d
	}
	return maxI
}

// vaPreference converts CIGAR indel evidence into log2 preferences:
// the allele whose length change is closest to the observed
// insertion/deletion balance wins. Returns the index of the best
// allele, or noBest.
func (vai *varAlignInfo) vaPreference(refLen int, altLens []int, o *Options, prefs []float64) int {
	if vai.softClipped {
		// does not support the reference, all other alleles are
		// equally likely
		prefs[0] += o.OverlapBits
		return noBest
	}
	if !vai.alignsLeft || !vai.alignsRight {
		return noBest
	}

	insDel := vai.nI - vai.nD
	minD := absInt(insDel)
	minDi := 0
	for i := 1; i < len(prefs); i++ {
		cD := altLens[i-1] - refLen
		if absInt(cD-insDel) < minD {
			minDi = i
			minD = absInt(cD - insDel)
		}
	}

	for i := range prefs {
		if i != minDi {
			prefs[i] += o.OverlapBits
		}
	}
	return minDi
}

// legacyPreference is the historical support/reject CIGAR test.
// Support and reject are not treated symmetrically; behavior is kept
// as observed. Returns the best alternate, or allele 0 if nothing
// scores below zero.
func (vai *varAlignInfo) legacyPreference(refLen int, altLens []int, o *Options, prefs []float64) int {
	bestI := 0
	bestScore := 0.0
	for iP := 0; iP < len(altLens); iP++ {
		var cScore float64
		if vai.supports(float64(refLen), float64(altLens[iP]), o) {
			cScore -= o.OverlapBits
		}
		if vai.rejects(float64(refLen), float64(altLens[iP]), o) {
			cScore += o.OverlapBits
		}
		prefs[iP+1] += cScore
		if cScore < bestScore {
			bestScore = cScore
			bestI = iP + 1
		}
	}
	return bestI
}

// presencePreference disfavors the reference when a sufficiently
// large indel is present, and the first alternate otherwise. Alleles
// beyond the first alternate are always disfavored.
func (vai *varAlignInfo) presencePreference(o *Options, prefs []float64) {
	if vai.present(o) {
		prefs[0] += o.OverlapBits
	} else {
		prefs[1] += o.OverlapBits
	}
	for iP := 2; iP < len(prefs); iP++ {
		prefs[iP] += o.OverlapBits
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
