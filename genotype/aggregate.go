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

	"gonum.org/v1/gonum/floats"

	"github.com/exascience/elgeno/vcf"
)

const (
	llThreshold = -25.5
	lg10        = 3.322

	// A read whose allele preferences differ by no more than this is
	// uninformative and contributes nothing to the genotype
	// likelihoods.
	minimumPrefDiff = 2.0
)

// updateVC folds the evidence of all candidate reads of a variant
// into the diploid genotype likelihood vector vC (in log2 scale,
// k*(k+1)/2 entries for k alleles) and the AD/VA read counts, under
// the given genotyping model. vaQnames accumulates the query names of
// the reads voting for each allele under the va and joint models.
func updateVC(v *vcf.Variant, vais []*varAlignInfo, vC []float64, ads, vas []int, vaQnames []string, wSizeActual int, o *Options, model Model) {
	nAlts := len(v.Alt)
	refLen := len(v.Ref)

	altLens := make([]int, nAlts)
	for i, alt := range v.Alt {
		altLens[i] = len(alt)
	}

	for _, vai := range vais {
		prefs := make([]float64, nAlts+1)

		if model == ModelAD || model == ModelJoint {
			bestI := vai.alignmentPreference(wSizeActual, o, prefs)
			if bestI != noBest {
				ads[bestI]++
			}
			ads[len(ads)-1]++
		}

		if model == ModelVA || model == ModelJoint {
			bestI := vai.vaPreference(refLen, altLens, o, prefs)
			if bestI != noBest {
				vas[bestI]++
				vaQnames[bestI] = vaQnames[bestI] + "," + vai.qname
			}
			vas[len(vas)-1]++
			if o.Verbose {
				log.Printf("va %v %v %v %v %v %v", vai.qname, vai.nD, vai.nI, prefs[0], prefs[1], bestI)
			}
		}

		if model == ModelVAOld {
			bestI := vai.legacyPreference(refLen, altLens, o, prefs)
			vas[bestI]++
			vas[len(vas)-1]++
			if o.Verbose {
				log.Printf("va_old %v %v %v %v %v %v", vai.qname, vai.nD, vai.nI, prefs[0], prefs[1], bestI)
			}
		}

		if model == ModelPresence {
			vai.presencePreference(o, prefs)
		}

		minPref := floats.Min(prefs)
		maxPref := floats.Max(prefs)
		floats.AddConst(-minPref, prefs)

		if maxPref-minPref > minimumPrefDiff {
			vCI := 0
			for a1 := 0; a1 <= nAlts; a1++ {
				for a2 := 0; a2 <= a1; a2++ {
					switch {
					case a1 == a2:
						vC[vCI] += prefs[a1]
					case prefs[a1] == prefs[a2]:
						vC[vCI] += prefs[a1]
					case prefs[a1] > prefs[a2]+2:
						vC[vCI] += prefs[a2] + 1
					case prefs[a2] > prefs[a1]+2:
						vC[vCI] += prefs[a1] + 1
					case prefs[a1] > prefs[a2]:
						vC[vCI] += (prefs[a1] + prefs[a2]) / 2
					}
					vCI++
				}
			}
		}
	}

	if o.Verbose {
		log.Printf("updateVC %v", vC)
	}
}

// gtString formats the computed genotype as
// "a2/a1:AD0,AD1,...:VA0,VA1,...:PL0,PL1,...:readsAllele0:readsAllele1".
// The stored likelihoods are negative log-likelihoods; they are
// negated once here to choose the maximum.
func gtString(lls []float64, ads, vas []int, vaQnames []string) string {
	floats.Scale(-1, lls)

	maxP := lls[0]
	a1, a2 := 0, 0
	maxA1, maxA2 := 0, 0
	for i := range lls {
		if lls[i] > maxP {
			maxP = lls[i]
			maxA1 = a1
			maxA2 = a2
		}
		if a2 < a1 {
			a2++
		} else {
			a1++
			a2 = 0
		}
	}

	var buff strings.Builder
	buff.WriteString(strconv.Itoa(maxA2))
	buff.WriteByte('/')
	buff.WriteString(strconv.Itoa(maxA1))
	buff.WriteByte(':')
	for i, ad := range ads {
		if i > 0 {
			buff.WriteByte(',')
		}
		buff.WriteString(strconv.Itoa(ad))
	}
	buff.WriteByte(':')
	for i, va := range vas {
		if i > 0 {
			buff.WriteByte(',')
		}
		buff.WriteString(strconv.Itoa(va))
	}
	buff.WriteByte(':')
	for i := range lls {
		lp := (lls[i] - maxP) / lg10
		if lp < llThreshold {
			lp = llThreshold
		}
		buff.WriteString(strconv.Itoa(int(-10 * lp)))
		if i != len(lls)-1 {
			buff.WriteByte(',')
		}
	}
	buff.WriteByte(':')
	buff.WriteString(vaQnames[0])
	buff.WriteByte(':')
	buff.WriteString(vaQnames[1])
	return buff.String()
}
