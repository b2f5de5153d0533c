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

// Package genotype implements the per-variant genotyping engine: for
// every candidate variant it selects the overlapping long reads,
// collects CIGAR-derived indel evidence, aligns each read against the
// reference and alternate allele windows with a banded local
// alignment kernel, converts the evidence into per-allele log2
// preferences under one of several genotyping models, and folds the
// per-read preferences into a diploid genotype likelihood vector.
package genotype

import (
	"log"

	"github.com/exascience/elgeno/sam"
	"github.com/exascience/elgeno/vcf"
)

// FormatString is the FORMAT column value written for every genotyped
// variant.
const FormatString = "GT:AD:VA:PL:REFREADS:ALTREADS"

// WSizeActual returns the effective half-window size for a chunk of
// variants: the configured size, enlarged under DynamicWSize by the
// largest of SVLEN and the longest alternate allele length across the
// chunk.
func WSizeActual(variants []*vcf.Variant, o *Options) int {
	if !o.DynamicWSize {
		return o.WSize
	}
	maxAlleleLength := 0
	for _, v := range variants {
		for _, alt := range v.Alt {
			if len(alt) > maxAlleleLength {
				maxAlleleLength = len(alt)
			}
		}
		if svlen := v.SVLen(); svlen > maxAlleleLength {
			maxAlleleLength = svlen
		}
	}
	return o.WSize + maxAlleleLength
}

// multiModels is the fixed scorer list run by ModelMulti.
var multiModels = [5]Model{ModelAD, ModelVA, ModelJoint, ModelPresence, ModelVAOld}

// ProcessChunk genotypes a chunk of variants sharing a contig against
// the given position-sorted reads, writing the result into each
// variant's FORMAT and sample columns. Execution is sequential and
// deterministic for a single chunk; chunks may be processed in
// parallel by independent workers sharing the read-only reference.
//
// Variants on a contig missing from the reference index are skipped
// with a diagnostic. Under ModelMulti five result rows are computed
// per variant and the last one is stored.
func ProcessChunk(ref Reference, contig string, reads []*sam.Alignment, variants []*vcf.Variant, o *Options) {
	wSizeActual := WSizeActual(variants, o)

	for _, v := range variants {
		if !ref.HasContig(contig) {
			log.Printf("WARNING: reference FAI index has no entry for contig %v, skipping variant at %v", contig, v.Pos+1)
			continue
		}

		rows := Genotype(ref, v, reads, wSizeActual, o)
		if len(rows) == 0 {
			continue
		}
		v.Format = FormatString
		v.Genotype = rows[len(rows)-1]
	}
}

// Genotype genotypes a single variant and returns one result row per
// model run: one row for the plain models, five for ModelMulti. The
// returned rows are in GT:AD:VA:PL:REFREADS:ALTREADS form. A nil
// result means no rows were produced (window dump mode).
func Genotype(ref Reference, v *vcf.Variant, reads []*sam.Alignment, wSizeActual int, o *Options) []string {
	nAlleles := len(v.Alt) + 1

	models := []Model{o.GtModel}
	if o.GtModel == ModelMulti {
		models = multiModels[:]
	}

	vC := make([][]float64, len(models))
	ads := make([][]int, len(models))
	vas := make([][]int, len(models))
	for mI := range models {
		vC[mI] = make([]float64, nAlleles*(nAlleles+1)/2)
		ads[mI] = make([]int, nAlleles+1)
		vas[mI] = make([]int, nAlleles+1)
	}
	vaQnames := make([]string, nAlleles+1)

	candidates, alignInfos := selectReads(reads, v, wSizeActual, o)
	processReads(ref, v, candidates, alignInfos, wSizeActual, o)
	if o.OutputRefAlt {
		return nil
	}

	rows := make([]string, len(models))
	for mI, model := range models {
		updateVC(v, alignInfos, vC[mI], ads[mI], vas[mI], vaQnames, wSizeActual, o, model)
		rows[mI] = gtString(vC[mI], ads[mI], vas[mI], vaQnames)
	}
	return rows
}
