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

import "fmt"

// A Model selects how per-read evidence is converted into allele
// preferences.
type Model int

const (
	// ModelAD scores alleles by banded local alignment of the read
	// against each allele window.
	ModelAD Model = iota
	// ModelVA scores alleles by insertion/deletion content of the
	// read CIGAR across the variant region.
	ModelVA
	// ModelVAOld is the legacy support/reject CIGAR test.
	ModelVAOld
	// ModelPresence only asks whether any sufficiently large indel is
	// present in the region.
	ModelPresence
	// ModelJoint applies ModelAD and ModelVA cumulatively.
	ModelJoint
	// ModelMulti runs ad, va, joint, presence, and va_old as five
	// independent scorers producing five result rows.
	ModelMulti
)

var modelNames = map[string]Model{
	"ad":       ModelAD,
	"va":       ModelVA,
	"va_old":   ModelVAOld,
	"presence": ModelPresence,
	"joint":    ModelJoint,
	"multi":    ModelMulti,
}

// ParseModel parses a genotyping model name.
func ParseModel(name string) (Model, error) {
	if model, ok := modelNames[name]; ok {
		return model, nil
	}
	return 0, fmt.Errorf("invalid genotyping model %v", name)
}

func (m Model) String() string {
	for name, model := range modelNames {
		if model == m {
			return name
		}
	}
	return "unknown"
}

// Options control the genotyping engine.
type Options struct {
	WSize                   int     // base half-window size
	DynamicWSize            bool    // enlarge the window by the longest allele in the chunk
	GenotypeRightBreakpoint bool    // anchor windows at the right breakpoint of the variant
	VarWindow               int     // padding around the variant for the CIGAR examiner
	MinDelIns               int     // minimum CIGAR op length that counts as indel evidence
	MaxSoftClipped          int     // soft-clip length above which a terminal clip flags the read
	MaxBARCount             int     // cap on candidate reads per variant
	MinMapQ                 byte    // minimum mapping quality
	Match                   int     // alignment match score
	Mismatch                int     // alignment mismatch score
	GapOpen                 int     // alignment gap open score
	GapExtend               int     // alignment gap extend score
	BandedAlignmentPercent  float64 // band width as percent of sequence length
	LogScaleFactor          float64 // alignment score difference per log2 unit
	MaxAlignBits            float64 // cap on per-allele alignment preference
	OverlapBits             float64 // preference increment for CIGAR-based models
	AltThreshFraction       float64 // lower support fraction in the legacy test
	AltThreshFractionMax    float64 // upper support fraction in the legacy test
	RefThreshFraction       float64 // reject fraction in the legacy test
	MinPresent              int     // indel length threshold for the presence model
	CropRead                bool    // crop reads to the variant window before alignment
	Mask                    bool    // collapse runs of identical bases in the reference window
	GtModel                 Model   // genotyping model
	Verbose                 bool    // per-read diagnostics on stderr
	OutputRefAlt            bool    // dump allele windows instead of genotyping
}

// DefaultOptions returns the default engine configuration.
func DefaultOptions() *Options {
	return &Options{
		WSize:                  500,
		VarWindow:              100,
		MinDelIns:              6,
		MaxSoftClipped:         500,
		MaxBARCount:            200,
		MinMapQ:                30,
		Match:                  1,
		Mismatch:               -1,
		GapOpen:                -1,
		GapExtend:              -1,
		BandedAlignmentPercent: 100,
		LogScaleFactor:         10,
		MaxAlignBits:           10,
		OverlapBits:            10,
		AltThreshFraction:      0.5,
		AltThreshFractionMax:   2.0,
		RefThreshFraction:      0.1,
		MinPresent:             5,
		CropRead:               true,
		GtModel:                ModelVA,
	}
}
