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

package vcf

import (
	"strconv"
	"strings"
)

// The supported VCF file format version.
const (
	FileFormatVersion     = "VCFv4.3"
	FileFormatVersionLine = "##fileformat=VCFv4.3"
)

type (
	// Header section of a VCF file. Meta lines are carried verbatim
	// so that they can be reproduced on output.
	Header struct {
		Meta    []string
		Columns []string
	}

	// Variant line in a VCF file.
	Variant struct {
		Chrom    string
		Pos      int32 // zero-based begin position
		ID       string
		Ref      string
		Alt      []string
		Qual     string
		Filter   string
		Info     string
		Format   string
		Genotype string // the single sample column
	}

	// Vcf represents the full contents of a VCF file.
	Vcf struct {
		Header   *Header
		Variants []*Variant
	}
)

// DefaultHeaderColumns for VCF files.
var DefaultHeaderColumns = []string{"CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO"}

// NewHeader creates an empty instance.
func NewHeader() *Header {
	return &Header{
		Meta:    []string{FileFormatVersionLine},
		Columns: DefaultHeaderColumns,
	}
}

// End returns the end position of a variant in the reference.
func (v *Variant) End() int32 {
	return v.Pos + int32(len(v.Ref))
}

// InfoField looks up the value of a KEY=VALUE entry in the
// ;-delimited info column. Flag entries report an empty value.
func (v *Variant) InfoField(key string) (string, bool) {
	for _, entry := range strings.Split(v.Info, ";") {
		if k, value, found := strings.Cut(entry, "="); k == key {
			if !found {
				return "", true
			}
			return value, true
		}
	}
	return "", false
}

// SVLen returns the absolute value of the SVLEN info entry, or 0 if
// absent or malformed.
func (v *Variant) SVLen() int {
	value, ok := v.InfoField("SVLEN")
	if !ok {
		return 0
	}
	svlen, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	if svlen < 0 {
		svlen = -svlen
	}
	return svlen
}
