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

package fasta

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestFasta writes a FASTA file with its FAI index and returns
// the FASTA filename.
func writeTestFasta(t *testing.T, contigs map[string]string, order []string, lineBases int) string {
	t.Helper()
	dir := t.TempDir()
	name := filepath.Join(dir, "test.fasta")
	var fa, fai strings.Builder
	offset := 0
	for _, contig := range order {
		seq := contigs[contig]
		header := ">" + contig + "\n"
		fa.WriteString(header)
		offset += len(header)
		fai.WriteString(fmt.Sprintf("%s\t%d\t%d\t%d\t%d\n", contig, len(seq), offset, lineBases, lineBases+1))
		for i := 0; i < len(seq); i += lineBases {
			end := i + lineBases
			if end > len(seq) {
				end = len(seq)
			}
			fa.WriteString(seq[i:end])
			fa.WriteString("\n")
			offset += end - i + 1
		}
	}
	if err := os.WriteFile(name, []byte(fa.String()), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(name+".fai", []byte(fai.String()), 0600); err != nil {
		t.Fatal(err)
	}
	return name
}

func randomSequence(length int, seed int64) string {
	bases := []byte("ACGT")
	rng := rand.New(rand.NewSource(seed))
	seq := make([]byte, length)
	for i := range seq {
		seq[i] = bases[rng.Intn(4)]
	}
	return string(seq)
}

func TestReadRegion(t *testing.T) {
	chr1 := randomSequence(500, 1)
	chr2 := randomSequence(333, 2)
	name := writeTestFasta(t, map[string]string{"chr1": chr1, "chr2": chr2}, []string{"chr1", "chr2"}, 60)

	idx := Open(name)
	defer idx.Close()

	if !idx.HasContig("chr1") || !idx.HasContig("chr2") || idx.HasContig("chr3") {
		t.Error("contig lookup failed")
	}
	if idx.ContigLength("chr2") != 333 {
		t.Errorf("chr2 length = %v, want 333", idx.ContigLength("chr2"))
	}

	// a region crossing several line boundaries
	if got := string(idx.ReadRegion("chr1", 55, 200)); got != chr1[55:200] {
		t.Errorf("ReadRegion(55, 200) = %v, want %v", got, chr1[55:200])
	}
	// within a single line
	if got := string(idx.ReadRegion("chr2", 61, 90)); got != chr2[61:90] {
		t.Errorf("ReadRegion(61, 90) = %v, want %v", got, chr2[61:90])
	}
}

func TestReadRegionClamps(t *testing.T) {
	chr1 := randomSequence(100, 3)
	name := writeTestFasta(t, map[string]string{"chr1": chr1}, []string{"chr1"}, 60)

	idx := Open(name)
	defer idx.Close()

	if got := string(idx.ReadRegion("chr1", -20, 10)); got != chr1[0:10] {
		t.Error("negative begin not clamped to contig start")
	}
	if got := string(idx.ReadRegion("chr1", 90, 200)); got != chr1[90:] {
		t.Error("end not clamped to contig length")
	}
	if got := idx.ReadRegion("chr1", 50, 50); got != nil {
		t.Error("empty interval not nil")
	}
	if got := idx.ReadRegion("chrX", 0, 10); got != nil {
		t.Error("missing contig not nil")
	}
}

func TestReadRegionNormalizesBases(t *testing.T) {
	name := writeTestFasta(t, map[string]string{"chr1": "acgtRYnN"}, []string{"chr1"}, 60)

	idx := Open(name)
	defer idx.Close()

	if got := string(idx.ReadRegion("chr1", 0, 8)); got != "ACGTNNNN" {
		t.Errorf("ReadRegion = %v, want ACGTNNNN", got)
	}
}

func TestToUpperAndN(t *testing.T) {
	cases := map[byte]byte{'a': 'A', 'C': 'C', 'r': 'N', 'W': 'N', 'n': 'N', '-': '-'}
	for in, want := range cases {
		if got := ToUpperAndN(in); got != want {
			t.Errorf("ToUpperAndN(%c) = %c, want %c", in, got, want)
		}
	}
}
