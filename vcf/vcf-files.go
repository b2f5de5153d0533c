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
	"bufio"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/exascience/elgeno/internal"
	"github.com/exascience/elgeno/utils/bgzf"
)

// ParseVariant parses one data line of a VCF file. The POS column is
// converted from the 1-based file representation to a zero-based
// begin position.
func ParseVariant(line string) *Variant {
	var sc StringScanner
	sc.Reset(line)
	v := new(Variant)
	v.Chrom = sc.ReadField()
	v.Pos = int32(internal.ParseInt(sc.ReadField(), 10, 32)) - 1
	v.ID = sc.ReadField()
	v.Ref = sc.ReadField()
	alt := sc.ReadField()
	if alt != "" && alt != "." {
		v.Alt = strings.Split(alt, ",")
	}
	v.Qual = sc.ReadField()
	v.Filter = sc.ReadField()
	v.Info = sc.ReadField()
	if sc.Len() > 0 {
		v.Format = sc.ReadField()
	}
	if sc.Len() > 0 {
		v.Genotype = sc.ReadField()
	}
	return v
}

func parseHeader(scanner *bufio.Scanner, filename string) (hdr *Header, ok bool) {
	hdr = new(Header)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "##"):
			hdr.Meta = append(hdr.Meta, line)
		case strings.HasPrefix(line, "#"):
			hdr.Columns = strings.Split(line[1:], "\t")
			return hdr, true
		default:
			log.Panicf("missing column header line in VCF file %v", filename)
		}
	}
	return hdr, false
}

// Read reads a full VCF file, plain or bgzip-compressed.
func Read(filename string) *Vcf {
	file := internal.FileOpen(filename)
	defer internal.Close(file)

	var reader io.Reader
	buf := bufio.NewReader(file)
	if ok, err := bgzf.IsGzip(buf); err != nil {
		log.Panic(err)
	} else if ok {
		reader = bgzf.NewScanner(file, 0)
	} else {
		reader = buf
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 1<<16), 1<<26)

	vcf := new(Vcf)
	hdr, ok := parseHeader(scanner, filename)
	vcf.Header = hdr
	if !ok {
		return vcf
	}
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			vcf.Variants = append(vcf.Variants, ParseVariant(line))
		}
	}
	if err := scanner.Err(); err != nil {
		log.Panic(err)
	}
	return vcf
}

// Line formats a variant as one VCF data line, without a trailing
// newline.
func (v *Variant) Line() string {
	fields := make([]string, 0, 10)
	fields = append(fields,
		v.Chrom,
		strconv.FormatInt(int64(v.Pos)+1, 10),
		orDot(v.ID),
		v.Ref,
		orDot(strings.Join(v.Alt, ",")),
		orDot(v.Qual),
		orDot(v.Filter),
		orDot(v.Info),
	)
	if v.Format != "" {
		fields = append(fields, v.Format, v.Genotype)
	}
	return strings.Join(fields, "\t")
}

func orDot(s string) string {
	if s == "" {
		return "."
	}
	return s
}

// Write writes a full VCF file as plain text.
func (vcf *Vcf) Write(filename string) {
	file := internal.FileCreate(filename)
	defer internal.Close(file)

	writer := bufio.NewWriter(file)
	for _, line := range vcf.Header.Meta {
		internal.WriteString(writer, line)
		internal.WriteString(writer, "\n")
	}
	internal.WriteString(writer, "#"+strings.Join(vcf.Header.Columns, "\t")+"\n")
	for _, v := range vcf.Variants {
		internal.WriteString(writer, v.Line())
		internal.WriteString(writer, "\n")
	}
	if err := writer.Flush(); err != nil {
		log.Panic(err)
	}
}
