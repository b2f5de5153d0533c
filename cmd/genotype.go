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

package cmd

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/exascience/pargo/parallel"
	"github.com/google/uuid"

	"github.com/exascience/elgeno/fasta"
	"github.com/exascience/elgeno/genotype"
	"github.com/exascience/elgeno/internal"
	"github.com/exascience/elgeno/sam"
	"github.com/exascience/elgeno/vcf"
)

// GenotypeHelp is the help string for the genotype command.
const GenotypeHelp = "\ngenotype parameters:\n" +
	"elgeno genotype\n" +
	"--fa file (reference genome, indexed fasta)\n" +
	"--bam file (.bam file or file listing .bam files, .bai neighbors required)\n" +
	"--vcf file (variant catalog)\n" +
	"--ofile file (output vcf)\n" +
	"[--genotyper ad | va | va_old | presence | joint | multi (default va)]\n" +
	"[--wSize number (default 500)]\n" +
	"[--dynamicWSize]\n" +
	"[--right-breakpoint]\n" +
	"[--varWindow number (default 100)]\n" +
	"[--minDelIns number (default 6)]\n" +
	"[--maxSoftClipped number (default 500)]\n" +
	"[--maxBARcount number (default 200)]\n" +
	"[--minMapQ number (default 30)]\n" +
	"[--match number] [--mismatch number] [--gapOpen number] [--gapExtend number]\n" +
	"[--band percent (default 100)]\n" +
	"[--logScaleFactor number] [--maxAlignBits number] [--overlapBits number]\n" +
	"[--altThreshFraction number] [--altThreshFractionMax number] [--refThreshFraction number]\n" +
	"[--minPresent number (default 5)]\n" +
	"[--noCropRead]\n" +
	"[--mask]\n" +
	"[--chunkSize number (default 1000)]\n" +
	"[--nr-of-threads number]\n" +
	"[--cacheDataInTmp]\n" +
	"[--outputRefAlt]\n" +
	"[--verbose]\n"

// parseBamFileNames expands the --bam argument into the list of BAM
// files to genotype against: either a single .bam file, or a plain
// text file listing one .bam file per line. Every BAM file must have
// a .bai neighbor index.
func parseBamFileNames(bamArg string) (paths []string) {
	if strings.HasSuffix(bamArg, ".bam") {
		paths = []string{bamArg}
	} else {
		f := internal.FileOpen(bamArg)
		defer internal.Close(f)
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				paths = append(paths, line)
			}
		}
		if err := scanner.Err(); err != nil {
			log.Panic(err)
		}
	}
	for _, p := range paths {
		if !strings.HasSuffix(p, ".bam") {
			log.Panicf("input file %v has unrecognized extension", p)
		}
		if !internal.FileExists(p) {
			log.Panicf("input file %v does not exist", p)
		}
		if !internal.FileExists(p + ".bai") {
			log.Panicf("input file %v has no corresponding .bai index", p)
		}
	}
	return paths
}

// cacheBamFiles copies the BAM files and their indexes into a unique
// scratch directory and returns the new paths.
func cacheBamFiles(paths []string, tmpDir string) (cached []string, cacheDir string) {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	cacheDir = filepath.Join(tmpDir, "elgeno-"+uuid.New().String())
	if err := os.MkdirAll(cacheDir, 0700); err != nil {
		log.Panic(err)
	}
	seen := make(map[string]bool)
	for _, p := range paths {
		base := filepath.Base(p)
		if seen[base] {
			log.Panicf("cache file %v already exists - does a filename appear twice in the input?", base)
		}
		seen[base] = true
		newP := filepath.Join(cacheDir, base)
		internal.CopyFile(p, newP)
		internal.CopyFile(p+".bai", newP+".bai")
		cached = append(cached, newP)
	}
	return cached, cacheDir
}

// A chunk is a contiguous run of variants sharing a contig.
type chunk struct {
	contig string
	lo, hi int
}

// makeChunks groups the variants of a sorted VCF into per-contig
// chunks of at most chunkSize variants.
func makeChunks(variants []*vcf.Variant, chunkSize int) (chunks []chunk) {
	for lo := 0; lo < len(variants); {
		contig := variants[lo].Chrom
		hi := lo + 1
		for hi < len(variants) && variants[hi].Chrom == contig && hi-lo < chunkSize {
			hi++
		}
		chunks = append(chunks, chunk{contig: contig, lo: lo, hi: hi})
		lo = hi
	}
	return chunks
}

// fetchReads reads the alignment records of all BAM files overlapping
// the genome interval a chunk of variants needs, merged and sorted by
// begin position.
func fetchReads(bamFiles []*sam.IndexedBamFile, contig string, variants []*vcf.Variant, wSizeActual int, o *genotype.Options) []*sam.Alignment {
	genomeBegin := int(variants[0].Pos)
	genomeEnd := int(variants[len(variants)-1].Pos) + 1

	if o.GenotypeRightBreakpoint {
		minVarRef := len(variants[0].Ref)
		maxVarRef := minVarRef
		for _, v := range variants {
			if len(v.Ref) < minVarRef {
				minVarRef = len(v.Ref)
			}
			if len(v.Ref) > maxVarRef {
				maxVarRef = len(v.Ref)
			}
		}
		genomeBegin += minVarRef
		genomeEnd += maxVarRef
	}

	genomeBegin -= wSizeActual
	if genomeBegin < 0 {
		genomeBegin = 0
	}
	genomeEnd += wSizeActual

	var reads []*sam.Alignment
	for _, bamFile := range bamFiles {
		// BAM files that have no reads spanning the desired
		// chromosome are quietly ignored.
		if refID, ok := bamFile.RefID(contig); ok {
			reads = append(reads, bamFile.ViewRecords(refID, int32(genomeBegin), int32(genomeEnd))...)
		}
	}
	if len(bamFiles) > 1 {
		sam.By(sam.PositionLess).ParallelStableSort(reads)
	}
	return reads
}

// formatMetaLines documents the computed FORMAT fields in the output
// header.
var formatMetaLines = []string{
	`##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">`,
	`##FORMAT=<ID=AD,Number=R,Type=Integer,Description="Read depth per allele under the alignment model">`,
	`##FORMAT=<ID=VA,Number=R,Type=Integer,Description="Read count per allele under the CIGAR model">`,
	`##FORMAT=<ID=PL,Number=G,Type=Integer,Description="Phred-scaled genotype likelihoods">`,
	`##FORMAT=<ID=REFREADS,Number=1,Type=String,Description="Names of reads voting for the reference allele">`,
	`##FORMAT=<ID=ALTREADS,Number=1,Type=String,Description="Names of reads voting for the first alternate allele">`,
}

func extendHeader(hdr *vcf.Header) {
	present := make(map[string]bool)
	for _, line := range hdr.Meta {
		present[line] = true
	}
	for _, line := range formatMetaLines {
		if !present[line] {
			hdr.Meta = append(hdr.Meta, line)
		}
	}
	if len(hdr.Columns) <= len(vcf.DefaultHeaderColumns) {
		hdr.Columns = append(hdr.Columns, "FORMAT", "SAMPLE")
	}
}

// Genotype implements the elgeno genotype command.
func Genotype() (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%v", p)
		}
	}()

	var flags flag.FlagSet

	var (
		faFile, bamArg, vcfFile, ofile string
		gtModelName                    string
		chunkSize, nrOfThreads         int
		cacheDataInTmp, noCropRead     bool
		rightBreakpoint                bool
		minMapQ                        int
	)

	o := genotype.DefaultOptions()

	flags.StringVar(&faFile, "fa", "", "reference genome, indexed fasta")
	flags.StringVar(&bamArg, "bam", "", ".bam file or file listing .bam files")
	flags.StringVar(&vcfFile, "vcf", "", "variant catalog")
	flags.StringVar(&ofile, "ofile", "", "output vcf")
	flags.StringVar(&gtModelName, "genotyper", "va", "genotyping model")
	flags.IntVar(&o.WSize, "wSize", o.WSize, "half-window size")
	flags.BoolVar(&o.DynamicWSize, "dynamicWSize", false, "enlarge the window by the longest allele per chunk")
	flags.BoolVar(&rightBreakpoint, "right-breakpoint", false, "genotype the right breakpoint of the variant")
	flags.IntVar(&o.VarWindow, "varWindow", o.VarWindow, "CIGAR examiner padding")
	flags.IntVar(&o.MinDelIns, "minDelIns", o.MinDelIns, "minimum indel length that counts as evidence")
	flags.IntVar(&o.MaxSoftClipped, "maxSoftClipped", o.MaxSoftClipped, "maximum tolerated terminal soft clip")
	flags.IntVar(&o.MaxBARCount, "maxBARcount", o.MaxBARCount, "cap on candidate reads per variant")
	flags.IntVar(&minMapQ, "minMapQ", int(o.MinMapQ), "minimum mapping quality")
	flags.IntVar(&o.Match, "match", o.Match, "alignment match score")
	flags.IntVar(&o.Mismatch, "mismatch", o.Mismatch, "alignment mismatch score")
	flags.IntVar(&o.GapOpen, "gapOpen", o.GapOpen, "alignment gap open score")
	flags.IntVar(&o.GapExtend, "gapExtend", o.GapExtend, "alignment gap extend score")
	flags.Float64Var(&o.BandedAlignmentPercent, "band", o.BandedAlignmentPercent, "alignment band width as percent of sequence length")
	flags.Float64Var(&o.LogScaleFactor, "logScaleFactor", o.LogScaleFactor, "alignment score difference per log2 unit")
	flags.Float64Var(&o.MaxAlignBits, "maxAlignBits", o.MaxAlignBits, "cap on per-allele alignment preference")
	flags.Float64Var(&o.OverlapBits, "overlapBits", o.OverlapBits, "preference increment for CIGAR models")
	flags.Float64Var(&o.AltThreshFraction, "altThreshFraction", o.AltThreshFraction, "lower support fraction for the legacy test")
	flags.Float64Var(&o.AltThreshFractionMax, "altThreshFractionMax", o.AltThreshFractionMax, "upper support fraction for the legacy test")
	flags.Float64Var(&o.RefThreshFraction, "refThreshFraction", o.RefThreshFraction, "reject fraction for the legacy test")
	flags.IntVar(&o.MinPresent, "minPresent", o.MinPresent, "indel length threshold for the presence model")
	flags.BoolVar(&noCropRead, "noCropRead", false, "align the full read instead of cropping to the window")
	flags.BoolVar(&o.Mask, "mask", false, "collapse runs of identical bases in the reference window")
	flags.IntVar(&chunkSize, "chunkSize", 1000, "number of variants per work chunk")
	flags.IntVar(&nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.BoolVar(&cacheDataInTmp, "cacheDataInTmp", false, "copy the BAM inputs to a scratch directory first")
	flags.BoolVar(&o.OutputRefAlt, "outputRefAlt", false, "dump allele windows instead of genotyping")
	flags.BoolVar(&o.Verbose, "verbose", false, "per-read diagnostics")

	parseFlags(flags, 2, GenotypeHelp)

	if faFile == "" || bamArg == "" || vcfFile == "" || (ofile == "" && !o.OutputRefAlt) {
		fmt.Fprintln(os.Stderr, "Missing required parameters.")
		fmt.Fprint(os.Stderr, GenotypeHelp)
		os.Exit(1)
	}

	gtModel, err := genotype.ParseModel(gtModelName)
	if err != nil {
		return err
	}
	o.GtModel = gtModel
	o.GenotypeRightBreakpoint = rightBreakpoint
	o.CropRead = !noCropRead
	o.MinMapQ = byte(minMapQ)

	env := ParseEnvironment()
	if nrOfThreads == 0 {
		nrOfThreads = env.Threads
	}
	if nrOfThreads > 0 {
		runtime.GOMAXPROCS(nrOfThreads)
	}

	bamPaths := parseBamFileNames(bamArg)
	if cacheDataInTmp {
		var cacheDir string
		bamPaths, cacheDir = cacheBamFiles(bamPaths, env.TmpDir)
		defer func() {
			if rerr := os.RemoveAll(cacheDir); rerr != nil && err == nil {
				err = rerr
			}
		}()
	}

	bamFiles := make([]*sam.IndexedBamFile, len(bamPaths))
	for i, p := range bamPaths {
		bamFiles[i] = sam.OpenIndexed(p)
		defer bamFiles[i].Close()
	}

	ref := fasta.Open(faFile)
	defer ref.Close()

	catalog := vcf.Read(vcfFile)
	extendHeader(catalog.Header)

	chunks := makeChunks(catalog.Variants, chunkSize)

	parallel.Range(0, len(chunks), 0, func(low, high int) {
		for _, c := range chunks[low:high] {
			variants := catalog.Variants[c.lo:c.hi]
			wSizeActual := genotype.WSizeActual(variants, o)
			reads := fetchReads(bamFiles, c.contig, variants, wSizeActual, o)
			genotype.ProcessChunk(ref, c.contig, reads, variants, o)
		}
	})

	if !o.OutputRefAlt {
		catalog.Write(ofile)
	}
	return nil
}
