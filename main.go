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

// elGeno genotypes structural variants against long-read alignments
// in .bam files, using a catalog of candidate variants in .vcf form
// and an indexed reference genome in .fasta form.
//
// Please see https://github.com/exascience/elgeno for a documentation
// of the tool.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/exascience/elgeno/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: genotype")
	fmt.Fprint(os.Stderr, "\n", cmd.GenotypeHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, cmd.HelpMessage)
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "genotype":
		err = cmd.Genotype()
	case "help", "-h", "--help":
		printHelp()
	default:
		log.Println("Invalid command ", os.Args[1])
		fmt.Fprint(os.Stderr, cmd.HelpMessage)
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err, ", while executing command ", os.Args[1:])
	}
}
