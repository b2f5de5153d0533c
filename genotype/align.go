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
	"math"
	"sync"
)

// The aligner computes banded local alignment scores of one query
// (the cropped read) against an ordered set of subjects (the allele
// windows). The score cells (i, j), with i indexing the subject and j
// the query, are constrained to j - i in [-vBand, +hBand]. Gaps are
// affine: the first gap base scores GapOpen, every further base
// GapExtend. The dynamic-programming traversal of the query is shared
// across the subject set so that the per-cell loops stay tight and
// vectorizable.

type alignmentBuffers struct {
	h16, f16 []int16
	h32, f32 []int32
}

var alignmentBuffersPool = sync.Pool{New: func() interface{} { return new(alignmentBuffers) }}

func ensureVector16(v []int16, sz int, initValue int16) (result []int16) {
	if sz <= cap(v) {
		result = v[:sz]
	} else {
		result = make([]int16, sz)
	}
	for i := range result {
		result[i] = initValue
	}
	return result
}

func ensureVector32(v []int32, sz int, initValue int32) (result []int32) {
	if sz <= cap(v) {
		result = v[:sz]
	} else {
		result = make([]int32, sz)
	}
	for i := range result {
		result[i] = initValue
	}
	return result
}

const (
	lowInit16 = math.MinInt16 / 2
	lowInit32 = math.MinInt32 / 2
)

func bandedLocalScore16(subject, query []byte, match, mismatch, gapOpen, gapExtend int16, vBand, hBand int, buffers *alignmentBuffers) int {
	q := len(query)
	hRow := ensureVector16(buffers.h16, 2*(q+1), lowInit16)
	fCol := ensureVector16(buffers.f16, q+1, lowInit16)
	buffers.h16, buffers.f16 = hRow, fCol
	hPrev, hCur := hRow[:q+1], hRow[q+1:]

	for j := 0; j <= q && j <= hBand; j++ {
		hPrev[j] = 0
	}

	best := int16(0)
	for i := 1; i <= len(subject); i++ {
		jLo := i - vBand
		if jLo < 1 {
			jLo = 1
		}
		jHi := i + hBand
		if jHi > q {
			jHi = q
		}
		if jLo > jHi {
			break
		}
		if i <= vBand {
			hCur[jLo-1] = 0
		} else {
			hCur[jLo-1] = lowInit16
		}
		base := subject[i-1]
		e := int16(lowInit16)
		for j := jLo; j <= jHi; j++ {
			sub := mismatch
			if base == query[j-1] {
				sub = match
			}
			h := hPrev[j-1] + sub
			if e = maxInt16(e+gapExtend, hCur[j-1]+gapOpen); e < lowInit16 {
				e = lowInit16
			}
			if j == jLo && i > vBand {
				e = lowInit16
			}
			f := maxInt16(fCol[j]+gapExtend, hPrev[j]+gapOpen)
			if f < lowInit16 {
				f = lowInit16
			}
			fCol[j] = f
			if e > h {
				h = e
			}
			if f > h {
				h = f
			}
			if h < 0 {
				h = 0
			}
			hCur[j] = h
			if h > best {
				best = h
			}
		}
		if jHi+1 <= q {
			hCur[jHi+1] = lowInit16
			fCol[jHi+1] = lowInit16
		}
		hPrev, hCur = hCur, hPrev
	}
	return int(best)
}

func bandedLocalScore32(subject, query []byte, match, mismatch, gapOpen, gapExtend int32, vBand, hBand int, buffers *alignmentBuffers) int {
	q := len(query)
	hRow := ensureVector32(buffers.h32, 2*(q+1), lowInit32)
	fCol := ensureVector32(buffers.f32, q+1, lowInit32)
	buffers.h32, buffers.f32 = hRow, fCol
	hPrev, hCur := hRow[:q+1], hRow[q+1:]

	for j := 0; j <= q && j <= hBand; j++ {
		hPrev[j] = 0
	}

	best := int32(0)
	for i := 1; i <= len(subject); i++ {
		jLo := i - vBand
		if jLo < 1 {
			jLo = 1
		}
		jHi := i + hBand
		if jHi > q {
			jHi = q
		}
		if jLo > jHi {
			break
		}
		if i <= vBand {
			hCur[jLo-1] = 0
		} else {
			hCur[jLo-1] = lowInit32
		}
		base := subject[i-1]
		e := int32(lowInit32)
		for j := jLo; j <= jHi; j++ {
			sub := mismatch
			if base == query[j-1] {
				sub = match
			}
			h := hPrev[j-1] + sub
			if e = maxInt32(e+gapExtend, hCur[j-1]+gapOpen); e < lowInit32 {
				e = lowInit32
			}
			if j == jLo && i > vBand {
				e = lowInit32
			}
			f := maxInt32(fCol[j]+gapExtend, hPrev[j]+gapOpen)
			if f < lowInit32 {
				f = lowInit32
			}
			fCol[j] = f
			if e > h {
				h = e
			}
			if f > h {
				h = f
			}
			if h < 0 {
				h = 0
			}
			hCur[j] = h
			if h > best {
				best = h
			}
		}
		if jHi+1 <= q {
			hCur[jHi+1] = lowInit32
			fCol[jHi+1] = lowInit32
		}
		hPrev, hCur = hCur, hPrev
	}
	return int(best)
}

func maxInt16(x, y int16) int16 {
	if x > y {
		return x
	}
	return y
}

func maxInt32(x, y int32) int32 {
	if x > y {
		return x
	}
	return y
}

// localAlignmentScores yields the maximum banded local alignment
// score of the query against each subject. 16-bit score arithmetic is
// used when both the reference window and the query fit in 16-bit
// range, which allows better vectorisation.
func localAlignmentScores(query []byte, subjects [][]byte, vBand, hBand int, o *Options) []int {
	buffers := alignmentBuffersPool.Get().(*alignmentBuffers)
	defer alignmentBuffersPool.Put(buffers)

	scores := make([]int, len(subjects))
	if len(subjects[0]) > math.MaxInt16 || len(query) > math.MaxInt16 {
		for k, subject := range subjects {
			scores[k] = bandedLocalScore32(subject, query,
				int32(o.Match), int32(o.Mismatch), int32(o.GapOpen), int32(o.GapExtend), vBand, hBand, buffers)
		}
	} else {
		for k, subject := range subjects {
			scores[k] = bandedLocalScore16(subject, query,
				int16(o.Match), int16(o.Mismatch), int16(o.GapOpen), int16(o.GapExtend), vBand, hBand, buffers)
		}
	}
	return scores
}
