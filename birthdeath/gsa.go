// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package birthdeath

import (
	"math/rand/v2"

	"github.com/js-arias/treesim/tree"
)

// A timeSlice is an interval
// in which the simulation had exactly
// the target number of living tips.
// It stores the duration of the interval
// and the branch of every living tip,
// with its length at the start of the interval.
type timeSlice struct {
	at   float64 // elapsed time at the start of the interval
	wait float64
	tips []tipState
}

func newTimeSlice(t *tree.Tree, extant []int, at, wait float64) timeSlice {
	ts := timeSlice{
		at:   at,
		wait: wait,
		tips: make([]tipState, 0, len(extant)),
	}
	for _, id := range extant {
		ts.tips = append(ts.tips, tipState{id: id, length: t.Length(id)})
	}
	return ts
}

// SampleSlice picks one of the recorded time slices,
// with a probability proportional
// to its duration,
// and restores the tree to the state
// of that slice:
// everything that grew from the tips of the slice
// is discarded,
// and the branch of each tip is set
// to its length at the start of the interval
// plus the duration of the interval.
// It returns the updated extant and extinct sets,
// and the elapsed time
// at the end of the sampled interval.
func sampleSlice(t *tree.Tree, slices []timeSlice, extinct []int, rng *rand.Rand) (ext, exc []int, time float64) {
	weights := make([]float64, 0, len(slices))
	for _, ts := range slices {
		weights = append(weights, ts.wait)
	}
	sel := slices[Pick(weights, rng)]

	discard := make(map[int]bool)
	for _, tp := range sel.tips {
		for _, id := range t.DropDescendants(tp.id) {
			discard[id] = true
		}
		t.SetLength(tp.id, tp.length+sel.wait)
	}

	ext = make([]int, 0, len(sel.tips))
	for _, tp := range sel.tips {
		ext = append(ext, tp.id)
	}

	inSlice := make(map[int]bool, len(ext))
	for _, id := range ext {
		inSlice[id] = true
	}
	exc = make([]int, 0, len(extinct))
	for _, id := range extinct {
		if discard[id] || inSlice[id] {
			continue
		}
		exc = append(exc, id)
	}
	return ext, exc, sel.at + sel.wait
}
