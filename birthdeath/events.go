// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package birthdeath

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// A source adapts a math/rand/v2 generator
// to the random source interface
// of the gonum distributions.
// Reseeding is not supported:
// the state of the generator
// belongs to the caller.
type source struct {
	rng *rand.Rand
}

func (s source) Uint64() uint64 {
	return s.rng.Uint64()
}

func (s source) Seed(uint64) {}

// Pick returns an index of weights,
// drawn with a probability proportional
// to its weight.
// It is the responsibility of the caller
// to guarantee that there is at least one weight
// and that the sum of the weights
// is greater than zero.
func Pick(weights []float64, rng *rand.Rand) int {
	var sum float64
	for _, w := range weights {
		sum += w
	}

	r := rng.Float64() * sum
	for i, w := range weights {
		r -= w
		if r < 0 {
			return i
		}
	}
	return len(weights) - 1
}

// MutateRate returns a rate for a daughter lineage,
// made from the rate of its parent
// plus a Gaussian perturbation
// with the given standard deviation.
// If sd is zero the parent rate
// is inherited unchanged.
func MutateRate(rate, sd float64, rng *rand.Rand) float64 {
	if sd == 0 {
		return rate
	}

	n := distuv.Normal{
		Mu:    0,
		Sigma: sd,
		Src:   source{rng},
	}
	return rate + n.Rand()
}
