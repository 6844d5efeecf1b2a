// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package birthdeath_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/js-arias/treesim/birthdeath"
)

func TestPick(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 41))

	weights := []float64{0, 2.5, 0}
	for i := 0; i < 100; i++ {
		if got := birthdeath.Pick(weights, rng); got != 1 {
			t.Fatalf("pick: got %d, want %d", got, 1)
		}
	}

	// an element should be selected
	// in proportion to its weight
	weights = []float64{1, 3}
	count := 0
	runs := 10_000
	for i := 0; i < runs; i++ {
		if birthdeath.Pick(weights, rng) == 1 {
			count++
		}
	}
	freq := float64(count) / float64(runs)
	if math.Abs(freq-0.75) > 0.02 {
		t.Errorf("pick frequency: got %.4f, want %.4f", freq, 0.75)
	}
}

func TestMutateRate(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 42))

	// a zero standard deviation
	// must return the parent rate unchanged
	if got := birthdeath.MutateRate(1.5, 0, rng); got != 1.5 {
		t.Errorf("rate: got %.6f, want %.6f", got, 1.5)
	}

	var sum float64
	runs := 10_000
	for i := 0; i < runs; i++ {
		sum += birthdeath.MutateRate(2, 0.1, rng)
	}
	mean := sum / float64(runs)
	if math.Abs(mean-2) > 0.01 {
		t.Errorf("mean mutated rate: got %.6f, want %.6f", mean, 2.0)
	}
}
