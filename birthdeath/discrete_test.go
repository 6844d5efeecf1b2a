// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package birthdeath_test

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/js-arias/treesim/birthdeath"
	"github.com/js-arias/treesim/tree"
)

func TestDiscreteTipTarget(t *testing.T) {
	for seed := uint64(0); seed < 10; seed++ {
		rng := rand.New(rand.NewPCG(seed, 21))
		p := birthdeath.GenParam{
			BirthRate: 0.3,
			Tips:      10,
			MaxGen:    -1,
		}
		res, err := birthdeath.SimulateDiscrete(p, rng)
		if err != nil {
			t.Fatalf("seed %d: unexpected error: %v", seed, err)
		}
		tr := res.Tree

		// several leaves can split
		// on the last generation,
		// so the tip target can be overshot
		if got := len(tr.Leaves()); got < 10 {
			t.Errorf("seed %d: leaves: got %d, want at least %d", seed, got, 10)
		}
		if res.Time < 1 {
			t.Errorf("seed %d: generations: got %.0f, want at least %d", seed, res.Time, 1)
		}

		taxa := make(map[string]bool)
		for _, l := range tr.Leaves() {
			tax := tr.Taxon(l)
			if tax == "" {
				t.Errorf("seed %d: tip %d: without taxon", seed, l)
				continue
			}
			if taxa[tax] {
				t.Errorf("seed %d: tip %d: repeated taxon %q", seed, l, tax)
			}
			taxa[tax] = true
		}
	}
}

func TestDiscreteMaxGen(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 22))
	p := birthdeath.GenParam{
		BirthRate: 0.2,
		DeathRate: 0.1,
		MaxGen:    50,
		Retry:     true,
		NoTaxa:    true,
	}
	res, err := birthdeath.SimulateDiscrete(p, rng)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Time != 50 {
		t.Errorf("generations: got %.0f, want %d", res.Time, 50)
	}
	for _, id := range res.Tree.Nodes() {
		if res.Tree.Length(id) < 0 {
			t.Errorf("node %d: negative branch length", id)
		}
	}
}

func TestDiscreteZeroGen(t *testing.T) {
	tr := tree.New("frozen")
	var want []float64
	for range 2 {
		c, err := tr.Add(tr.Root())
		if err != nil {
			t.Fatalf("unable to add node: %v", err)
		}
		if err := tr.SetLength(c, 3); err != nil {
			t.Fatalf("unable to set length: %v", err)
		}
		want = append(want, 3)
	}

	p := birthdeath.GenParam{
		BirthRate: 0.5,
		DeathRate: 0.5,
		MaxGen:    0,
		NoTaxa:    true,
		Tree:      tr,
	}
	res, err := birthdeath.SimulateDiscrete(p, rand.New(rand.NewPCG(1, 23)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Time != 0 {
		t.Errorf("generations: got %.0f, want %d", res.Time, 0)
	}
	if got := len(res.Tree.Leaves()); got != 2 {
		t.Errorf("leaves: got %d, want %d", got, 2)
	}
	for i, l := range res.Tree.Leaves() {
		if got := res.Tree.Length(l); got != want[i] {
			t.Errorf("tip %d: branch length: got %.1f, want %.1f", l, got, want[i])
		}
	}
}

func TestDiscreteExtinction(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 24))
	p := birthdeath.GenParam{
		DeathRate: 1,
		Tips:      5,
		MaxGen:    -1,
	}
	if _, err := birthdeath.SimulateDiscrete(p, rng); !errors.Is(err, birthdeath.ErrExtinction) {
		t.Errorf("got error %v, want %v", err, birthdeath.ErrExtinction)
	}
}

func TestDiscreteRetry(t *testing.T) {
	for seed := uint64(0); seed < 10; seed++ {
		rng := rand.New(rand.NewPCG(seed, 25))
		p := birthdeath.GenParam{
			BirthRate: 0.4,
			DeathRate: 0.2,
			Tips:      5,
			MaxGen:    -1,
			Retry:     true,
		}
		res, err := birthdeath.SimulateDiscrete(p, rng)
		if err != nil {
			t.Fatalf("seed %d: unexpected error: %v", seed, err)
		}
		if got := len(res.Tree.Leaves()); got < 5 {
			t.Errorf("seed %d: leaves: got %d, want at least %d", seed, got, 5)
		}
	}
}

func TestDiscreteNoCondition(t *testing.T) {
	p := birthdeath.GenParam{
		BirthRate: 0.5,
		MaxGen:    -1,
	}
	if _, err := birthdeath.SimulateDiscrete(p, rand.New(rand.NewPCG(1, 26))); err == nil {
		t.Errorf("expecting error")
	}
}
