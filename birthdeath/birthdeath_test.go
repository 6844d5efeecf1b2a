// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package birthdeath_test

import (
	"errors"
	"math"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/js-arias/treesim/birthdeath"
	"github.com/js-arias/treesim/tree"
)

func TestPureBirth(t *testing.T) {
	for seed := uint64(0); seed < 10; seed++ {
		rng := rand.New(rand.NewPCG(seed, 1))
		p := birthdeath.Param{
			BirthRate:   1,
			ExtantTips:  5,
			MarkExtinct: true,
			Name:        "pure-birth",
		}
		res, err := birthdeath.Simulate(p, rng)
		if err != nil {
			t.Fatalf("seed %d: unexpected error: %v", seed, err)
		}
		tr := res.Tree

		leaves := tr.Leaves()
		if len(leaves) != 5 {
			t.Errorf("seed %d: leaves: got %d, want %d", seed, len(leaves), 5)
		}
		if got := tr.Length(tr.Root()); got != 0 {
			t.Errorf("seed %d: root branch: got %.6f, want %.6f", seed, got, 0.0)
		}
		for _, id := range tr.Nodes() {
			if tr.Length(id) < 0 {
				t.Errorf("seed %d: node %d: negative branch length %.6f", seed, id, tr.Length(id))
			}
			if res.Extinct[id] {
				t.Errorf("seed %d: node %d: extinct tip in a pure birth tree", seed, id)
			}
		}

		// with a death rate of zero
		// every tip is living,
		// so every root to tip path
		// spans the whole simulated time
		for _, l := range leaves {
			if d := tr.Depth(l); math.Abs(d-res.Time) > 1e-10 {
				t.Errorf("seed %d: tip %d: depth: got %.6f, want %.6f", seed, l, d, res.Time)
			}
		}
	}
}

func TestTaxaAssign(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 1))
	p := birthdeath.Param{
		BirthRate:  1,
		ExtantTips: 5,
		Names:      tree.NewNamespace("Rhea", "Struthio", "Apteryx"),
	}
	res, err := birthdeath.Simulate(p, rng)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tr := res.Tree

	taxa := make(map[string]bool)
	for _, l := range tr.Leaves() {
		tax := tr.Taxon(l)
		if tax == "" {
			t.Errorf("tip %d: without taxon", l)
			continue
		}
		if taxa[tax] {
			t.Errorf("tip %d: repeated taxon %q", l, tax)
		}
		taxa[tax] = true
	}
	for _, want := range []string{"Rhea", "Struthio", "Apteryx", "T4", "T5"} {
		if !taxa[want] {
			t.Errorf("taxa: missing %q [got %v]", want, taxa)
		}
	}
}

func TestPruneExtinct(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewPCG(seed, 2))
		p := birthdeath.Param{
			BirthRate:   1,
			DeathRate:   0.5,
			ExtantTips:  20,
			MarkExtinct: true,
		}
		res, err := birthdeath.Simulate(p, rng)
		if err != nil {
			t.Fatalf("seed %d: unexpected error: %v", seed, err)
		}
		tr := res.Tree

		if got := len(tr.Leaves()); got != 20 {
			t.Errorf("seed %d: leaves: got %d, want %d", seed, got, 20)
		}
		for _, id := range tr.Nodes() {
			if res.Extinct[id] {
				t.Errorf("seed %d: node %d: extinct tip on a pruned tree", seed, id)
			}
			if !tr.IsTerm(id) && len(tr.Children(id)) < 2 {
				t.Errorf("seed %d: node %d: unifurcation on a pruned tree", seed, id)
			}
		}
	}
}

func TestRetainExtinct(t *testing.T) {
	extinct := 0
	for seed := uint64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewPCG(seed, 3))
		p := birthdeath.Param{
			BirthRate:     1,
			DeathRate:     0.5,
			ExtantTips:    20,
			RetainExtinct: true,
			MarkExtinct:   true,
		}
		res, err := birthdeath.Simulate(p, rng)
		if err != nil {
			t.Fatalf("seed %d: unexpected error: %v", seed, err)
		}
		tr := res.Tree

		living := 0
		for _, l := range tr.Leaves() {
			if res.Extinct[l] {
				extinct++
				continue
			}
			living++
		}
		if living != 20 {
			t.Errorf("seed %d: living tips: got %d, want %d", seed, living, 20)
		}
	}
	if extinct == 0 {
		t.Errorf("no extinct tips retained in %d runs with a death rate of %.1f", 20, 0.5)
	}
}

func TestTotalExtinction(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 4))
	p := birthdeath.Param{
		DeathRate:     1,
		ExtantTips:    2,
		FailOnExtinct: true,
	}

	// a pure death process from a single lineage
	// extinguishes on the first event
	if _, err := birthdeath.Simulate(p, rng); !errors.Is(err, birthdeath.ErrExtinction) {
		t.Errorf("got error %v, want %v", err, birthdeath.ErrExtinction)
	}
}

func TestRetryOnExtinction(t *testing.T) {
	for seed := uint64(0); seed < 10; seed++ {
		rng := rand.New(rand.NewPCG(seed, 5))
		p := birthdeath.Param{
			BirthRate:  1,
			DeathRate:  0.8,
			ExtantTips: 10,
		}
		res, err := birthdeath.Simulate(p, rng)
		if err != nil {
			t.Fatalf("seed %d: unexpected error: %v", seed, err)
		}
		if got := len(res.Tree.Leaves()); got != 10 {
			t.Errorf("seed %d: leaves: got %d, want %d", seed, got, 10)
		}
	}
}

func TestMaxTime(t *testing.T) {
	rng := rand.New(rand.NewPCG(8, 6))
	p := birthdeath.Param{
		BirthRate: 1,
		MaxTime:   2,
	}
	res, err := birthdeath.Simulate(p, rng)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Time < 2 {
		t.Errorf("time: got %.6f, want at least %.6f", res.Time, 2.0)
	}
	if got := len(res.Tree.Leaves()); got < 1 {
		t.Errorf("leaves: got %d, want at least %d", got, 1)
	}
}

func TestExtendTree(t *testing.T) {
	tr := tree.New("supplied")
	var leaves []int
	for range 2 {
		c, err := tr.Add(tr.Root())
		if err != nil {
			t.Fatalf("unable to add node: %v", err)
		}
		if err := tr.SetLength(c, 1); err != nil {
			t.Fatalf("unable to set length: %v", err)
		}
		leaves = append(leaves, c)
	}

	rng := rand.New(rand.NewPCG(15, 7))
	p := birthdeath.Param{
		BirthRate:     1,
		ExtantTips:    3,
		RetainExtinct: true,
		MarkExtinct:   true,
		Tree:          tr,
		Extinct:       map[int]bool{leaves[0]: true},
	}
	res, err := birthdeath.Simulate(p, rng)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	living := 0
	dead := 0
	for _, l := range res.Tree.Leaves() {
		if res.Extinct[l] {
			dead++
			continue
		}
		living++
	}
	if living != 3 {
		t.Errorf("living tips: got %d, want %d", living, 3)
	}
	if dead != 1 {
		t.Errorf("extinct tips: got %d, want %d", dead, 1)
	}
}

func TestReproducible(t *testing.T) {
	p := birthdeath.Param{
		BirthRate:  1,
		DeathRate:  0.3,
		ExtantTips: 15,
	}

	r1, err := birthdeath.Simulate(p, rand.New(rand.NewPCG(7, 11)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r2, err := birthdeath.Simulate(p, rand.New(rand.NewPCG(7, 11)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(r1.Tree.Nodes(), r2.Tree.Nodes()) {
		t.Errorf("node IDs differ between identically seeded runs")
	}
	for _, id := range r1.Tree.Nodes() {
		if math.Abs(r1.Tree.Length(id)-r2.Tree.Length(id)) > 1e-12 {
			t.Errorf("node %d: branch length differs between identically seeded runs", id)
		}
	}
	if r1.Time != r2.Time {
		t.Errorf("time: got %.6f and %.6f on identically seeded runs", r1.Time, r2.Time)
	}
}

func TestInvalidParam(t *testing.T) {
	tests := map[string]birthdeath.Param{
		"no condition":       {BirthRate: 1},
		"GSA without extant": {BirthRate: 1, MaxTime: 10, GSA: 10},
		"GSA with extinct":   {BirthRate: 1, ExtantTips: 5, ExtinctTips: 5, GSA: 10},
		"GSA with total":     {BirthRate: 1, ExtantTips: 5, TotalTips: 10, GSA: 10},
		"GSA under the tips": {BirthRate: 1, ExtantTips: 5, GSA: 3},
	}
	for name, p := range tests {
		rng := rand.New(rand.NewPCG(1, 1))
		if _, err := birthdeath.Simulate(p, rng); err == nil {
			t.Errorf("%s: expecting error", name)
		}
	}
}
