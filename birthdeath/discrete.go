// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package birthdeath

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/js-arias/treesim/tree"
)

// GenParam is a collection of parameters
// for a discrete time
// (i.e. generational)
// birth-death simulation.
//
// At least one of the Tips or MaxGen targets
// must be defined.
// If both are defined,
// the simulation stops when any of them is met.
type GenParam struct {
	// BirthRate and DeathRate are the probabilities
	// of a birth or a death event
	// per lineage per generation.
	BirthRate float64
	DeathRate float64

	// BirthSD and DeathSD are the standard deviations
	// of the Gaussian perturbation
	// added to the rates of a daughter lineage
	// at each birth event.
	BirthSD float64
	DeathSD float64

	// Tips is the leaf count target.
	// A zero value means the target is unused.
	Tips int

	// MaxGen is the maximum number of generations.
	// Use a negative value for an unbounded run.
	// Note that a zero value is a valid bound,
	// and returns the tree unchanged.
	MaxGen int

	// Retry restarts the generation counter
	// when the only lineage of the tree dies.
	// By default the simulation fails
	// with ErrExtinction.
	// Note that only the counter is restarted:
	// the tree keeps its accumulated branch length
	// and regrows from its single lineage.
	Retry bool

	// NoTaxa skips the taxon assignment.
	NoTaxa bool

	// Name is the name used for a newly created tree.
	Name string

	// Tree is a pre-existing tree to be extended.
	Tree *tree.Tree

	// Names is the pool of taxon names,
	// assigned to the tips in random order.
	Names *tree.Namespace
}

func (p GenParam) validate() error {
	if p.Tips <= 0 && p.MaxGen < 0 {
		return errors.New("birthdeath: no termination condition defined")
	}
	return nil
}

// SimulateDiscrete simulates a phylogenetic tree
// under a discrete time birth-death process,
// with branch lengths in generations.
//
// At each generation,
// every current leaf adds one generation
// to its branch,
// and then draws a single uniform value:
// values under the birth rate split the leaf
// in two daughter lineages,
// values between the birth rate
// and the sum of both rates
// remove the leaf from the tree,
// and any other value keeps the leaf unchanged.
//
// After the last generation,
// a coda phase extends every terminal branch
// by the number of quiet generations
// expected before the next event,
// so terminal branches are not biased
// towards a zero length
// at the stopping boundary.
func SimulateDiscrete(p GenParam, rng *rand.Rand) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	name := p.Name
	if name == "" {
		name = "birth-death"
	}

	t := p.Tree
	if t == nil {
		t = tree.New(name)
	}

	rates := make(map[int]rate)
	gens := 0
	leaves := t.Leaves()
	for (p.Tips <= 0 || len(leaves) < p.Tips) && (p.MaxGen < 0 || gens < p.MaxGen) {
		for _, id := range leaves {
			if !t.Has(id) {
				continue
			}
			r, ok := rates[id]
			if !ok {
				r = rate{birth: p.BirthRate, death: p.DeathRate}
				rates[id] = r
			}
			t.AddLength(id, 1)

			u := rng.Float64()
			switch {
			case u < r.birth:
				for range 2 {
					c, err := t.Add(id)
					if err != nil {
						return nil, err
					}
					rates[c] = rate{
						birth: MutateRate(r.birth, p.BirthSD, rng),
						death: MutateRate(r.death, p.DeathSD, rng),
					}
				}
			case u < r.birth+r.death:
				if t.Len() > 1 {
					t.Prune(id)
					t.SuppressUnifurcations()
					continue
				}
				// the only lineage of the tree died
				if !p.Retry {
					return nil, fmt.Errorf("birthdeath: after %d generations: %w", gens, ErrExtinction)
				}
				gens = 0
			}
		}
		gens++
		leaves = t.Leaves()
	}

	// coda:
	// count the quiet generations
	// before the next event
	add := 0
	for p.MaxGen < 0 || gens < p.MaxGen {
		if rng.Float64() < p.BirthRate+p.DeathRate {
			break
		}
		add++
	}
	for _, id := range t.Leaves() {
		t.AddLength(id, float64(add))
	}

	if !p.NoTaxa {
		if err := assignRandomTaxa(t, p.Names, rng); err != nil {
			return nil, err
		}
	}
	return &Result{Tree: t, Time: float64(gens)}, nil
}

// AssignRandomTaxa assigns taxon names
// to the tips of the tree
// in random order,
// creating new names
// when the pool is exhausted.
func assignRandomTaxa(t *tree.Tree, names *tree.Namespace, rng *rand.Rand) error {
	if names == nil {
		names = tree.NewNamespace()
	}

	// names created here also grow the pool,
	// so the pool size must be fixed
	// before any assignment
	pool := names.Len()
	leaves := t.Leaves()
	next := 0
	n := 1
	for _, i := range rng.Perm(len(leaves)) {
		var tax string
		if next < pool {
			tax = names.Name(next)
			next++
		} else {
			for ; ; n++ {
				nm := fmt.Sprintf("T%d", n)
				if names.Has(nm) {
					continue
				}
				tax = names.Require(nm)
				break
			}
		}
		if err := t.SetTaxon(leaves[i], tax); err != nil {
			return err
		}
	}
	return nil
}
