// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package yule

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/js-arias/treesim/tree"
	"gonum.org/v1/gonum/stat/distuv"
)

// UniformTree simulates a pure-birth tree
// with a single birth rate,
// with one tip per name
// of the given namespace.
//
// The waiting time between birth events
// is exponential,
// with a rate equal to the birth rate
// times the number of living lineages,
// and the splitting lineage is picked
// with uniform probability.
// After the last split,
// terminal branches are extended
// by an additional waiting time,
// so they do not end
// exactly at a birth event.
func UniformTree(names *tree.Namespace, birthRate float64, name string, rng *rand.Rand) (*tree.Tree, error) {
	if names == nil || names.Len() == 0 {
		return nil, errors.New("yule: undefined taxon namespace")
	}
	if birthRate <= 0 {
		return nil, fmt.Errorf("yule: invalid birth rate %.6f", birthRate)
	}
	if name == "" {
		name = "pure-birth"
	}

	t := tree.New(name)
	leaves := []int{t.Root()}
	for len(leaves) < names.Len() {
		wait := waitTime(birthRate, len(leaves), rng)
		for _, id := range leaves {
			t.AddLength(id, wait)
		}

		i := rng.IntN(len(leaves))
		id := leaves[i]
		leaves = append(leaves[:i], leaves[i+1:]...)
		for range 2 {
			c, err := t.Add(id)
			if err != nil {
				return nil, err
			}
			leaves = append(leaves, c)
		}
	}

	wait := waitTime(birthRate, len(leaves), rng)
	for _, id := range leaves {
		t.AddLength(id, wait)
	}

	for i, id := range t.Leaves() {
		if err := t.SetTaxon(id, names.Name(i)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func waitTime(birthRate float64, lineages int, rng *rand.Rand) float64 {
	exp := distuv.Exponential{
		Rate: birthRate * float64(lineages),
		Src:  source{rng},
	}
	return exp.Rand()
}

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
