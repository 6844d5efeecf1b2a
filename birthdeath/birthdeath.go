// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package birthdeath implements the simulation
// of phylogenetic trees
// under a stochastic birth-death branching process,
// in continuous or discrete time.
package birthdeath

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/js-arias/treesim/tree"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrExtinction is used when all lineages of a simulation
// go extinct before reaching a termination target.
var ErrExtinction = errors.New("all lineages extinct")

// Param is a collection of parameters
// for a continuous time birth-death simulation.
//
// At least one termination target
// (ExtantTips, ExtinctTips, TotalTips, or MaxTime)
// must be defined.
// If more than one is defined,
// the simulation stops when any of them is met.
type Param struct {
	// BirthRate and DeathRate are the rates
	// of the branching process,
	// in events per lineage per time unit.
	BirthRate float64
	DeathRate float64

	// BirthSD and DeathSD are the standard deviations
	// of the Gaussian perturbation
	// added to the rates of a daughter lineage
	// at each birth event.
	// With a zero value,
	// rates are inherited unchanged.
	BirthSD float64
	DeathSD float64

	// Termination targets.
	// A zero value means the target is unused.
	ExtantTips  int     // number of living tips
	ExtinctTips int     // number of extinct tips
	TotalTips   int     // number of living plus extinct tips
	MaxTime     float64 // maximum elapsed time

	// GSA defines the tip richness
	// used by the general sampling approach
	// of Hartmann et al. (2010),
	// Syst. Biol. 59: 465-476,
	// doi:10.1093/sysbio/syq026.
	// The simulation grows up to GSA living tips,
	// recording every interval
	// in which it had ExtantTips living tips,
	// and then one of the intervals is sampled,
	// weighted by its duration.
	// If GSA is defined,
	// ExtantTips must be defined,
	// and no other termination target
	// can be used.
	GSA int

	// RetainExtinct keeps extinct tips in the final tree.
	// By default they are pruned.
	RetainExtinct bool

	// MarkExtinct records an extinction flag
	// for every node of the final tree.
	MarkExtinct bool

	// FailOnExtinct makes the simulation fail
	// with ErrExtinction
	// when all lineages go extinct.
	// By default the run restarts from scratch.
	FailOnExtinct bool

	// NoExtantTaxa and NoExtinctTaxa skip
	// the taxon assignment
	// of the respective group of tips.
	NoExtantTaxa  bool
	NoExtinctTaxa bool

	// Name is the name used for a newly created tree.
	Name string

	// Tree is a pre-existing tree to be extended.
	// If nil,
	// a new tree with a single root lineage
	// will be created.
	Tree *tree.Tree

	// Extinct indicates the leaves of Tree
	// that are already extinct.
	Extinct map[int]bool

	// Names is the pool of taxon names
	// for the tips of the final tree.
	// Names are consumed in order;
	// when the pool is exhausted
	// new names will be created.
	Names *tree.Namespace
}

// Validate returns an error
// if the termination targets are missing
// or incompatible.
func (p Param) validate() error {
	if p.ExtantTips <= 0 && p.ExtinctTips <= 0 && p.TotalTips <= 0 && p.MaxTime <= 0 {
		return errors.New("birthdeath: no termination condition defined")
	}
	if p.GSA > 0 {
		if p.ExtantTips <= 0 {
			return errors.New("birthdeath: GSA requires an extant tips target")
		}
		if p.ExtinctTips > 0 || p.TotalTips > 0 || p.MaxTime > 0 {
			return errors.New("birthdeath: GSA is incompatible with extinct, total tips, or maximum time targets")
		}
		if p.GSA < p.ExtantTips {
			return fmt.Errorf("birthdeath: GSA richness %d smaller than extant tips target %d", p.GSA, p.ExtantTips)
		}
	}
	return nil
}

// A Result is the outcome of a simulation.
type Result struct {
	// Tree is the simulated tree.
	Tree *tree.Tree

	// Extinct is the extinction flag
	// of every node of the tree.
	// It is only defined
	// if the simulation was run
	// with the MarkExtinct parameter.
	Extinct map[int]bool

	// Time is the total simulated time,
	// or the number of generations
	// for a discrete time simulation.
	Time float64
}

// A rate is the pair of rates of a lineage.
type rate struct {
	birth, death float64
}

// A tipState stores the state of a tip
// at the start of a run,
// to restore the simulation
// after a total extinction.
type tipState struct {
	id     int
	length float64
}

// Simulate simulates a phylogenetic tree
// under a continuous time birth-death process.
//
// The waiting time between events
// is exponential,
// with a rate equal to the sum
// of the birth and death rates
// of every living lineage,
// and at each event a single lineage
// either splits in two daughter lineages
// or goes extinct,
// picked with a probability proportional
// to its rate.
func Simulate(p Param, rng *rand.Rand) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	name := p.Name
	if name == "" {
		name = "birth-death"
	}
	names := p.Names
	if names == nil {
		names = tree.NewNamespace()
	}

	t := p.Tree
	var extant, extinct []int
	freshRoot := false
	if t == nil {
		t = tree.New(name)
		extant = []int{t.Root()}
		freshRoot = true
	} else {
		for _, l := range t.Leaves() {
			if p.Extinct[l] {
				extinct = append(extinct, l)
				continue
			}
			extant = append(extant, l)
		}
	}

	// snapshot of the initial tips,
	// restored by value on a restart
	initExtant := make([]tipState, 0, len(extant))
	for _, id := range extant {
		initExtant = append(initExtant, tipState{id: id, length: t.Length(id)})
	}
	initExtinct := slices.Clone(extinct)

	rates := make(map[int]rate)
	var totalTime float64
	var gsaSlices []timeSlice

	for {
		if p.GSA == 0 {
			if p.ExtantTips > 0 && len(extant) >= p.ExtantTips {
				break
			}
			if p.ExtinctTips > 0 && len(extinct) >= p.ExtinctTips {
				break
			}
			if p.TotalTips > 0 && len(extant)+len(extinct) >= p.TotalTips {
				break
			}
			if p.MaxTime > 0 && totalTime >= p.MaxTime {
				break
			}
		}

		// one birth and one death event per living lineage,
		// weighted by the lineage rates
		weights := make([]float64, 0, 2*len(extant))
		var sum float64
		for _, id := range extant {
			r, ok := rates[id]
			if !ok {
				r = rate{birth: p.BirthRate, death: p.DeathRate}
				rates[id] = r
			}
			weights = append(weights, r.birth, r.death)
			sum += r.birth + r.death
		}

		// on a newly created tree
		// the clock starts at the first branching,
		// so the root keeps a zero length branch
		// and every tip depth equals
		// the total elapsed time
		var wait float64
		if !freshRoot || totalTime > 0 || len(extant) != 1 {
			exp := distuv.Exponential{
				Rate: sum,
				Src:  source{rng},
			}
			wait = exp.Rand()
		}

		if p.GSA > 0 {
			if len(extant) == p.ExtantTips {
				gsaSlices = append(gsaSlices, newTimeSlice(t, extant, totalTime, wait))
			}
			// the dwell interval at the target richness
			// must be recorded
			// before the growth stops,
			// as the GSA richness can be equal
			// to the target itself
			if len(extant) >= p.GSA {
				break
			}
		}

		for _, id := range extant {
			t.AddLength(id, wait)
		}
		totalTime += wait

		if p.MaxTime > 0 && totalTime > p.MaxTime {
			continue
		}

		ev := Pick(weights, rng)
		id := extant[ev/2]
		extant = slices.Delete(extant, ev/2, ev/2+1)
		if ev%2 == 0 {
			// a birth:
			// the lineage splits
			// in two daughter lineages
			r := rates[id]
			for range 2 {
				c, err := t.Add(id)
				if err != nil {
					return nil, err
				}
				rates[c] = rate{
					birth: MutateRate(r.birth, p.BirthSD, rng),
					death: MutateRate(r.death, p.DeathSD, rng),
				}
				extant = append(extant, c)
			}
			continue
		}

		// a death
		if len(extant) > 0 {
			extinct = append(extinct, id)
			continue
		}

		// total extinction
		if p.GSA > 0 && len(gsaSlices) > 0 {
			// the run already passed
			// through the target richness:
			// sample from the recorded intervals
			break
		}
		if p.FailOnExtinct {
			return nil, fmt.Errorf("birthdeath: after %.6f time units: %w", totalTime, ErrExtinction)
		}

		// restart from the initial state
		for _, ts := range initExtant {
			t.DropDescendants(ts.id)
			if err := t.SetLength(ts.id, ts.length); err != nil {
				return nil, err
			}
		}
		extant = extant[:0]
		for _, ts := range initExtant {
			extant = append(extant, ts.id)
		}
		extinct = slices.Clone(initExtinct)
		rates = make(map[int]rate)
		totalTime = 0
	}

	if p.GSA > 0 {
		extant, extinct, totalTime = sampleSlice(t, gsaSlices, extinct, rng)
	}

	if !p.RetainExtinct {
		pruneExtinct(t, extinct)
		extinct = nil
	}
	t.SuppressUnifurcations()

	if err := assignTaxa(t, p, names, extant, extinct); err != nil {
		return nil, err
	}

	res := &Result{
		Tree: t,
		Time: totalTime,
	}
	if p.MarkExtinct {
		res.Extinct = make(map[int]bool, t.Len())
		for _, id := range t.Nodes() {
			res.Extinct[id] = false
		}
		for _, id := range extinct {
			if t.Has(id) {
				res.Extinct[id] = true
			}
		}
	}
	return res, nil
}

// PruneExtinct removes every extinct tip
// with its straight line ancestry,
// up to the first branching ancestor.
func pruneExtinct(t *tree.Tree, extinct []int) {
	for _, id := range extinct {
		if !t.Has(id) {
			continue
		}
		for {
			p := t.Parent(id)
			if p < 0 {
				break
			}
			if len(t.Children(p)) != 1 {
				break
			}
			id = p
		}
		if t.Parent(id) < 0 {
			continue
		}
		t.Prune(id)
	}
}

// AssignTaxa assigns taxon names
// to the tips of the final tree,
// consuming the name pool in order.
// When the pool is exhausted,
// new names are created,
// with the form "T<n>" for living tips
// and "X<n>" for extinct tips.
func assignTaxa(t *tree.Tree, p Param, names *tree.Namespace, extant, extinct []int) error {
	// names created here also grow the pool,
	// so the pool size must be fixed
	// before any assignment
	pool := names.Len()
	next := 0
	assign := func(tips []int, prefix string) error {
		for i, id := range tips {
			if !t.Has(id) {
				continue
			}
			var tax string
			if next < pool {
				tax = names.Name(next)
				next++
			} else {
				for n := i + 1; ; n++ {
					nm := fmt.Sprintf("%s%d", prefix, n)
					if names.Has(nm) {
						continue
					}
					tax = names.Require(nm)
					break
				}
			}
			if err := t.SetTaxon(id, tax); err != nil {
				return err
			}
		}
		return nil
	}

	if !p.NoExtantTaxa {
		if err := assign(extant, "T"); err != nil {
			return err
		}
	}
	if !p.NoExtinctTaxa {
		if err := assign(extinct, "X"); err != nil {
			return err
		}
	}
	return nil
}
