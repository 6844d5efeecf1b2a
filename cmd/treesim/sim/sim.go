// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package sim implements a command to simulate
// phylogenetic trees
// under a continuous time birth-death process.
package sim

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/js-arias/command"
	"github.com/js-arias/timetree"
	"github.com/js-arias/treesim/birthdeath"
	"github.com/js-arias/treesim/tree"
)

var Command = &command.Command{
	Usage: `sim [-b|--birth <value>] [-d|--death <value>]
	[--birth-sd <value>] [--death-sd <value>]
	[--extant <number>] [--extinct <number>] [--total <number>]
	[--max-time <value>] [--gsa <number>]
	[--retain] [--fail]
	[--trees <number>] [--seed <number>]
	[--taxa <file>] [--name <tree-name>]
	[--newick] [--scale <value>]
	[-o|--output <file>]`,
	Short: "simulate trees with a birth-death process",
	Long: `
Command sim creates one or more random trees under a continuous time
birth-death process.

The birth and death rates are defined with the flags --birth, or -b, and
--death, or -d, as events per lineage per time unit. By default the birth rate
is 1 and the death rate is 0 (i.e., a Yule process). The rates can change
along the tree: at each speciation both daughter lineages receive the rates of
the parent perturbed with a Gaussian noise, with the standard deviations
defined by the flags --birth-sd and --death-sd. By default both deviations are
0 and the rates are constant.

At least one stopping condition must be defined. The flag --extant stops the
simulation when the indicated number of living lineages is reached; the flag
--extinct uses the number of extinct lineages; the flag --total uses the sum
of both; and the flag --max-time stops at the indicated time. If several
conditions are defined, the simulation stops at the first one met.

With the flag --gsa, the general sampling approach of Hartmann et al. (2010)
is used: the simulation runs until the number of living lineages given by
--gsa, and then a tree with the number of lineages given by --extant is
sampled, in proportion to the time spent at that number of lineages. The flag
--gsa can only be used with --extant, and must not be smaller than it.

If a lineage dies, it is pruned from the tree. To keep the extinct lineages
use the flag --retain. If the whole tree goes extinct, the simulation restarts
from scratch; with the flag --fail, the run stops with an error instead.

By default a single tree is created. Use the flag --trees to define a
different number of trees. The flag --seed defines the seed of the random
number generator; by default, the seed is taken at random. The flag --name
defines the name of the simulated trees; a sequential number is appended when
multiple trees are created.

The names of the terminals can be defined with the flag --taxa, with a file
containing one taxon name per line. If there are more terminals than names,
new names will be created automatically.

By default, the trees are written as a tab-delimited file of time calibrated
trees, with branch lengths scaled to years using the value of the flag
--scale; by default, a branch length unit is one million years. Use the flag
--newick to write the trees in parenthetical format with the original branch
lengths.

The output is printed in the standard output. Use the flag --output, or -o, to
define an output file.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var birthRate float64
var deathRate float64
var birthSD float64
var deathSD float64
var maxTime float64
var scale float64
var extant int
var extinct int
var total int
var gsa int
var numTrees int
var seed int64
var retain bool
var failExtinct bool
var toNewick bool
var taxaFile string
var treeName string
var output string

func setFlags(c *command.Command) {
	c.Flags().Float64Var(&birthRate, "birth", 1, "")
	c.Flags().Float64Var(&birthRate, "b", 1, "")
	c.Flags().Float64Var(&deathRate, "death", 0, "")
	c.Flags().Float64Var(&deathRate, "d", 0, "")
	c.Flags().Float64Var(&birthSD, "birth-sd", 0, "")
	c.Flags().Float64Var(&deathSD, "death-sd", 0, "")
	c.Flags().Float64Var(&maxTime, "max-time", 0, "")
	c.Flags().Float64Var(&scale, "scale", 1_000_000, "")
	c.Flags().IntVar(&extant, "extant", 0, "")
	c.Flags().IntVar(&extinct, "extinct", 0, "")
	c.Flags().IntVar(&total, "total", 0, "")
	c.Flags().IntVar(&gsa, "gsa", 0, "")
	c.Flags().IntVar(&numTrees, "trees", 1, "")
	c.Flags().Int64Var(&seed, "seed", 0, "")
	c.Flags().BoolVar(&retain, "retain", false, "")
	c.Flags().BoolVar(&failExtinct, "fail", false, "")
	c.Flags().BoolVar(&toNewick, "newick", false, "")
	c.Flags().StringVar(&taxaFile, "taxa", "", "")
	c.Flags().StringVar(&treeName, "name", "sim", "")
	c.Flags().StringVar(&output, "output", "", "")
	c.Flags().StringVar(&output, "o", "", "")
}

func run(c *command.Command, args []string) error {
	if extant == 0 && extinct == 0 && total == 0 && maxTime == 0 {
		return c.UsageError("expecting at least one stopping condition")
	}

	var names *tree.Namespace
	if taxaFile != "" {
		var err error
		names, err = readTaxa(taxaFile)
		if err != nil {
			return err
		}
	}

	rng := newRNG(seed)
	coll := timetree.NewCollection()
	var trees []*tree.Tree
	for i := 0; i < numTrees; i++ {
		name := treeName
		if numTrees > 1 {
			name = fmt.Sprintf("%s-%d", treeName, i)
		}
		p := birthdeath.Param{
			BirthRate:     birthRate,
			DeathRate:     deathRate,
			BirthSD:       birthSD,
			DeathSD:       deathSD,
			ExtantTips:    extant,
			ExtinctTips:   extinct,
			TotalTips:     total,
			MaxTime:       maxTime,
			GSA:           gsa,
			RetainExtinct: retain,
			FailOnExtinct: failExtinct,
			Name:          name,
			Names:         names,
		}
		res, err := birthdeath.Simulate(p, rng)
		if err != nil {
			return fmt.Errorf("on tree %q: %v", name, err)
		}

		if toNewick {
			trees = append(trees, res.Tree)
			continue
		}
		tt, err := res.Tree.TimeTree(scale)
		if err != nil {
			return err
		}
		tt.Format()
		if err := coll.Add(tt); err != nil {
			return fmt.Errorf("on tree %q: %v", name, err)
		}
	}

	w := c.Stdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if toNewick {
		return writeNewick(w, trees)
	}
	if err := coll.TSV(w); err != nil {
		return fmt.Errorf("while writing trees: %v", err)
	}
	return nil
}

// NewRNG returns a random number generator
// seeded with the given seed,
// or a random seed
// if the given seed is zero.
func newRNG(seed int64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

func readTaxa(name string) (*tree.Namespace, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	names := tree.NewNamespace()
	r := bufio.NewScanner(f)
	for r.Scan() {
		ln := strings.TrimSpace(r.Text())
		if ln == "" || strings.HasPrefix(ln, "#") {
			continue
		}
		names.Require(ln)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("while reading file %q: %v", name, err)
	}
	if names.Len() == 0 {
		return nil, fmt.Errorf("file %q: without taxon names", name)
	}
	return names, nil
}

func writeNewick(w io.Writer, trees []*tree.Tree) error {
	bw := bufio.NewWriter(w)
	for _, t := range trees {
		if err := t.Newick(bw); err != nil {
			return fmt.Errorf("on tree %q: %v", t.Name(), err)
		}
	}
	return bw.Flush()
}
