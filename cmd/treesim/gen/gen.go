// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package gen implements a command to simulate
// phylogenetic trees
// under a discrete time birth-death process.
package gen

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
	Usage: `gen [-b|--birth <value>] [-d|--death <value>]
	[--birth-sd <value>] [--death-sd <value>]
	[--tips <number>] [--max-gen <number>]
	[--retry]
	[--trees <number>] [--seed <number>]
	[--taxa <file>] [--name <tree-name>]
	[--newick] [--scale <value>]
	[-o|--output <file>]`,
	Short: "simulate trees with a generational birth-death process",
	Long: `
Command gen creates one or more random trees under a discrete time (i.e.,
generational) birth-death process, with branch lengths in generations.

The birth and death rates are defined with the flags --birth, or -b, and
--death, or -d, as probabilities of a speciation or an extinction per lineage
per generation. By default the birth rate is 0.1 and the death rate is 0. The
rates can change along the tree: at each speciation both daughter lineages
receive the rates of the parent perturbed with a Gaussian noise, with the
standard deviations defined by the flags --birth-sd and --death-sd. By
default both deviations are 0 and the rates are constant.

At least one stopping condition must be defined. The flag --tips stops the
simulation when the indicated number of lineages is reached; the flag
--max-gen stops after the indicated number of generations. If both are
defined, the simulation stops at the first one met. After the stopping
generation, the terminal branches are extended by the number of generations
expected before the next event.

If the only lineage of the tree dies, the run stops with an error. Use the
flag --retry to restart the generation count and regrow the tree instead.

By default a single tree is created. Use the flag --trees to define a
different number of trees. The flag --seed defines the seed of the random
number generator; by default, the seed is taken at random. The flag --name
defines the name of the simulated trees; a sequential number is appended when
multiple trees are created.

The names of the terminals can be defined with the flag --taxa, with a file
containing one taxon name per line. The names are assigned to the tips in
random order; if there are more tips than names, new names will be created
automatically.

By default, the trees are written as a tab-delimited file of time calibrated
trees, with generations scaled to years using the value of the flag --scale;
by default, a generation is one million years. Use the flag --newick to write
the trees in parenthetical format with branch lengths in generations.

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
var scale float64
var tips int
var maxGen int
var numTrees int
var seed int64
var retry bool
var toNewick bool
var taxaFile string
var treeName string
var output string

func setFlags(c *command.Command) {
	c.Flags().Float64Var(&birthRate, "birth", 0.1, "")
	c.Flags().Float64Var(&birthRate, "b", 0.1, "")
	c.Flags().Float64Var(&deathRate, "death", 0, "")
	c.Flags().Float64Var(&deathRate, "d", 0, "")
	c.Flags().Float64Var(&birthSD, "birth-sd", 0, "")
	c.Flags().Float64Var(&deathSD, "death-sd", 0, "")
	c.Flags().Float64Var(&scale, "scale", 1_000_000, "")
	c.Flags().IntVar(&tips, "tips", 0, "")
	c.Flags().IntVar(&maxGen, "max-gen", -1, "")
	c.Flags().IntVar(&numTrees, "trees", 1, "")
	c.Flags().Int64Var(&seed, "seed", 0, "")
	c.Flags().BoolVar(&retry, "retry", false, "")
	c.Flags().BoolVar(&toNewick, "newick", false, "")
	c.Flags().StringVar(&taxaFile, "taxa", "", "")
	c.Flags().StringVar(&treeName, "name", "gen", "")
	c.Flags().StringVar(&output, "output", "", "")
	c.Flags().StringVar(&output, "o", "", "")
}

func run(c *command.Command, args []string) error {
	if tips <= 0 && maxGen < 0 {
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
		p := birthdeath.GenParam{
			BirthRate: birthRate,
			DeathRate: deathRate,
			BirthSD:   birthSD,
			DeathSD:   deathSD,
			Tips:      tips,
			MaxGen:    maxGen,
			Retry:     retry,
			Name:      name,
			Names:     names,
		}
		res, err := birthdeath.SimulateDiscrete(p, rng)
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
