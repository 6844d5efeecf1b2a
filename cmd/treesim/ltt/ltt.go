// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package ltt implements a command to report
// the number of lineages through time.
package ltt

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/js-arias/command"
	"github.com/js-arias/timetree"
	"github.com/js-arias/treesim/tree"
)

var Command = &command.Command{
	Usage: `ltt [--newick] [--scale <value>]
	[--plot <file-prefix>]
	[-o|--output <file>] [<tree-file>...]`,
	Short: "count lineages through time",
	Long: `
Command ltt reads one or more trees from one or more tree files, and reports
the number of lineages at each branching or extinction time of each tree.

One or more tree files can be given as arguments. If no file is given the
trees will be read from the standard input.

By default, the input is expected to be in the form of tab-delimited tree
files of time calibrated trees, and the node ages will be scaled to branch
length units using the value of the flag --scale; by default, a branch length
unit is one million years. To read trees in parenthetical format (i.e.,
newick trees, one tree per line), use the flag --newick; in that case branch
lengths are used as given.

The output is a tab-delimited table with the name of the tree, the time of
each event measured from the root, and the number of lineages alive just
after the event, printed in the standard output. Use the flag --output, or
-o, to define an output file.

If the flag --plot is defined with a file prefix, the lineage through time
curve of each tree will be saved as a PNG file, using the indicated prefix
and the tree name.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var scale float64
var fromNewick bool
var plotPrefix string
var output string

func setFlags(c *command.Command) {
	c.Flags().Float64Var(&scale, "scale", 1_000_000, "")
	c.Flags().BoolVar(&fromNewick, "newick", false, "")
	c.Flags().StringVar(&plotPrefix, "plot", "", "")
	c.Flags().StringVar(&output, "output", "", "")
	c.Flags().StringVar(&output, "o", "", "")
}

func run(c *command.Command, args []string) (err error) {
	if len(args) == 0 {
		args = append(args, "-")
	}

	var trees []*tree.Tree
	for _, a := range args {
		fn := a
		if fn == "-" {
			fn = ""
		}
		var ts []*tree.Tree
		if fromNewick {
			ts, err = readNewick(c.Stdin(), fn)
		} else {
			ts, err = readTreeFile(c.Stdin(), fn)
		}
		if err != nil {
			return err
		}
		trees = append(trees, ts...)
	}

	w := c.Stdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer func() {
			e := f.Close()
			if e != nil && err == nil {
				err = e
			}
		}()
		w = f
	}

	tsv := csv.NewWriter(w)
	tsv.Comma = '\t'
	tsv.UseCRLF = true
	if err := tsv.Write([]string{"tree", "time", "lineages"}); err != nil {
		return err
	}
	for _, t := range trees {
		p := newProfile(t)
		for i, tm := range p.times {
			row := []string{
				t.Name(),
				strconv.FormatFloat(tm, 'f', 6, 64),
				strconv.Itoa(p.counts[i]),
			}
			if err := tsv.Write(row); err != nil {
				return err
			}
		}
		if plotPrefix != "" {
			if err := plotProfile(t.Name(), p); err != nil {
				return err
			}
		}
	}

	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return fmt.Errorf("while writing results: %v", err)
	}
	return nil
}

// A profile stores the number of lineages
// alive just after each event time,
// with times measured from the root
// and sorted in ascending order.
type profile struct {
	times  []float64
	counts []int
}

// tolerance to detect an extinct tip
// among the terminals of a tree.
const tipTolerance = 1e-9

func newProfile(t *tree.Tree) *profile {
	var max float64
	for _, l := range t.Leaves() {
		if d := t.Depth(l); d > max {
			max = d
		}
	}

	type event struct {
		time  float64
		delta int
	}
	var evs []event
	for _, id := range t.Nodes() {
		if t.IsTerm(id) {
			d := t.Depth(id)
			if d < max-tipTolerance {
				evs = append(evs, event{time: d, delta: -1})
			}
			continue
		}
		evs = append(evs, event{time: t.Depth(id), delta: len(t.Children(id)) - 1})
	}
	slices.SortFunc(evs, func(a, b event) int {
		if a.time < b.time {
			return -1
		}
		if a.time > b.time {
			return 1
		}
		return 0
	})

	p := &profile{}
	cur := 1
	for _, e := range evs {
		cur += e.delta
		p.times = append(p.times, e.time)
		p.counts = append(p.counts, cur)
	}
	p.times = append(p.times, max)
	p.counts = append(p.counts, cur)
	return p
}

func readTreeFile(r io.Reader, name string) ([]*tree.Tree, error) {
	if name != "" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	} else {
		name = "stdin"
	}

	coll, err := timetree.ReadTSV(r)
	if err != nil {
		return nil, fmt.Errorf("while reading file %q: %v", name, err)
	}

	var trees []*tree.Tree
	for _, tn := range coll.Names() {
		t, err := tree.FromTimeTree(coll.Tree(tn), scale)
		if err != nil {
			return nil, fmt.Errorf("on file %q: %v", name, err)
		}
		trees = append(trees, t)
	}
	return trees, nil
}

func readNewick(r io.Reader, name string) ([]*tree.Tree, error) {
	prefix := strings.TrimSuffix(name, ".tre")
	if name != "" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	} else {
		name = "stdin"
		prefix = "tree"
	}

	var trees []*tree.Tree
	sc := bufio.NewScanner(r)
	for i := 0; sc.Scan(); i++ {
		ln := strings.TrimSpace(sc.Text())
		if ln == "" {
			continue
		}
		tn := fmt.Sprintf("%s-%d", prefix, i)
		t, err := tree.ReadNewick(strings.NewReader(ln), tn)
		if err != nil {
			return nil, fmt.Errorf("on file %q: %v", name, err)
		}
		trees = append(trees, t)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("while reading file %q: %v", name, err)
	}
	return trees, nil
}
