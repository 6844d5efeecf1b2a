// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package fit implements a command to estimate
// the speciation rate of a tree
// under a pure birth process.
package fit

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/js-arias/command"
	"github.com/js-arias/timetree"
	"github.com/js-arias/treesim/tree"
	"github.com/js-arias/treesim/yule"
)

var Command = &command.Command{
	Usage: `fit [--newick] [--scale <value>]
	[--precision <value>]
	[-o|--output <file>] [<tree-file>...]`,
	Short: "fit a pure birth model to trees",
	Long: `
Command fit reads one or more trees from one or more tree files, and reports
the maximum likelihood estimate of the speciation rate of each tree under a
pure birth (Yule) process, with its log likelihood.

One or more tree files can be given as arguments. If no file is given the
trees will be read from the standard input.

By default, the input is expected to be in the form of tab-delimited tree
files of time calibrated trees, and the node ages will be scaled to branch
length units using the value of the flag --scale; by default, a branch length
unit is one million years. To read trees in parenthetical format (i.e.,
newick trees, one tree per line), use the flag --newick; in that case branch
lengths are used as given.

The estimate is only valid for ultrametric trees, that is, trees in which all
the terminals are at the same distance from the root. The flag --precision
defines the maximum allowed difference between terminals, in branch length
units; by default, the precision is 1e-7.

The output is a tab-delimited table with the name of the tree, the number of
terminals, the estimated speciation rate, and its log likelihood, printed in
the standard output. Use the flag --output, or -o, to define an output file.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var scale float64
var precision float64
var fromNewick bool
var output string

func setFlags(c *command.Command) {
	c.Flags().Float64Var(&scale, "scale", 1_000_000, "")
	c.Flags().Float64Var(&precision, "precision", yule.Precision, "")
	c.Flags().BoolVar(&fromNewick, "newick", false, "")
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
	if err := tsv.Write([]string{"tree", "terms", "birth-rate", "logLike"}); err != nil {
		return err
	}
	for _, t := range trees {
		est, err := yule.FitTree(t, precision, false)
		if err != nil {
			return fmt.Errorf("on tree %q: %v", t.Name(), err)
		}
		row := []string{
			t.Name(),
			strconv.Itoa(len(t.Leaves())),
			strconv.FormatFloat(est.BirthRate, 'f', 6, 64),
			strconv.FormatFloat(est.LogLike, 'f', 6, 64),
		}
		if err := tsv.Write(row); err != nil {
			return err
		}
	}

	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return fmt.Errorf("while writing results: %v", err)
	}
	return nil
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
