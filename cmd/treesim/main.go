// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// TreeSim is a tool to simulate phylogenetic trees
// under birth-death processes.
package main

import (
	"github.com/js-arias/command"
	"github.com/js-arias/treesim/cmd/treesim/fit"
	"github.com/js-arias/treesim/cmd/treesim/gen"
	"github.com/js-arias/treesim/cmd/treesim/ltt"
	"github.com/js-arias/treesim/cmd/treesim/sim"
)

var app = &command.Command{
	Usage: "treesim <command> [<argument>...]",
	Short: "a tool to simulate phylogenetic trees",
}

func init() {
	app.Add(fit.Command)
	app.Add(gen.Command)
	app.Add(ltt.Command)
	app.Add(sim.Command)
}

func main() {
	app.Main()
}
