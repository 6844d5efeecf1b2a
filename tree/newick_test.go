// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package tree_test

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/js-arias/treesim/tree"
)

func TestNewickRoundTrip(t *testing.T) {
	tr, _ := balanced(t)

	var buf bytes.Buffer
	if err := tr.Newick(&buf); err != nil {
		t.Fatalf("unable to write newick: %v", err)
	}
	out := buf.String()
	for _, tax := range []string{"A", "B", "C", "D"} {
		if !strings.Contains(out, tax) {
			t.Errorf("newick %q: missing taxon %q", out, tax)
		}
	}

	nt, err := tree.ReadNewick(strings.NewReader(out), "copy")
	if err != nil {
		t.Fatalf("unable to read newick: %v", err)
	}
	if got := len(nt.Leaves()); got != 4 {
		t.Errorf("leaves: got %d, want %d", got, 4)
	}
	for _, l := range nt.Leaves() {
		if got := nt.Depth(l); math.Abs(got-2) > 1e-10 {
			t.Errorf("taxon %s: depth: got %.6f, want %.6f", nt.Taxon(l), got, 2.0)
		}
	}
}

func TestTimeTree(t *testing.T) {
	tr, _ := balanced(t)

	tt, err := tr.TimeTree(1_000_000)
	if err != nil {
		t.Fatalf("unable to build time tree: %v", err)
	}
	if got := tt.Age(tt.Root()); got != 2_000_000 {
		t.Errorf("root age: got %d, want %d", got, 2_000_000)
	}

	terms := 0
	for _, id := range tt.Nodes() {
		if !tt.IsTerm(id) {
			continue
		}
		terms++
		if got := tt.Age(id); got != 0 {
			t.Errorf("taxon %s: age: got %d, want %d", tt.Taxon(id), got, 0)
		}
	}
	if terms != 4 {
		t.Errorf("terminals: got %d, want %d", terms, 4)
	}

	if _, err := tr.TimeTree(0); err == nil {
		t.Errorf("expecting error with an invalid scale")
	}
}

func TestFromTimeTree(t *testing.T) {
	tr, _ := balanced(t)
	tt, err := tr.TimeTree(1_000_000)
	if err != nil {
		t.Fatalf("unable to build time tree: %v", err)
	}

	nt, err := tree.FromTimeTree(tt, 1_000_000)
	if err != nil {
		t.Fatalf("unable to read time tree: %v", err)
	}
	if got := len(nt.Leaves()); got != 4 {
		t.Errorf("leaves: got %d, want %d", got, 4)
	}
	for _, l := range nt.Leaves() {
		if got := nt.Depth(l); math.Abs(got-2) > 1e-10 {
			t.Errorf("taxon %s: depth: got %.6f, want %.6f", nt.Taxon(l), got, 2.0)
		}
		if nt.Taxon(l) == "" {
			t.Errorf("node %d: without taxon", l)
		}
	}

	if _, err := tree.FromTimeTree(tt, 0); err == nil {
		t.Errorf("expecting error with an invalid scale")
	}
}
