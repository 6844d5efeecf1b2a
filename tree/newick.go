// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package tree

import (
	"fmt"
	"io"

	"github.com/evolbioinfo/gotree/io/newick"
	gotree "github.com/evolbioinfo/gotree/tree"
)

// Gotree returns the tree
// as a gotree tree,
// ready for Newick output.
func (t *Tree) Gotree() *gotree.Tree {
	gt := gotree.NewTree()
	root := gt.NewNode()
	root.SetName(t.Taxon(t.root))
	gt.SetRoot(root)
	t.copyGotree(gt, t.root, root)
	return gt
}

func (t *Tree) copyGotree(gt *gotree.Tree, id int, gn *gotree.Node) {
	for _, c := range t.Children(id) {
		cn := gt.NewNode()
		cn.SetName(t.Taxon(c))
		e := gt.ConnectNodes(gn, cn)
		e.SetLength(t.Length(c))
		t.copyGotree(gt, c, cn)
	}
}

// Newick writes the tree,
// in parenthetical (Newick) format,
// to the given writer.
func (t *Tree) Newick(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s\n", t.Gotree().Newick()); err != nil {
		return fmt.Errorf("tree %q: %v", t.name, err)
	}
	return nil
}

// ReadNewick reads a tree
// in parenthetical (Newick) format
// from the given reader,
// and returns it with the given name.
func ReadNewick(r io.Reader, name string) (*Tree, error) {
	gt, err := newick.NewParser(r).Parse()
	if err != nil {
		return nil, fmt.Errorf("tree %q: %v", name, err)
	}
	root := gt.Root()
	if root == nil {
		return nil, fmt.Errorf("tree %q: unrooted tree", name)
	}

	// orient all edges away from the root
	adj := make(map[*gotree.Node][]adjEdge)
	for _, e := range gt.Edges() {
		l, g := e.Left(), e.Right()
		bl := e.Length()
		if bl < 0 {
			bl = 0
		}
		adj[l] = append(adj[l], adjEdge{node: g, length: bl})
		adj[g] = append(adj[g], adjEdge{node: l, length: bl})
	}

	t := New(name)
	if err := copyNewick(t, adj, root, nil, t.Root()); err != nil {
		return nil, err
	}
	return t, nil
}

type adjEdge struct {
	node   *gotree.Node
	length float64
}

func copyNewick(t *Tree, adj map[*gotree.Node][]adjEdge, gn, prev *gotree.Node, id int) error {
	if name := gn.Name(); name != "" {
		if err := t.SetTaxon(id, name); err != nil {
			return err
		}
	}
	for _, a := range adj[gn] {
		if a.node == prev {
			continue
		}
		c, err := t.Add(id)
		if err != nil {
			return err
		}
		if err := t.SetLength(c, a.length); err != nil {
			return err
		}
		if err := copyNewick(t, adj, a.node, gn, c); err != nil {
			return err
		}
	}
	return nil
}
