// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package tree implements a rooted phylogenetic tree
// with branch lengths,
// designed to be grown and pruned
// by a stochastic simulation.
package tree

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidNode is used when a node ID
// is not part of a tree.
var ErrInvalidNode = errors.New("invalid node ID")

// A Tree is a rooted phylogenetic tree.
//
// Nodes are identified by an integer ID,
// and stored in an arena,
// so removing a whole subtree
// is a bulk operation.
// The ID of a child is always greater
// than the ID of its parent.
type Tree struct {
	name string
	root int
	next int

	nodes map[int]*node
	taxa  map[string]int
}

type node struct {
	id       int
	parent   int
	children []int

	length float64
	taxon  string
}

// New creates a new tree
// with the given name
// and a single root node
// with a zero length branch.
func New(name string) *Tree {
	t := &Tree{
		name:  name,
		root:  0,
		next:  1,
		nodes: make(map[int]*node),
		taxa:  make(map[string]int),
	}
	t.nodes[0] = &node{
		id:     0,
		parent: -1,
	}
	return t
}

// Add adds a new childless node
// as a child of the indicated node,
// with a zero length branch,
// and returns the ID of the added node.
func (t *Tree) Add(id int) (int, error) {
	p, ok := t.nodes[id]
	if !ok {
		return -1, fmt.Errorf("tree %q: parent %d: %w", t.name, id, ErrInvalidNode)
	}

	n := &node{
		id:     t.next,
		parent: p.id,
	}
	t.next++
	t.nodes[n.id] = n
	p.children = append(p.children, n.id)
	return n.id, nil
}

// AddLength adds the given amount
// to the length of the branch
// that ends at the indicated node.
func (t *Tree) AddLength(id int, delta float64) {
	n, ok := t.nodes[id]
	if !ok {
		return
	}
	n.length += delta
}

// Children returns the IDs of the children
// of the indicated node.
func (t *Tree) Children(id int) []int {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	return slices.Clone(n.children)
}

// Depth returns the sum of branch lengths
// in the path from the root
// to the indicated node.
func (t *Tree) Depth(id int) float64 {
	n, ok := t.nodes[id]
	if !ok {
		return 0
	}

	var d float64
	for {
		d += n.length
		if n.parent < 0 {
			return d
		}
		n = t.nodes[n.parent]
	}
}

// DropDescendants removes all descendants
// of the indicated node,
// turning it into a childless tip,
// and returns the IDs of the removed nodes.
func (t *Tree) DropDescendants(id int) []int {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}

	var rm []int
	for _, c := range n.children {
		rm = append(rm, t.remove(c)...)
	}
	n.children = nil
	return rm
}

// Has reports whether a node
// is part of the tree.
func (t *Tree) Has(id int) bool {
	_, ok := t.nodes[id]
	return ok
}

// IsRoot reports whether a node
// is the root of the tree.
func (t *Tree) IsRoot(id int) bool {
	return id == t.root
}

// IsTerm reports whether a node
// is a terminal
// (i.e. a childless tip).
func (t *Tree) IsTerm(id int) bool {
	n, ok := t.nodes[id]
	if !ok {
		return false
	}
	return len(n.children) == 0
}

// Leaves returns the IDs of all tips of the tree,
// sorted by ID.
func (t *Tree) Leaves() []int {
	var ls []int
	for _, n := range t.nodes {
		if len(n.children) == 0 {
			ls = append(ls, n.id)
		}
	}
	slices.Sort(ls)
	return ls
}

// Len returns the number of nodes
// in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Length returns the length of the branch
// that ends at the indicated node.
func (t *Tree) Length(id int) float64 {
	n, ok := t.nodes[id]
	if !ok {
		return 0
	}
	return n.length
}

// Name returns the name of the tree.
func (t *Tree) Name() string {
	return t.name
}

// Nodes returns the IDs of all nodes of the tree,
// sorted by ID.
func (t *Tree) Nodes() []int {
	ids := make([]int, 0, len(t.nodes))
	for _, n := range t.nodes {
		ids = append(ids, n.id)
	}
	slices.Sort(ids)
	return ids
}

// Parent returns the ID of the parent
// of the indicated node,
// or -1 for the root.
func (t *Tree) Parent(id int) int {
	n, ok := t.nodes[id]
	if !ok {
		return -1
	}
	return n.parent
}

// Prune removes the indicated node,
// and all of its descendants,
// and returns the IDs of the removed nodes.
// The root of the tree can not be pruned.
func (t *Tree) Prune(id int) ([]int, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("tree %q: node %d: %w", t.name, id, ErrInvalidNode)
	}
	if n.parent < 0 {
		return nil, fmt.Errorf("tree %q: node %d: can not prune the root", t.name, id)
	}

	p := t.nodes[n.parent]
	i := slices.Index(p.children, n.id)
	p.children = slices.Delete(p.children, i, i+1)
	return t.remove(n.id), nil
}

// SetLength sets the length of the branch
// that ends at the indicated node.
func (t *Tree) SetLength(id int, length float64) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("tree %q: node %d: %w", t.name, id, ErrInvalidNode)
	}
	if length < 0 {
		return fmt.Errorf("tree %q: node %d: invalid branch length %.6f", t.name, id, length)
	}
	n.length = length
	return nil
}

// SetTaxon sets the taxon name
// of the indicated node.
func (t *Tree) SetTaxon(id int, name string) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("tree %q: node %d: %w", t.name, id, ErrInvalidNode)
	}
	if name == "" {
		delete(t.taxa, n.taxon)
		n.taxon = ""
		return nil
	}
	if other, dup := t.taxa[name]; dup && other != id {
		return fmt.Errorf("tree %q: node %d: taxon %q already in use", t.name, id, name)
	}

	delete(t.taxa, n.taxon)
	n.taxon = name
	t.taxa[name] = id
	return nil
}

// SuppressUnifurcations removes every node
// with a single child,
// adding its branch length
// to the branch of its child.
// If the root ends with a single child,
// that child will become the new root.
func (t *Tree) SuppressUnifurcations() {
	// Children have greater IDs than their parents,
	// so a single ascending pass collapses
	// any chain of unifurcations.
	for _, id := range t.Nodes() {
		n, ok := t.nodes[id]
		if !ok {
			continue
		}
		if len(n.children) != 1 {
			continue
		}

		c := t.nodes[n.children[0]]
		c.length += n.length
		if n.parent < 0 {
			c.parent = -1
			t.root = c.id
			delete(t.nodes, n.id)
			continue
		}

		p := t.nodes[n.parent]
		i := slices.Index(p.children, n.id)
		p.children[i] = c.id
		c.parent = p.id
		delete(t.nodes, n.id)
	}
}

// Root returns the ID of the root node.
func (t *Tree) Root() int {
	return t.root
}

// Taxon returns the taxon name
// of the indicated node.
func (t *Tree) Taxon(id int) string {
	n, ok := t.nodes[id]
	if !ok {
		return ""
	}
	return n.taxon
}

// remove deletes a node and all of its descendants
// from the arena,
// and returns the removed IDs.
// The caller must detach the node
// from its parent.
func (t *Tree) remove(id int) []int {
	n := t.nodes[id]
	rm := []int{id}
	for _, c := range n.children {
		rm = append(rm, t.remove(c)...)
	}
	delete(t.taxa, n.taxon)
	delete(t.nodes, id)
	return rm
}
