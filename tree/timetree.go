// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package tree

import (
	"fmt"
	"math"

	"github.com/js-arias/timetree"
)

// TimeTree returns the tree
// as a time calibrated tree,
// with the given scale
// in years per branch length unit.
// The age of the root is the depth
// of the deepest tip of the tree.
func (t *Tree) TimeTree(scale float64) (*timetree.Tree, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("tree %q: invalid scale %.6f", t.name, scale)
	}

	var max float64
	for _, l := range t.Leaves() {
		if d := t.Depth(l); d > max {
			max = d
		}
	}

	tt := timetree.New(t.name, int64(math.Round(max*scale)))
	if err := t.copyNode(tt, t.root, tt.Root(), scale); err != nil {
		return nil, err
	}
	return tt, nil
}

func (t *Tree) copyNode(tt *timetree.Tree, id, ttID int, scale float64) error {
	for _, c := range t.Children(id) {
		brLen := int64(math.Round(t.Length(c) * scale))
		ct, err := tt.Add(ttID, brLen, t.Taxon(c))
		if err != nil {
			return fmt.Errorf("tree %q: node %d: %v", t.name, c, err)
		}
		if err := t.copyNode(tt, c, ct, scale); err != nil {
			return err
		}
	}
	return nil
}

// FromTimeTree returns a tree
// from a time calibrated tree,
// with branch lengths scaled
// by the given scale
// in years per branch length unit.
func FromTimeTree(tt *timetree.Tree, scale float64) (*Tree, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("tree %q: invalid scale %.6f", tt.Name(), scale)
	}

	t := New(tt.Name())
	if err := copyTimeNode(t, tt, tt.Root(), t.root, scale); err != nil {
		return nil, err
	}
	return t, nil
}

func copyTimeNode(t *Tree, tt *timetree.Tree, ttID, id int, scale float64) error {
	for _, c := range tt.Children(ttID) {
		nc, err := t.Add(id)
		if err != nil {
			return err
		}
		bl := float64(tt.Age(ttID)-tt.Age(c)) / scale
		if bl < 0 {
			bl = 0
		}
		if err := t.SetLength(nc, bl); err != nil {
			return err
		}
		if tax := tt.Taxon(c); tax != "" {
			if err := t.SetTaxon(nc, tax); err != nil {
				return fmt.Errorf("tree %q: node %d: %v", tt.Name(), c, err)
			}
		}
		if err := copyTimeNode(t, tt, c, nc, scale); err != nil {
			return err
		}
	}
	return nil
}
