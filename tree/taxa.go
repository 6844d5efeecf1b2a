// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package tree

import "slices"

// A Namespace is an ordered pool of taxon names.
//
// Names keep the order in which they were added,
// so the pool can be consumed by index.
type Namespace struct {
	names []string
	ids   map[string]int
}

// NewNamespace creates a new namespace
// with the given taxon names.
// Repeated names are stored only once.
func NewNamespace(names ...string) *Namespace {
	ns := &Namespace{
		ids: make(map[string]int, len(names)),
	}
	for _, n := range names {
		ns.Require(n)
	}
	return ns
}

// Has reports whether a taxon name
// is part of the namespace.
func (ns *Namespace) Has(name string) bool {
	_, ok := ns.ids[name]
	return ok
}

// Len returns the number of taxon names
// in the namespace.
func (ns *Namespace) Len() int {
	return len(ns.names)
}

// Name returns the taxon name
// at the indicated position.
func (ns *Namespace) Name(i int) string {
	if i < 0 || i >= len(ns.names) {
		return ""
	}
	return ns.names[i]
}

// Names returns a copy of all names
// in the namespace,
// in addition order.
func (ns *Namespace) Names() []string {
	return slices.Clone(ns.names)
}

// Require returns the given taxon name,
// adding it to the namespace
// if it is not already present.
// Empty names are ignored.
func (ns *Namespace) Require(name string) string {
	if name == "" {
		return ""
	}
	if _, ok := ns.ids[name]; ok {
		return name
	}
	ns.ids[name] = len(ns.names)
	ns.names = append(ns.names, name)
	return name
}
