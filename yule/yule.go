// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package yule implements the pure-birth
// (Yule)
// model of diversification,
// including the maximum likelihood estimation
// of the birth rate
// from an ultrametric tree.
package yule

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/js-arias/treesim/tree"
	"gonum.org/v1/gonum/floats"
)

// ErrLikelihood is used when the likelihood
// of a model can not be calculated.
var ErrLikelihood = errors.New("likelihood calculation failed")

// ErrNotUltrametric is used when the tips of a tree
// are not equidistant from the root.
var ErrNotUltrametric = errors.New("tree is not ultrametric")

// Precision is the default tolerance
// used to check the ultrametricity of a tree.
const Precision = 1e-7

// An Estimate is the maximum likelihood estimate
// of a pure-birth model.
type Estimate struct {
	// BirthRate is the estimated birth rate.
	BirthRate float64

	// LogLike is the log likelihood
	// of the model
	// at the estimated birth rate.
	LogLike float64
}

// Fit returns the maximum likelihood estimate
// of the birth rate of a pure-birth model,
// given the ages of the internal nodes
// of an ultrametric tree
// (i.e. the time from each internal node
// to its descendant tips).
//
// For ages t1 ≥ t2 ≥ … ≥ tn-1,
// with n the number of tips,
// the estimate is
//
//	(n-1) / (2*t1 + t2 + … + tn-1)
//
// and its log likelihood is
//
//	ln(n!) + (n-1) ln(rate) - (n-1)
//
// With degenerate input
// (less than two ages,
// or an estimate with an undefined logarithm)
// the returned log likelihood is -Inf;
// in strict mode the fit fails
// with ErrLikelihood instead.
func Fit(ages []float64, strict bool) (Estimate, error) {
	if len(ages) < 2 {
		if strict {
			return Estimate{}, fmt.Errorf("yule: %d node ages: %w", len(ages), ErrLikelihood)
		}
		return Estimate{LogLike: math.Inf(-1)}, nil
	}

	x := slices.Clone(ages)
	slices.Sort(x)
	slices.Reverse(x)

	n := len(x) + 1
	rate := float64(n-1) / (x[0] + floats.Sum(x))
	if rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
		if strict {
			return Estimate{}, fmt.Errorf("yule: estimated rate %.6f: %w", rate, ErrLikelihood)
		}
		return Estimate{BirthRate: rate, LogLike: math.Inf(-1)}, nil
	}

	var logLike float64
	for i := 2; i <= n; i++ {
		logLike += math.Log(float64(i))
	}
	logLike += float64(n-1)*math.Log(rate) - float64(n-1)

	return Estimate{BirthRate: rate, LogLike: logLike}, nil
}

// FitTree returns the maximum likelihood estimate
// of the birth rate of a pure-birth model
// for the given tree.
// The tree must be ultrametric
// within the given precision;
// use a negative precision
// to skip the ultrametricity check.
func FitTree(t *tree.Tree, precision float64, strict bool) (Estimate, error) {
	ages, err := TreeAges(t, precision)
	if err != nil {
		return Estimate{}, err
	}
	return Fit(ages, strict)
}

// TreeAges returns the ages of the internal nodes
// of the given tree,
// measured from the depth
// of its deepest tip.
// The tree must be ultrametric
// within the given precision;
// use a negative precision
// to skip the ultrametricity check.
func TreeAges(t *tree.Tree, precision float64) ([]float64, error) {
	var max float64
	for _, l := range t.Leaves() {
		if d := t.Depth(l); d > max {
			max = d
		}
	}
	if precision >= 0 {
		for _, l := range t.Leaves() {
			d := t.Depth(l)
			if max-d > precision {
				return nil, fmt.Errorf("yule: tree %q: tip %d at depth %.6f, want %.6f: %w", t.Name(), l, d, max, ErrNotUltrametric)
			}
		}
	}

	var ages []float64
	for _, id := range t.Nodes() {
		if t.IsTerm(id) {
			continue
		}
		ages = append(ages, max-t.Depth(id))
	}
	return ages, nil
}
