// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package ltt

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// An lttPlot is a step plot of the number of lineages
// through time.
type lttPlot struct {
	p     *profile
	style draw.LineStyle
}

// DataRange implements the plot.DataRanger interface.
func (lp *lttPlot) DataRange() (xMin, xMax, yMin, yMax float64) {
	xMax = lp.p.times[len(lp.p.times)-1]
	for _, c := range lp.p.counts {
		if v := float64(c); v > yMax {
			yMax = v
		}
	}
	return 0, xMax, 0, yMax + 1
}

// Plot implements the plot.Plotter interface.
func (lp *lttPlot) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)

	c.SetLineStyle(lp.style)
	var p vg.Path
	cur := 1
	p.Move(vg.Point{X: trX(0), Y: trY(float64(cur))})
	for i, tm := range lp.p.times {
		x := trX(tm)
		p.Line(vg.Point{X: x, Y: trY(float64(cur))})
		cur = lp.p.counts[i]
		p.Line(vg.Point{X: x, Y: trY(float64(cur))})
	}
	c.Stroke(p)
}

func plotProfile(name string, pf *profile) error {
	p := plot.New()
	p.X.Label.Text = "time"
	p.Y.Label.Text = "lineages"

	p.Add(&lttPlot{
		p:     pf,
		style: plotter.DefaultLineStyle,
	})

	file := fmt.Sprintf("%s-%s.png", plotPrefix, name)
	if err := p.Save(6*vg.Inch, 4*vg.Inch, file); err != nil {
		return err
	}
	return nil
}
