// Package binning accumulates scattered (x, y, value) observations into a
// regular 2D axis grid, keeping one streaming statistics accumulator per
// cell. Observations either feed the single nearest cell or are spread
// over the four surrounding cells with bilinear weights.
//
// A Binning2D is not safe for concurrent mutation; accumulate first, read
// statistics after.
package binning

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/pangeo-go/geointerp/axis"
)

// accumulator holds weighted streaming statistics for one cell, updated
// with West's weighted extension of Welford's algorithm so mean and
// variance stay numerically stable over long pushes.
type accumulator struct {
	count uint64
	sumw  float64
	mean  float64
	m2    float64
	min   float64
	max   float64
}

func (a *accumulator) push(value, weight float64) {
	if a.count == 0 {
		a.min, a.max = value, value
	} else {
		a.min = math.Min(a.min, value)
		a.max = math.Max(a.max, value)
	}
	a.count++
	a.sumw += weight
	delta := value - a.mean
	a.mean += delta * weight / a.sumw
	a.m2 += weight * delta * (value - a.mean)
}

func (a *accumulator) variance() float64 {
	if a.sumw == 0 {
		return math.NaN()
	}
	return a.m2 / a.sumw
}

// Binning2D bins observations over an x and a y axis.
type Binning2D struct {
	x, y  *axis.Axis
	cells []accumulator
}

// New builds an empty binning over the two axes.
func New(x, y *axis.Axis) *Binning2D {
	return &Binning2D{
		x:     x,
		y:     y,
		cells: make([]accumulator, x.Len()*y.Len()),
	}
}

// X returns the first axis.
func (b *Binning2D) X() *axis.Axis { return b.x }

// Y returns the second axis.
func (b *Binning2D) Y() *axis.Axis { return b.y }

// Clear resets every cell accumulator.
func (b *Binning2D) Clear() {
	for i := range b.cells {
		b.cells[i] = accumulator{}
	}
}

// Push feeds one observation. In simple mode the nearest cell receives
// the raw value; otherwise the four surrounding cells each receive it
// weighted by bilinear area weight (the weights sum to 1, and an
// observation exactly on a cell center degenerates to simple mode).
// Observations outside the axes, and NaN values, are dropped silently.
func (b *Binning2D) Push(x, y, value float64, simple bool) {
	if math.IsNaN(value) {
		return
	}
	if simple {
		ix := b.x.FindIndex(x, false)
		iy := b.y.FindIndex(y, false)
		if ix < 0 || iy < 0 {
			return
		}
		b.cells[ix*b.y.Len()+iy].push(value, 1)
		return
	}

	ix0, ix1, ok := b.x.FindIndexes(x)
	if !ok {
		return
	}
	iy0, iy1, ok := b.y.FindIndexes(y)
	if !ok {
		return
	}
	x0, x1 := b.x.Interval(ix0, ix1)
	y0, y1 := b.y.Interval(iy0, iy1)
	t := (b.x.Normalize(x) - x0) / (x1 - x0)
	u := (b.y.Normalize(y) - y0) / (y1 - y0)

	b.pushWeighted(ix0, iy0, value, (1-t)*(1-u))
	b.pushWeighted(ix0, iy1, value, (1-t)*u)
	b.pushWeighted(ix1, iy0, value, t*(1-u))
	b.pushWeighted(ix1, iy1, value, t*u)
}

func (b *Binning2D) pushWeighted(ix, iy int, value, weight float64) {
	if weight == 0 {
		// Degenerate case: the observation sits on a cell border, only
		// the carrying cells accumulate.
		return
	}
	b.cells[ix*b.y.Len()+iy].push(value, weight)
}

// PushPoint is Push for an orb 2D point.
func (b *Binning2D) PushPoint(p orb.Point, value float64, simple bool) {
	b.Push(p[0], p[1], value, simple)
}

// Variable returns the requested per-cell statistic as a dense row-major
// array of x.Len()*y.Len() values. Cells that never accumulated report
// NaN (count and sum_of_weights report 0). Recognized names: count, mean,
// variance, min, max, sum, sum_of_weights.
func (b *Binning2D) Variable(name string) ([]float64, error) {
	out := make([]float64, len(b.cells))
	var get func(a *accumulator) float64
	switch name {
	case "count":
		get = func(a *accumulator) float64 { return float64(a.count) }
	case "mean":
		get = statistic(func(a *accumulator) float64 { return a.mean })
	case "variance":
		get = statistic((*accumulator).variance)
	case "min":
		get = statistic(func(a *accumulator) float64 { return a.min })
	case "max":
		get = statistic(func(a *accumulator) float64 { return a.max })
	case "sum":
		get = statistic(func(a *accumulator) float64 { return a.mean * a.sumw })
	case "sum_of_weights":
		get = func(a *accumulator) float64 { return a.sumw }
	default:
		return nil, fmt.Errorf("binning: unknown statistic %q", name)
	}
	for i := range b.cells {
		out[i] = get(&b.cells[i])
	}
	return out, nil
}

// statistic guards a per-cell reader behind the empty-cell NaN rule.
func statistic(get func(a *accumulator) float64) func(a *accumulator) float64 {
	return func(a *accumulator) float64 {
		if a.count == 0 {
			return math.NaN()
		}
		return get(a)
	}
}
