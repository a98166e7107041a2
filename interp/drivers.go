package interp

import (
	"errors"
	"fmt"
	"math"

	"github.com/pangeo-go/geointerp/axis"
	"github.com/pangeo-go/geointerp/grid"
	"github.com/pangeo-go/geointerp/parallel"
)

// ErrLengthMismatch is returned when the coordinate slices of a batch do
// not share one length.
var ErrLengthMismatch = errors.New("interp: coordinate arrays must have the same length")

// ErrOutOfBounds wraps the per-point bounds errors raised when
// Options.BoundsError is set.
var ErrOutOfBounds = errors.New("interp: point outside of grid bounds")

// Options tunes a batch interpolation call.
type Options struct {
	// BoundsError aborts the batch with an error on the first coordinate
	// outside the grid. When false (default), such points yield NaN.
	BoundsError bool
	// NumThreads: 0 = all available cores, 1 = sequential, N = fixed.
	NumThreads int
}

// missing resolves an unbracketable query point into either a NaN slot or
// a batch-aborting error, per the BoundsError setting.
func (o Options) missing(coords ...float64) (float64, error) {
	if o.BoundsError {
		return 0, fmt.Errorf("%w: %v", ErrOutOfBounds, coords)
	}
	return math.NaN(), nil
}

// Bivariate interpolates a 2D grid at each (x, y) query position and
// returns one float64 per query. Points the grid cannot bracket yield NaN
// unless Options.BoundsError is set.
func Bivariate[T grid.Float](g *grid.Grid2D[T], xs, ys []float64, it Interpolator2D, opts Options) ([]float64, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d x, %d y", ErrLengthMismatch, len(xs), len(ys))
	}
	out := make([]float64, len(xs))
	err := parallel.Try(opts.NumThreads, len(xs), func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			v, ok := it.eval2D(g.X(), g.Y(), xs[i], ys[i], g.Value)
			if !ok {
				var err error
				if v, err = opts.missing(xs[i], ys[i]); err != nil {
					return err
				}
			}
			out[i] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Trivariate interpolates a 3D grid at each (x, y, z) query position: the
// 2D kernel over the two leading axes at both bracketing z levels, then
// one linear interpolation along z.
func Trivariate[T grid.Float](g *grid.Grid3D[T], xs, ys, zs []float64, it Interpolator2D, opts Options) ([]float64, error) {
	if len(xs) != len(ys) || len(xs) != len(zs) {
		return nil, fmt.Errorf("%w: %d x, %d y, %d z", ErrLengthMismatch, len(xs), len(ys), len(zs))
	}
	out := make([]float64, len(xs))
	err := parallel.Try(opts.NumThreads, len(xs), func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			v, ok := trivariateAt(g, xs[i], ys[i], zs[i], it)
			if !ok {
				var err error
				if v, err = opts.missing(xs[i], ys[i], zs[i]); err != nil {
					return err
				}
			}
			out[i] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func trivariateAt[T grid.Float](g *grid.Grid3D[T], x, y, z float64, it Interpolator2D) (float64, bool) {
	iz0, iz1, ok := g.Z().FindIndexes(z)
	if !ok {
		return math.NaN(), false
	}
	v0, ok := it.eval2D(g.X(), g.Y(), x, y, func(ix, iy int) float64 { return g.Value(ix, iy, iz0) })
	if !ok {
		return math.NaN(), false
	}
	v1, ok := it.eval2D(g.X(), g.Y(), x, y, func(ix, iy int) float64 { return g.Value(ix, iy, iz1) })
	if !ok {
		return math.NaN(), false
	}
	return collapse(g.Z(), z, iz0, iz1, v0, v1), true
}

// Quadrivariate interpolates a 4D grid at each (x, y, z, u) query
// position, collapsing the two extra axes one linear step at a time: four
// 2D kernel evaluations, two z collapses, one u collapse.
func Quadrivariate[T grid.Float](g *grid.Grid4D[T], xs, ys, zs, us []float64, it Interpolator2D, opts Options) ([]float64, error) {
	if len(xs) != len(ys) || len(xs) != len(zs) || len(xs) != len(us) {
		return nil, fmt.Errorf("%w: %d x, %d y, %d z, %d u",
			ErrLengthMismatch, len(xs), len(ys), len(zs), len(us))
	}
	out := make([]float64, len(xs))
	err := parallel.Try(opts.NumThreads, len(xs), func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			v, ok := quadrivariateAt(g, xs[i], ys[i], zs[i], us[i], it)
			if !ok {
				var err error
				if v, err = opts.missing(xs[i], ys[i], zs[i], us[i]); err != nil {
					return err
				}
			}
			out[i] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func quadrivariateAt[T grid.Float](g *grid.Grid4D[T], x, y, z, u float64, it Interpolator2D) (float64, bool) {
	iz0, iz1, ok := g.Z().FindIndexes(z)
	if !ok {
		return math.NaN(), false
	}
	iu0, iu1, ok := g.U().FindIndexes(u)
	if !ok {
		return math.NaN(), false
	}

	// Working buffer over the cartesian product of the two extra axes,
	// collapsed one axis at a time.
	var buf [4]float64 // [z][u]
	for bi, idx := range [4][2]int{{iz0, iu0}, {iz0, iu1}, {iz1, iu0}, {iz1, iu1}} {
		iz, iu := idx[0], idx[1]
		v, ok := it.eval2D(g.X(), g.Y(), x, y, func(ix, iy int) float64 { return g.Value(ix, iy, iz, iu) })
		if !ok {
			return math.NaN(), false
		}
		buf[bi] = v
	}
	atU0 := collapse(g.Z(), z, iz0, iz1, buf[0], buf[2])
	atU1 := collapse(g.Z(), z, iz0, iz1, buf[1], buf[3])
	return collapse(g.U(), u, iu0, iu1, atU0, atU1), true
}

// collapse performs the single 1D linear interpolation step that removes
// one extra axis.
func collapse(a *axis.Axis, c float64, i0, i1 int, v0, v1 float64) float64 {
	c0, c1 := a.Interval(i0, i1)
	if c1 == c0 {
		return v0
	}
	w := (a.Normalize(c) - c0) / (c1 - c0)
	return v0 + (v1-v0)*w
}
