// Package interp evaluates grid interpolation: a 2D spatial kernel over
// the two leading axes, extended to 3D and 4D grids by collapsing each
// extra axis with one linear interpolation step.
package interp

import (
	"math"

	"github.com/pangeo-go/geointerp/axis"
)

// Interpolator2D evaluates a value at (x, y) from grid nodes addressed
// through the value accessor. Implementations are stateless and safe for
// concurrent use: Bilinear, Nearest, IDW, Bicubic.
type Interpolator2D interface {
	eval2D(xa, ya *axis.Axis, x, y float64, value func(ix, iy int) float64) (float64, bool)
}

// cell resolves the bracketing cell of (x, y) and hands the corner
// geometry to fn. ok is false when either coordinate has no enclosing
// interval.
func cell(xa, ya *axis.Axis, x, y float64,
	fn func(xn, yn, x0, x1, y0, y1 float64, ix0, ix1, iy0, iy1 int) float64,
) (float64, bool) {
	ix0, ix1, ok := xa.FindIndexes(x)
	if !ok {
		return math.NaN(), false
	}
	iy0, iy1, ok := ya.FindIndexes(y)
	if !ok {
		return math.NaN(), false
	}
	x0, x1 := xa.Interval(ix0, ix1)
	y0, y1 := ya.Interval(iy0, iy1)
	xn := xa.Normalize(x)
	yn := ya.Normalize(y)
	return fn(xn, yn, x0, x1, y0, y1, ix0, ix1, iy0, iy1), true
}

// Bilinear is the 4-point weighted average over the enclosing cell.
type Bilinear struct{}

func (Bilinear) eval2D(xa, ya *axis.Axis, x, y float64, value func(ix, iy int) float64) (float64, bool) {
	return cell(xa, ya, x, y, func(xn, yn, x0, x1, y0, y1 float64, ix0, ix1, iy0, iy1 int) float64 {
		t := (xn - x0) / (x1 - x0)
		u := (yn - y0) / (y1 - y0)
		return value(ix0, iy0)*(1-t)*(1-u) +
			value(ix0, iy1)*(1-t)*u +
			value(ix1, iy0)*t*(1-u) +
			value(ix1, iy1)*t*u
	})
}

// Nearest picks the value of the closest cell corner.
type Nearest struct{}

func (Nearest) eval2D(xa, ya *axis.Axis, x, y float64, value func(ix, iy int) float64) (float64, bool) {
	return cell(xa, ya, x, y, func(xn, yn, x0, x1, y0, y1 float64, ix0, ix1, iy0, iy1 int) float64 {
		ix := ix0
		if xn-x0 > x1-xn {
			ix = ix1
		}
		iy := iy0
		if yn-y0 > y1-yn {
			iy = iy1
		}
		return value(ix, iy)
	})
}

// IDW weights the four cell corners by inverse distance in axis units.
type IDW struct {
	// Power is the inverse-distance exponent; zero means 2.
	Power float64
}

func (k IDW) eval2D(xa, ya *axis.Axis, x, y float64, value func(ix, iy int) float64) (float64, bool) {
	power := k.Power
	if power == 0 {
		power = 2
	}
	return cell(xa, ya, x, y, func(xn, yn, x0, x1, y0, y1 float64, ix0, ix1, iy0, iy1 int) float64 {
		corners := [4]struct {
			cx, cy float64
			ix, iy int
		}{
			{x0, y0, ix0, iy0},
			{x0, y1, ix0, iy1},
			{x1, y0, ix1, iy0},
			{x1, y1, ix1, iy1},
		}
		var sumW, sumWV float64
		for _, c := range corners {
			d := math.Hypot(xn-c.cx, yn-c.cy)
			if d == 0 {
				return value(c.ix, c.iy)
			}
			w := 1 / math.Pow(d, power)
			sumW += w
			sumWV += w * value(c.ix, c.iy)
		}
		return sumWV / sumW
	})
}

// Bicubic fits 1D natural cubic splines over a window of grid nodes, first
// along y for each x column, then across the column results along x. The
// fitted surface passes through the nodes exactly and is C1-continuous.
type Bicubic struct {
	// WindowX and WindowY are the number of nodes fitted per axis;
	// zero means 4. Windows are clamped at grid borders (or wrapped on a
	// circular axis) and capped at the axis length.
	WindowX, WindowY int
}

func (k Bicubic) eval2D(xa, ya *axis.Axis, x, y float64, value func(ix, iy int) float64) (float64, bool) {
	ix0, _, ok := xa.FindIndexes(x)
	if !ok {
		return math.NaN(), false
	}
	iy0, _, ok := ya.FindIndexes(y)
	if !ok {
		return math.NaN(), false
	}
	wx := k.WindowX
	if wx <= 0 {
		wx = 4
	}
	wy := k.WindowY
	if wy <= 0 {
		wy = 4
	}

	xIdx := xa.Window(ix0, wx)
	yIdx := ya.Window(iy0, wy)
	xCoords := windowCoords(xa, xIdx)
	yCoords := windowCoords(ya, yIdx)
	xn := unwrap(xa.Normalize(x), xCoords[0], xa.Period())
	yn := unwrap(ya.Normalize(y), yCoords[0], ya.Period())

	column := make([]float64, len(yIdx))
	across := make([]float64, len(xIdx))
	for i, ix := range xIdx {
		for j, iy := range yIdx {
			column[j] = value(ix, iy)
		}
		across[i] = newSpline(yCoords, column).eval(yn)
	}
	return newSpline(xCoords, across).eval(xn), true
}

// windowCoords returns the coordinates of the window indexes, unwrapped
// into a strictly ascending sequence when the window spans the seam of a
// circular axis.
func windowCoords(a *axis.Axis, idx []int) []float64 {
	coords := make([]float64, len(idx))
	for k, i := range idx {
		coords[k] = a.Point(i)
		if k > 0 && coords[k] < coords[k-1] {
			coords[k] += a.Period()
		}
	}
	return coords
}

// unwrap lifts a normalized circular coordinate onto the unwrapped window
// scale. period is zero for non-circular axes.
func unwrap(c, origin, period float64) float64 {
	if period > 0 && c < origin {
		c += period
	}
	return c
}
