// Package grid wraps coordinate axes around dense value arrays. A grid
// owns one axis per dimension and a row-major value array whose shape
// matches the axis lengths exactly; interpolation over grids lives in the
// interp package.
package grid

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/pangeo-go/geointerp/axis"
)

// Float constrains the stored precision of a grid. Results are always
// promoted to float64 on the way out.
type Float interface {
	~float32 | ~float64
}

// ErrShapeMismatch is returned when the value array length does not equal
// the product of the axis lengths.
var ErrShapeMismatch = errors.New("grid: value array shape does not match axes")

func checkShape(valueLen int, axes ...*axis.Axis) error {
	want := 1
	for _, a := range axes {
		want *= a.Len()
	}
	if valueLen != want {
		return fmt.Errorf("%w: %d values for %d grid nodes", ErrShapeMismatch, valueLen, want)
	}
	return nil
}

// Grid2D is a dense 2D value array over an x and a y axis, stored
// row-major with x outermost: values[ix*y.Len()+iy].
type Grid2D[T Float] struct {
	x, y   *axis.Axis
	values []T
}

// NewGrid2D validates the array shape and wraps it. The value slice is
// referenced, not copied; it must not be mutated afterwards.
func NewGrid2D[T Float](x, y *axis.Axis, values []T) (*Grid2D[T], error) {
	if err := checkShape(len(values), x, y); err != nil {
		return nil, err
	}
	return &Grid2D[T]{x: x, y: y, values: values}, nil
}

// X returns the first (column) axis.
func (g *Grid2D[T]) X() *axis.Axis { return g.x }

// Y returns the second (row) axis.
func (g *Grid2D[T]) Y() *axis.Axis { return g.y }

// Value returns the stored value at the given axis indexes.
func (g *Grid2D[T]) Value(ix, iy int) float64 {
	return float64(g.values[ix*g.y.Len()+iy])
}

// Bound returns the rectangle covered by the two axes, in axis units.
func (g *Grid2D[T]) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{g.x.Min(), g.y.Min()},
		Max: orb.Point{g.x.Max(), g.y.Max()},
	}
}

// Grid3D adds a third axis, z, innermost position second:
// values[(ix*y.Len()+iy)*z.Len()+iz].
type Grid3D[T Float] struct {
	x, y, z *axis.Axis
	values  []T
}

// NewGrid3D validates the array shape and wraps it.
func NewGrid3D[T Float](x, y, z *axis.Axis, values []T) (*Grid3D[T], error) {
	if err := checkShape(len(values), x, y, z); err != nil {
		return nil, err
	}
	return &Grid3D[T]{x: x, y: y, z: z, values: values}, nil
}

// X returns the first axis.
func (g *Grid3D[T]) X() *axis.Axis { return g.x }

// Y returns the second axis.
func (g *Grid3D[T]) Y() *axis.Axis { return g.y }

// Z returns the third axis.
func (g *Grid3D[T]) Z() *axis.Axis { return g.z }

// Value returns the stored value at the given axis indexes.
func (g *Grid3D[T]) Value(ix, iy, iz int) float64 {
	return float64(g.values[(ix*g.y.Len()+iy)*g.z.Len()+iz])
}

// Grid4D adds a fourth axis, u:
// values[((ix*y.Len()+iy)*z.Len()+iz)*u.Len()+iu].
type Grid4D[T Float] struct {
	x, y, z, u *axis.Axis
	values     []T
}

// NewGrid4D validates the array shape and wraps it.
func NewGrid4D[T Float](x, y, z, u *axis.Axis, values []T) (*Grid4D[T], error) {
	if err := checkShape(len(values), x, y, z, u); err != nil {
		return nil, err
	}
	return &Grid4D[T]{x: x, y: y, z: z, u: u, values: values}, nil
}

// X returns the first axis.
func (g *Grid4D[T]) X() *axis.Axis { return g.x }

// Y returns the second axis.
func (g *Grid4D[T]) Y() *axis.Axis { return g.y }

// Z returns the third axis.
func (g *Grid4D[T]) Z() *axis.Axis { return g.z }

// U returns the fourth axis.
func (g *Grid4D[T]) U() *axis.Axis { return g.u }

// Value returns the stored value at the given axis indexes.
func (g *Grid4D[T]) Value(ix, iy, iz, iu int) float64 {
	return float64(g.values[((ix*g.y.Len()+iy)*g.z.Len()+iz)*g.u.Len()+iu])
}
