// Package axis models a one-dimensional coordinate axis: an immutable,
// strictly monotonic sequence of coordinates with fast index lookup.
// Regular axes (uniform spacing) resolve indexes arithmetically; irregular
// axes fall back to binary search. An axis may be circular (angular, e.g.
// longitude), in which case lookups wrap across the seam.
//
// Temporal axes are expressed by the caller as float64 epoch values;
// calendar handling belongs to the layer feeding this package.
package axis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/pangeo-go/geointerp/common"
)

// Spacing uniformity is judged against this relative tolerance.
const regularTolerance = 1e-6

var (
	// ErrTooFewPoints is returned when an axis is built from fewer than
	// two coordinates.
	ErrTooFewPoints = errors.New("axis: at least two coordinates required")
	// ErrNotMonotonic is returned when the input coordinates are not
	// strictly monotonic (duplicates included).
	ErrNotMonotonic = errors.New("axis: coordinates must be strictly monotonic")
)

// Axis is an immutable 1D coordinate axis.
//
// Points are stored ascending. A descending input sequence is accepted and
// stored flipped; all indexes reported by lookup methods refer to the
// original input order.
type Axis struct {
	points     []float64
	step       float64
	regular    bool
	circle     bool
	period     float64
	descending bool
}

// New builds an axis from a strictly monotonic coordinate sequence.
// The input slice is copied.
func New(points []float64) (*Axis, error) {
	return build(points, false, 0)
}

// NewCircular builds a circular (wrapping) axis with the given period,
// e.g. 360 for longitudes in degrees. Coordinates are normalized into
// [first, first+period) before monotonicity is checked, so inputs like
// [-180, ..., 179] and [0, ..., 359] are both accepted.
func NewCircular(points []float64, period float64) (*Axis, error) {
	if period <= 0 {
		return nil, fmt.Errorf("axis: period must be positive, got %v", period)
	}
	return build(points, true, period)
}

func build(points []float64, circle bool, period float64) (*Axis, error) {
	if len(points) < 2 {
		return nil, ErrTooFewPoints
	}
	pts := make([]float64, len(points))
	copy(pts, points)

	a := &Axis{points: pts, circle: circle, period: period}

	if circle {
		// Anchor the period window at the first coordinate so that a
		// monotonic angular sequence stays monotonic after wrapping. The
		// orientation is only visible pre-normalization, so a sequence
		// that does not normalize ascending is retried flipped, anchored
		// at its other end.
		normalizeAll(pts, period)
		if !ascending(pts) {
			for i := range pts {
				pts[i] = points[len(points)-1-i]
			}
			normalizeAll(pts, period)
			if !ascending(pts) {
				return nil, ErrNotMonotonic
			}
			a.descending = true
		}
		if pts[len(pts)-1]-pts[0] >= period {
			return nil, fmt.Errorf("axis: coordinate span exceeds period %v", period)
		}
	} else {
		if pts[0] > pts[len(pts)-1] {
			a.descending = true
			for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
				pts[i], pts[j] = pts[j], pts[i]
			}
		}
		if !ascending(pts) {
			return nil, ErrNotMonotonic
		}
	}

	a.detectRegular()
	return a, nil
}

func (a *Axis) detectRegular() {
	n := len(a.points)
	step := (a.points[n-1] - a.points[0]) / float64(n-1)
	for i := 1; i < n; i++ {
		if !common.AlmostEqual(a.points[i]-a.points[i-1], step, regularTolerance) {
			return
		}
	}
	a.regular = true
	a.step = step
}

func normalizeAll(pts []float64, period float64) {
	for i := range pts {
		pts[i] = normalizeAngle(pts[i], pts[0], period)
	}
}

func ascending(pts []float64) bool {
	for i := 1; i < len(pts); i++ {
		if pts[i] <= pts[i-1] {
			return false
		}
	}
	return true
}

// normalizeAngle shifts v by whole periods into [origin, origin+period).
func normalizeAngle(v, origin, period float64) float64 {
	r := math.Mod(v-origin, period)
	if r < 0 {
		r += period
	}
	return origin + r
}

// Len returns the number of coordinates.
func (a *Axis) Len() int { return len(a.points) }

// Min returns the smallest coordinate.
func (a *Axis) Min() float64 { return a.points[0] }

// Max returns the largest coordinate.
func (a *Axis) Max() float64 { return a.points[len(a.points)-1] }

// IsCircular reports whether lookups wrap across the seam.
func (a *Axis) IsCircular() bool { return a.circle }

// IsRegular reports whether the axis has uniform spacing.
func (a *Axis) IsRegular() bool { return a.regular }

// Period returns the wrap period of a circular axis, 0 otherwise.
func (a *Axis) Period() float64 { return a.period }

// Step returns the uniform spacing of a regular axis, 0 otherwise.
func (a *Axis) Step() float64 { return a.step }

// Point returns the coordinate at index i, in input order.
func (a *Axis) Point(i int) float64 {
	return a.points[a.internal(i)]
}

// Points returns a copy of the coordinates in input order.
func (a *Axis) Points() []float64 {
	out := make([]float64, len(a.points))
	for i := range out {
		out[i] = a.Point(i)
	}
	return out
}

// internal maps a public (input-order) index to ascending storage order.
// The mapping is its own inverse.
func (a *Axis) internal(i int) int {
	if a.descending {
		return len(a.points) - 1 - i
	}
	return i
}

// FindIndex returns the index of the coordinate nearest to coord.
// When coord falls outside the axis range: if bounded, the nearest
// boundary index is returned, otherwise -1.
func (a *Axis) FindIndex(coord float64, bounded bool) int {
	i := a.findNearest(coord, bounded)
	if i < 0 {
		return -1
	}
	return a.internal(i)
}

// findNearest works in ascending storage order.
func (a *Axis) findNearest(coord float64, bounded bool) int {
	n := len(a.points)
	if a.circle {
		coord = normalizeAngle(coord, a.points[0], a.period)
		if coord > a.points[n-1] {
			// Seam interval between the last point and the first point
			// plus one period.
			lastGap := coord - a.points[n-1]
			firstGap := a.points[0] + a.period - coord
			if lastGap <= firstGap {
				return n - 1
			}
			return 0
		}
	}
	if coord < a.points[0] {
		if bounded {
			return 0
		}
		return -1
	}
	if coord > a.points[n-1] {
		if bounded {
			return n - 1
		}
		return -1
	}
	if a.regular {
		return common.ClampInt(common.Round((coord-a.points[0])/a.step), 0, n-1)
	}
	// Index of the first point >= coord.
	i := sort.SearchFloat64s(a.points, coord)
	if i == 0 {
		return 0
	}
	if i == n {
		return n - 1
	}
	if coord-a.points[i-1] <= a.points[i]-coord {
		return i - 1
	}
	return i
}

// FindIndexes returns the pair of indexes bracketing coord for linear
// interpolation, in input order. For circular axes the pair may span the
// seam (last index paired with first). ok is false when coord lies outside
// a non-circular axis range.
func (a *Axis) FindIndexes(coord float64) (i0, i1 int, ok bool) {
	n := len(a.points)
	if a.circle {
		c := normalizeAngle(coord, a.points[0], a.period)
		if c > a.points[n-1] {
			return a.internal(n - 1), a.internal(0), true
		}
		coord = c
	} else if coord < a.points[0] || coord > a.points[n-1] {
		return -1, -1, false
	}
	var lo int
	if a.regular {
		lo = common.ClampInt(int((coord-a.points[0])/a.step), 0, n-2)
	} else {
		// Largest index with points[lo] <= coord, capped so lo+1 is valid.
		lo = sort.SearchFloat64s(a.points, coord)
		if lo == n || a.points[lo] > coord {
			lo--
		}
		lo = common.ClampInt(lo, 0, n-2)
	}
	return a.internal(lo), a.internal(lo + 1), true
}

// Window returns the indexes of a run of size consecutive coordinates
// surrounding the interval that starts at i0 (as returned by FindIndexes),
// in ascending coordinate order. Circular axes wrap across the seam;
// otherwise the run is clamped inside range. size is capped at Len.
func (a *Axis) Window(i0, size int) []int {
	n := len(a.points)
	if size > n {
		size = n
	}
	start := a.internal(i0) - (size/2 - 1)
	out := make([]int, size)
	if a.circle {
		for k := range out {
			out[k] = a.internal(((start+k)%n + n) % n)
		}
		return out
	}
	start = common.ClampInt(start, 0, n-size)
	for k := range out {
		out[k] = a.internal(start + k)
	}
	return out
}

// Interval returns the coordinates at the bracketing pair (i0, i1), with
// the seam-spanning interval of a circular axis unwrapped so that the
// second coordinate is always the greater one.
func (a *Axis) Interval(i0, i1 int) (c0, c1 float64) {
	c0, c1 = a.Point(i0), a.Point(i1)
	if a.circle && c1 < c0 {
		c1 += a.period
	}
	return c0, c1
}

// Normalize maps coord into the reference window of a circular axis so it
// is directly comparable with Interval coordinates. Non-circular axes
// return coord unchanged.
func (a *Axis) Normalize(coord float64) float64 {
	if !a.circle {
		return coord
	}
	return normalizeAngle(coord, a.points[0], a.period)
}
