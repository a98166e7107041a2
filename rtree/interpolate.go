package rtree

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/pangeo-go/geointerp/parallel"
)

// Defaults shared by the batch entry points.
const (
	DefaultQueryK = 4
	DefaultK      = 9
	DefaultPower  = 2.0
)

// QueryOptions tunes a k-nearest-neighbor batch query.
type QueryOptions struct {
	// K is the number of neighbors returned per query point.
	K int
	// NumThreads: 0 = all available cores, 1 = sequential, N = fixed.
	NumThreads int
}

// DefaultQueryOptions returns the query defaults (k=4, auto-parallel).
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{K: DefaultQueryK}
}

// IDWOptions tunes inverse-distance-weighting interpolation.
type IDWOptions struct {
	// Radius is the maximum search radius in meters. Zero means unlimited.
	Radius float64
	// K is the maximum number of neighbors used per query point.
	K int
	// Power is the inverse-distance exponent.
	Power float64
	// Within rejects query points falling outside the bounding box of
	// their neighbor set instead of extrapolating.
	Within bool
	// MinNeighbors is the smallest neighbor count that still produces a
	// value; fewer yields NaN. Governs how far extrapolation with
	// Within=false may lean on isolated points.
	MinNeighbors int
	// NumThreads: 0 = all available cores, 1 = sequential, N = fixed.
	NumThreads int
}

// DefaultIDWOptions returns the IDW defaults (k=9, power=2, within,
// unlimited radius, auto-parallel).
func DefaultIDWOptions() IDWOptions {
	return IDWOptions{K: DefaultK, Power: DefaultPower, Within: true, MinNeighbors: 1}
}

// RBFOptions tunes radial-basis-function interpolation.
type RBFOptions struct {
	// Radius is the maximum search radius in meters. Zero means unlimited.
	Radius float64
	// K is the number of neighbors fitted per query point.
	K int
	// Kernel is the radial basis function.
	Kernel Kernel
	// Epsilon is the shape parameter of the adjustable kernels; zero
	// defaults to the mean distance between the fitted nodes.
	Epsilon float64
	// Smooth relaxes the exact fit; zero interpolates through the nodes.
	Smooth float64
	// Within rejects query points falling outside the bounding box of
	// their neighbor set instead of extrapolating.
	Within bool
	// MinNeighbors is the smallest neighbor count that still produces a
	// value; fewer yields NaN.
	MinNeighbors int
	// NumThreads: 0 = all available cores, 1 = sequential, N = fixed.
	NumThreads int
}

// DefaultRBFOptions returns the RBF defaults (k=9, multiquadric, within,
// no smoothing, auto-parallel).
func DefaultRBFOptions() RBFOptions {
	return RBFOptions{K: DefaultK, Kernel: Multiquadric, Within: true, MinNeighbors: 1}
}

// Query searches the k nearest stored points for each query position.
// It returns, per query point, the geodesic distances in meters (ascending)
// and the associated values; missing neighbors (empty or small tree) are
// NaN-padded.
func (t *RTree) Query(lons, lats []float64, opts QueryOptions) (distances, values [][]float64, err error) {
	if len(lons) != len(lats) {
		return nil, nil, fmt.Errorf("%w: %d lon, %d lat", ErrLengthMismatch, len(lons), len(lats))
	}
	k := opts.K
	if k <= 0 {
		k = DefaultQueryK
	}

	distances = make([][]float64, len(lons))
	values = make([][]float64, len(lons))
	parallel.Dispatch(opts.NumThreads, len(lons), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			d := nanSlice(k)
			v := nanSlice(k)
			q := orb.Point{lons[i], lats[i]}
			found := t.nearest(t.spheroid.ToECEF(lons[i], lats[i], 0), k)
			for j, nb := range found {
				d[j] = t.spheroid.Distance(q, orb.Point{nb.lon, nb.lat})
				v[j] = nb.value
			}
			distances[i] = d
			values[i] = v
		}
	})
	return distances, values, nil
}

// InverseDistanceWeighting estimates a value at each query position as the
// inverse-distance weighted average of up to K neighbors within Radius.
// Returns the estimates and, in parallel, the number of neighbors each
// estimate used. Unresolvable points (no neighbors, Within rejection) are
// NaN with a zero count.
func (t *RTree) InverseDistanceWeighting(lons, lats []float64, opts IDWOptions) (values []float64, neighbors []uint32, err error) {
	if len(lons) != len(lats) {
		return nil, nil, fmt.Errorf("%w: %d lon, %d lat", ErrLengthMismatch, len(lons), len(lats))
	}
	k := opts.K
	if k <= 0 {
		k = DefaultK
	}
	power := opts.Power
	if power == 0 {
		power = DefaultPower
	}
	radius := opts.Radius
	if radius <= 0 {
		radius = math.Inf(1)
	}
	minNeighbors := max(opts.MinNeighbors, 1)

	values = nanSlice(len(lons))
	neighbors = make([]uint32, len(lons))
	parallel.Dispatch(opts.NumThreads, len(lons), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			q := orb.Point{lons[i], lats[i]}
			ecef := t.spheroid.ToECEF(lons[i], lats[i], 0)

			found := t.withinRadius(ecef, q, k, radius)
			if len(found) < minNeighbors {
				continue
			}
			if opts.Within && !neighborBoxContains(found, ecef) {
				continue
			}

			var sumW, sumWV float64
			exact := false
			for _, nb := range found {
				d := t.spheroid.Distance(q, orb.Point{nb.lon, nb.lat})
				if d == 0 {
					// Query coincides with a stored point.
					values[i] = nb.value
					exact = true
					break
				}
				w := 1 / math.Pow(d, power)
				sumW += w
				sumWV += w * nb.value
			}
			if !exact {
				values[i] = sumWV / sumW
			}
			neighbors[i] = uint32(len(found))
		}
	})
	return values, neighbors, nil
}

// RadialBasisFunction fits the configured radial basis function over up to
// K neighbors of each query position and evaluates the fit at the query
// point. Singular fits, empty neighbor sets, and Within rejections yield
// NaN with a zero count; they never abort the batch.
func (t *RTree) RadialBasisFunction(lons, lats []float64, opts RBFOptions) (values []float64, neighbors []uint32, err error) {
	if len(lons) != len(lats) {
		return nil, nil, fmt.Errorf("%w: %d lon, %d lat", ErrLengthMismatch, len(lons), len(lats))
	}
	k := opts.K
	if k <= 0 {
		k = DefaultK
	}
	radius := opts.Radius
	if radius <= 0 {
		radius = math.Inf(1)
	}
	minNeighbors := max(opts.MinNeighbors, 1)

	values = nanSlice(len(lons))
	neighbors = make([]uint32, len(lons))
	parallel.Dispatch(opts.NumThreads, len(lons), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			q := orb.Point{lons[i], lats[i]}
			ecef := t.spheroid.ToECEF(lons[i], lats[i], 0)

			found := t.withinRadius(ecef, q, k, radius)
			if len(found) < minNeighbors {
				continue
			}
			if opts.Within && !neighborBoxContains(found, ecef) {
				continue
			}

			v := rbfFit(ecef, found, opts.Kernel, opts.Epsilon, opts.Smooth)
			if math.IsNaN(v) {
				continue
			}
			values[i] = v
			neighbors[i] = uint32(len(found))
		}
	})
	return values, neighbors, nil
}

// withinRadius gathers up to k nearest neighbors whose geodesic distance
// from q does not exceed radius meters.
func (t *RTree) withinRadius(ecef [3]float64, q orb.Point, k int, radius float64) []neighbor {
	found := t.nearest(ecef, k)
	if math.IsInf(radius, 1) {
		return found
	}
	kept := found[:0]
	for _, nb := range found {
		if t.spheroid.Distance(q, orb.Point{nb.lon, nb.lat}) <= radius {
			kept = append(kept, nb)
		}
	}
	return kept
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
