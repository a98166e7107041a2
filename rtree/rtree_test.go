package rtree

import (
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"github.com/pangeo-go/geointerp/common"
	"github.com/pangeo-go/geointerp/geodetic"
)

// synthetic surface with enough curvature to make interpolation
// meaningful but no pathological gradients.
func surface(lon, lat float64) float64 {
	return math.Sin(lon*math.Pi/180)*math.Cos(lat*math.Pi/180) + lat/90
}

func packedMesh(t *testing.T, step float64) *RTree {
	t.Helper()
	var lons, lats, values []float64
	for lon := -20.0; lon <= 20; lon += step {
		for lat := -20.0; lat <= 20; lat += step {
			lons = append(lons, lon)
			lats = append(lats, lat)
			values = append(values, surface(lon, lat))
		}
	}
	tr := NewWGS84()
	if err := tr.Packing(lons, lats, values); err != nil {
		t.Fatalf("Packing: %v", err)
	}
	return tr
}

func TestPackingThenQueryExactPoint(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelDebug)()
	tr := packedMesh(t, 1)
	dists, values, err := tr.Query([]float64{5}, []float64{-3}, DefaultQueryOptions())
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if dists[0][0] != 0 {
		t.Errorf("nearest distance to a stored point = %v, want 0", dists[0][0])
	}
	if want := surface(5, -3); values[0][0] != want {
		t.Errorf("nearest value = %v, want %v", values[0][0], want)
	}
	// Distances come back ascending.
	for j := 1; j < len(dists[0]); j++ {
		if dists[0][j] < dists[0][j-1] {
			t.Errorf("distances not ascending: %v", dists[0])
		}
	}
}

func TestInsertMatchesPacking(t *testing.T) {
	var lons, lats, values []float64
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		lons = append(lons, rng.Float64()*40-20)
		lats = append(lats, rng.Float64()*40-20)
		values = append(values, rng.Float64())
	}

	packed := NewWGS84()
	if err := packed.Packing(lons, lats, values); err != nil {
		t.Fatalf("Packing: %v", err)
	}
	inserted := NewWGS84()
	for i := range lons {
		inserted.Insert(lons[i], lats[i], values[i])
	}
	if packed.Len() != inserted.Len() {
		t.Fatalf("Len: packed %d, inserted %d", packed.Len(), inserted.Len())
	}

	qLons := []float64{0, 13.7, -19.9, 5.5}
	qLats := []float64{0, -8.1, 19.9, 5.5}
	opts := QueryOptions{K: 3, NumThreads: 1}
	dp, vp, err := packed.Query(qLons, qLats, opts)
	if err != nil {
		t.Fatalf("Query packed: %v", err)
	}
	di, vi, err := inserted.Query(qLons, qLats, opts)
	if err != nil {
		t.Fatalf("Query inserted: %v", err)
	}
	for i := range qLons {
		for j := 0; j < opts.K; j++ {
			if dp[i][j] != di[i][j] || vp[i][j] != vi[i][j] {
				t.Errorf("query %d neighbor %d: packed (%v, %v) != inserted (%v, %v)",
					i, j, dp[i][j], vp[i][j], di[i][j], vi[i][j])
			}
		}
	}
}

func TestIDWBetweenTwoPoints(t *testing.T) {
	tr := NewWGS84()
	if err := tr.Packing([]float64{0, 0}, []float64{0, 1}, []float64{1, 2}); err != nil {
		t.Fatalf("Packing: %v", err)
	}
	opts := DefaultIDWOptions()
	opts.K = 2
	opts.Radius = 1e9
	values, neighbors, err := tr.InverseDistanceWeighting([]float64{0}, []float64{0.5}, opts)
	if err != nil {
		t.Fatalf("IDW: %v", err)
	}
	if neighbors[0] != 2 {
		t.Errorf("neighbor count = %d, want 2", neighbors[0])
	}
	if values[0] <= 1 || values[0] >= 2 {
		t.Errorf("IDW value = %v, want strictly between 1 and 2", values[0])
	}
	// The midpoint of two near-equidistant points is close to their average.
	if math.Abs(values[0]-1.5) > 1e-4 {
		t.Errorf("IDW at the midpoint = %v, want ~1.5", values[0])
	}
}

func TestIDWExactHit(t *testing.T) {
	tr := packedMesh(t, 2)
	opts := DefaultIDWOptions()
	values, _, err := tr.InverseDistanceWeighting([]float64{4}, []float64{-6}, opts)
	if err != nil {
		t.Fatalf("IDW: %v", err)
	}
	if want := surface(4, -6); values[0] != want {
		t.Errorf("IDW on a stored point = %v, want exact %v", values[0], want)
	}
}

func TestIDWParallelMatchesSequential(t *testing.T) {
	tr := packedMesh(t, 1)
	var qLons, qLats []float64
	for lon := -19.5; lon < 19.5; lon += 0.7 {
		for lat := -19.5; lat < 19.5; lat += 0.7 {
			qLons = append(qLons, lon)
			qLats = append(qLats, lat)
		}
	}
	seq := DefaultIDWOptions()
	seq.NumThreads = 1
	par := DefaultIDWOptions()
	par.NumThreads = 0

	v0, n0, err := tr.InverseDistanceWeighting(qLons, qLats, seq)
	if err != nil {
		t.Fatalf("IDW sequential: %v", err)
	}
	v1, n1, err := tr.InverseDistanceWeighting(qLons, qLats, par)
	if err != nil {
		t.Fatalf("IDW parallel: %v", err)
	}
	for i := range v0 {
		same := v0[i] == v1[i] || (math.IsNaN(v0[i]) && math.IsNaN(v1[i]))
		if !same || n0[i] != n1[i] {
			t.Fatalf("query %d: sequential (%v, %d) != parallel (%v, %d)",
				i, v0[i], n0[i], v1[i], n1[i])
		}
	}
}

func TestIDWWithinRejectsOutsideHull(t *testing.T) {
	tr := NewWGS84()
	// A tight cluster near the origin; (10, 10) is far outside it.
	if err := tr.Packing(
		[]float64{0, 0.1, 0, 0.1},
		[]float64{0, 0, 0.1, 0.1},
		[]float64{1, 2, 3, 4},
	); err != nil {
		t.Fatalf("Packing: %v", err)
	}

	within := DefaultIDWOptions()
	values, neighbors, err := tr.InverseDistanceWeighting([]float64{10}, []float64{10}, within)
	if err != nil {
		t.Fatalf("IDW: %v", err)
	}
	if !math.IsNaN(values[0]) || neighbors[0] != 0 {
		t.Errorf("within=true outside hull: got (%v, %d), want (NaN, 0)", values[0], neighbors[0])
	}

	extrapolate := DefaultIDWOptions()
	extrapolate.Within = false
	values, neighbors, err = tr.InverseDistanceWeighting([]float64{10}, []float64{10}, extrapolate)
	if err != nil {
		t.Fatalf("IDW: %v", err)
	}
	if math.IsNaN(values[0]) || neighbors[0] == 0 {
		t.Errorf("within=false outside hull: got (%v, %d), want extrapolated value", values[0], neighbors[0])
	}
}

func TestIDWMinNeighborsBoundary(t *testing.T) {
	tr := NewWGS84()
	if err := tr.Packing([]float64{0}, []float64{0}, []float64{42}); err != nil {
		t.Fatalf("Packing: %v", err)
	}

	// A single distant neighbor is enough at the default minimum.
	opts := DefaultIDWOptions()
	opts.Within = false
	values, neighbors, err := tr.InverseDistanceWeighting([]float64{30}, []float64{30}, opts)
	if err != nil {
		t.Fatalf("IDW: %v", err)
	}
	if values[0] != 42 || neighbors[0] != 1 {
		t.Errorf("single neighbor: got (%v, %d), want (42, 1)", values[0], neighbors[0])
	}

	// Requiring two neighbors turns the same query into NaN.
	opts.MinNeighbors = 2
	values, neighbors, err = tr.InverseDistanceWeighting([]float64{30}, []float64{30}, opts)
	if err != nil {
		t.Fatalf("IDW: %v", err)
	}
	if !math.IsNaN(values[0]) || neighbors[0] != 0 {
		t.Errorf("min neighbors 2 of 1: got (%v, %d), want (NaN, 0)", values[0], neighbors[0])
	}
}

func TestIDWRadiusFiltering(t *testing.T) {
	tr := NewWGS84()
	// Two points roughly 111 km apart along a meridian.
	if err := tr.Packing([]float64{0, 0}, []float64{0, 1}, []float64{1, 2}); err != nil {
		t.Fatalf("Packing: %v", err)
	}
	opts := DefaultIDWOptions()
	opts.K = 2
	opts.Radius = 10_000 // keeps only the point at (0, 0)
	opts.Within = false
	values, neighbors, err := tr.InverseDistanceWeighting([]float64{0}, []float64{0.01}, opts)
	if err != nil {
		t.Fatalf("IDW: %v", err)
	}
	if neighbors[0] != 1 || values[0] != 1 {
		t.Errorf("radius filter: got (%v, %d), want (1, 1)", values[0], neighbors[0])
	}
}

func TestRBFReproducesNodes(t *testing.T) {
	tr := packedMesh(t, 2)
	opts := DefaultRBFOptions()
	values, neighbors, err := tr.RadialBasisFunction([]float64{4, -2}, []float64{-6, 8}, opts)
	if err != nil {
		t.Fatalf("RBF: %v", err)
	}
	for i, want := range []float64{surface(4, -6), surface(-2, 8)} {
		if neighbors[i] == 0 {
			t.Fatalf("query %d: no neighbors used", i)
		}
		if math.Abs(values[i]-want) > 1e-6 {
			t.Errorf("query %d: RBF at a node = %v, want %v", i, values[i], want)
		}
	}
}

func TestRBFInterpolatesSmoothly(t *testing.T) {
	tr := packedMesh(t, 1)
	for _, kernel := range []Kernel{Multiquadric, Gaussian, InverseMultiquadric, Linear, Cubic, ThinPlate} {
		opts := DefaultRBFOptions()
		opts.Kernel = kernel
		values, _, err := tr.RadialBasisFunction([]float64{3.5}, []float64{-2.5}, opts)
		if err != nil {
			t.Fatalf("RBF %v: %v", kernel, err)
		}
		want := surface(3.5, -2.5)
		if math.IsNaN(values[0]) || math.Abs(values[0]-want) > 0.05 {
			t.Errorf("kernel %v: RBF = %v, want ~%v", kernel, values[0], want)
		}
	}
}

func TestRBFSingularSystemIsLocal(t *testing.T) {
	tr := NewWGS84()
	// Duplicate points make the interpolation matrix singular.
	if err := tr.Packing(
		[]float64{0, 0, 1, 1},
		[]float64{0, 0, 1, 1},
		[]float64{1, 2, 3, 4},
	); err != nil {
		t.Fatalf("Packing: %v", err)
	}
	opts := DefaultRBFOptions()
	opts.Kernel = Linear
	opts.Within = false
	values, neighbors, err := tr.RadialBasisFunction([]float64{0.5}, []float64{0.5}, opts)
	if err != nil {
		t.Fatalf("batch must not fail on a singular fit: %v", err)
	}
	if !math.IsNaN(values[0]) || neighbors[0] != 0 {
		t.Errorf("singular fit: got (%v, %d), want (NaN, 0)", values[0], neighbors[0])
	}
}

func TestEmptyTree(t *testing.T) {
	tr := NewWGS84()
	dists, values, err := tr.Query([]float64{0}, []float64{0}, DefaultQueryOptions())
	if err != nil {
		t.Fatalf("Query on empty tree: %v", err)
	}
	for j := range dists[0] {
		if !math.IsNaN(dists[0][j]) || !math.IsNaN(values[0][j]) {
			t.Errorf("empty tree neighbor %d: got (%v, %v), want NaN padding", j, dists[0][j], values[0][j])
		}
	}

	idw, neighbors, err := tr.InverseDistanceWeighting([]float64{0}, []float64{0}, DefaultIDWOptions())
	if err != nil {
		t.Fatalf("IDW on empty tree: %v", err)
	}
	if !math.IsNaN(idw[0]) || neighbors[0] != 0 {
		t.Errorf("empty tree IDW: got (%v, %d), want (NaN, 0)", idw[0], neighbors[0])
	}

	if _, ok := tr.Bounds(); ok {
		t.Error("empty tree must not report bounds")
	}
}

func TestLengthMismatch(t *testing.T) {
	tr := NewWGS84()
	if err := tr.Packing([]float64{0, 1}, []float64{0}, []float64{1, 2}); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Packing mismatch: err = %v, want ErrLengthMismatch", err)
	}
	if _, _, err := tr.Query([]float64{0, 1}, []float64{0}, DefaultQueryOptions()); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Query mismatch: err = %v, want ErrLengthMismatch", err)
	}
	if _, _, err := tr.InverseDistanceWeighting([]float64{0}, []float64{}, DefaultIDWOptions()); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("IDW mismatch: err = %v, want ErrLengthMismatch", err)
	}
	if _, _, err := tr.RadialBasisFunction([]float64{}, []float64{0}, DefaultRBFOptions()); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("RBF mismatch: err = %v, want ErrLengthMismatch", err)
	}
}

func TestClearAndBounds(t *testing.T) {
	tr := NewWGS84()
	tr.Insert(-10, 5, 1)
	tr.Insert(20, -8, 2)
	b, ok := tr.Bounds()
	if !ok {
		t.Fatal("expected bounds after insert")
	}
	if b.Min[0] != -10 || b.Min[1] != -8 || b.Max[0] != 20 || b.Max[1] != 5 {
		t.Errorf("Bounds = %v, want lon [-10, 20] lat [-8, 5]", b)
	}
	tr.Clear()
	if tr.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", tr.Len())
	}
	if _, ok := tr.Bounds(); ok {
		t.Error("bounds must vanish after Clear")
	}
}

func TestCustomSpheroid(t *testing.T) {
	sphere, err := geodetic.New(6371000, 0)
	if err != nil {
		t.Fatalf("geodetic.New: %v", err)
	}
	tr := New(sphere)
	tr.Insert(0, 0, 1)
	dists, _, err := tr.Query([]float64{1}, []float64{0}, QueryOptions{K: 1, NumThreads: 1})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	want := 2 * math.Pi * 6371000 / 360
	if math.Abs(dists[0][0]-want) > 1 {
		t.Errorf("one degree on the sphere = %v m, want ~%v m", dists[0][0], want)
	}
}
