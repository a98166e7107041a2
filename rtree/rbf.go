package rtree

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// Kernel selects the radial basis function φ(r) fitted over a neighbor
// set. r is the ECEF distance between nodes in meters; ε is the shape
// parameter of the adjustable kernels.
type Kernel int

const (
	// Multiquadric: φ(r) = sqrt(1 + (r/ε)²). The default.
	Multiquadric Kernel = iota
	// Cubic: φ(r) = r³.
	Cubic
	// Gaussian: φ(r) = exp(-(r/ε)²).
	Gaussian
	// InverseMultiquadric: φ(r) = 1 / sqrt(1 + (r/ε)²).
	InverseMultiquadric
	// Linear: φ(r) = r.
	Linear
	// ThinPlate: φ(r) = r² ln(r), with φ(0) = 0.
	ThinPlate
)

func (k Kernel) String() string {
	switch k {
	case Multiquadric:
		return "multiquadric"
	case Cubic:
		return "cubic"
	case Gaussian:
		return "gaussian"
	case InverseMultiquadric:
		return "inverse_multiquadric"
	case Linear:
		return "linear"
	case ThinPlate:
		return "thin_plate"
	}
	return fmt.Sprintf("Kernel(%d)", int(k))
}

// adjustable reports whether the kernel uses the ε shape parameter.
func (k Kernel) adjustable() bool {
	switch k {
	case Multiquadric, Gaussian, InverseMultiquadric:
		return true
	}
	return false
}

func (k Kernel) evaluate(r, epsilon float64) float64 {
	switch k {
	case Multiquadric:
		x := r / epsilon
		return math.Sqrt(1 + x*x)
	case Cubic:
		return r * r * r
	case Gaussian:
		x := r / epsilon
		return math.Exp(-x * x)
	case InverseMultiquadric:
		x := r / epsilon
		return 1 / math.Sqrt(1+x*x)
	case Linear:
		return r
	case ThinPlate:
		if r == 0 {
			return 0
		}
		return r * r * math.Log(r)
	}
	return math.NaN()
}

// rbfFit solves the dense interpolation system over one neighbor set and
// evaluates the fitted surface at the query point. Returns NaN when the
// system is singular.
func rbfFit(q [3]float64, neighbors []neighbor, kernel Kernel, epsilon, smooth float64) float64 {
	n := len(neighbors)

	if kernel.adjustable() && epsilon == 0 {
		// Default shape parameter: the mean distance between nodes,
		// following the usual RBF practice.
		dists := make([]float64, 0, n*(n-1)/2)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				dists = append(dists, math.Sqrt(pointDistSquared(neighbors[i].pt, neighbors[j].pt)))
			}
		}
		mean, err := stats.Mean(stats.Float64Data(dists))
		if err != nil || mean == 0 {
			return math.NaN()
		}
		epsilon = mean
	}

	a := mat.NewDense(n, n, nil)
	rhs := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			r := math.Sqrt(pointDistSquared(neighbors[i].pt, neighbors[j].pt))
			a.Set(i, j, kernel.evaluate(r, epsilon))
		}
		a.Set(i, i, a.At(i, i)-smooth)
		rhs.SetVec(i, neighbors[i].value)
	}

	var lu mat.LU
	lu.Factorize(a)
	w := mat.NewVecDense(n, nil)
	if err := lu.SolveVecTo(w, false, rhs); err != nil {
		return math.NaN()
	}

	v := 0.0
	for i := 0; i < n; i++ {
		r := math.Sqrt(pointDistSquared(q, neighbors[i].pt))
		v += w.AtVec(i) * kernel.evaluate(r, epsilon)
	}
	return v
}
