package interp

import "sort"

// spline is a natural cubic spline over ascending knots. Two knots
// degenerate to linear interpolation (second derivatives zero).
type spline struct {
	xs, ys []float64
	y2     []float64
}

func newSpline(xs, ys []float64) *spline {
	n := len(xs)
	s := &spline{xs: xs, ys: ys, y2: make([]float64, n)}
	if n < 3 {
		return s
	}

	// Tridiagonal solve for the second derivatives, natural boundary
	// conditions (y2 = 0 at both ends).
	u := make([]float64, n-1)
	for i := 1; i < n-1; i++ {
		sig := (xs[i] - xs[i-1]) / (xs[i+1] - xs[i-1])
		p := sig*s.y2[i-1] + 2
		s.y2[i] = (sig - 1) / p
		u[i] = (ys[i+1]-ys[i])/(xs[i+1]-xs[i]) - (ys[i]-ys[i-1])/(xs[i]-xs[i-1])
		u[i] = (6*u[i]/(xs[i+1]-xs[i-1]) - sig*u[i-1]) / p
	}
	for i := n - 2; i >= 0; i-- {
		s.y2[i] = s.y2[i]*s.y2[i+1] + u[i]
	}
	return s
}

// eval computes the spline value at x. Arguments outside the knot range
// evaluate the boundary polynomial (the callers bound-check coordinates
// before fitting).
func (s *spline) eval(x float64) float64 {
	n := len(s.xs)
	hi := sort.SearchFloat64s(s.xs, x)
	if hi <= 0 {
		hi = 1
	}
	if hi >= n {
		hi = n - 1
	}
	lo := hi - 1

	h := s.xs[hi] - s.xs[lo]
	a := (s.xs[hi] - x) / h
	b := (x - s.xs[lo]) / h
	return a*s.ys[lo] + b*s.ys[hi] +
		((a*a*a-a)*s.y2[lo]+(b*b*b-b)*s.y2[hi])*(h*h)/6
}
