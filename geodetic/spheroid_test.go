package geodetic

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(0, 0); err == nil {
		t.Error("zero semi-major axis: expected error")
	}
	if _, err := New(6378137, 1); err == nil {
		t.Error("flattening = 1: expected error")
	}
	if _, err := New(6378137, -0.1); err == nil {
		t.Error("negative flattening: expected error")
	}
	if _, err := New(6378137, 0); err != nil {
		t.Errorf("sphere (flattening 0) should be valid: %v", err)
	}
}

func TestDistanceZero(t *testing.T) {
	wgs := WGS84()
	p := orb.Point{2.35, 48.85}
	if d := wgs.Distance(p, p); d != 0 {
		t.Errorf("Distance(p, p) = %v, want 0", d)
	}
}

func TestDistanceKnownValues(t *testing.T) {
	wgs := WGS84()
	paris := orb.Point{2.3522, 48.8566}
	london := orb.Point{-0.1276, 51.5072}
	d := wgs.Distance(paris, london)
	// Vincenty gives ~343.56 km; Andoyer should be within a few hundred meters.
	if math.Abs(d-343560) > 500 {
		t.Errorf("Paris-London = %v m, want ~343560 m", d)
	}

	// One degree of longitude along the equator.
	a := orb.Point{0, 0}
	b := orb.Point{1, 0}
	d = wgs.Distance(a, b)
	want := 2 * math.Pi * wgs.SemiMajorAxis / 360
	if math.Abs(d-want) > 50 {
		t.Errorf("one equatorial degree = %v m, want ~%v m", d, want)
	}
}

func TestDistanceAgreesWithSpherical(t *testing.T) {
	wgs := WGS84()
	a := orb.Point{-30, 10}
	b := orb.Point{12, 46}
	geodesic := wgs.Distance(a, b)
	spherical := wgs.SphericalDistance(a, b)
	if math.Abs(geodesic-spherical)/geodesic > 0.01 {
		t.Errorf("geodesic %v and spherical %v differ by more than 1%%", geodesic, spherical)
	}
}

func TestToECEF(t *testing.T) {
	wgs := WGS84()
	// Equator, prime meridian: x = a, y = z = 0.
	p := wgs.ToECEF(0, 0, 0)
	if math.Abs(p[0]-wgs.SemiMajorAxis) > 1e-6 || math.Abs(p[1]) > 1e-6 || math.Abs(p[2]) > 1e-6 {
		t.Errorf("ToECEF(0,0,0) = %v, want (a, 0, 0)", p)
	}
	// North pole: z = b.
	p = wgs.ToECEF(0, 90, 0)
	if math.Abs(p[2]-wgs.SemiMinorAxis()) > 1e-6 {
		t.Errorf("ToECEF(0,90,0).z = %v, want b = %v", p[2], wgs.SemiMinorAxis())
	}
	// Altitude adds along the normal.
	p = wgs.ToECEF(0, 0, 100)
	if math.Abs(p[0]-(wgs.SemiMajorAxis+100)) > 1e-6 {
		t.Errorf("ToECEF(0,0,100).x = %v, want a+100", p[0])
	}
}

func TestAzimuth(t *testing.T) {
	wgs := WGS84()
	north := wgs.Azimuth(orb.Point{0, 0}, orb.Point{0, 10})
	if math.Abs(north.Radians()) > 1e-9 {
		t.Errorf("due north azimuth = %v rad, want 0", north.Radians())
	}
	east := wgs.Azimuth(orb.Point{0, 0}, orb.Point{10, 0})
	if math.Abs(east.Radians()-math.Pi/2) > 1e-9 {
		t.Errorf("due east azimuth = %v rad, want pi/2", east.Radians())
	}
}

func TestRadii(t *testing.T) {
	wgs := WGS84()
	if b := wgs.SemiMinorAxis(); math.Abs(b-6356752.314245) > 1e-3 {
		t.Errorf("SemiMinorAxis = %v, want 6356752.314245", b)
	}
	if r := wgs.AuthalicRadius(); math.Abs(r-6371007.18) > 1 {
		t.Errorf("AuthalicRadius = %v, want ~6371007.18", r)
	}
	sphere, _ := New(6371000, 0)
	if r := sphere.AuthalicRadius(); r != 6371000 {
		t.Errorf("sphere AuthalicRadius = %v, want 6371000", r)
	}
}
