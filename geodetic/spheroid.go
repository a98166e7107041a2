// Package geodetic defines the reference spheroid used to measure
// distances between geographic coordinates, and the conversion from
// geodetic to earth-centered earth-fixed (ECEF) space used by the
// spatial index.
//
// Points follow the orb convention: Point{lon, lat} in degrees.
package geodetic

import (
	"fmt"
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// Spheroid is a reference ellipsoid of revolution. The zero value is not
// valid; use New or WGS84.
type Spheroid struct {
	// SemiMajorAxis is the equatorial radius, in meters.
	SemiMajorAxis float64
	// Flattening of the ellipsoid, in [0, 1).
	Flattening float64
}

// WGS84 returns the World Geodetic System 1984 spheroid.
func WGS84() Spheroid {
	return Spheroid{SemiMajorAxis: 6378137.0, Flattening: 1 / 298.257223563}
}

// New builds a spheroid from an equatorial radius (meters) and flattening.
func New(semiMajorAxis, flattening float64) (Spheroid, error) {
	if semiMajorAxis <= 0 {
		return Spheroid{}, fmt.Errorf("geodetic: semi-major axis must be positive, got %v", semiMajorAxis)
	}
	if flattening < 0 || flattening >= 1 {
		return Spheroid{}, fmt.Errorf("geodetic: flattening must be in [0, 1), got %v", flattening)
	}
	return Spheroid{SemiMajorAxis: semiMajorAxis, Flattening: flattening}, nil
}

// SemiMinorAxis returns the polar radius, in meters.
func (s Spheroid) SemiMinorAxis() float64 {
	return s.SemiMajorAxis * (1 - s.Flattening)
}

// FirstEccentricitySquared returns e² = f(2-f).
func (s Spheroid) FirstEccentricitySquared() float64 {
	return s.Flattening * (2 - s.Flattening)
}

// MeanRadius returns the arithmetic mean radius (2a+b)/3, in meters.
func (s Spheroid) MeanRadius() float64 {
	return (2*s.SemiMajorAxis + s.SemiMinorAxis()) / 3
}

// AuthalicRadius returns the radius of the sphere with the same surface
// area as the spheroid, in meters.
func (s Spheroid) AuthalicRadius() float64 {
	if s.Flattening == 0 {
		return s.SemiMajorAxis
	}
	a, b := s.SemiMajorAxis, s.SemiMinorAxis()
	e := math.Sqrt(s.FirstEccentricitySquared())
	return math.Sqrt((a*a + b*b*math.Atanh(e)/e) / 2)
}

// Distance returns the geodesic distance between two lon/lat points in
// meters, using Andoyer's first-order approximation on the spheroid.
// Accurate to order f² (centimeters over continental distances), closed
// form, no iteration. Safe for unlimited concurrent use.
func (s Spheroid) Distance(a, b orb.Point) float64 {
	lat1 := a.Lat() * math.Pi / 180
	lat2 := b.Lat() * math.Pi / 180
	dLon := (a.Lon() - b.Lon()) * math.Pi / 180

	f := (lat1 + lat2) / 2
	g := (lat1 - lat2) / 2
	l := dLon / 2

	sinF, cosF := math.Sincos(f)
	sinG, cosG := math.Sincos(g)
	sinL, cosL := math.Sincos(l)

	sv := sinG*sinG*cosL*cosL + cosF*cosF*sinL*sinL
	cv := cosG*cosG*cosL*cosL + sinF*sinF*sinL*sinL

	omega := math.Atan2(math.Sqrt(sv), math.Sqrt(cv))
	if omega == 0 {
		return 0
	}
	r := math.Sqrt(sv*cv) / omega
	d := 2 * omega * s.SemiMajorAxis

	if s.Flattening == 0 {
		return d
	}
	if sv == 0 || cv == 0 {
		// Coincident or antipodal, the flattening correction degenerates.
		return d
	}
	h1 := (3*r - 1) / (2 * cv)
	h2 := (3*r + 1) / (2 * sv)
	return d * (1 + s.Flattening*(h1*sinF*sinF*cosG*cosG-h2*cosF*cosF*sinG*sinG))
}

// SphericalDistance returns the great-circle distance between two lon/lat
// points in meters, on the sphere of authalic radius.
func (s Spheroid) SphericalDistance(a, b orb.Point) float64 {
	la := s2.LatLngFromDegrees(a.Lat(), a.Lon())
	lb := s2.LatLngFromDegrees(b.Lat(), b.Lon())
	return la.Distance(lb).Radians() * s.AuthalicRadius()
}

// Azimuth returns the initial bearing from a to b, clockwise from north.
func (s Spheroid) Azimuth(a, b orb.Point) s1.Angle {
	lat1 := a.Lat() * math.Pi / 180
	lat2 := b.Lat() * math.Pi / 180
	dLon := (b.Lon() - a.Lon()) * math.Pi / 180
	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return s1.Angle(math.Atan2(y, x))
}

// ToECEF converts geodetic coordinates (degrees, meters above the
// ellipsoid) to earth-centered earth-fixed cartesian coordinates in
// meters.
func (s Spheroid) ToECEF(lon, lat, alt float64) [3]float64 {
	lonR := lon * math.Pi / 180
	latR := lat * math.Pi / 180
	sinLat, cosLat := math.Sincos(latR)
	sinLon, cosLon := math.Sincos(lonR)

	e2 := s.FirstEccentricitySquared()
	// Prime vertical radius of curvature.
	n := s.SemiMajorAxis / math.Sqrt(1-e2*sinLat*sinLat)

	return [3]float64{
		(n + alt) * cosLat * cosLon,
		(n + alt) * cosLat * sinLon,
		(n*(1-e2) + alt) * sinLat,
	}
}
