// Package geo holds the spherical geometry helpers used by the map layers.
package geo

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// EarthRadiusMeters is the mean Earth radius.
const EarthRadiusMeters = 6371000.0

// Valid reports finite WGS84 degrees within range.
func Valid(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Distance returns the great-circle distance in meters between two [lng, lat] points.
func Distance(a, b orb.Point) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat(), a.Lon())
	p2 := s2.LatLngFromDegrees(b.Lat(), b.Lon())
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// Centroid returns the spherical mean of every vertex of g. ok is false for an
// empty geometry.
func Centroid(g orb.Geometry) (center orb.Point, ok bool) {
	var sum r3.Vector
	n := 0
	eachPoint(g, func(p orb.Point) {
		sum = sum.Add(s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat(), p.Lon())).Vector)
		n++
	})
	if n == 0 || sum.Norm() == 0 {
		return orb.Point{}, false
	}
	ll := s2.LatLngFromPoint(s2.Point{Vector: sum.Normalize()})
	return orb.Point{ll.Lng.Degrees(), ll.Lat.Degrees()}, true
}

// MaxDistance returns the distance from center to the farthest point.
func MaxDistance(center orb.Point, points []orb.Point) float64 {
	var d float64
	for _, p := range points {
		d = math.Max(d, Distance(center, p))
	}
	return d
}

func eachPoint(g orb.Geometry, fn func(orb.Point)) {
	switch v := g.(type) {
	case orb.Point:
		fn(v)
	case orb.MultiPoint:
		for _, p := range v {
			fn(p)
		}
	case orb.LineString:
		for _, p := range v {
			fn(p)
		}
	case orb.Ring:
		for _, p := range v {
			fn(p)
		}
	case orb.MultiLineString:
		for _, ls := range v {
			eachPoint(ls, fn)
		}
	case orb.Polygon:
		for _, r := range v {
			eachPoint(r, fn)
		}
	case orb.MultiPolygon:
		for _, p := range v {
			eachPoint(p, fn)
		}
	case orb.Collection:
		for _, c := range v {
			eachPoint(c, fn)
		}
	}
}
