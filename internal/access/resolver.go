// Package access resolves candidate stops for the walking legs at the start
// and end of a journey (spec.md section 4.3), reusing the same spatial
// index footpath construction builds over stop coordinates.
package access

import (
	"transitraptor.dev/internal/geo"
	"transitraptor.dev/internal/models"
)

// Candidate is a stop reachable on foot from a query coordinate.
type Candidate struct {
	Stop        int
	WalkSeconds int
}

// Resolver answers near(lat, lon, radius) queries against a fixed set of
// stop coordinates.
type Resolver struct {
	stops   []models.Stop
	spatial *geo.Index
}

// NewResolver builds a Resolver over stops, reusing the spatial index
// already bulk-loaded for the same stop set by internal/footpath.Build
// (spec.md section 4.3: "uses the same grid built for foot-path
// construction") rather than bulk-loading a second rtree per call.
func NewResolver(stops []models.Stop, spatial *geo.Index) *Resolver {
	return &Resolver{stops: stops, spatial: spatial}
}

// Near returns every stop within radiusM meters of (lat, lon), with walk
// time computed the same way foot-paths are (spec.md section 3). There is
// no upper bound on the returned list size; it is bounded only by the
// walking radius.
func (r *Resolver) Near(lat, lon, radiusM float64, walkSpeedMPS, walkPenalty float64) []Candidate {
	indices := r.spatial.Within(lat, lon, radiusM)
	out := make([]Candidate, 0, len(indices))
	for _, idx := range indices {
		s := r.stops[idx]
		meters := geo.Distance(lat, lon, s.Lat, s.Lon)
		out = append(out, Candidate{Stop: idx, WalkSeconds: geo.WalkSeconds(meters, walkSpeedMPS, walkPenalty)})
	}
	return out
}
