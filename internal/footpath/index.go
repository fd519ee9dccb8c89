// Package footpath builds the bidirectional foot-path graph (spec.md
// section 4.2): CSR-style neighbour lists keyed by stop index, evaluated
// from stop coordinates via the rtree-backed spatial index in internal/geo
// instead of a full O(|S|^2) pair scan.
package footpath

import (
	"sort"

	"transitraptor.dev/internal/geo"
	"transitraptor.dev/internal/models"
)

// Neighbour is one entry in a stop's foot-path adjacency list.
type Neighbour struct {
	Stop        int
	WalkSeconds int
}

// Index is the built, immutable foot-path graph.
type Index struct {
	neighbours [][]Neighbour
	spatial    *geo.Index
}

// Spatial returns the spatial index built over the same stop coordinates
// this foot-path graph was constructed from. internal/access reuses it for
// access/egress resolution instead of bulk-loading a second rtree per query,
// per spec.md section 4.3's "uses the same grid built for foot-path
// construction."
func (idx *Index) Spatial() *geo.Index { return idx.spatial }

// Build evaluates every stop pair within maxRadiusM of each other (via the
// spatial index) and keeps those within the radius, storing the result in
// CSR-style neighbour lists. Extra transfers from the loader (e.g. GTFS
// transfers.txt) are merged in, keeping the shorter walk time on conflict.
func Build(stops []models.Stop, opts models.Defaults, extra []models.FootPath) *Index {
	idx := &Index{neighbours: make([][]Neighbour, len(stops))}
	if len(stops) == 0 {
		idx.spatial = geo.Build(nil)
		return idx
	}

	points := make([]geo.Point, len(stops))
	for i, s := range stops {
		points[i] = geo.Point{Index: s.Index, Lat: s.Lat, Lon: s.Lon}
	}
	spatial := geo.Build(points)
	idx.spatial = spatial
	maxWalkSeconds := opts.MaxWalkSeconds()

	for _, s := range stops {
		candidates := spatial.Within(s.Lat, s.Lon, opts.MaxWalkRadiusM)
		for _, c := range candidates {
			if c == s.Index {
				continue
			}
			meters := geo.Distance(s.Lat, s.Lon, stops[c].Lat, stops[c].Lon)
			walkSeconds := geo.WalkSeconds(meters, opts.WalkSpeedMPS, opts.WalkPenalty)
			if walkSeconds > maxWalkSeconds {
				continue
			}
			idx.upsert(s.Index, c, walkSeconds)
		}
	}

	for _, fp := range extra {
		idx.upsert(fp.From, fp.To, fp.WalkSeconds)
		idx.upsert(fp.To, fp.From, fp.WalkSeconds)
	}

	for s := range idx.neighbours {
		sort.Slice(idx.neighbours[s], func(i, j int) bool {
			return idx.neighbours[s][i].Stop < idx.neighbours[s][j].Stop
		})
	}

	return idx
}

func (idx *Index) upsert(from, to, walkSeconds int) {
	for i, n := range idx.neighbours[from] {
		if n.Stop == to {
			if walkSeconds < n.WalkSeconds {
				idx.neighbours[from][i].WalkSeconds = walkSeconds
			}
			return
		}
	}
	idx.neighbours[from] = append(idx.neighbours[from], Neighbour{Stop: to, WalkSeconds: walkSeconds})
}

// Neighbours returns stop s's foot-path adjacency list.
func (idx *Index) Neighbours(s int) []Neighbour {
	return idx.neighbours[s]
}
