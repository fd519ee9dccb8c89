package geo

import (
	"github.com/tidwall/rtree"
)

// Point is the minimal shape the spatial index needs from a stop: its
// dense index and coordinate.
type Point struct {
	Index int
	Lat   float64
	Lon   float64
}

// Index is a bulk-loaded spatial index over stop coordinates. It replaces
// the grid-bucketing scheme spec.md section 4.2 describes as an
// implementation detail: the R-tree gives the same output semantics (every
// stop within a radius, nothing more) without a full stop-pair scan, and
// this is the one real dependency in the corpus built for exactly this job.
type Index struct {
	tree rtree.RTreeG[int]
}

// Build bulk-inserts every point into a fresh index.
func Build(points []Point) *Index {
	idx := &Index{}
	for _, p := range points {
		min := [2]float64{p.Lon, p.Lat}
		idx.tree.Insert(min, min, p.Index)
	}
	return idx
}

// Within returns the indices of every point within radiusM meters of
// (lat, lon), using a bounding-box rtree search followed by a Distance
// filter — the same two-phase approach spec.md section 4.2
// prescribes for the grid-bucketing scheme.
func (idx *Index) Within(lat, lon, radiusM float64) []int {
	bounds := CalculateBounds(lat, lon, radiusM)
	min := [2]float64{bounds.MinLon, bounds.MinLat}
	max := [2]float64{bounds.MaxLon, bounds.MaxLat}

	var out []int
	idx.tree.Search(min, max, func(bmin, _ [2]float64, stopIndex int) bool {
		if Distance(lat, lon, bmin[1], bmin[0]) <= radiusM {
			out = append(out, stopIndex)
		}
		return true
	})
	return out
}
