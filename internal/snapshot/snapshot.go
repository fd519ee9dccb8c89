// Package snapshot publishes immutable timetable builds for concurrent
// query access, per spec.md section 5: the Store and Foot-path Index are
// build-once and read-only, and a background refresh swaps in a new
// snapshot without disturbing in-flight queries.
package snapshot

import (
	"sync/atomic"
	"time"

	"transitraptor.dev/internal/footpath"
	"transitraptor.dev/internal/geo"
	"transitraptor.dev/internal/timetable"
)

// Snapshot bundles one immutable timetable build with the foot-path graph
// derived from it, the spatial index that foot-path graph was built over
// (shared with internal/access so access/egress resolution never bulk-loads
// a second rtree per query, per spec.md section 4.3), and the time it was
// built.
type Snapshot struct {
	Store     *timetable.Store
	FootPaths *footpath.Index
	Spatial   *geo.Index
	BuiltAt   time.Time
}

// NewSnapshot bundles store and fp together, deriving Spatial from fp so
// callers never have to reach into footpath.Index themselves.
func NewSnapshot(store *timetable.Store, fp *footpath.Index, builtAt time.Time) *Snapshot {
	return &Snapshot{Store: store, FootPaths: fp, Spatial: fp.Spatial(), BuiltAt: builtAt}
}

// Publisher holds the currently active Snapshot behind a lock-free atomic
// pointer, generalising the teacher's RWMutex-guarded static-data swap
// (internal/gtfs Manager.updateStaticGTFS) to avoid blocking readers during
// a refresh.
type Publisher struct {
	current atomic.Pointer[Snapshot]
}

// NewPublisher creates a Publisher already holding initial.
func NewPublisher(initial *Snapshot) *Publisher {
	p := &Publisher{}
	p.current.Store(initial)
	return p
}

// Current returns the active Snapshot. The returned value and everything
// it references is immutable; callers may hold onto it for the lifetime of
// one query without synchronization.
func (p *Publisher) Current() *Snapshot {
	return p.current.Load()
}

// Swap atomically replaces the active Snapshot. In-flight queries that
// already captured the previous Snapshot via Current are unaffected.
func (p *Publisher) Swap(next *Snapshot) {
	p.current.Store(next)
}
