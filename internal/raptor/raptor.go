// Package raptor implements the round-based multi-criteria transit routing
// algorithm described in spec.md section 4.4: per-round Pareto labels and
// parent pointers, with the local-pruning rule and no target-stop pruning.
package raptor

import (
	"context"
	"sort"

	"transitraptor.dev/internal/footpath"
	"transitraptor.dev/internal/models"
	"transitraptor.dev/internal/timetable"
)

// Inf is the sentinel "not reached" arrival time. It is set far below
// math.MaxInt64 so that Inf + any plausible walk or transfer duration never
// overflows, keeping all time arithmetic safely within 64 bits per spec.md
// section 7.
const Inf int64 = 1 << 62

// AccessCandidate is one (stop, walk_seconds) pair from the access resolver.
type AccessCandidate struct {
	Stop        int
	WalkSeconds int
}

// round holds one round's labels and parent pointers, reused by copying
// from the previous round at the start of each new round.
type round struct {
	tau    []int64
	parent []models.Parent
}

func newRound(n int) *round {
	r := &round{tau: make([]int64, n), parent: make([]models.Parent, n)}
	for i := range r.tau {
		r.tau[i] = Inf
	}
	return r
}

func (r *round) clone() *round {
	out := &round{tau: make([]int64, len(r.tau)), parent: make([]models.Parent, len(r.parent))}
	copy(out.tau, r.tau)
	copy(out.parent, r.parent)
	return out
}

// Result is the per-query RAPTOR output: the best-known arrival per stop
// (tau*) plus every round's labels and parent pointers, consumed by
// internal/journey for reconstruction.
type Result struct {
	TauStar       []int64
	Rounds        []*round
	RoundsRun     int
	RouteScans    int
}

// TauAt returns tau_k[s], the best arrival at stop s using at most k trips.
func (res *Result) TauAt(k, s int) int64 { return res.Rounds[k].tau[s] }

// ParentAt returns parent[k][s].
func (res *Result) ParentAt(k, s int) models.Parent { return res.Rounds[k].parent[s] }

// MaxRound returns the highest round index populated (= RoundsRun, which is
// below KMax when the search ran out of marked stops early).
func (res *Result) MaxRound() int { return len(res.Rounds) - 1 }

// routeScanBatchSize bounds how many routes are scanned between
// cancellation checks within a single round.
const routeScanBatchSize = 64

// Run executes the multi-round search from access candidates over a fixed
// timetable and foot-path graph, returning per-round labels and parents.
// It never mutates store or fp; all state is per-query scratch.
func Run(
	ctx context.Context,
	store *timetable.Store,
	fp *footpath.Index,
	access []AccessCandidate,
	departureEpochSeconds int64,
	kMax int,
	sameStopTransferSeconds int64,
) (*Result, error) {
	n := store.StopCount()
	tauStar := make([]int64, n)
	for i := range tauStar {
		tauStar[i] = Inf
	}

	rounds := make([]*round, kMax+1)
	rounds[0] = newRound(n)

	marked := make(map[int]struct{})
	for _, a := range access {
		arr := departureEpochSeconds + int64(a.WalkSeconds)
		if arr < tauStar[a.Stop] {
			tauStar[a.Stop] = arr
			rounds[0].tau[a.Stop] = arr
			rounds[0].parent[a.Stop] = models.Parent{Kind: models.ParentAccess, OriginWalkSeconds: a.WalkSeconds}
			marked[a.Stop] = struct{}{}
		}
	}

	res := &Result{TauStar: tauStar, Rounds: rounds}

	roundsRun := 0
	for k := 1; k <= kMax; k++ {
		if err := checkCancelled(ctx); err != nil {
			res.RoundsRun = roundsRun
			res.Rounds = rounds[:roundsRun+1]
			return res, err
		}
		if len(marked) == 0 {
			break
		}

		cur := rounds[k-1].clone()
		rounds[k] = cur
		roundsRun = k

		queue := collectRoutes(store, marked)
		clear(marked)

		routeScanMarked := make(map[int]struct{})
		scanCount := 0
		for _, rq := range queue {
			scanRoute(store, cur, rounds[k-1].tau, tauStar, rq.route, rq.position, sameStopTransferSeconds, k, routeScanMarked)
			scanCount++
			res.RouteScans++
			if scanCount%routeScanBatchSize == 0 {
				if err := checkCancelled(ctx); err != nil {
					res.RoundsRun = roundsRun
					res.Rounds = rounds[:roundsRun+1]
					return res, err
				}
			}
		}

		for s := range routeScanMarked {
			relaxFootpaths(fp, cur, tauStar, s, marked)
			marked[s] = struct{}{}
		}
	}
	res.RoundsRun = roundsRun
	res.Rounds = rounds[:roundsRun+1]

	return res, nil
}

func checkCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return models.NewError(models.Timeout, "query exceeded its wall-clock budget")
		}
		return models.NewError(models.Cancelled, "query was cancelled")
	default:
		return nil
	}
}

type routeQueueEntry struct {
	route    int
	position int
}

// collectRoutes builds Q: for each marked stop, for each (r, p) occurrence,
// keep the smallest position seen for that route across all marked stops.
func collectRoutes(store *timetable.Store, marked map[int]struct{}) []routeQueueEntry {
	best := make(map[int]int)
	for s := range marked {
		for _, ref := range store.StopRoutes(s) {
			if p, ok := best[ref.Route]; !ok || ref.Position < p {
				best[ref.Route] = ref.Position
			}
		}
	}
	out := make([]routeQueueEntry, 0, len(best))
	for r, p := range best {
		out = append(out, routeQueueEntry{route: r, position: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].route < out[j].route })
	return out
}

// scanRoute walks route r from pStart to its last position, riding the
// earliest catchable trip and writing improved labels into cur, per
// spec.md section 4.4 step 2.
func scanRoute(
	store *timetable.Store,
	cur *round,
	tauPrev []int64,
	tauStar []int64,
	r, pStart int,
	sameStopTransferSeconds int64,
	k int,
	routeScanMarked map[int]struct{},
) {
	stopSeq := store.RouteStops(r)

	currentTrip := -1
	boardPosition := -1

	for p := pStart; p < len(stopSeq); p++ {
		sp := stopSeq[p]

		if currentTrip != -1 {
			arr, _ := store.TripTimes(currentTrip, p)
			arr64 := int64(arr)
			if arr64 < tauStar[sp] {
				cur.tau[sp] = arr64
				tauStar[sp] = arr64
				cur.parent[sp] = models.Parent{
					Kind:          models.ParentRide,
					Route:         r,
					BoardPosition: boardPosition,
					AlightPos:     p,
					Trip:          currentTrip,
				}
				routeScanMarked[sp] = struct{}{}
			}
		}

		attempt := currentTrip == -1
		if !attempt {
			_, depCur := store.TripTimes(currentTrip, p)
			attempt = tauPrev[sp] != Inf && tauPrev[sp]+sameStopTransferSeconds <= int64(depCur)
		}
		if attempt {
			candidate := earliestTrip(store, r, p, tauPrev[sp])
			if candidate != -1 && betterBoarding(store, candidate, currentTrip, p) {
				currentTrip = candidate
				boardPosition = p
			}
		}
	}
}

// earliestTrip performs the binary search spec.md section 4.4 prescribes:
// trips of a route are sorted by departure at position 0 and pointwise
// non-overtaking, so departures at any position p are sorted too.
func earliestTrip(store *timetable.Store, route, p int, afterDep int64) int {
	trips := store.RouteTrips(route)
	lo, hi := 0, len(trips)
	for lo < hi {
		mid := (lo + hi) / 2
		_, dep := store.TripTimes(trips[mid], p)
		if int64(dep) >= afterDep {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	if lo == len(trips) {
		return -1
	}
	return trips[lo]
}

func betterBoarding(store *timetable.Store, candidate, current, p int) bool {
	if current == -1 {
		return true
	}
	_, depCand := store.TripTimes(candidate, p)
	_, depCur := store.TripTimes(current, p)
	return depCand < depCur
}

// relaxFootpaths implements spec.md section 4.4 step 3: a single level of
// walk relaxation from stops marked by the route scan, never chained.
func relaxFootpaths(fp *footpath.Index, cur *round, tauStar []int64, s int, marked map[int]struct{}) {
	for _, n := range fp.Neighbours(s) {
		candidate := cur.tau[s] + int64(n.WalkSeconds)
		if candidate < tauStar[n.Stop] {
			cur.tau[n.Stop] = candidate
			tauStar[n.Stop] = candidate
			cur.parent[n.Stop] = models.Parent{Kind: models.ParentWalk, FromStop: s, WalkSeconds: n.WalkSeconds}
			marked[n.Stop] = struct{}{}
		}
	}
}
