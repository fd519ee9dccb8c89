// Package journey reconstructs and filters the Pareto-optimal candidates
// the RAPTOR core's labels and parent pointers encode, per spec.md
// section 4.5: backward parent-chain walks from every egress candidate and
// every round, followed by domination filtering on (arrival_time,
// transfer_count).
package journey

import (
	"github.com/twpayne/go-polyline"
	"transitraptor.dev/internal/access"
	"transitraptor.dev/internal/models"
	"transitraptor.dev/internal/raptor"
	"transitraptor.dev/internal/timetable"
)

// originID and destinationID name the synthetic endpoints of access and
// egress walking legs; they are never real stop ids.
const (
	originID      = "origin"
	destinationID = "destination"
)

// Reconstruct walks every (round, egress candidate) pair with a non-empty
// parent chain backward into a models.Journey, per spec.md section 4.5. The
// returned slice is unfiltered and may contain dominated or duplicate
// candidates; callers apply Filter before returning results to a caller.
func Reconstruct(store *timetable.Store, res *raptor.Result, egress []access.Candidate, departureEpochSeconds int64) []models.Journey {
	var out []models.Journey
	for _, e := range egress {
		for k := 0; k <= res.MaxRound(); k++ {
			j, ok := reconstructOne(store, res, k, e, departureEpochSeconds)
			if ok {
				out = append(out, j)
			}
		}
	}
	return out
}

func reconstructOne(store *timetable.Store, res *raptor.Result, k int, e access.Candidate, departureEpochSeconds int64) (models.Journey, bool) {
	arrivalAtStop := res.TauAt(k, e.Stop)
	if arrivalAtStop >= raptor.Inf {
		return models.Journey{}, false
	}
	if res.ParentAt(k, e.Stop).Kind == models.ParentNone {
		// A stop is only labelled with ParentNone when it was never marked
		// in or before round k; an Inf check above should already exclude
		// it, but guard explicitly against the round-0 zero-value case.
		return models.Journey{}, false
	}

	var legsReversed []models.Leg
	cur := e.Stop
	curK := k

	for {
		p := res.ParentAt(curK, cur)
		switch p.Kind {
		case models.ParentRide:
			stopSeq := store.RouteStops(p.Route)
			fromStop := stopSeq[p.BoardPosition]
			_, dep := store.TripTimes(p.Trip, p.BoardPosition)
			arr, _ := store.TripTimes(p.Trip, p.AlightPos)
			legsReversed = append(legsReversed, models.Leg{
				Kind:          models.LegRide,
				FromStop:      store.Stop(fromStop).ID,
				ToStop:        store.Stop(cur).ID,
				FromTime:      dep,
				ToTime:        arr,
				RouteID:       store.RouteID(p.Route),
				TripID:        store.TripID(p.Trip),
				BoardPosition: p.BoardPosition,
				AlightPos:     p.AlightPos,
			})
			cur = fromStop
			curK--

		case models.ParentWalk:
			fromTime := res.TauAt(curK, p.FromStop)
			toTime := res.TauAt(curK, cur)
			legsReversed = append(legsReversed, models.Leg{
				Kind:          models.LegWalk,
				FromStop:      store.Stop(p.FromStop).ID,
				ToStop:        store.Stop(cur).ID,
				FromTime:      int32(fromTime),
				ToTime:        int32(toTime),
				BoardPosition: -1,
				AlightPos:     -1,
				Polyline:      straightLinePolyline(store, p.FromStop, cur),
			})
			cur = p.FromStop

		case models.ParentAccess:
			if p.OriginWalkSeconds > 0 {
				legsReversed = append(legsReversed, models.Leg{
					Kind:          models.LegWalk,
					FromStop:      originID,
					ToStop:        store.Stop(cur).ID,
					FromTime:      int32(departureEpochSeconds),
					ToTime:        int32(departureEpochSeconds + int64(p.OriginWalkSeconds)),
					BoardPosition: -1,
					AlightPos:     -1,
				})
			}
			goto reconstructed

		default:
			// parent.Kind == ParentNone reached mid-chain: the label trace
			// is broken, which should never happen against a validated
			// timetable.
			return models.Journey{}, false
		}
	}

reconstructed:
	legs := make([]models.Leg, len(legsReversed))
	for i, leg := range legsReversed {
		legs[len(legsReversed)-1-i] = leg
	}

	arrivalAtDest := arrivalAtStop + int64(e.WalkSeconds)
	if e.WalkSeconds > 0 {
		legs = append(legs, models.Leg{
			Kind:          models.LegWalk,
			FromStop:      store.Stop(e.Stop).ID,
			ToStop:        destinationID,
			FromTime:      int32(arrivalAtStop),
			ToTime:        int32(arrivalAtDest),
			BoardPosition: -1,
			AlightPos:     -1,
		})
	}

	transferCount := -1
	totalWalkSecs := 0
	for _, leg := range legs {
		if leg.Kind == models.LegRide {
			transferCount++
		} else {
			totalWalkSecs += int(leg.ToTime - leg.FromTime)
		}
	}
	if transferCount < 0 {
		// No ride legs at all: the egress stop was reached by the access
		// walk alone (a stop within walking radius of both origin and
		// destination), which is not a transit journey, so this candidate is
		// dropped.
		return models.Journey{}, false
	}

	return models.Journey{
		DepartureTime: legs[0].FromTime,
		ArrivalTime:   int32(arrivalAtDest),
		TransferCount: transferCount,
		TotalWalkSecs: totalWalkSecs,
		Legs:          legs,
	}, true
}

// straightLinePolyline encodes a two-point straight-line estimate for a
// walking leg as a Google-encoded polyline, mirroring the teacher's
// shape-encoding use of the same library for its geometry legs.
func straightLinePolyline(store *timetable.Store, from, to int) string {
	a := store.Stop(from)
	b := store.Stop(to)
	coords := [][]float64{{a.Lat, a.Lon}, {b.Lat, b.Lon}}
	return string(polyline.EncodeCoords(coords))
}
