package timetable

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"transitraptor.dev/internal/logging"
	"transitraptor.dev/internal/models"
)

// RawStop is the loader-facing shape of a stop, as returned by a feed loader
// such as internal/feed/gtfsloader.
type RawStop struct {
	ID  string
	Lat float64
	Lon float64
}

// RawStopTime is one position in a raw trip as delivered by the loader.
type RawStopTime struct {
	StopID string
	Arr    int32
	Dep    int32
}

// RawTrip is the loader-facing shape of a trip: an upstream route key (which
// may group trips whose stop sequences disagree — the invariant this
// builder exists to repair) plus its ordered stop-times.
type RawTrip struct {
	ID            string
	UpstreamRoute string
	StopTimes     []RawStopTime
}

// RawTransfer is an extra foot-path delivered by the loader (e.g. GTFS
// transfers.txt), consumed in addition to the geometry-derived foot-paths
// internal/footpath builds from stop coordinates.
type RawTransfer struct {
	FromStopID  string
	ToStopID    string
	WalkSeconds int
}

// Builder constructs an immutable Store from raw feed entities, re-grouping
// trips into synthetic routes keyed by the exact tuple of stop_ids in
// order, per spec.md section 3's route construction invariant.
type Builder struct {
	defaults models.Defaults
	logger   *slog.Logger
}

// NewBuilder creates a Builder with the given derived constants.
func NewBuilder(defaults models.Defaults, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{defaults: defaults, logger: logger.With(slog.String("component", "timetable_builder"))}
}

// Build re-groups rawTrips by exact stop-id sequence, sorts each synthetic
// route's trips by departure at position 0, and returns the resulting Store.
func (b *Builder) Build(rawStops []RawStop, rawTrips []RawTrip) (*Store, error) {
	store := &Store{
		stopByID: make(map[string]int, len(rawStops)),
		defaults: b.defaults,
	}

	for _, rs := range rawStops {
		if _, dup := store.stopByID[rs.ID]; dup {
			return nil, models.NewError(models.InternalInvariant, fmt.Sprintf("duplicate stop id %q", rs.ID))
		}
		idx := len(store.stops)
		store.stopByID[rs.ID] = idx
		store.stops = append(store.stops, models.Stop{ID: rs.ID, Lat: rs.Lat, Lon: rs.Lon, Index: idx})
	}

	// Group trips by the exact ordered tuple of stop ids. The map key is a
	// joined string of stop ids, which is stable and cheap; a slice-keyed
	// map would require a comparable array type bounded to a fixed length.
	type group struct {
		stopSeq []int
		trips   []int // indices into rawTrips, later remapped to trip indices
	}
	groups := make(map[string]*group)
	var groupOrder []string

	for ti, rt := range rawTrips {
		if len(rt.StopTimes) < 2 {
			return nil, models.NewError(models.InvalidInput, fmt.Sprintf("trip %q has fewer than two stop-times", rt.ID))
		}
		stopSeq := make([]int, len(rt.StopTimes))
		keyParts := make([]string, len(rt.StopTimes))
		for p, st := range rt.StopTimes {
			si, ok := store.stopByID[st.StopID]
			if !ok {
				return nil, models.NewError(models.InvalidInput, fmt.Sprintf("trip %q references unknown stop %q", rt.ID, st.StopID))
			}
			stopSeq[p] = si
			keyParts[p] = st.StopID
		}
		key := strings.Join(keyParts, "\x1f")
		g, ok := groups[key]
		if !ok {
			g = &group{stopSeq: stopSeq}
			groups[key] = g
			groupOrder = append(groupOrder, key)
		}
		g.trips = append(g.trips, ti)
	}

	sort.Strings(groupOrder) // deterministic route index assignment

	store.routes = make([]models.Route, 0, len(groupOrder))
	store.trips = make([]models.Trip, 0, len(rawTrips))
	store.tripIDs = make([]string, 0, len(rawTrips))
	store.routeIDs = make([]string, 0, len(groupOrder))
	store.stopRoutes = make([][]models.StopRouteRef, len(store.stops))

	for _, key := range groupOrder {
		g := groups[key]
		routeIndex := len(store.routes)

		type tripBuild struct {
			rawIndex int
			tripIdx  int
		}
		built := make([]tripBuild, 0, len(g.trips))

		for _, rawIndex := range g.trips {
			rt := rawTrips[rawIndex]
			arr := make([]int32, len(rt.StopTimes))
			dep := make([]int32, len(rt.StopTimes))
			for p, st := range rt.StopTimes {
				arr[p] = st.Arr
				dep[p] = st.Dep
				if arr[p] > dep[p] {
					return nil, models.NewError(models.InvalidInput,
						fmt.Sprintf("trip %q position %d has arrival after departure", rt.ID, p))
				}
				if p > 0 && dep[p-1] > arr[p] {
					return nil, models.NewError(models.InvalidInput,
						fmt.Sprintf("trip %q position %d departs before the previous arrival", rt.ID, p))
				}
			}
			tripIdx := len(store.trips)
			store.trips = append(store.trips, models.Trip{RouteIndex: routeIndex, Arr: arr, Dep: dep})
			store.tripIDs = append(store.tripIDs, rt.ID)
			built = append(built, tripBuild{rawIndex: rawIndex, tripIdx: tripIdx})
		}

		sort.SliceStable(built, func(i, j int) bool {
			return store.trips[built[i].tripIdx].Dep[0] < store.trips[built[j].tripIdx].Dep[0]
		})

		tripIndices := make([]int, len(built))
		for i, tb := range built {
			tripIndices[i] = tb.tripIdx
		}

		store.routes = append(store.routes, models.Route{StopSeq: g.stopSeq, Trips: tripIndices})
		store.routeIDs = append(store.routeIDs, fmt.Sprintf("route-%d", routeIndex))

		for p, stopIdx := range g.stopSeq {
			store.stopRoutes[stopIdx] = append(store.stopRoutes[stopIdx], models.StopRouteRef{Route: routeIndex, Position: p})
		}
	}

	logging.LogOperation(b.logger, "timetable_built",
		slog.Int("stops", len(store.stops)),
		slog.Int("routes", len(store.routes)),
		slog.Int("trips", len(store.trips)))

	return store, nil
}
