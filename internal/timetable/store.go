// Package timetable is the in-memory, read-only-after-load store described
// in spec.md section 4.1: dense-index arrays for stops, synthetic routes,
// and trips, plus the stop->routes index the RAPTOR core's route-collection
// step scans every round.
package timetable

import "transitraptor.dev/internal/models"

// Store provides O(1) access by dense index into the timetable built from a
// feed snapshot. It is immutable once returned by Builder.Build.
type Store struct {
	stops      []models.Stop
	stopByID   map[string]int
	routes     []models.Route
	trips      []models.Trip
	stopRoutes [][]models.StopRouteRef
	routeIDs   []string
	tripIDs    []string

	defaults models.Defaults
}

// Defaults returns the derived constants this store was built with.
func (s *Store) Defaults() models.Defaults { return s.defaults }

// StopCount returns the number of stops, i.e. |S|.
func (s *Store) StopCount() int { return len(s.stops) }

// Stop returns the stop at dense index i.
func (s *Store) Stop(i int) models.Stop { return s.stops[i] }

// StopIndex resolves a stable stop_id to its dense index, or (-1, false) if
// unknown.
func (s *Store) StopIndex(id string) (int, bool) {
	i, ok := s.stopByID[id]
	if !ok {
		return -1, false
	}
	return i, true
}

// RouteCount returns the number of synthetic routes.
func (s *Store) RouteCount() int { return len(s.routes) }

// RouteStops returns route r's ordered stop sequence (position -> stop
// index). Position, not stop index, identifies a boarding point.
func (s *Store) RouteStops(r int) []int { return s.routes[r].StopSeq }

// RouteTrips returns the trip indices of route r in non-decreasing
// departure order at position 0.
func (s *Store) RouteTrips(r int) []int { return s.routes[r].Trips }

// TripTimes returns the arrival and departure time at position p of trip t,
// in seconds since the service day started.
func (s *Store) TripTimes(t, p int) (arr, dep int32) {
	trip := s.trips[t]
	return trip.Arr[p], trip.Dep[p]
}

// TripRoute returns the route index a trip belongs to.
func (s *Store) TripRoute(t int) int { return s.trips[t].RouteIndex }

// StopRoutes returns every (route, position) occurrence of stop s, including
// repeats within the same route for loop routes.
func (s *Store) StopRoutes(stop int) []models.StopRouteRef {
	return s.stopRoutes[stop]
}

// RouteID returns the synthetic route identifier assigned at build time. It
// is derived from the route's stop sequence, not any upstream route_id.
func (s *Store) RouteID(r int) string { return s.routeIDs[r] }

// TripID returns the upstream feed's trip_id for trip t.
func (s *Store) TripID(t int) string { return s.tripIDs[t] }
