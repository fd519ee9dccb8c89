package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"transitraptor.dev/internal/models"
)

func stops(ids ...string) []RawStop {
	out := make([]RawStop, len(ids))
	for i, id := range ids {
		out[i] = RawStop{ID: id, Lat: float64(i), Lon: float64(i)}
	}
	return out
}

func TestBuild_SimpleRoute(t *testing.T) {
	b := NewBuilder(models.DefaultDefaults(), nil)
	store, err := b.Build(stops("X", "Y"), []RawTrip{
		{
			ID:            "t1",
			UpstreamRoute: "R1",
			StopTimes: []RawStopTime{
				{StopID: "X", Arr: 600, Dep: 600},
				{StopID: "Y", Arr: 900, Dep: 900},
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, store.RouteCount())
	require.Equal(t, 2, store.StopCount())

	xi, _ := store.StopIndex("X")
	yi, _ := store.StopIndex("Y")
	assert.Equal(t, []int{xi, yi}, store.RouteStops(0))

	arr, dep := store.TripTimes(store.RouteTrips(0)[0], 1)
	assert.Equal(t, int32(900), arr)
	assert.Equal(t, int32(900), dep)
}

func TestBuild_RegroupsDisagreeingStopSequences(t *testing.T) {
	// Two trips claim the same upstream route id but disagree on the stop
	// sequence; they must end up in different synthetic routes
	// (spec.md section 8, property 7).
	b := NewBuilder(models.DefaultDefaults(), nil)
	store, err := b.Build(stops("X", "Y", "Z"), []RawTrip{
		{
			ID: "t1", UpstreamRoute: "R1",
			StopTimes: []RawStopTime{{StopID: "X", Arr: 0, Dep: 0}, {StopID: "Y", Arr: 100, Dep: 100}},
		},
		{
			ID: "t2", UpstreamRoute: "R1",
			StopTimes: []RawStopTime{{StopID: "X", Arr: 0, Dep: 0}, {StopID: "Z", Arr: 100, Dep: 100}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, store.RouteCount())
}

func TestBuild_SameStopSequenceMergesAcrossUpstreamRoutes(t *testing.T) {
	b := NewBuilder(models.DefaultDefaults(), nil)
	store, err := b.Build(stops("X", "Y"), []RawTrip{
		{
			ID: "t1", UpstreamRoute: "R1",
			StopTimes: []RawStopTime{{StopID: "X", Arr: 0, Dep: 0}, {StopID: "Y", Arr: 100, Dep: 100}},
		},
		{
			ID: "t2", UpstreamRoute: "R2",
			StopTimes: []RawStopTime{{StopID: "X", Arr: 0, Dep: 0}, {StopID: "Y", Arr: 200, Dep: 200}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, store.RouteCount())
	assert.Len(t, store.RouteTrips(0), 2)
}

func TestBuild_LoopRouteDistinctPositions(t *testing.T) {
	// seq=[A,B,A,C] — repeats of stop A within a route are distinct
	// positions (spec.md section 8, property 6).
	b := NewBuilder(models.DefaultDefaults(), nil)
	store, err := b.Build(stops("A", "B", "C"), []RawTrip{
		{
			ID: "t1", UpstreamRoute: "R",
			StopTimes: []RawStopTime{
				{StopID: "A", Arr: 0, Dep: 0},
				{StopID: "B", Arr: 100, Dep: 100},
				{StopID: "A", Arr: 200, Dep: 200},
				{StopID: "C", Arr: 300, Dep: 300},
			},
		},
	})
	require.NoError(t, err)
	ai, _ := store.StopIndex("A")
	refs := store.StopRoutes(ai)
	require.Len(t, refs, 2)
	assert.Equal(t, 0, refs[0].Position)
	assert.Equal(t, 2, refs[1].Position)
}

func TestBuild_TripsSortedByDepartureAtPositionZero(t *testing.T) {
	b := NewBuilder(models.DefaultDefaults(), nil)
	store, err := b.Build(stops("X", "Y"), []RawTrip{
		{ID: "late", UpstreamRoute: "R1", StopTimes: []RawStopTime{{StopID: "X", Arr: 900, Dep: 900}, {StopID: "Y", Arr: 1200, Dep: 1200}}},
		{ID: "early", UpstreamRoute: "R1", StopTimes: []RawStopTime{{StopID: "X", Arr: 600, Dep: 600}, {StopID: "Y", Arr: 900, Dep: 900}}},
	})
	require.NoError(t, err)
	trips := store.RouteTrips(0)
	require.Len(t, trips, 2)
	_, dep0 := store.TripTimes(trips[0], 0)
	_, dep1 := store.TripTimes(trips[1], 0)
	assert.Less(t, dep0, dep1)
}

func TestBuild_RejectsArrivalAfterDeparture(t *testing.T) {
	b := NewBuilder(models.DefaultDefaults(), nil)
	_, err := b.Build(stops("X", "Y"), []RawTrip{
		{ID: "bad", UpstreamRoute: "R1", StopTimes: []RawStopTime{{StopID: "X", Arr: 100, Dep: 50}, {StopID: "Y", Arr: 200, Dep: 200}}},
	})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.InvalidInput))
}

func TestBuild_RejectsUnknownStop(t *testing.T) {
	b := NewBuilder(models.DefaultDefaults(), nil)
	_, err := b.Build(stops("X"), []RawTrip{
		{ID: "bad", UpstreamRoute: "R1", StopTimes: []RawStopTime{{StopID: "X", Arr: 0, Dep: 0}, {StopID: "missing", Arr: 100, Dep: 100}}},
	})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.InvalidInput))
}
