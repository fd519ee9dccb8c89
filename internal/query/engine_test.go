package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"transitraptor.dev/internal/appconf"
	"transitraptor.dev/internal/clock"
	"transitraptor.dev/internal/footpath"
	"transitraptor.dev/internal/models"
	"transitraptor.dev/internal/snapshot"
	"transitraptor.dev/internal/timetable"
)

func newTestEngine(t *testing.T, stops []timetable.RawStop, trips []timetable.RawTrip) *Engine {
	t.Helper()
	defaults := models.DefaultDefaults()
	b := timetable.NewBuilder(defaults, nil)
	store, err := b.Build(stops, trips)
	require.NoError(t, err)

	stopModels := make([]models.Stop, store.StopCount())
	for i := range stopModels {
		stopModels[i] = store.Stop(i)
	}
	fp := footpath.Build(stopModels, defaults, nil)

	pub := snapshot.NewPublisher(snapshot.NewSnapshot(store, fp, time.Now()))
	cfg := appconf.DefaultConfig()
	return NewEngine(pub, cfg, nil, nil)
}

// S1 direct ride through the full orchestrator.
func TestSearch_S1_DirectRide(t *testing.T) {
	e := newTestEngine(t,
		[]timetable.RawStop{{ID: "X", Lat: 0, Lon: 0}, {ID: "Y", Lat: 0, Lon: 0.01}},
		[]timetable.RawTrip{{ID: "t1", UpstreamRoute: "R1", StopTimes: []timetable.RawStopTime{
			{StopID: "X", Arr: 600, Dep: 600}, {StopID: "Y", Arr: 900, Dep: 900},
		}}})

	res, err := e.Search(context.Background(), models.SearchRequest{
		Origin:         models.Coordinate{Lat: 0, Lon: 0},
		Destination:    models.Coordinate{Lat: 0, Lon: 0.01},
		DepartureEpoch: 500,
	})
	require.NoError(t, err)
	require.Len(t, res.Journeys, 1)
	assert.Equal(t, int32(900), res.Journeys[0].ArrivalTime)
	assert.Equal(t, 1, res.Meta.AccessStops)
	assert.Equal(t, 1, res.Meta.EgressStops)
}

// S6 No access: origin far from every stop.
func TestSearch_S6_NoAccess(t *testing.T) {
	e := newTestEngine(t,
		[]timetable.RawStop{{ID: "X", Lat: 0, Lon: 0}, {ID: "Y", Lat: 0, Lon: 0.001}},
		[]timetable.RawTrip{{ID: "t1", UpstreamRoute: "R1", StopTimes: []timetable.RawStopTime{
			{StopID: "X", Arr: 600, Dep: 600}, {StopID: "Y", Arr: 900, Dep: 900},
		}}})

	_, err := e.Search(context.Background(), models.SearchRequest{
		Origin:         models.Coordinate{Lat: 1.0, Lon: 1.0}, // ~150km away
		Destination:    models.Coordinate{Lat: 0, Lon: 0.001},
		DepartureEpoch: 500,
	})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.NoAccessStops))
}

func TestSearch_NoEgressStops(t *testing.T) {
	e := newTestEngine(t,
		[]timetable.RawStop{{ID: "X", Lat: 0, Lon: 0}, {ID: "Y", Lat: 0, Lon: 0.001}},
		[]timetable.RawTrip{{ID: "t1", UpstreamRoute: "R1", StopTimes: []timetable.RawStopTime{
			{StopID: "X", Arr: 600, Dep: 600}, {StopID: "Y", Arr: 900, Dep: 900},
		}}})

	_, err := e.Search(context.Background(), models.SearchRequest{
		Origin:         models.Coordinate{Lat: 0, Lon: 0},
		Destination:    models.Coordinate{Lat: 5.0, Lon: 5.0},
		DepartureEpoch: 500,
	})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.NoEgressStops))
}

func TestSearch_NoJourneyFound(t *testing.T) {
	// Two disconnected stop pairs: no route ever links X to Z.
	e := newTestEngine(t,
		[]timetable.RawStop{{ID: "X", Lat: 0, Lon: 0}, {ID: "Y", Lat: 0, Lon: 0.001}, {ID: "Z", Lat: 1.0, Lon: 1.0}, {ID: "W", Lat: 1.0, Lon: 1.001}},
		[]timetable.RawTrip{
			{ID: "t1", UpstreamRoute: "R1", StopTimes: []timetable.RawStopTime{{StopID: "X", Arr: 600, Dep: 600}, {StopID: "Y", Arr: 900, Dep: 900}}},
			{ID: "t2", UpstreamRoute: "R2", StopTimes: []timetable.RawStopTime{{StopID: "Z", Arr: 600, Dep: 600}, {StopID: "W", Arr: 900, Dep: 900}}},
		})

	_, err := e.Search(context.Background(), models.SearchRequest{
		Origin:         models.Coordinate{Lat: 0, Lon: 0},
		Destination:    models.Coordinate{Lat: 1.0, Lon: 1.0},
		DepartureEpoch: 500,
	})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.NoJourneyFound))
}

func TestSearch_InvalidInput_CoordinateOutOfRange(t *testing.T) {
	e := newTestEngine(t, []timetable.RawStop{{ID: "X"}, {ID: "Y"}},
		[]timetable.RawTrip{{ID: "t1", UpstreamRoute: "R1", StopTimes: []timetable.RawStopTime{{StopID: "X", Arr: 0, Dep: 0}, {StopID: "Y", Arr: 1, Dep: 1}}}})

	_, err := e.Search(context.Background(), models.SearchRequest{
		Origin:      models.Coordinate{Lat: 200, Lon: 0},
		Destination: models.Coordinate{Lat: 0, Lon: 0},
	})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.InvalidInput))
}

// WithClock lets a test pin the reported query duration deterministically.
func TestSearch_WithClock_ReportsPinnedDuration(t *testing.T) {
	e := newTestEngine(t,
		[]timetable.RawStop{{ID: "X", Lat: 0, Lon: 0}, {ID: "Y", Lat: 0, Lon: 0.01}},
		[]timetable.RawTrip{{ID: "t1", UpstreamRoute: "R1", StopTimes: []timetable.RawStopTime{{StopID: "X", Arr: 600, Dep: 600}, {StopID: "Y", Arr: 900, Dep: 900}}}})

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock := clock.NewMockClock(start)
	e.WithClock(mock)

	res, err := e.Search(context.Background(), models.SearchRequest{
		Origin: models.Coordinate{Lat: 0, Lon: 0}, Destination: models.Coordinate{Lat: 0, Lon: 0.01}, DepartureEpoch: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), res.Meta.Duration)
}

// S2-shaped timetable (X->M->Y, one transfer required) but with
// MaxTransfers explicitly set to 0: the journey that needs one transfer
// must not be found, proving the explicit zero survives WithDefaults
// rather than being silently overridden to the configured K_MAX.
func TestSearch_MaxTransfersZero_RejectsJourneyNeedingATransfer(t *testing.T) {
	e := newTestEngine(t,
		[]timetable.RawStop{{ID: "X", Lat: 0, Lon: 0}, {ID: "M", Lat: 0, Lon: 0.01}, {ID: "Y", Lat: 0, Lon: 0.02}},
		[]timetable.RawTrip{
			{ID: "t1", UpstreamRoute: "R1", StopTimes: []timetable.RawStopTime{{StopID: "X", Arr: 600, Dep: 600}, {StopID: "M", Arr: 900, Dep: 900}}},
			{ID: "t2", UpstreamRoute: "R2", StopTimes: []timetable.RawStopTime{{StopID: "M", Arr: 900, Dep: 900}, {StopID: "Y", Arr: 1200, Dep: 1200}}},
		})

	zero := 0
	_, err := e.Search(context.Background(), models.SearchRequest{
		Origin:         models.Coordinate{Lat: 0, Lon: 0},
		Destination:    models.Coordinate{Lat: 0, Lon: 0.02},
		DepartureEpoch: 500,
		Options:        models.SearchOptions{MaxTransfers: &zero},
	})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.NoJourneyFound))
}

func TestSearch_AdmissionRejected(t *testing.T) {
	e := newTestEngine(t,
		[]timetable.RawStop{{ID: "X", Lat: 0, Lon: 0}, {ID: "Y", Lat: 0, Lon: 0.01}},
		[]timetable.RawTrip{{ID: "t1", UpstreamRoute: "R1", StopTimes: []timetable.RawStopTime{{StopID: "X", Arr: 600, Dep: 600}, {StopID: "Y", Arr: 900, Dep: 900}}}})
	e.limiter = rate.NewLimiter(rate.Limit(1), 1)

	req := models.SearchRequest{Origin: models.Coordinate{Lat: 0, Lon: 0}, Destination: models.Coordinate{Lat: 0, Lon: 0.01}, DepartureEpoch: 500}
	_, err := e.Search(context.Background(), req)
	require.NoError(t, err)

	_, err = e.Search(context.Background(), req)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.AdmissionRejected))
}
