// Package gtfsloader adapts github.com/OneBusAway/go-gtfs static feeds into
// the raw entities internal/timetable.Builder consumes, per spec.md section
// 6's feed loader interface. It is intentionally thin: route re-grouping by
// exact stop sequence happens inside the builder, never here.
package gtfsloader

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/OneBusAway/go-gtfs"
	"transitraptor.dev/internal/logging"
	"transitraptor.dev/internal/timetable"
)

// Load parses a static GTFS feed (a zip file's bytes, per go-gtfs
// convention) and returns the raw stops, trips, and transfers a
// timetable.Builder can consume.
func Load(data []byte, logger *slog.Logger) ([]timetable.RawStop, []timetable.RawTrip, []timetable.RawTransfer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "gtfs_loader"))

	static, err := gtfs.ParseStatic(data, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parsing static GTFS feed: %w", err)
	}

	stops, trips, transfers := convert(static, logger)
	return stops, trips, transfers, nil
}

func convert(static *gtfs.Static, logger *slog.Logger) ([]timetable.RawStop, []timetable.RawTrip, []timetable.RawTransfer) {
	stops := make([]timetable.RawStop, 0, len(static.Stops))
	for _, s := range static.Stops {
		stops = append(stops, timetable.RawStop{ID: s.Id, Lat: coordOrZero(s.Latitude), Lon: coordOrZero(s.Longitude)})
	}

	trips := make([]timetable.RawTrip, 0, len(static.Trips))
	for _, t := range static.Trips {
		stopTimes := make([]timetable.RawStopTime, 0, len(t.StopTimes))
		for _, st := range t.StopTimes {
			if st.Stop == nil {
				continue
			}
			stopTimes = append(stopTimes, timetable.RawStopTime{
				StopID: st.Stop.Id,
				Arr:    int32(st.ArrivalTime / time.Second),
				Dep:    int32(st.DepartureTime / time.Second),
			})
		}
		if len(stopTimes) < 2 {
			logging.LogOperation(logger, "gtfs_trip_skipped_insufficient_stop_times", slog.String("trip_id", t.ID))
			continue
		}
		routeID := ""
		if t.Route != nil {
			routeID = t.Route.Id
		}
		trips = append(trips, timetable.RawTrip{ID: t.ID, UpstreamRoute: routeID, StopTimes: stopTimes})
	}

	transfers := make([]timetable.RawTransfer, 0, len(static.Transfers))
	for _, tr := range static.Transfers {
		if tr.From == nil || tr.To == nil || tr.MinTransferTime == nil {
			continue
		}
		transfers = append(transfers, timetable.RawTransfer{
			FromStopID:  tr.From.Id,
			ToStopID:    tr.To.Id,
			WalkSeconds: int(*tr.MinTransferTime),
		})
	}

	logging.LogOperation(logger, "gtfs_feed_loaded",
		slog.Int("stops", len(stops)), slog.Int("trips", len(trips)), slog.Int("transfers", len(transfers)))

	return stops, trips, transfers
}

// LoadFile reads path from disk and delegates to Load, mirroring the
// teacher's local-file branch of its static GTFS loading.
func LoadFile(path string, logger *slog.Logger) ([]timetable.RawStop, []timetable.RawTrip, []timetable.RawTransfer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading local GTFS file: %w", err)
	}
	return Load(b, logger)
}

// coordOrZero dereferences an optional coordinate; a stop with no
// latitude/longitude (a GTFS station header row with no platform of its
// own) is placed at 0,0 rather than rejected, since the builder treats
// stop geometry as opaque input.
func coordOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
