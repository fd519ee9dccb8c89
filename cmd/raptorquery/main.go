package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"transitraptor.dev/internal/appconf"
	"transitraptor.dev/internal/feed/gtfsloader"
	"transitraptor.dev/internal/footpath"
	"transitraptor.dev/internal/metrics"
	"transitraptor.dev/internal/models"
	"transitraptor.dev/internal/query"
	"transitraptor.dev/internal/snapshot"
	"transitraptor.dev/internal/timetable"
)

// config holds the command-line settings for one search run, in the
// teacher's cmd/api flag-parsing style.
type config struct {
	gtfsPath       string
	originLat      float64
	originLon      float64
	destLat        float64
	destLon        float64
	departureEpoch int64
	maxWalkRadiusM float64
	maxTransfers   int // -1 means "not set, use the configured default"
	timeout        time.Duration
	verbose        bool
}

func main() {
	var cfg config

	flag.StringVar(&cfg.gtfsPath, "gtfs-file", "", "path to a local static GTFS zip file")
	flag.Float64Var(&cfg.originLat, "origin-lat", 0, "origin latitude")
	flag.Float64Var(&cfg.originLon, "origin-lon", 0, "origin longitude")
	flag.Float64Var(&cfg.destLat, "dest-lat", 0, "destination latitude")
	flag.Float64Var(&cfg.destLon, "dest-lon", 0, "destination longitude")
	flag.Int64Var(&cfg.departureEpoch, "departure", 0, "departure time, seconds since day start")
	flag.Float64Var(&cfg.maxWalkRadiusM, "max-walk-radius-m", 0, "override the default max walking radius in meters")
	flag.IntVar(&cfg.maxTransfers, "max-transfers", -1, "override the default round cap K_MAX (maximum rides per journey); 1 means direct rides only, 0 allows no ride")
	flag.DurationVar(&cfg.timeout, "timeout", 10*time.Second, "query wall-clock timeout")
	flag.BoolVar(&cfg.verbose, "verbose", false, "enable debug-level logging")
	flag.Parse()

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if cfg.gtfsPath == "" {
		logger.Error("missing required flag", slog.String("flag", "-gtfs-file"))
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("query failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config, logger *slog.Logger) error {
	stops, trips, transfers, err := gtfsloader.LoadFile(cfg.gtfsPath, logger)
	if err != nil {
		return fmt.Errorf("loading GTFS feed: %w", err)
	}

	appCfg := appconf.DefaultConfig()
	builder := timetable.NewBuilder(appCfg.Defaults(), logger)
	store, err := builder.Build(stops, trips)
	if err != nil {
		return fmt.Errorf("building timetable: %w", err)
	}

	stopModels := make([]models.Stop, store.StopCount())
	for i := range stopModels {
		stopModels[i] = store.Stop(i)
	}
	rawTransfers := make([]models.FootPath, 0, len(transfers))
	for _, tr := range transfers {
		fromIdx, ok := store.StopIndex(tr.FromStopID)
		if !ok {
			continue
		}
		toIdx, ok := store.StopIndex(tr.ToStopID)
		if !ok {
			continue
		}
		rawTransfers = append(rawTransfers, models.FootPath{From: fromIdx, To: toIdx, WalkSeconds: tr.WalkSeconds})
	}
	fp := footpath.Build(stopModels, store.Defaults(), rawTransfers)

	pub := snapshot.NewPublisher(snapshot.NewSnapshot(store, fp, time.Now()))
	engine := query.NewEngine(pub, appCfg, metrics.New(), logger)

	var maxTransfers *int
	if cfg.maxTransfers >= 0 {
		maxTransfers = &cfg.maxTransfers
	}

	req := models.SearchRequest{
		Origin:         models.Coordinate{Lat: cfg.originLat, Lon: cfg.originLon},
		Destination:    models.Coordinate{Lat: cfg.destLat, Lon: cfg.destLon},
		DepartureEpoch: cfg.departureEpoch,
		Options: models.SearchOptions{
			MaxWalkRadiusM: cfg.maxWalkRadiusM,
			MaxTransfers:   maxTransfers,
			Timeout:        cfg.timeout,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout+time.Second)
	defer cancel()

	result, err := engine.Search(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
