// Package query is the transport-agnostic orchestrator spec.md section 4.6
// describes: glue that validates inputs, resolves access/egress, runs the
// RAPTOR core, reconstructs and filters journeys, and returns a result.
// Nothing in this package knows about HTTP, CLIs, or any other adapter.
package query

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"
	"transitraptor.dev/internal/access"
	"transitraptor.dev/internal/appconf"
	"transitraptor.dev/internal/clock"
	"transitraptor.dev/internal/journey"
	"transitraptor.dev/internal/logging"
	"transitraptor.dev/internal/metrics"
	"transitraptor.dev/internal/models"
	"transitraptor.dev/internal/raptor"
	"transitraptor.dev/internal/snapshot"
)

// Engine runs search queries against whatever Snapshot its Publisher
// currently holds. It is safe for concurrent use: every query captures one
// immutable Snapshot and touches no shared mutable state.
type Engine struct {
	snapshots *snapshot.Publisher
	cfg       appconf.Config
	metrics   *metrics.Metrics
	limiter   *rate.Limiter
	logger    *slog.Logger
	clock     clock.Clock
}

// NewEngine builds an Engine. metrics and logger may be nil; nil metrics
// disables recording, and a nil logger falls back to slog.Default. Timing is
// driven by clock.RealClock; tests substitute a clock.MockClock to pin
// query duration and snapshot-age measurements deterministically.
func NewEngine(snapshots *snapshot.Publisher, cfg appconf.Config, m *metrics.Metrics, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if cfg.MaxQPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxQPS), cfg.BurstSize)
	}

	return &Engine{
		snapshots: snapshots,
		cfg:       cfg,
		metrics:   m,
		limiter:   limiter,
		logger:    logger.With(slog.String("component", "query_engine")),
		clock:     clock.RealClock{},
	}
}

// WithClock overrides the engine's time source, used by tests that need a
// deterministic duration or snapshot-age reading.
func (e *Engine) WithClock(c clock.Clock) *Engine {
	e.clock = c
	return e
}

// Search is the single operation spec.md section 6 specifies. It fails
// fast with InvalidInput on malformed requests, NoAccessStops/NoEgressStops
// when the origin/destination cannot be reached on foot, and
// NoJourneyFound when access and egress are both non-empty but no
// Pareto-optimal journey exists within the configured transfer budget.
func (e *Engine) Search(ctx context.Context, req models.SearchRequest) (models.SearchResult, error) {
	start := e.clock.Now()

	if e.limiter != nil && !e.limiter.Allow() {
		if e.metrics != nil {
			e.metrics.AdmissionDrops.Inc()
			e.metrics.QueriesTotal.WithLabelValues("admission_rejected").Inc()
		}
		return models.SearchResult{}, models.NewError(models.AdmissionRejected, "query admission limit exceeded")
	}

	result, err := e.search(ctx, req)
	duration := e.clock.Now().Sub(start)
	result.Meta.Duration = duration

	if e.metrics != nil {
		e.metrics.QueryDuration.Observe(duration.Seconds())
		e.metrics.QueriesTotal.WithLabelValues(outcomeLabel(err)).Inc()
		e.metrics.SnapshotAgeSecs.Set(e.clock.Now().Sub(e.snapshots.Current().BuiltAt).Seconds())
	}
	if err != nil {
		logging.LogError(e.logger, "search_failed", err, slog.String("outcome", outcomeLabel(err)))
	} else {
		logging.LogOperation(e.logger, "search_completed",
			slog.Int("journeys", len(result.Journeys)),
			slog.Int("rounds_run", result.Meta.RoundsRun),
			slog.Duration("duration", result.Meta.Duration))
	}

	return result, err
}

func (e *Engine) search(ctx context.Context, req models.SearchRequest) (models.SearchResult, error) {
	if err := validate(req); err != nil {
		return models.SearchResult{}, err
	}

	snap := e.snapshots.Current()
	opts := req.Options.WithDefaults(snap.Store.Defaults())

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	resolver := access.NewResolver(stopsOf(snap), snap.Spatial)
	accessCandidates := resolver.Near(req.Origin.Lat, req.Origin.Lon, opts.MaxWalkRadiusM, opts.WalkSpeedMPS, opts.WalkPenalty)
	if len(accessCandidates) == 0 {
		return models.SearchResult{}, models.NewError(models.NoAccessStops, "no stop within walking radius of origin")
	}
	egressCandidates := resolver.Near(req.Destination.Lat, req.Destination.Lon, opts.MaxWalkRadiusM, opts.WalkSpeedMPS, opts.WalkPenalty)
	if len(egressCandidates) == 0 {
		return models.SearchResult{}, models.NewError(models.NoEgressStops, "no stop within walking radius of destination")
	}

	raptorAccess := make([]raptor.AccessCandidate, len(accessCandidates))
	for i, c := range accessCandidates {
		raptorAccess[i] = raptor.AccessCandidate{Stop: c.Stop, WalkSeconds: c.WalkSeconds}
	}

	res, err := raptor.Run(ctx, snap.Store, snap.FootPaths, raptorAccess, req.DepartureEpoch, opts.EffectiveMaxTransfers(), int64(opts.SameStopTransferSeconds))
	if err != nil {
		return models.SearchResult{}, err
	}
	if e.metrics != nil {
		e.metrics.RoundsPerQuery.Observe(float64(res.RoundsRun))
		e.metrics.RouteScansTotal.Add(float64(res.RouteScans))
	}

	candidates := journey.Reconstruct(snap.Store, res, egressCandidates, req.DepartureEpoch)
	journeys := journey.Filter(candidates)
	if len(journeys) == 0 {
		return models.SearchResult{}, models.NewError(models.NoJourneyFound, "no trip reaches the destination within the configured transfer budget")
	}

	return models.SearchResult{
		Journeys: journeys,
		Meta: models.SearchMeta{
			RoundsRun:      res.RoundsRun,
			RoutesScanned:  res.RouteScans,
			AccessStops:    len(accessCandidates),
			EgressStops:    len(egressCandidates),
			CandidateCount: len(candidates),
		},
	}, nil
}

func stopsOf(snap *snapshot.Snapshot) []models.Stop {
	out := make([]models.Stop, snap.Store.StopCount())
	for i := range out {
		out[i] = snap.Store.Stop(i)
	}
	return out
}

func validate(req models.SearchRequest) error {
	if req.Origin.Lat < -90 || req.Origin.Lat > 90 || req.Origin.Lon < -180 || req.Origin.Lon > 180 {
		return models.NewError(models.InvalidInput, "origin coordinate out of range")
	}
	if req.Destination.Lat < -90 || req.Destination.Lat > 90 || req.Destination.Lon < -180 || req.Destination.Lon > 180 {
		return models.NewError(models.InvalidInput, "destination coordinate out of range")
	}
	if req.DepartureEpoch < 0 {
		return models.NewError(models.InvalidInput, "departure time must be a non-negative epoch timestamp")
	}
	if req.Options.MaxTransfers != nil && *req.Options.MaxTransfers < 0 {
		return models.NewError(models.InvalidInput, "max_transfers must be non-negative")
	}
	return nil
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if qe, ok := err.(*models.QueryError); ok {
		return string(qe.Kind)
	}
	return "error"
}
