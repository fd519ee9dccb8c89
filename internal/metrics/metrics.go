// Package metrics provides Prometheus metrics for the query engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every Prometheus metric the query engine emits.
type Metrics struct {
	Registry *prometheus.Registry

	QueriesTotal    *prometheus.CounterVec
	QueryDuration   prometheus.Histogram
	RoundsPerQuery  prometheus.Histogram
	RouteScansTotal prometheus.Counter
	SnapshotAgeSecs prometheus.Gauge
	AdmissionDrops  prometheus.Counter
}

// New creates and registers all metrics with a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "raptor_queries_total",
				Help: "Total number of search queries by outcome.",
			},
			[]string{"outcome"},
		),
		QueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "raptor_query_duration_seconds",
			Help:    "Wall-clock duration of a search query.",
			Buckets: prometheus.DefBuckets,
		}),
		RoundsPerQuery: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "raptor_rounds_per_query",
			Help:    "Number of RAPTOR rounds run before a query terminated.",
			Buckets: prometheus.LinearBuckets(0, 1, 8),
		}),
		RouteScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raptor_route_scans_total",
			Help: "Total number of per-route scans performed across all queries.",
		}),
		SnapshotAgeSecs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "raptor_snapshot_age_seconds",
			Help: "Age of the currently published timetable snapshot.",
		}),
		AdmissionDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raptor_admission_drops_total",
			Help: "Queries rejected by the admission-control rate limiter.",
		}),
	}

	registry.MustRegister(
		m.QueriesTotal,
		m.QueryDuration,
		m.RoundsPerQuery,
		m.RouteScansTotal,
		m.SnapshotAgeSecs,
		m.AdmissionDrops,
	)

	return m
}
