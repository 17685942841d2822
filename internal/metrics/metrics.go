// Package metrics holds the process-wide Prometheus collectors for the sync
// pipeline. They are registered on the default registry and served by the
// dashboard's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline stages used as label values.
const (
	StageGrid     = "grid"
	StageDetail   = "detail"
	StageSpeaker  = "speaker"
	StageSnapshot = "snapshot"
)

var (
	// SyncRuns counts finished sync runs by outcome (ok, empty_grid, error).
	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "confoo",
		Name:      "sync_runs_total",
		Help:      "Finished sync runs by outcome.",
	}, []string{"outcome"})

	// PagesFetched counts page fetches by stage and result (ok, failed).
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "confoo",
		Name:      "pages_fetched_total",
		Help:      "Page fetches by pipeline stage and result.",
	}, []string{"stage", "result"})

	// SyncDuration observes the wall time of each stage.
	SyncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "confoo",
		Name:      "sync_stage_duration_seconds",
		Help:      "Duration of sync pipeline stages.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	// Sessions is the number of sessions written by the last successful run.
	Sessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "confoo",
		Name:      "sessions",
		Help:      "Sessions stored by the last successful sync.",
	})

	// Speakers is the number of speakers written by the last successful run.
	Speakers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "confoo",
		Name:      "speakers",
		Help:      "Speakers stored by the last successful sync.",
	})

	// LastSuccess is the unix time of the last successful run.
	LastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "confoo",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful sync.",
	})

	// DashboardClients is the number of connected websocket clients.
	DashboardClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "confoo",
		Name:      "dashboard_clients",
		Help:      "Connected dashboard websocket clients.",
	})
)

// PageResult records one page fetch.
func PageResult(stage string, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	PagesFetched.WithLabelValues(stage, result).Inc()
}
