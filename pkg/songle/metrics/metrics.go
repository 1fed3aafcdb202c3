// Package metrics defines the prometheus collectors shared by the songle
// components. Collectors work unregistered; call Register once in binaries
// that expose /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

var (
	ClipRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "songle_clip_requests_total", Help: "Clip requests by cache result"},
		[]string{"result"},
	)
	ExtractionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "songle_clip_extraction_duration_seconds",
			Help:    "Time spent extracting a clip from the audio source",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)
	CacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "songle_clip_cache_entries", Help: "Clips currently cached"},
	)
	AssignmentsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "songle_assignments_generated_total", Help: "Daily assignments generated and persisted by this process"},
	)
	Rollovers = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "songle_day_rollovers_total", Help: "Observed date changes"},
	)
	CatalogRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "songle_catalog_refreshes_total", Help: "Catalog reloads by outcome"},
		[]string{"result"},
	)
	CatalogSongs = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "songle_catalog_songs", Help: "Songs in the published catalog"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ClipRequests,
			ExtractionDuration,
			CacheEntries,
			AssignmentsGenerated,
			Rollovers,
			CatalogRefreshes,
			CatalogSongs,
		)
	})
}
