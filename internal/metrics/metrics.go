// Package metrics exposes Prometheus instrumentation for the sync engine:
// series fetches, artwork resolution, refresh ticks and the Last.fm circuit
// breaker.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Series fetch metrics
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrobbledash_fetches_total",
			Help: "Total number of series page fetches by outcome",
		},
		[]string{"series", "outcome"}, // outcome: "success", "error"
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scrobbledash_fetch_duration_seconds",
			Help:    "Duration of series page fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"series"},
	)

	// Artwork metrics
	ArtworkResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrobbledash_artwork_resolutions_total",
			Help: "Artist artwork lookups by outcome",
		},
		[]string{"outcome"}, // "cache_hit", "primary", "fallback", "none", "failed"
	)

	ArtworkCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scrobbledash_artwork_cache_entries",
			Help: "Current number of resolved artist artwork entries",
		},
	)

	EnrichmentInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scrobbledash_enrichment_in_flight",
			Help: "Artists currently queued or being resolved by the enrichment pool",
		},
	)

	// Scheduler metrics
	RefreshTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrobbledash_refresh_ticks_total",
			Help: "Auto-refresh ticks by result",
		},
		[]string{"result"}, // "fired", "skipped"
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scrobbledash_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrobbledash_circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)
)

// ObserveFetch records the outcome and latency of one series fetch.
func ObserveFetch(series string, start time.Time, err error) {
	FetchDuration.WithLabelValues(series).Observe(time.Since(start).Seconds())
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	FetchesTotal.WithLabelValues(series, outcome).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
