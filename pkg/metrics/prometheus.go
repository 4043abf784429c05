package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	lastPrice        *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mandipulse_cache_hits_total",
				Help: "Reads served out of the price store",
			},
			[]string{"commodity", "freshness"},
		),
		cacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mandipulse_cache_misses_total",
				Help: "Reads that required an upstream refresh",
			},
			[]string{"commodity"},
		),
		upstreamRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mandipulse_upstream_requests_total",
				Help: "Upstream market API calls by outcome",
			},
			[]string{"outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mandipulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mandipulse_last_modal_price",
				Help: "Last observed modal price for a commodity",
			},
			[]string{"commodity"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mandipulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordCacheHit records a read served from the store, fresh or stale.
func (r *Recorder) RecordCacheHit(commodity string, stale bool) {
	freshness := "fresh"
	if stale {
		freshness = "stale"
	}
	r.cacheHits.WithLabelValues(commodity, freshness).Inc()
}

// RecordCacheMiss records a read that went upstream.
func (r *Recorder) RecordCacheMiss(commodity string) {
	r.cacheMisses.WithLabelValues(commodity).Inc()
}

// RecordUpstreamRequest records an upstream call outcome ("ok" or "error").
func (r *Recorder) RecordUpstreamRequest(outcome string) {
	r.upstreamRequests.WithLabelValues(outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last observed modal price for a commodity.
func (r *Recorder) RecordLastPrice(commodity string, price float64) {
	r.lastPrice.WithLabelValues(commodity).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
