package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	requestsTotal *prometheus.CounterVec
	cacheHits     prometheus.Counter
	fallbacks     prometheus.Counter
	errorsTotal   *prometheus.CounterVec
	breakerOpen   prometheus.Gauge
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fininfer_requests_total",
				Help: "Total inference requests served per backend",
			},
			[]string{"backend"},
		),
		cacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "fininfer_cache_hits_total",
				Help: "Total inference requests served from cache",
			},
		),
		fallbacks: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "fininfer_fallbacks_total",
				Help: "Total requests degraded from the remote path",
			},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fininfer_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		breakerOpen: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "fininfer_circuit_breaker_open",
				Help: "Whether the remote circuit breaker is open (1) or closed (0)",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fininfer_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordRequest records a request served by a backend.
func (r *Recorder) RecordRequest(backend string) {
	r.requestsTotal.WithLabelValues(backend).Inc()
}

// RecordCacheHit records a request answered from cache.
func (r *Recorder) RecordCacheHit() {
	r.cacheHits.Inc()
}

// RecordFallback records a degraded request.
func (r *Recorder) RecordFallback() {
	r.fallbacks.Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// SetBreakerOpen sets the circuit breaker gauge.
func (r *Recorder) SetBreakerOpen(open bool) {
	if open {
		r.breakerOpen.Set(1)
	} else {
		r.breakerOpen.Set(0)
	}
}
