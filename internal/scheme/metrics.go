package scheme

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks model calls per operation. All methods are safe on a nil
// receiver so the service can run without metrics.
type Metrics struct {
	Calls     *prometheus.CounterVec
	Failures  *prometheus.CounterVec
	Duration  *prometheus.HistogramVec
	CacheHits *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics registers the scheme service metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Calls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "welfare_desk_model_calls_total",
			Help: "Total number of model calls by operation",
		}, []string{"op"}),
		Failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "welfare_desk_model_failures_total",
			Help: "Total number of failed model calls by operation",
		}, []string{"op"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "welfare_desk_model_call_duration_seconds",
			Help:    "Duration of model calls by operation",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"op"}),
		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "welfare_desk_cache_hits_total",
			Help: "Total number of answers served from the response cache",
		}, []string{"op"}),
		registry: reg,
	}
}

// ObserveCall records one model call. Call with time.Now() taken before the call.
func (m *Metrics) ObserveCall(op string, start time.Time) {
	if m == nil {
		return
	}
	m.Calls.WithLabelValues(op).Inc()
	m.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// IncrementFailure records a failed call or an unreadable answer.
func (m *Metrics) IncrementFailure(op string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(op).Inc()
}

// IncrementCacheHit records an answer served from cache.
func (m *Metrics) IncrementCacheHit(op string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(op).Inc()
}

// WriteTextfile dumps the metrics in text exposition format for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
