package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	latencyHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
	ingestedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_entries_ingested_total",
			Help: "Log entries accepted into the ring store",
		},
		[]string{"level", "source"},
	)
	rejectedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_entries_rejected_total",
			Help: "Log entries rejected at validation",
		},
	)
	streamDropCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_stream_dropped_total",
			Help: "Entries dropped on full subscriber mailboxes",
		},
	)
	subscribersGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_stream_subscribers",
			Help: "Live stream subscribers",
		},
	)
)

// Init registers custom collectors.
func Init() {
	prometheus.MustRegister(
		requestCounter,
		latencyHistogram,
		ingestedCounter,
		rejectedCounter,
		streamDropCounter,
		subscribersGauge,
	)
}

// ObserveRequest records HTTP metrics.
func ObserveRequest(path, method, status string, seconds float64) {
	requestCounter.WithLabelValues(path, method, status).Inc()
	latencyHistogram.WithLabelValues(path, method).Observe(seconds)
}

// CountIngested records one accepted entry.
func CountIngested(level, source string) {
	if source == "" {
		source = "unknown"
	}
	ingestedCounter.WithLabelValues(level, source).Inc()
}

// CountRejected records one validation rejection.
func CountRejected() {
	rejectedCounter.Inc()
}

// CountStreamDrops adds mailbox-overflow drops.
func CountStreamDrops(n int64) {
	streamDropCounter.Add(float64(n))
}

// SetSubscribers updates the live subscriber gauge.
func SetSubscribers(n int) {
	subscribersGauge.Set(float64(n))
}
