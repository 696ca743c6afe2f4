// Package metrics provides Prometheus metrics for shuffly.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the shuffle engine.
type Metrics struct {
	// Line metrics
	LinesRead    prometheus.Counter
	LinesDropped prometheus.Counter
	LinesWritten prometheus.Counter

	// Phase 1 metrics
	InputsProcessed prometheus.Counter
	BucketFlushes   prometheus.Counter
	FlushedBytes    prometheus.Counter

	// Phase 2 metrics
	BucketsEmitted prometheus.Counter
	BucketsSkipped prometheus.Counter
	OutputBytes    prometheus.Histogram

	// Timing metrics
	PhaseDuration *prometheus.HistogramVec
}

var defaultMetrics *Metrics

// Init initializes the metrics package with global metrics.
// Call this once at startup.
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "shuffly"
	}

	m := &Metrics{
		LinesRead: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_read_total",
			Help:      "Total number of non-blank lines read from inputs",
		}),
		LinesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_dropped_total",
			Help:      "Total number of blank lines dropped at ingestion",
		}),
		LinesWritten: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_written_total",
			Help:      "Total number of lines written to output files",
		}),
		InputsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inputs_processed_total",
			Help:      "Total number of input files fully consumed",
		}),
		BucketFlushes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bucket_flushes_total",
			Help:      "Total number of buffered-line flushes to bucket files",
		}),
		FlushedBytes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flushed_bytes_total",
			Help:      "Total bytes flushed to bucket files",
		}),
		BucketsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buckets_emitted_total",
			Help:      "Total number of buckets shuffled and emitted as output files",
		}),
		BucketsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buckets_skipped_total",
			Help:      "Total number of empty buckets that produced no output file",
		}),
		OutputBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "output_bytes",
			Help:      "Byte size of emitted output files",
			Buckets:   prometheus.ExponentialBuckets(1<<20, 4, 10),
		}),
		PhaseDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Wall-clock duration of each shuffle phase",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
		}, []string{"phase"}),
	}

	defaultMetrics = m
	return m
}

// Get returns the global metrics instance, or nil if Init was never called.
// Callers must nil-check; metrics are optional for library use.
func Get() *Metrics {
	return defaultMetrics
}

// StartServer starts an HTTP server for Prometheus metrics scraping.
// Blocks until the server exits.
func StartServer(address string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return http.ListenAndServe(address, mux)
}

// ObservePhaseDuration records a phase's wall-clock duration.
func (m *Metrics) ObservePhaseDuration(phase string, seconds float64) {
	m.PhaseDuration.WithLabelValues(phase).Observe(seconds)
}
