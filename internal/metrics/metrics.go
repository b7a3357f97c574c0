// Package metrics exposes Prometheus instruments for corner detection.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Detection outcomes used as the "outcome" label.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeTimeout  = "timeout"
	OutcomeError    = "error"
)

// Metrics owns a private registry so several scanners (and tests) can
// coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	detectionsTotal   *prometheus.CounterVec
	detectionDuration prometheus.Histogram
	seedAttempts      prometheus.Histogram
	binarizeDuration  prometheus.Histogram

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	uploadSizeBytes     prometheus.Histogram
}

// New registers all instruments on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		detectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cornerscan_detections_total",
				Help: "Total number of corner detections by outcome",
			},
			[]string{"outcome"},
		),
		detectionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cornerscan_detection_duration_seconds",
				Help:    "Time spent locating corners, including seed retries",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
		seedAttempts: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cornerscan_seed_attempts",
				Help:    "Number of seed rectangles tried per detection",
				Buckets: []float64{1, 2, 3, 4, 6, 8},
			},
		),
		binarizeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cornerscan_binarize_duration_seconds",
				Help:    "Time spent converting images to bit matrices",
				Buckets: prometheus.DefBuckets,
			},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cornerscan_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cornerscan_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		uploadSizeBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cornerscan_upload_size_bytes",
				Help:    "Size of uploaded images in bytes",
				Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 5 * 1024 * 1024, 10 * 1024 * 1024},
			},
		),
	}
}

// WithRuntimeCollectors adds the Go runtime and process collectors, for
// long running servers.
func (m *Metrics) WithRuntimeCollectors() *Metrics {
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveDetection records one detection and the seeds it took.
func (m *Metrics) ObserveDetection(outcome string, elapsed time.Duration, attempts int) {
	m.detectionsTotal.WithLabelValues(outcome).Inc()
	m.detectionDuration.Observe(elapsed.Seconds())
	if attempts > 0 {
		m.seedAttempts.Observe(float64(attempts))
	}
}

// ObserveBinarize records the time spent binarizing one image.
func (m *Metrics) ObserveBinarize(elapsed time.Duration) {
	m.binarizeDuration.Observe(elapsed.Seconds())
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, endpoint string, status int, elapsed time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

// ObserveUpload records the size of an uploaded image.
func (m *Metrics) ObserveUpload(size int64) {
	m.uploadSizeBytes.Observe(float64(size))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// WriteTextfile writes the current values to path for the node exporter
// textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
