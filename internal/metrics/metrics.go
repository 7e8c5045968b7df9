package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "poemtoy"

// Metrics holds the server's Prometheus collectors. Each instance owns its
// registry so tests can create independent sets.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	UploadFields    *prometheus.CounterVec
	UploadBytes     *prometheus.CounterVec
	UploadFailures  *prometheus.CounterVec
	FormSubmissions *prometheus.CounterVec
}

// New creates and registers all collectors, including the Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		UploadFields: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_fields_total",
			Help:      "Multipart fields processed by upload mode.",
		}, []string{"mode"}),
		UploadBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Multipart payload bytes processed by upload mode.",
		}, []string{"mode"}),
		UploadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_failures_total",
			Help:      "Rejected or failed upload requests by mode and reason.",
		}, []string{"mode", "reason"}),
		FormSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_submissions_total",
			Help:      "Form submissions by form and outcome.",
		}, []string{"form", "outcome"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.UploadFields,
		m.UploadBytes,
		m.UploadFailures,
		m.FormSubmissions,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route, method string, code int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveUpload records the fields and bytes of a completed upload.
func (m *Metrics) ObserveUpload(mode string, fields int, bytes int64) {
	m.UploadFields.WithLabelValues(mode).Add(float64(fields))
	m.UploadBytes.WithLabelValues(mode).Add(float64(bytes))
}

// ObserveUploadFailure records a rejected or failed upload.
func (m *Metrics) ObserveUploadFailure(mode, reason string) {
	m.UploadFailures.WithLabelValues(mode, reason).Inc()
}

// ObserveForm records a form submission outcome.
func (m *Metrics) ObserveForm(form, outcome string) {
	m.FormSubmissions.WithLabelValues(form, outcome).Inc()
}
