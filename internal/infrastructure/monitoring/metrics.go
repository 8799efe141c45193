package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Detection metrics
	ExtractionsTotal   *prometheus.CounterVec
	ExtractionDuration prometheus.Histogram
	FormsDetected      prometheus.Counter
	FieldsDetected     prometheus.Counter

	// Fetch metrics
	FetchesTotal  *prometheus.CounterVec
	FetchDuration prometheus.Histogram
	FetchBytes    prometheus.Histogram

	// Domain metrics
	ScansTotal     *prometheus.CounterVec
	LeadsCollected *prometheus.CounterVec
	Websites       prometheus.Gauge
	FormsSaved     prometheus.Counter
}

// NewMetrics creates a metrics collector backed by its own registry, so
// several instances (one per test) never collide on registration.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadform_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leadform_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),
		RequestSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leadform_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leadform_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		ExtractionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadform_extractions_total",
				Help: "Form extraction runs by outcome",
			},
			[]string{"source", "status"},
		),
		ExtractionDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "leadform_extraction_duration_seconds",
				Help:    "Time spent parsing HTML and extracting forms",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		FormsDetected: f.NewCounter(
			prometheus.CounterOpts{
				Name: "leadform_forms_detected_total",
				Help: "Forms found across all extractions",
			},
		),
		FieldsDetected: f.NewCounter(
			prometheus.CounterOpts{
				Name: "leadform_fields_detected_total",
				Help: "Fields found across all extractions",
			},
		),

		FetchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadform_fetches_total",
				Help: "Outbound page fetches by result kind",
			},
			[]string{"result"},
		),
		FetchDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "leadform_fetch_duration_seconds",
				Help:    "Outbound page fetch duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		FetchBytes: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "leadform_fetch_body_bytes",
				Help:    "Decoded size of fetched pages",
				Buckets: []float64{1000, 10000, 100000, 1000000, 5000000},
			},
		),

		ScansTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadform_scans_total",
				Help: "Website scans by status",
			},
			[]string{"status"},
		),
		LeadsCollected: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadform_leads_total",
				Help: "Leads stored by channel",
			},
			[]string{"channel", "status"},
		),
		Websites: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "leadform_websites",
				Help: "Number of registered websites",
			},
		),
		FormsSaved: f.NewCounter(
			prometheus.CounterOpts{
				Name: "leadform_forms_saved_total",
				Help: "Forms persisted through save-forms",
			},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

// RecordExtraction records one extractor run. source is "html" or "url".
func (m *Metrics) RecordExtraction(source string, forms, fields int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ExtractionsTotal.WithLabelValues(source, status).Inc()
	m.ExtractionDuration.Observe(duration.Seconds())
	m.FormsDetected.Add(float64(forms))
	m.FieldsDetected.Add(float64(fields))
}

// RecordFetch records an outbound fetch. result is "ok" or an error kind.
func (m *Metrics) RecordFetch(result string, duration time.Duration, bytes int) {
	m.FetchesTotal.WithLabelValues(result).Inc()
	m.FetchDuration.Observe(duration.Seconds())
	if bytes > 0 {
		m.FetchBytes.Observe(float64(bytes))
	}
}

// RecordScan records a website scan outcome
func (m *Metrics) RecordScan(status string) {
	m.ScansTotal.WithLabelValues(status).Inc()
}

// RecordLead records a lead write. channel is "collect" or "dashboard".
func (m *Metrics) RecordLead(channel, status string) {
	m.LeadsCollected.WithLabelValues(channel, status).Inc()
}

// SetWebsites sets the number of registered websites
func (m *Metrics) SetWebsites(count int) {
	m.Websites.Set(float64(count))
}

// AddFormsSaved counts forms written by a save-forms call
func (m *Metrics) AddFormsSaved(count int) {
	m.FormsSaved.Add(float64(count))
}
