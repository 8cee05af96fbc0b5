// Package metrics holds the prometheus collectors of the chunking service.
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

const namespace = "pdfchunk"

// Metrics groups every collector on a private registry. All methods are
// safe on a nil receiver so callers can run without metrics.
type Metrics struct {
	Registry *prometheus.Registry
	Latency  *Latency

	DocumentsTotal   *prometheus.CounterVec
	DocumentDuration *prometheus.HistogramVec
	PagesTotal       prometheus.Counter
	DegradedPages    *prometheus.CounterVec
	TablesTotal      *prometheus.CounterVec
	ChunksTotal      prometheus.Counter

	CacheRequests *prometheus.CounterVec
	JobsTotal     *prometheus.CounterVec
	QueueDepth    prometheus.Gauge
	HTTPRequests  *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Latency:  NewLatency(time.Hour),

		DocumentsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_processed_total",
			Help:      "Documents run through the chunking pipeline, by result.",
		}, []string{"result"}),
		DocumentDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"stage"}),
		PagesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_processed_total",
			Help:      "Pages decoded and composed.",
		}),
		DegradedPages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_degraded_total",
			Help:      "Pages that fell back to linear text, by failing stage.",
		}, []string{"stage"}),
		TablesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tables_detected_total",
			Help:      "Tables registered, by multi-page status.",
		}, []string{"status"}),
		ChunksTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_created_total",
			Help:      "Chunks produced.",
		}),

		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Chunk store lookups, by result.",
		}, []string{"result"}),
		JobsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Async ingest jobs, by terminal status.",
		}, []string{"status"}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Jobs waiting for a worker.",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route and status code.",
		}, []string{"method", "route", "code"}),
	}
}

// Handler serves the private registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) ObserveDocument(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.DocumentsTotal.WithLabelValues(result).Inc()
	if result == ResultOK {
		m.Latency.Record(d)
	}
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.DocumentDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) AddPages(n int) {
	if m == nil {
		return
	}
	m.PagesTotal.Add(float64(n))
}

func (m *Metrics) PageDegraded(stage string) {
	if m == nil {
		return
	}
	m.DegradedPages.WithLabelValues(stage).Inc()
}

func (m *Metrics) AddTables(status string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.TablesTotal.WithLabelValues(status).Add(float64(n))
}

func (m *Metrics) AddChunks(n int) {
	if m == nil {
		return
	}
	m.ChunksTotal.Add(float64(n))
}

func (m *Metrics) CacheResult(result string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) JobFinished(status string) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

func (m *Metrics) HTTPRequest(method, route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}

// LatencySnapshot returns the rolling window, or a zero snapshot without
// metrics.
func (m *Metrics) LatencySnapshot() LatencySnapshot {
	if m == nil {
		return LatencySnapshot{}
	}
	return m.Latency.Snapshot()
}

// Document results.
const (
	ResultOK          = "ok"
	ResultSourceError = "source_error"
	ResultDecodeError = "decode_error"
	ResultConfigError = "config_error"
	ResultCanceled    = "canceled"
	ResultError       = "error"
)
