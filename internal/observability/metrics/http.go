package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/domain"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	auditTotal          *prometheus.CounterVec
	auditNoEvidence     *prometheus.CounterVec
	auditDuration       *prometheus.HistogramVec
	strategyRunsTotal   *prometheus.CounterVec
	strategyHits        *prometheus.HistogramVec
	fusedEvidenceSize   *prometheus.HistogramVec
	ingestPublishTotal  *prometheus.CounterVec
	exportDownloadTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auditor",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "auditor",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "auditor",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	auditTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auditor",
			Subsystem: "audit",
			Name:      "requests_total",
			Help:      "Total completed audit questions.",
		},
		[]string{"service"},
	)
	auditNoEvidence := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auditor",
			Subsystem: "audit",
			Name:      "no_evidence_total",
			Help:      "Total audit questions answered without evidence.",
		},
		[]string{"service"},
	)
	auditDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "auditor",
			Subsystem: "audit",
			Name:      "duration_seconds",
			Help:      "Audit execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	strategyRunsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auditor",
			Subsystem: "retrieval",
			Name:      "strategy_runs_total",
			Help:      "Total matcher executions by strategy and outcome.",
		},
		[]string{"service", "strategy", "outcome"},
	)
	strategyHits := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "auditor",
			Subsystem: "retrieval",
			Name:      "strategy_hits",
			Help:      "Distribution of ranked candidates per matcher run.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10, 15},
		},
		[]string{"service", "strategy"},
	)
	fusedEvidenceSize := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "auditor",
			Subsystem: "retrieval",
			Name:      "fused_evidence_size",
			Help:      "Distribution of assembled evidence set sizes.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10, 15},
		},
		[]string{"service"},
	)
	ingestPublishTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auditor",
			Subsystem: "ingest",
			Name:      "publish_total",
			Help:      "Total ingestion jobs published by status.",
		},
		[]string{"service", "status"},
	)
	exportDownloadTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auditor",
			Subsystem: "export",
			Name:      "downloads_total",
			Help:      "Total evidence spreadsheet downloads.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		auditTotal,
		auditNoEvidence,
		auditDuration,
		strategyRunsTotal,
		strategyHits,
		fusedEvidenceSize,
		ingestPublishTotal,
		exportDownloadTotal,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		auditTotal:          auditTotal,
		auditNoEvidence:     auditNoEvidence,
		auditDuration:       auditDuration,
		strategyRunsTotal:   strategyRunsTotal,
		strategyHits:        strategyHits,
		fusedEvidenceSize:   fusedEvidenceSize,
		ingestPublishTotal:  ingestPublishTotal,
		exportDownloadTotal: exportDownloadTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// RecordAudit folds one completed audit into the retrieval metrics: one run
// per strategy, candidate counts for the healthy ones, and the final evidence
// size.
func (m *HTTPServerMetrics) RecordAudit(service string, answer domain.Answer, duration time.Duration) {
	m.auditTotal.WithLabelValues(service).Inc()
	m.auditDuration.WithLabelValues(service).Observe(duration.Seconds())
	m.fusedEvidenceSize.WithLabelValues(service).Observe(float64(len(answer.Evidence)))

	if len(answer.Evidence) == 0 {
		m.auditNoEvidence.WithLabelValues(service).Inc()
	}

	for _, report := range answer.Strategies {
		outcome := "success"
		if report.Failed {
			outcome = "failure"
		}
		m.strategyRunsTotal.WithLabelValues(service, report.Strategy, outcome).Inc()
		if !report.Failed {
			m.strategyHits.WithLabelValues(service, report.Strategy).Observe(float64(report.Hits))
		}
	}
}

func (m *HTTPServerMetrics) RecordIngestPublish(service string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ingestPublishTotal.WithLabelValues(service, status).Inc()
}

func (m *HTTPServerMetrics) RecordExportDownload(service string) {
	m.exportDownloadTotal.WithLabelValues(service).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
