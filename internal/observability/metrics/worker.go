package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	ingestTotal    *prometheus.CounterVec
	ingestDuration *prometheus.HistogramVec
	ingestInFlight prometheus.Gauge
	expensesStored *prometheus.CounterVec
	rowsSkipped    *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	ingestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auditor",
			Subsystem: "worker",
			Name:      "ingest_runs_total",
			Help:      "Total ingestion runs by status.",
		},
		[]string{"service", "status"},
	)
	ingestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "auditor",
			Subsystem: "worker",
			Name:      "ingest_duration_seconds",
			Help:      "Ingestion run duration in seconds by status.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"service", "status"},
	)
	ingestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "auditor",
			Subsystem: "worker",
			Name:      "ingest_in_flight",
			Help:      "Number of in-flight ingestion runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	expensesStored := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auditor",
			Subsystem: "worker",
			Name:      "expenses_stored_total",
			Help:      "Total expense rows written to both stores.",
		},
		[]string{"service"},
	)
	rowsSkipped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auditor",
			Subsystem: "worker",
			Name:      "rows_skipped_total",
			Help:      "Total source rows dropped during cleaning.",
		},
		[]string{"service"},
	)

	registry.MustRegister(ingestTotal, ingestDuration, ingestInFlight, expensesStored, rowsSkipped)

	return &WorkerMetrics{
		registry:       registry,
		ingestTotal:    ingestTotal,
		ingestDuration: ingestDuration,
		ingestInFlight: ingestInFlight,
		expensesStored: expensesStored,
		rowsSkipped:    rowsSkipped,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartIngest() {
	m.ingestInFlight.Inc()
}

func (m *WorkerMetrics) FinishIngest(service string, duration time.Duration, stored, skipped int, err error) {
	m.ingestInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.ingestTotal.WithLabelValues(service, status).Inc()
	m.ingestDuration.WithLabelValues(service, status).Observe(duration.Seconds())
	if stored > 0 {
		m.expensesStored.WithLabelValues(service).Add(float64(stored))
	}
	if skipped > 0 {
		m.rowsSkipped.WithLabelValues(service).Add(float64(skipped))
	}
}
