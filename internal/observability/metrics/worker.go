package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
)

const workerSubsystem = "worker"

// WorkerMetrics is the worker's private registry: extraction throughput,
// queue lag, quality outcomes and dependency health.
type WorkerMetrics struct {
	registry *prometheus.Registry

	extractionsTotal   *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	extractionsRunning prometheus.Gauge
	queueLag           *prometheus.HistogramVec

	quality      *QualityMetrics
	dependencies *DependencyMetrics
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()
	m := &WorkerMetrics{
		registry: registry,
		extractionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: workerSubsystem,
			Name:      "extraction_process_total",
			Help:      "Processed extractions by outcome.",
		}, []string{"service", "outcome"}),
		// Vision model calls dominate; buckets reach the worker timeout.
		extractionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: workerSubsystem,
			Name:      "extraction_process_duration_seconds",
			Help:      "Wall time from dequeue to stored result, by outcome.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		}, []string{"service", "outcome"}),
		extractionsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   workerSubsystem,
			Name:        "extraction_process_in_flight",
			Help:        "Extractions currently being processed.",
			ConstLabels: prometheus.Labels{"service": service},
		}),
		queueLag: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: workerSubsystem,
			Name:      "queue_lag_seconds",
			Help:      "Delay between upload and the start of extraction.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"service"}),
	}
	registry.MustRegister(m.extractionsTotal, m.extractionDuration, m.extractionsRunning, m.queueLag)

	m.quality = newQualityMetrics(service, registry)
	m.dependencies = newDependencyMetrics(service, registry)
	return m
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Quality is the recorder handed to the process use case.
func (m *WorkerMetrics) Quality() *QualityMetrics {
	return m.quality
}

func (m *WorkerMetrics) Dependencies() *DependencyMetrics {
	return m.dependencies
}

func (m *WorkerMetrics) StartExtraction() {
	m.extractionsRunning.Inc()
}

func (m *WorkerMetrics) FinishExtraction(service string, duration time.Duration, err error) {
	m.extractionsRunning.Dec()

	outcome := extractionOutcome(err)
	m.extractionsTotal.WithLabelValues(service, outcome).Inc()
	m.extractionDuration.WithLabelValues(service, outcome).Observe(duration.Seconds())
}

// ObserveQueueLag ignores negative lag from clock skew between API and worker hosts.
func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

func extractionOutcome(err error) string {
	switch {
	case err == nil:
		return "ready"
	case domain.IsKind(err, domain.ErrTemporary):
		return "temporary_failure"
	case domain.IsKind(err, domain.ErrModelFailure):
		return "model_failure"
	case domain.IsKind(err, domain.ErrExtractionNotFound):
		return "not_found"
	default:
		return "failed"
	}
}
