package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
	"github.com/kirillkom/kyc-extractor/internal/core/scoring"
)

// QualityMetrics exports the score and validation outcome of every graded extraction.
type QualityMetrics struct {
	service string

	score           *prometheus.HistogramVec
	gradeTotal      *prometheus.CounterVec
	validationTotal *prometheus.CounterVec
}

func newQualityMetrics(service string, registerer prometheus.Registerer) *QualityMetrics {
	score := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "quality",
			Name:      "score",
			Help:      "Distribution of data quality scores by document type.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 75, 80, 90, 100},
		},
		[]string{"service", "document_type"},
	)
	gradeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quality",
			Name:      "grades_total",
			Help:      "Total graded extractions by document type and grade.",
		},
		[]string{"service", "document_type", "grade"},
	)
	validationTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quality",
			Name:      "field_validation_total",
			Help:      "Validation outcomes of identifier and pincode fields.",
		},
		[]string{"service", "document_type", "field", "outcome"},
	)

	registerer.MustRegister(score, gradeTotal, validationTotal)

	return &QualityMetrics{
		service:         service,
		score:           score,
		gradeTotal:      gradeTotal,
		validationTotal: validationTotal,
	}
}

func (m *QualityMetrics) ObserveAssessment(docType domain.DocumentType, assessment scoring.Assessment) {
	label := string(docType)
	if label == "" {
		label = string(domain.DocumentTypeOther)
	}

	m.score.WithLabelValues(m.service, label).Observe(float64(assessment.Score))
	m.gradeTotal.WithLabelValues(m.service, label, string(assessment.Grade)).Inc()
	m.validationTotal.WithLabelValues(m.service, label, "identification_number", outcomeLabel(assessment.Validation.IdentificationNumber)).Inc()
	m.validationTotal.WithLabelValues(m.service, label, "pincode", outcomeLabel(assessment.Validation.Pincode)).Inc()
}

func outcomeLabel(outcome domain.ValidationOutcome) string {
	switch {
	case !outcome.Checked():
		return "unchecked"
	case outcome.IsValid():
		return "valid"
	default:
		return "invalid"
	}
}
