package scoring

import (
	"github.com/kirillkom/kyc-extractor/internal/core/domain"
	"github.com/kirillkom/kyc-extractor/internal/core/validation"
)

// Assessment is the full graded evaluation of one extraction.
type Assessment struct {
	DocumentType domain.DocumentType      `json:"document_type"`
	Validation   domain.ValidationResults `json:"validation_results"`
	Score        int                      `json:"data_quality_score"`
	Grade        domain.QualityGrade      `json:"quality_grade"`
	Breakdown    ScoreBreakdown           `json:"breakdown"`
}

// Assess validates identifiers, scores the extraction and grades the score.
// The declared document type on the fields drives identifier dispatch.
func Assess(fields domain.ExtractedFields, confidence float64) Assessment {
	results := validation.ValidateExtraction(fields.Type(), fields.IdentificationNumber, fields.Pincode())
	breakdown := Breakdown(fields, results, confidence)
	return Assessment{
		DocumentType: fields.Type(),
		Validation:   results,
		Score:        breakdown.Total,
		Grade:        GetQualityGrade(breakdown.Total),
		Breakdown:    breakdown,
	}
}

// AssessDeclared grades caller-supplied fields. A declared type fills a missing
// data.document_type the same way the model's top-level type does.
func AssessDeclared(declaredType *string, fields domain.ExtractedFields, confidence float64) Assessment {
	model := domain.ModelExtraction{Data: fields, Confidence: confidence}
	if declared := domain.OptionalString(declaredType); declared != nil {
		model.DocumentType = domain.ParseDocumentType(*declared)
	}
	return Assess(model.Fields(), model.Confidence)
}
