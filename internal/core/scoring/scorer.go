// Package scoring turns extracted fields, their validation results and the
// model's self-reported confidence into a bounded 0-100 quality score and grade.
package scoring

import (
	"math"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
)

const (
	completenessWeight = 40.0
	identifierWeight   = 20.0
	pincodeWeight      = 10.0
	confidenceWeight   = 30.0
)

// requiredFields is the completeness checklist, in reporting order.
var requiredFields = []string{"company_name", "identification_number", "address", "document_type"}

// ScoreBreakdown exposes each weighted component of a score for auditing.
type ScoreBreakdown struct {
	PopulatedFields []string `json:"populated_fields"`
	Completeness    float64  `json:"completeness"`
	Validation      float64  `json:"validation"`
	Confidence      float64  `json:"confidence"`
	Total           int      `json:"total"`
}

// Breakdown computes the three components and the clamped, truncated total.
func Breakdown(fields domain.ExtractedFields, results domain.ValidationResults, confidence float64) ScoreBreakdown {
	populated := populatedFields(fields)
	completeness := float64(len(populated)) / float64(len(requiredFields)) * completenessWeight

	validation := 0.0
	if results.IdentificationNumber.IsValid() {
		validation += identifierWeight
	}
	if results.Pincode.IsValid() {
		validation += pincodeWeight
	}

	// Confidence is weighted as received; the final clamp bounds the total.
	confidenceScore := confidence * confidenceWeight
	if math.IsNaN(confidenceScore) {
		confidenceScore = 0
	}

	return ScoreBreakdown{
		PopulatedFields: populated,
		Completeness:    completeness,
		Validation:      validation,
		Confidence:      confidenceScore,
		Total:           clampScore(completeness + validation + confidenceScore),
	}
}

// CalculateDataQualityScore returns the 0-100 quality score of one extraction.
func CalculateDataQualityScore(fields domain.ExtractedFields, results domain.ValidationResults, confidence float64) int {
	return Breakdown(fields, results, confidence).Total
}

// GetQualityGrade maps a score onto its letter grade.
func GetQualityGrade(score int) domain.QualityGrade {
	return domain.GradeFor(score)
}

func populatedFields(fields domain.ExtractedFields) []string {
	present := map[string]bool{
		"company_name":          isPresent(fields.CompanyName),
		"identification_number": isPresent(fields.IdentificationNumber),
		"address":               fields.Address != nil && isPresent(fields.Address.FullAddress),
		"document_type":         fields.DocumentType != nil && *fields.DocumentType != "",
	}

	out := make([]string, 0, len(requiredFields))
	for _, name := range requiredFields {
		if present[name] {
			out = append(out, name)
		}
	}
	return out
}

// isPresent re-applies the decoding normalisation so hand-built fields score
// the same as decoded ones.
func isPresent(value *string) bool {
	return domain.OptionalString(value) != nil
}

// clampScore bounds to [0,100] and truncates toward zero.
func clampScore(total float64) int {
	bounded := math.Min(domain.MaxQualityScore, math.Max(domain.MinQualityScore, total))
	return int(bounded)
}
