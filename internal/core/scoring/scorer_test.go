package scoring

import (
	"math"
	"slices"
	"testing"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
)

func fullFields() domain.ExtractedFields {
	docType := domain.DocumentTypeGSTCertificate
	return domain.ExtractedFields{
		CompanyName:          domain.StringPtr("Acme Pvt Ltd"),
		IdentificationNumber: domain.StringPtr("22AAAAA0000A1Z5"),
		Address:              &domain.Address{FullAddress: domain.StringPtr("1 MG Road")},
		DocumentType:         &docType,
	}
}

func bothValid() domain.ValidationResults {
	return domain.ValidationResults{
		IdentificationNumber: domain.ValidOutcome(domain.FormatValid, "22AAAAA0000A1Z5"),
		Pincode:              domain.ValidOutcome(domain.FormatValid, "560001"),
	}
}

func TestCalculateDataQualityScoreFullExtraction(t *testing.T) {
	breakdown := Breakdown(fullFields(), bothValid(), 0.9)

	if breakdown.Completeness != 40 || breakdown.Validation != 30 {
		t.Fatalf("unexpected components: %+v", breakdown)
	}
	if math.Abs(breakdown.Confidence-27) > 1e-9 {
		t.Fatalf("expected confidence component 27, got %v", breakdown.Confidence)
	}
	if breakdown.Total != 97 {
		t.Fatalf("expected total 97, got %d", breakdown.Total)
	}
	if grade := GetQualityGrade(breakdown.Total); grade != domain.GradeA {
		t.Fatalf("expected grade A, got %s", grade)
	}
}

func TestCalculateDataQualityScorePartialExtraction(t *testing.T) {
	docType := domain.DocumentTypeOther
	fields := domain.ExtractedFields{
		CompanyName:  domain.StringPtr("Acme Pvt Ltd"),
		DocumentType: &docType,
	}
	results := domain.ValidationResults{
		IdentificationNumber: domain.InvalidOutcome(domain.ReasonNotExtracted, ""),
		Pincode:              domain.UncheckedOutcome(domain.ReasonNotExtracted),
	}

	breakdown := Breakdown(fields, results, 0.3)
	if breakdown.Completeness != 20 || breakdown.Validation != 0 || breakdown.Total != 29 {
		t.Fatalf("unexpected breakdown: %+v", breakdown)
	}
	if grade := GetQualityGrade(breakdown.Total); grade != domain.GradeF {
		t.Fatalf("expected grade F, got %s", grade)
	}
	if want := []string{"company_name", "document_type"}; !slices.Equal(breakdown.PopulatedFields, want) {
		t.Fatalf("expected populated %v, got %v", want, breakdown.PopulatedFields)
	}
}

func TestCompletenessIgnoresUnusableValues(t *testing.T) {
	literalNull := "null"
	blank := "   "
	fields := domain.ExtractedFields{
		CompanyName:          &literalNull,
		IdentificationNumber: &blank,
		Address:              &domain.Address{City: domain.StringPtr("Pune")},
	}

	breakdown := Breakdown(fields, domain.ValidationResults{}, 0)
	if len(breakdown.PopulatedFields) != 0 || breakdown.Total != 0 {
		t.Fatalf("expected nothing populated, got %+v", breakdown)
	}
}

func TestValidationComponentWeights(t *testing.T) {
	tests := []struct {
		name     string
		results  domain.ValidationResults
		expected float64
	}{
		{name: "none", results: domain.ValidationResults{}, expected: 0},
		{
			name: "identifier only",
			results: domain.ValidationResults{
				IdentificationNumber: domain.ValidOutcome(domain.FormatUnknown, "X"),
				Pincode:              domain.InvalidOutcome("invalid format", "1"),
			},
			expected: 20,
		},
		{
			name: "pincode only",
			results: domain.ValidationResults{
				IdentificationNumber: domain.InvalidOutcome("invalid PAN format", "1"),
				Pincode:              domain.ValidOutcome(domain.FormatValid, "560001"),
			},
			expected: 10,
		},
		{name: "both", results: bothValid(), expected: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Breakdown(domain.ExtractedFields{}, tt.results, 0).Validation; got != tt.expected {
				t.Fatalf("expected validation component %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestScoreIsClamped(t *testing.T) {
	if got := CalculateDataQualityScore(fullFields(), bothValid(), 2.0); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	if got := CalculateDataQualityScore(domain.ExtractedFields{}, domain.ValidationResults{}, -1.0); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestScoreTruncatesTowardZero(t *testing.T) {
	// 3/4 completeness = 30, confidence 0.33 -> 9.9, total 39.9
	fields := fullFields()
	fields.Address = nil
	if got := CalculateDataQualityScore(fields, domain.ValidationResults{}, 0.33); got != 39 {
		t.Fatalf("expected 39, got %d", got)
	}
}

func TestScoreIgnoresNaNConfidence(t *testing.T) {
	if got := CalculateDataQualityScore(fullFields(), domain.ValidationResults{}, math.NaN()); got != 40 {
		t.Fatalf("expected 40, got %d", got)
	}
}

func TestScoreMonotonicInEachComponent(t *testing.T) {
	docType := domain.DocumentTypePANCard
	completenessSteps := []domain.ExtractedFields{
		{},
		{CompanyName: domain.StringPtr("A")},
		{CompanyName: domain.StringPtr("A"), IdentificationNumber: domain.StringPtr("X")},
		{CompanyName: domain.StringPtr("A"), IdentificationNumber: domain.StringPtr("X"), DocumentType: &docType},
		fullFields(),
	}
	validationSteps := []domain.ValidationResults{
		{},
		{Pincode: domain.ValidOutcome(domain.FormatValid, "560001")},
		{IdentificationNumber: domain.ValidOutcome(domain.FormatValid, "X")},
		bothValid(),
	}
	confidenceSteps := []float64{-1, 0, 0.25, 0.5, 0.9, 1, 1.5}

	for _, results := range validationSteps {
		for _, confidence := range confidenceSteps {
			previous := -1
			for i, fields := range completenessSteps {
				score := CalculateDataQualityScore(fields, results, confidence)
				if score < previous {
					t.Fatalf("completeness step %d lowered score %d -> %d", i, previous, score)
				}
				previous = score
			}
		}
	}

	for _, fields := range completenessSteps {
		for _, confidence := range confidenceSteps {
			previous := -1
			for i, results := range validationSteps {
				score := CalculateDataQualityScore(fields, results, confidence)
				if score < previous {
					t.Fatalf("validation step %d lowered score %d -> %d", i, previous, score)
				}
				previous = score
			}
		}
	}

	for _, fields := range completenessSteps {
		for _, results := range validationSteps {
			previous := -1
			for _, confidence := range confidenceSteps {
				score := CalculateDataQualityScore(fields, results, confidence)
				if score < previous {
					t.Fatalf("confidence %v lowered score %d -> %d", confidence, previous, score)
				}
				if score < domain.MinQualityScore || score > domain.MaxQualityScore {
					t.Fatalf("score %d out of range", score)
				}
				previous = score
			}
		}
	}
}

func TestGetQualityGradeBoundaries(t *testing.T) {
	tests := []struct {
		score    int
		expected domain.QualityGrade
	}{
		{100, domain.GradeA},
		{90, domain.GradeA},
		{89, domain.GradeB},
		{75, domain.GradeB},
		{74, domain.GradeC},
		{60, domain.GradeC},
		{59, domain.GradeD},
		{40, domain.GradeD},
		{39, domain.GradeF},
		{0, domain.GradeF},
	}

	for _, tt := range tests {
		if got := GetQualityGrade(tt.score); got != tt.expected {
			t.Fatalf("score %d: expected %s, got %s", tt.score, tt.expected, got)
		}
	}
}

func TestAssessDeclaredUsesDeclaredType(t *testing.T) {
	fields := domain.ExtractedFields{
		CompanyName:          domain.StringPtr("Acme Pvt Ltd"),
		IdentificationNumber: domain.StringPtr("abcde1234f"),
	}

	assessment := AssessDeclared(domain.StringPtr(" pan_card "), fields, 1.0)
	if id := assessment.Validation.IdentificationNumber; !id.IsValid() || id.Value != "ABCDE1234F" {
		t.Fatalf("expected normalized valid PAN, got %+v", id)
	}
	want := []string{"company_name", "identification_number", "document_type"}
	if !slices.Equal(assessment.Breakdown.PopulatedFields, want) {
		t.Fatalf("expected populated %v, got %v", want, assessment.Breakdown.PopulatedFields)
	}
	if assessment.Score != 80 || assessment.Grade != domain.GradeB {
		t.Fatalf("expected 80/B, got %d/%s", assessment.Score, assessment.Grade)
	}
	if assessment.DocumentType != domain.DocumentTypePANCard {
		t.Fatalf("expected PAN card, got %s", assessment.DocumentType)
	}

	undeclared := AssessDeclared(domain.StringPtr("null"), fields, 1.0)
	if slices.Contains(undeclared.Breakdown.PopulatedFields, "document_type") {
		t.Fatalf("expected document_type to stay absent, got %v", undeclared.Breakdown.PopulatedFields)
	}
	if undeclared.DocumentType != domain.DocumentTypeOther {
		t.Fatalf("expected OTHER, got %s", undeclared.DocumentType)
	}
}

func TestAssessTreatsLiteralNullIdentifierAsMissing(t *testing.T) {
	docType := domain.DocumentTypeOther
	fields := domain.ExtractedFields{
		CompanyName:          domain.StringPtr("Acme Pvt Ltd"),
		IdentificationNumber: domain.StringPtr("null"),
		Address:              &domain.Address{Pincode: domain.StringPtr("NULL")},
		DocumentType:         &docType,
	}

	assessment := Assess(fields, 0)
	id := assessment.Validation.IdentificationNumber
	if id.IsValid() || id.Reason != domain.ReasonNotExtracted || id.Value != "" {
		t.Fatalf("expected identifier not extracted, got %+v", id)
	}
	if assessment.Validation.Pincode.Checked() {
		t.Fatalf("expected unchecked pincode, got %+v", assessment.Validation.Pincode)
	}
	if assessment.Breakdown.Validation != 0 || assessment.Score != 20 {
		t.Fatalf("expected score 20 with no validation credit, got %+v", assessment.Breakdown)
	}
}
