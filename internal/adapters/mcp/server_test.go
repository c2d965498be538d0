package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
	"github.com/kirillkom/kyc-extractor/internal/core/scoring"
)

type readerFake struct {
	items map[string]*domain.Extraction
}

func (f readerFake) GetByID(_ context.Context, id string) (*domain.Extraction, error) {
	if item, ok := f.items[id]; ok {
		return item, nil
	}
	return nil, domain.WrapError(domain.ErrExtractionNotFound, "get extraction", errors.New("id="+id))
}

func (f readerFake) List(context.Context, domain.ExtractionFilter) (*domain.ExtractionPage, error) {
	return &domain.ExtractionPage{}, nil
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var request mcp.CallToolRequest
	request.Params.Name = name
	request.Params.Arguments = args
	return request
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatalf("expected tool result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestValidateIdentifierTool(t *testing.T) {
	tools := &tools{}

	result, err := tools.validateIdentifier(context.Background(), callRequest("validate_identifier", map[string]any{
		"value":         "22aaaaa0000a1z5",
		"document_type": "gst_certificate",
	}))
	if err != nil {
		t.Fatalf("validate_identifier error = %v", err)
	}
	var outcome domain.ValidationOutcome
	if err := json.Unmarshal([]byte(resultText(t, result)), &outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if !outcome.IsValid() || outcome.Value != "22AAAAA0000A1Z5" {
		t.Fatalf("expected valid normalized GSTIN, got %+v", outcome)
	}

	result, err = tools.validateIdentifier(context.Background(), callRequest("validate_identifier", map[string]any{
		"value": "56001",
		"field": "pincode",
	}))
	if err != nil {
		t.Fatalf("validate_identifier error = %v", err)
	}
	outcome = domain.ValidationOutcome{}
	if err := json.Unmarshal([]byte(resultText(t, result)), &outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if !outcome.Checked() || outcome.IsValid() || outcome.Reason != "invalid format" {
		t.Fatalf("expected invalid pincode, got %+v", outcome)
	}
}

func TestValidateIdentifierToolRejectsBadArguments(t *testing.T) {
	tools := &tools{}

	result, err := tools.validateIdentifier(context.Background(), callRequest("validate_identifier", map[string]any{}))
	if err != nil {
		t.Fatalf("unexpected protocol error: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error for missing value")
	}

	result, _ = tools.validateIdentifier(context.Background(), callRequest("validate_identifier", map[string]any{
		"value": "x",
		"field": "company_name",
	}))
	if !result.IsError {
		t.Fatalf("expected tool error for unknown field")
	}
}

func TestScoreExtractionTool(t *testing.T) {
	tools := &tools{}

	result, err := tools.scoreExtraction(context.Background(), callRequest("score_extraction", map[string]any{
		"document_type": "PAN_CARD",
		"confidence":    0.9,
		"data": map[string]any{
			"company_name":          "Acme Pvt Ltd",
			"identification_number": "ABCDE1234F",
			"address": map[string]any{
				"full_address": "1 MG Road, Bengaluru",
				"pincode":      560001,
			},
		},
	}))
	if err != nil {
		t.Fatalf("score_extraction error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}

	var assessment scoring.Assessment
	if err := json.Unmarshal([]byte(resultText(t, result)), &assessment); err != nil {
		t.Fatalf("decode assessment: %v", err)
	}
	if assessment.Score != 97 || assessment.Grade != domain.GradeA {
		t.Fatalf("expected 97/A, got %d/%s", assessment.Score, assessment.Grade)
	}
	if assessment.DocumentType != domain.DocumentTypePANCard {
		t.Fatalf("expected declared type to apply, got %s", assessment.DocumentType)
	}
}

func TestGetExtractionTool(t *testing.T) {
	score := 80
	tools := &tools{reader: readerFake{items: map[string]*domain.Extraction{
		"ext-1": {ID: "ext-1", Status: domain.StatusReady, QualityScore: &score, QualityGrade: domain.GradeB},
	}}}

	result, err := tools.getExtraction(context.Background(), callRequest("get_extraction", map[string]any{"request_id": "ext-1"}))
	if err != nil {
		t.Fatalf("get_extraction error = %v", err)
	}
	var extraction domain.Extraction
	if err := json.Unmarshal([]byte(resultText(t, result)), &extraction); err != nil {
		t.Fatalf("decode extraction: %v", err)
	}
	if extraction.ID != "ext-1" || extraction.QualityGrade != domain.GradeB {
		t.Fatalf("unexpected extraction: %+v", extraction)
	}

	result, err = tools.getExtraction(context.Background(), callRequest("get_extraction", map[string]any{"request_id": "missing"}))
	if err != nil {
		t.Fatalf("expected not found as tool error, got %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error for missing extraction")
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	if NewServer(nil) == nil || NewServer(readerFake{}) == nil {
		t.Fatalf("expected server instances")
	}
	if NewHandler(nil) == nil {
		t.Fatalf("expected http handler")
	}
}
