package domain

import (
	"encoding/json"
	"testing"
)

func TestExtractedFieldsDecodesModelOutput(t *testing.T) {
	payload := `{
		"company_name": "  Acme Traders  ",
		"trade_name": "null",
		"identification_number": null,
		"address": {"full_address": "12 MG Road, Bengaluru", "city": "Bengaluru", "pincode": 560001},
		"issue_date": "",
		"document_type": "gst_certificate"
	}`

	var fields ExtractedFields
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if fields.CompanyName == nil || *fields.CompanyName != "Acme Traders" {
		t.Fatalf("expected trimmed company name, got %v", fields.CompanyName)
	}
	if fields.TradeName != nil || fields.IdentificationNumber != nil || fields.IssueDate != nil || fields.ApproverName != nil {
		t.Fatalf("expected null-like fields to be nil, got %+v", fields)
	}
	if !fields.Address.HasFullAddress() {
		t.Fatalf("expected full address")
	}
	if pincode := fields.Pincode(); pincode == nil || *pincode != "560001" {
		t.Fatalf("expected numeric pincode as string, got %v", pincode)
	}
	if fields.Type() != DocumentTypeGSTCertificate {
		t.Fatalf("expected GST certificate, got %s", fields.Type())
	}
}

func TestExtractedFieldsDropsNonObjectAddress(t *testing.T) {
	for _, payload := range []string{
		`{"address": "12 MG Road"}`,
		`{"address": ["12 MG Road"]}`,
		`{"address": null}`,
		`{}`,
	} {
		var fields ExtractedFields
		if err := json.Unmarshal([]byte(payload), &fields); err != nil {
			t.Fatalf("%s: Unmarshal() error = %v", payload, err)
		}
		if fields.Address != nil || fields.Pincode() != nil {
			t.Fatalf("%s: expected no address, got %+v", payload, fields.Address)
		}
	}
}

func TestExtractedFieldsUnknownDocumentTypeBecomesOther(t *testing.T) {
	var fields ExtractedFields
	if err := json.Unmarshal([]byte(`{"document_type": "driving licence"}`), &fields); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if fields.DocumentType == nil || *fields.DocumentType != DocumentTypeOther {
		t.Fatalf("expected OTHER, got %v", fields.DocumentType)
	}

	var missing ExtractedFields
	if err := json.Unmarshal([]byte(`{"document_type": "null"}`), &missing); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if missing.DocumentType != nil || missing.Type() != DocumentTypeOther {
		t.Fatalf("expected absent type defaulting to OTHER, got %v", missing.DocumentType)
	}
}

func TestExtractedFieldsRejectsMalformedJSON(t *testing.T) {
	var fields ExtractedFields
	if err := json.Unmarshal([]byte(`{"company_name": `), &fields); err == nil {
		t.Fatalf("expected error")
	}
}

func TestOptionalString(t *testing.T) {
	tests := []struct {
		input    *string
		expected *string
	}{
		{input: nil, expected: nil},
		{input: strPtr(""), expected: nil},
		{input: strPtr("   "), expected: nil},
		{input: strPtr("NULL"), expected: nil},
		{input: strPtr(" Null "), expected: nil},
		{input: strPtr(" x "), expected: strPtr("x")},
		{input: strPtr("nullable"), expected: strPtr("nullable")},
	}

	for i, tt := range tests {
		got := OptionalString(tt.input)
		switch {
		case tt.expected == nil && got != nil:
			t.Fatalf("case %d: expected nil, got %q", i, *got)
		case tt.expected != nil && (got == nil || *got != *tt.expected):
			t.Fatalf("case %d: expected %q, got %v", i, *tt.expected, got)
		}
	}
}

func TestParseDocumentType(t *testing.T) {
	tests := map[string]DocumentType{
		" pan_card ": DocumentTypePANCard,
		"MSME":       DocumentTypeMSME,
		"":           DocumentTypeOther,
		"PASSPORT":   DocumentTypeOther,
	}
	for input, expected := range tests {
		if got := ParseDocumentType(input); got != expected {
			t.Fatalf("ParseDocumentType(%q) = %s, want %s", input, got, expected)
		}
	}
	if got := len(DocumentTypes()); got != 7 {
		t.Fatalf("expected 7 document types, got %d", got)
	}
}

func strPtr(value string) *string {
	return &value
}
