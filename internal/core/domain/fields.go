package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

type DocumentType string

const (
	DocumentTypeGSTCertificate    DocumentType = "GST_CERTIFICATE"
	DocumentTypePANCard           DocumentType = "PAN_CARD"
	DocumentTypeFSSAI             DocumentType = "FSSAI"
	DocumentTypeIncorporationCert DocumentType = "INCORPORATION_CERT"
	DocumentTypeMSME              DocumentType = "MSME"
	DocumentTypeShopEstablishment DocumentType = "SHOP_ESTABLISHMENT"
	DocumentTypeOther             DocumentType = "OTHER"
)

var knownDocumentTypes = []DocumentType{
	DocumentTypeGSTCertificate,
	DocumentTypePANCard,
	DocumentTypeFSSAI,
	DocumentTypeIncorporationCert,
	DocumentTypeMSME,
	DocumentTypeShopEstablishment,
	DocumentTypeOther,
}

// DocumentTypes returns every supported document type in declaration order.
func DocumentTypes() []DocumentType {
	out := make([]DocumentType, len(knownDocumentTypes))
	copy(out, knownDocumentTypes)
	return out
}

func (t DocumentType) Known() bool {
	for _, known := range knownDocumentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseDocumentType maps free-form model output onto a supported type.
// Anything unrecognised becomes OTHER.
func ParseDocumentType(raw string) DocumentType {
	candidate := DocumentType(strings.ToUpper(strings.TrimSpace(raw)))
	if candidate.Known() {
		return candidate
	}
	return DocumentTypeOther
}

type Address struct {
	FullAddress  *string `json:"full_address"`
	AddressLine1 *string `json:"address_line_1"`
	Locality     *string `json:"locality"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	Pincode      *string `json:"pincode"`
}

// HasFullAddress reports whether the structured address carries a usable full_address.
func (a *Address) HasFullAddress() bool {
	return a != nil && a.FullAddress != nil
}

func (a *Address) UnmarshalJSON(data []byte) error {
	var raw struct {
		FullAddress  json.RawMessage `json:"full_address"`
		AddressLine1 json.RawMessage `json:"address_line_1"`
		Locality     json.RawMessage `json:"locality"`
		City         json.RawMessage `json:"city"`
		State        json.RawMessage `json:"state"`
		Pincode      json.RawMessage `json:"pincode"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = Address{
		FullAddress:  looseString(raw.FullAddress),
		AddressLine1: looseString(raw.AddressLine1),
		Locality:     looseString(raw.Locality),
		City:         looseString(raw.City),
		State:        looseString(raw.State),
		Pincode:      looseString(raw.Pincode),
	}
	return nil
}

// ExtractedFields is the semi-structured payload returned by the extraction model.
// Every field is optional; nil means the model did not produce a usable value.
type ExtractedFields struct {
	CompanyName          *string       `json:"company_name"`
	TradeName            *string       `json:"trade_name"`
	IdentificationNumber *string       `json:"identification_number"`
	Address              *Address      `json:"address"`
	IssueDate            *string       `json:"issue_date"`
	ApproverName         *string       `json:"approver_name"`
	DocumentType         *DocumentType `json:"document_type,omitempty"`
}

func (f *ExtractedFields) UnmarshalJSON(data []byte) error {
	var raw struct {
		CompanyName          json.RawMessage `json:"company_name"`
		TradeName            json.RawMessage `json:"trade_name"`
		IdentificationNumber json.RawMessage `json:"identification_number"`
		Address              json.RawMessage `json:"address"`
		IssueDate            json.RawMessage `json:"issue_date"`
		ApproverName         json.RawMessage `json:"approver_name"`
		DocumentType         json.RawMessage `json:"document_type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := ExtractedFields{
		CompanyName:          looseString(raw.CompanyName),
		TradeName:            looseString(raw.TradeName),
		IdentificationNumber: looseString(raw.IdentificationNumber),
		IssueDate:            looseString(raw.IssueDate),
		ApproverName:         looseString(raw.ApproverName),
	}
	if docType := looseString(raw.DocumentType); docType != nil {
		parsed := ParseDocumentType(*docType)
		out.DocumentType = &parsed
	}

	// Only a JSON object counts as a structured address; strings and arrays are dropped.
	trimmed := bytes.TrimSpace(raw.Address)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var addr Address
		if err := json.Unmarshal(trimmed, &addr); err != nil {
			return err
		}
		out.Address = &addr
	}

	*f = out
	return nil
}

// Type returns the declared document type, defaulting to OTHER when absent.
func (f ExtractedFields) Type() DocumentType {
	if f.DocumentType == nil {
		return DocumentTypeOther
	}
	return *f.DocumentType
}

// Pincode returns the postal code nested in the structured address, if any.
func (f ExtractedFields) Pincode() *string {
	if f.Address == nil {
		return nil
	}
	return f.Address.Pincode
}

// OptionalString normalises model output: blank values and the literal text "null"
// collapse to nil, everything else is trimmed.
func OptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" || strings.EqualFold(trimmed, "null") {
		return nil
	}
	return &trimmed
}

// StringPtr is a convenience for building optional fields.
func StringPtr(value string) *string {
	return OptionalString(&value)
}

// StringValue dereferences an optional field, returning "" when absent.
func StringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// looseString accepts the shapes models actually emit for scalar fields:
// strings, bare numbers (pincodes), and null. Objects and arrays are dropped.
func looseString(raw json.RawMessage) *string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	switch trimmed[0] {
	case '"':
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return nil
		}
		return OptionalString(&value)
	case '{', '[':
		return nil
	default:
		value := string(trimmed)
		return OptionalString(&value)
	}
}
