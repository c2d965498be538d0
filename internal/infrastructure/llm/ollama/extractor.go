package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
)

// responseSchema pins only the overall shape; the domain decoder normalises field values.
const responseSchema = `{
  "type": "object",
  "properties": {
    "document_type": {"type": ["string", "null"]},
    "data": {"type": ["object", "null"]},
    "confidence": {"type": ["number", "null"]},
    "confidence_reason": {"type": ["string", "null"]},
    "error": {}
  },
  "anyOf": [
    {"required": ["data"]},
    {"required": ["error"]}
  ]
}`

var compiledResponseSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("extraction_response.json", strings.NewReader(responseSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("extraction_response.json")
})

// Extractor asks a vision model for the structured fields of one document.
type Extractor struct {
	client *Client
}

func NewExtractor(client *Client) *Extractor {
	return &Extractor{client: client}
}

func (e *Extractor) ExtractFields(ctx context.Context, doc domain.RenderedDocument) (domain.ModelExtraction, error) {
	if len(doc.Images) == 0 && strings.TrimSpace(doc.Text) == "" {
		return domain.ModelExtraction{}, domain.WrapError(domain.ErrInvalidInput, "ollama extract", errors.New("nothing to send to the model"))
	}

	raw, err := e.client.generateJSON(ctx, buildExtractionPrompt(doc.Text), doc.Images)
	if err != nil {
		return domain.ModelExtraction{}, err
	}
	return parseModelResponse(raw)
}

type modelResponse struct {
	Error            json.RawMessage        `json:"error"`
	DocumentType     *string                `json:"document_type"`
	Data             domain.ExtractedFields `json:"data"`
	Confidence       *float64               `json:"confidence"`
	ConfidenceReason *string                `json:"confidence_reason"`
}

func parseModelResponse(raw string) (domain.ModelExtraction, error) {
	payload := []byte(extractJSONObject(raw))

	var generic any
	if err := json.Unmarshal(payload, &generic); err != nil {
		return domain.ModelExtraction{}, domain.WrapError(domain.ErrModelFailure, "parse model response", err)
	}
	schema, err := compiledResponseSchema()
	if err != nil {
		return domain.ModelExtraction{}, fmt.Errorf("compile response schema: %w", err)
	}
	if err := schema.Validate(generic); err != nil {
		return domain.ModelExtraction{}, domain.WrapError(domain.ErrModelFailure, "validate model response", err)
	}

	var response modelResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return domain.ModelExtraction{}, domain.WrapError(domain.ErrModelFailure, "decode model response", err)
	}
	if reason := modelError(response.Error); reason != "" {
		return domain.ModelExtraction{}, domain.WrapError(domain.ErrModelFailure, "model refused document", errors.New(reason))
	}

	out := domain.ModelExtraction{
		Data:             response.Data,
		ConfidenceReason: domain.StringValue(domain.OptionalString(response.ConfidenceReason)),
	}
	if docType := domain.OptionalString(response.DocumentType); docType != nil {
		out.DocumentType = domain.ParseDocumentType(*docType)
	}
	if response.Confidence != nil && !math.IsNaN(*response.Confidence) {
		out.Confidence = *response.Confidence
	}
	return out, nil
}

// modelError returns the refusal text of an {"error": ...} response, or "" if there is none.
func modelError(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("false")) {
		return ""
	}
	var text string
	if err := json.Unmarshal(trimmed, &text); err == nil {
		if strings.TrimSpace(text) == "" {
			return ""
		}
		return strings.TrimSpace(text)
	}
	return string(trimmed)
}
