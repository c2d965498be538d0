// Package mcpadapter exposes the validation core and extraction history as MCP tools.
package mcpadapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
	"github.com/kirillkom/kyc-extractor/internal/core/ports"
	"github.com/kirillkom/kyc-extractor/internal/core/scoring"
	"github.com/kirillkom/kyc-extractor/internal/core/validation"
)

const (
	serverName = "kyc-extractor"

	fieldIdentificationNumber = "identification_number"
	fieldPincode              = "pincode"
)

type tools struct {
	reader ports.ExtractionReader
}

// NewServer registers the tools. reader may be nil, in which case
// get_extraction is not offered.
func NewServer(reader ports.ExtractionReader) *server.MCPServer {
	t := &tools{reader: reader}
	s := server.NewMCPServer(serverName, domain.APIVersion, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("validate_identifier",
		mcp.WithDescription("Check an identifier or pincode against the structural format for a KYC document type."),
		mcp.WithString("value", mcp.Required(), mcp.Description("Identifier or pincode to check.")),
		mcp.WithString("document_type", mcp.Description("GST_CERTIFICATE, PAN_CARD, INCORPORATION_CERT, ...; unknown types accept any identifier.")),
		mcp.WithString("field", mcp.Enum(fieldIdentificationNumber, fieldPincode), mcp.Description("Which field the value belongs to.")),
		mcp.WithReadOnlyHintAnnotation(true),
	), t.validateIdentifier)

	s.AddTool(mcp.NewTool("score_extraction",
		mcp.WithDescription("Validate extracted KYC fields and return the 0-100 data quality score and grade."),
		mcp.WithObject("data", mcp.Required(), mcp.Description("Extracted fields: company_name, identification_number, address{full_address,pincode}, ...")),
		mcp.WithString("document_type", mcp.Description("Declared document type; used when data.document_type is absent.")),
		mcp.WithNumber("confidence", mcp.Description("Model self-reported confidence, normally 0..1.")),
		mcp.WithReadOnlyHintAnnotation(true),
	), t.scoreExtraction)

	if reader != nil {
		s.AddTool(mcp.NewTool("get_extraction",
			mcp.WithDescription("Fetch a stored extraction with its validation results and grade."),
			mcp.WithString("request_id", mcp.Required(), mcp.Description("Extraction request id.")),
			mcp.WithReadOnlyHintAnnotation(true),
		), t.getExtraction)
	}

	return s
}

// NewHandler serves the tools over streamable HTTP without sessions.
func NewHandler(reader ports.ExtractionReader) http.Handler {
	return server.NewStreamableHTTPServer(NewServer(reader), server.WithStateLess(true))
}

func (t *tools) validateIdentifier(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	value, err := request.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var outcome domain.ValidationOutcome
	switch field := request.GetString("field", fieldIdentificationNumber); field {
	case fieldPincode:
		outcome = validation.ValidatePostalCode(&value)
	case fieldIdentificationNumber:
		docType := domain.ParseDocumentType(request.GetString("document_type", ""))
		outcome = validation.ValidateIdentifier(docType, &value)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown field %q", field)), nil
	}
	return mcp.NewToolResultJSON(outcome)
}

type scoreArguments struct {
	DocumentType *string                `json:"document_type"`
	Data         domain.ExtractedFields `json:"data"`
	Confidence   float64                `json:"confidence"`
}

func (t *tools) scoreExtraction(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args scoreArguments
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}
	return mcp.NewToolResultJSON(scoring.AssessDeclared(args.DocumentType, args.Data, args.Confidence))
}

func (t *tools) getExtraction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("request_id")
	if err != nil || strings.TrimSpace(id) == "" {
		return mcp.NewToolResultError("request_id is required"), nil
	}

	extraction, err := t.reader.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if domain.IsKind(err, domain.ErrExtractionNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("extraction %s not found", id)), nil
		}
		return nil, err
	}
	return mcp.NewToolResultJSON(extraction)
}
