package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
	"github.com/kirillkom/kyc-extractor/internal/core/scoring"
)

const maxValidateBodyBytes = 1 << 20

type validateRequest struct {
	DocumentType *string                `json:"document_type"`
	Data         domain.ExtractedFields `json:"data"`
	Confidence   float64                `json:"confidence"`
}

// validateExtraction grades caller-supplied fields without storing anything.
func (rt *Router) validateExtraction(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxValidateBodyBytes)

	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, err)
			return
		}
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "decode validate request", errors.New("invalid json")))
		return
	}

	assessment := scoring.AssessDeclared(req.DocumentType, req.Data, req.Confidence)
	if rt.metrics != nil {
		rt.metrics.RecordInlineValidation(serviceName, string(assessment.Grade))
	}
	writeJSON(w, http.StatusOK, assessment)
}
