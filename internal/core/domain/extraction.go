package domain

import "time"

type ExtractionStatus string

const (
	StatusUploaded   ExtractionStatus = "uploaded"
	StatusProcessing ExtractionStatus = "processing"
	StatusReady      ExtractionStatus = "ready"
	StatusFailed     ExtractionStatus = "failed"
)

const APIVersion = "v0.2.0"

// Extraction is one uploaded document and, once processed, its graded result.
type Extraction struct {
	ID               string             `json:"request_id"`
	Filename         string             `json:"filename"`
	MimeType         string             `json:"mime_type"`
	StoragePath      string             `json:"-"`
	FileSizeBytes    int64              `json:"file_size_bytes"`
	Status           ExtractionStatus   `json:"status"`
	Error            string             `json:"error,omitempty"`
	DocumentType     DocumentType       `json:"document_type,omitempty"`
	Data             ExtractedFields    `json:"data"`
	Confidence       float64            `json:"confidence"`
	ConfidenceReason string             `json:"confidence_reason,omitempty"`
	Validation       *ValidationResults `json:"validation_results,omitempty"`
	QualityScore     *int               `json:"data_quality_score,omitempty"`
	QualityGrade     QualityGrade       `json:"quality_grade,omitempty"`
	ProcessingTimeMS int64              `json:"processing_time_ms,omitempty"`
	APIVersion       string             `json:"api_version"`
	UploadedAt       time.Time          `json:"uploaded_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// ModelExtraction is what the external model returned for a document.
type ModelExtraction struct {
	DocumentType     DocumentType    `json:"document_type"`
	Data             ExtractedFields `json:"data"`
	Confidence       float64         `json:"confidence"`
	ConfidenceReason string          `json:"confidence_reason"`
}

// Fields returns the extracted data carrying the model's top-level document
// type, which is what identifier dispatch and completeness both look at.
func (m ModelExtraction) Fields() ExtractedFields {
	fields := m.Data
	if fields.DocumentType == nil && m.DocumentType != "" {
		docType := m.DocumentType
		fields.DocumentType = &docType
	}
	return fields
}

// ExtractionResult is the persisted outcome of processing one document.
type ExtractionResult struct {
	DocumentType     DocumentType
	Data             ExtractedFields
	Confidence       float64
	ConfidenceReason string
	Validation       ValidationResults
	QualityScore     int
	ProcessingTimeMS int64
}

// RenderedDocument is the model-ready form of an uploaded file: raster pages
// for images, the text layer for PDFs.
type RenderedDocument struct {
	Filename string
	MimeType string
	Images   [][]byte
	Text     string
}

type ExtractionFilter struct {
	DocumentType DocumentType
	DaysAgo      int
	Offset       int
	Limit        int
}

type ExtractionPage struct {
	Total int          `json:"total"`
	Items []Extraction `json:"items"`
}

type UploadFile struct {
	Filename string
	MimeType string
	Content  []byte
}

type BatchUploadError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type BatchUploadResult struct {
	TotalProcessed int                `json:"total_processed"`
	Successful     int                `json:"successful"`
	Failed         int                `json:"failed"`
	Results        []Extraction       `json:"results"`
	Errors         []BatchUploadError `json:"errors"`
}
