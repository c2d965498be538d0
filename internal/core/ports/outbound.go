package ports

import (
	"context"
	"io"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
	"github.com/kirillkom/kyc-extractor/internal/core/scoring"
)

// ExtractionRepository persists extraction state and results.
type ExtractionRepository interface {
	Create(ctx context.Context, extraction *domain.Extraction) error
	GetByID(ctx context.Context, id string) (*domain.Extraction, error)
	UpdateStatus(ctx context.Context, id string, status domain.ExtractionStatus, errMessage string) error
	SaveResult(ctx context.Context, id string, result domain.ExtractionResult) error
	List(ctx context.Context, filter domain.ExtractionFilter) ([]domain.Extraction, int, error)
	Aggregates(ctx context.Context, days int) (domain.ExtractionAggregates, error)
	AvgProcessingTime(ctx context.Context, sample int) (float64, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes extraction requests.
type MessageQueue interface {
	PublishExtractionRequested(ctx context.Context, extractionID string) error
	SubscribeExtractionRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// DocumentRenderer turns a stored upload into model input.
type DocumentRenderer interface {
	Render(ctx context.Context, extraction *domain.Extraction) (domain.RenderedDocument, error)
}

// FieldExtractor asks the external model for structured fields.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, doc domain.RenderedDocument) (domain.ModelExtraction, error)
}

// QualityRecorder observes graded extractions.
type QualityRecorder interface {
	ObserveAssessment(docType domain.DocumentType, assessment scoring.Assessment)
}

// ExtractionSheetWriter renders extraction rows into a spreadsheet.
type ExtractionSheetWriter interface {
	WriteExtractions(w io.Writer, items []domain.Extraction) error
}
