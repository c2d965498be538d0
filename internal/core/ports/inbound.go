package ports

import (
	"context"
	"io"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
)

// ExtractionIngestor accepts uploaded documents and schedules them for extraction.
type ExtractionIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Extraction, error)
	UploadBatch(ctx context.Context, files []domain.UploadFile) (*domain.BatchUploadResult, error)
}

// ExtractionProcessor runs the model, validator and scorer for one uploaded document.
type ExtractionProcessor interface {
	ProcessByID(ctx context.Context, extractionID string) error
}

// ExtractionReader is the read model for extraction history.
type ExtractionReader interface {
	GetByID(ctx context.Context, id string) (*domain.Extraction, error)
	List(ctx context.Context, filter domain.ExtractionFilter) (*domain.ExtractionPage, error)
}

type StatsReader interface {
	Dashboard(ctx context.Context) (*domain.DashboardStats, error)
	AvgProcessingTime(ctx context.Context) (*domain.ProcessingTimeEstimate, error)
}

type ExtractionExporter interface {
	ExportXLSX(ctx context.Context, filter domain.ExtractionFilter, w io.Writer) error
}
