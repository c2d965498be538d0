package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
	"github.com/kirillkom/kyc-extractor/internal/core/ports"
)

const exportMaxRows = 5000

type ExportUseCase struct {
	repo    ports.ExtractionRepository
	writer  ports.ExtractionSheetWriter
	maxRows int
}

func NewExportUseCase(repo ports.ExtractionRepository, writer ports.ExtractionSheetWriter) *ExportUseCase {
	return &ExportUseCase{repo: repo, writer: writer, maxRows: exportMaxRows}
}

// WithMaxRows caps the number of rows in one workbook; non-positive keeps the default.
func (uc *ExportUseCase) WithMaxRows(maxRows int) *ExportUseCase {
	if maxRows > 0 {
		uc.maxRows = maxRows
	}
	return uc
}

// ExportXLSX writes every extraction matching the filter, ignoring paging.
func (uc *ExportUseCase) ExportXLSX(ctx context.Context, filter domain.ExtractionFilter, w io.Writer) error {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return err
	}
	filter.Offset = 0
	filter.Limit = uc.maxRows

	items, _, err := uc.repo.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("list extractions for export: %w", err)
	}
	for i := range items {
		withGrade(&items[i])
	}

	if err := uc.writer.WriteExtractions(w, items); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
