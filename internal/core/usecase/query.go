package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
	"github.com/kirillkom/kyc-extractor/internal/core/ports"
	"github.com/kirillkom/kyc-extractor/internal/core/scoring"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type QueryUseCase struct {
	repo ports.ExtractionRepository
}

func NewQueryUseCase(repo ports.ExtractionRepository) *QueryUseCase {
	return &QueryUseCase{repo: repo}
}

func (uc *QueryUseCase) GetByID(ctx context.Context, id string) (*domain.Extraction, error) {
	extraction, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	withGrade(extraction)
	return extraction, nil
}

// List returns history newest first. Unknown document types are rejected
// rather than silently matching nothing.
func (uc *QueryUseCase) List(ctx context.Context, filter domain.ExtractionFilter) (*domain.ExtractionPage, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	items, total, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list extractions: %w", err)
	}
	for i := range items {
		withGrade(&items[i])
	}
	if items == nil {
		items = []domain.Extraction{}
	}
	return &domain.ExtractionPage{Total: total, Items: items}, nil
}

func normalizeFilter(filter domain.ExtractionFilter) (domain.ExtractionFilter, error) {
	if filter.DocumentType != "" && !filter.DocumentType.Known() {
		return filter, domain.WrapError(
			domain.ErrInvalidInput,
			"list extractions",
			fmt.Errorf("unknown document_type %q", filter.DocumentType),
		)
	}
	if filter.DaysAgo < 0 || filter.Offset < 0 || filter.Limit < 0 {
		return filter, domain.WrapError(
			domain.ErrInvalidInput,
			"list extractions",
			fmt.Errorf("days_ago, offset and limit must not be negative"),
		)
	}
	if filter.Limit == 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	return filter, nil
}

func withGrade(extraction *domain.Extraction) {
	if extraction == nil || extraction.QualityScore == nil {
		return
	}
	extraction.QualityGrade = scoring.GetQualityGrade(*extraction.QualityScore)
}
