package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
	"github.com/kirillkom/kyc-extractor/internal/core/ports"
	"github.com/kirillkom/kyc-extractor/internal/core/scoring"
)

// failureStatusTimeout bounds the failed-status write, which runs detached from
// the processing deadline.
const failureStatusTimeout = 5 * time.Second

type ProcessExtractionUseCase struct {
	repo      ports.ExtractionRepository
	renderer  ports.DocumentRenderer
	extractor ports.FieldExtractor
	recorder  ports.QualityRecorder
	now       func() time.Time
}

func NewProcessExtractionUseCase(
	repo ports.ExtractionRepository,
	renderer ports.DocumentRenderer,
	extractor ports.FieldExtractor,
	recorder ports.QualityRecorder,
) *ProcessExtractionUseCase {
	return &ProcessExtractionUseCase{
		repo:      repo,
		renderer:  renderer,
		extractor: extractor,
		recorder:  recorder,
		now:       time.Now,
	}
}

func (uc *ProcessExtractionUseCase) ProcessByID(ctx context.Context, extractionID string) error {
	if err := uc.markStatus(ctx, extractionID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	result, assessment, err := uc.processPipeline(ctx, extractionID)
	if err != nil {
		if failErr := uc.markFailed(ctx, extractionID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.persistResult(ctx, extractionID, result); err != nil {
		if failErr := uc.markFailed(ctx, extractionID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.markStatus(ctx, extractionID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	if uc.recorder != nil {
		uc.recorder.ObserveAssessment(result.DocumentType, assessment)
	}
	slog.Debug("identifier_validated",
		"extraction_id", extractionID,
		"identification_number", assessment.Validation.IdentificationNumber.Value,
		"identifier_valid", assessment.Validation.IdentificationNumber.IsValid(),
		"pincode_valid", assessment.Validation.Pincode.IsValid(),
	)
	slog.Info("extraction_processed",
		"extraction_id", extractionID,
		"document_type", result.DocumentType,
		"data_quality_score", assessment.Score,
		"quality_grade", assessment.Grade,
		"processing_time_ms", result.ProcessingTimeMS,
	)
	return nil
}

func (uc *ProcessExtractionUseCase) processPipeline(
	ctx context.Context,
	extractionID string,
) (domain.ExtractionResult, scoring.Assessment, error) {
	started := uc.now()

	extraction, err := uc.loadExtraction(ctx, extractionID)
	if err != nil {
		return domain.ExtractionResult{}, scoring.Assessment{}, err
	}

	doc, err := uc.render(ctx, extraction)
	if err != nil {
		return domain.ExtractionResult{}, scoring.Assessment{}, err
	}

	model, err := uc.extract(ctx, doc)
	if err != nil {
		return domain.ExtractionResult{}, scoring.Assessment{}, err
	}

	fields := model.Fields()
	assessment := scoring.Assess(fields, model.Confidence)

	result := domain.ExtractionResult{
		DocumentType:     fields.Type(),
		Data:             fields,
		Confidence:       model.Confidence,
		ConfidenceReason: model.ConfidenceReason,
		Validation:       assessment.Validation,
		QualityScore:     assessment.Score,
		ProcessingTimeMS: uc.now().Sub(started).Milliseconds(),
	}
	return result, assessment, nil
}

func (uc *ProcessExtractionUseCase) loadExtraction(ctx context.Context, extractionID string) (*domain.Extraction, error) {
	extraction, err := uc.repo.GetByID(ctx, extractionID)
	if err != nil {
		return nil, fmt.Errorf("fetch extraction by id: %w", err)
	}
	return extraction, nil
}

func (uc *ProcessExtractionUseCase) render(ctx context.Context, extraction *domain.Extraction) (domain.RenderedDocument, error) {
	doc, err := uc.renderer.Render(ctx, extraction)
	if err != nil {
		return domain.RenderedDocument{}, fmt.Errorf("render document: %w", err)
	}
	if len(doc.Images) == 0 && doc.Text == "" {
		return domain.RenderedDocument{}, domain.WrapError(
			domain.ErrInvalidInput,
			"render document",
			errors.New("document has no image or text content"),
		)
	}
	return doc, nil
}

func (uc *ProcessExtractionUseCase) extract(ctx context.Context, doc domain.RenderedDocument) (domain.ModelExtraction, error) {
	model, err := uc.extractor.ExtractFields(ctx, doc)
	if err != nil {
		return domain.ModelExtraction{}, fmt.Errorf("extract fields: %w", err)
	}
	return model, nil
}

func (uc *ProcessExtractionUseCase) persistResult(ctx context.Context, extractionID string, result domain.ExtractionResult) error {
	if err := uc.repo.SaveResult(ctx, extractionID, result); err != nil {
		return fmt.Errorf("save extraction result: %w", err)
	}
	return nil
}

func (uc *ProcessExtractionUseCase) markStatus(ctx context.Context, extractionID string, status domain.ExtractionStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, extractionID, status, errMessage)
}

func (uc *ProcessExtractionUseCase) markFailed(ctx context.Context, extractionID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureStatusTimeout)
	defer cancel()
	return uc.markStatus(failCtx, extractionID, domain.StatusFailed, processErr.Error())
}
