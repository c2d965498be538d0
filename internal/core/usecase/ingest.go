package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
	"github.com/kirillkom/kyc-extractor/internal/core/ports"
)

const (
	defaultBatchMaxFiles    = 20
	defaultBatchConcurrency = 4
)

var mimeByExtension = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

type IngestOptions struct {
	BatchMaxFiles    int
	BatchConcurrency int
}

type IngestExtractionUseCase struct {
	repo    ports.ExtractionRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
	opts    IngestOptions
	now     func() time.Time
}

func NewIngestExtractionUseCase(
	repo ports.ExtractionRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	opts IngestOptions,
) *IngestExtractionUseCase {
	if opts.BatchMaxFiles <= 0 {
		opts.BatchMaxFiles = defaultBatchMaxFiles
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = defaultBatchConcurrency
	}
	return &IngestExtractionUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
		opts:    opts,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (uc *IngestExtractionUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
) (*domain.Extraction, error) {
	content, err := io.ReadAll(body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read upload", err)
	}
	return uc.upload(ctx, domain.UploadFile{Filename: filename, MimeType: mimeType, Content: content})
}

// UploadBatch ingests files independently; one failure never aborts the rest.
// Results and errors keep the input order.
func (uc *IngestExtractionUseCase) UploadBatch(ctx context.Context, files []domain.UploadFile) (*domain.BatchUploadResult, error) {
	if len(files) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload batch", errors.New("no files provided"))
	}
	if len(files) > uc.opts.BatchMaxFiles {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"upload batch",
			fmt.Errorf("batch holds %d files, limit is %d", len(files), uc.opts.BatchMaxFiles),
		)
	}

	extractions := make([]*domain.Extraction, len(files))
	failures := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.opts.BatchConcurrency)
	for i := range files {
		g.Go(func() error {
			extraction, err := uc.upload(gctx, files[i])
			extractions[i] = extraction
			failures[i] = err
			return nil
		})
	}
	_ = g.Wait()

	result := &domain.BatchUploadResult{
		TotalProcessed: len(files),
		Results:        []domain.Extraction{},
		Errors:         []domain.BatchUploadError{},
	}
	for i, file := range files {
		if failures[i] != nil {
			result.Failed++
			result.Errors = append(result.Errors, domain.BatchUploadError{Filename: file.Filename, Error: failures[i].Error()})
			continue
		}
		result.Successful++
		result.Results = append(result.Results, *extractions[i])
	}
	return result, nil
}

func (uc *IngestExtractionUseCase) upload(ctx context.Context, file domain.UploadFile) (*domain.Extraction, error) {
	mimeType, err := resolveMimeType(file.Filename, file.MimeType)
	if err != nil {
		return nil, err
	}
	if len(file.Content) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("file is empty"))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(file.Filename))
	now := uc.now()

	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(file.Content)); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	extraction := &domain.Extraction{
		ID:            id,
		Filename:      file.Filename,
		MimeType:      mimeType,
		StoragePath:   storageKey,
		FileSizeBytes: int64(len(file.Content)),
		Status:        domain.StatusUploaded,
		APIVersion:    domain.APIVersion,
		UploadedAt:    now,
		UpdatedAt:     now,
	}

	if err := uc.repo.Create(ctx, extraction); err != nil {
		return nil, fmt.Errorf("create extraction record: %w", err)
	}

	if err := uc.queue.PublishExtractionRequested(ctx, extraction.ID); err != nil {
		publishErr := fmt.Errorf("publish extraction request: %w", err)
		failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureStatusTimeout)
		defer cancel()
		if failErr := uc.repo.UpdateStatus(failCtx, extraction.ID, domain.StatusFailed, publishErr.Error()); failErr != nil {
			return nil, fmt.Errorf("%w; mark failed status: %v", publishErr, failErr)
		}
		return nil, publishErr
	}

	return extraction, nil
}

// resolveMimeType trusts the extension over a generic client-declared type.
func resolveMimeType(filename, declared string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	byExt, ok := mimeByExtension[ext]
	if !ok {
		return "", domain.WrapError(
			domain.ErrUnsupportedFormat,
			"upload",
			fmt.Errorf("extension %q not allowed, use pdf, png, jpg or jpeg", ext),
		)
	}

	declared = strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))
	switch declared {
	case "", "application/octet-stream", byExt:
		return byExt, nil
	default:
		return "", domain.WrapError(
			domain.ErrUnsupportedFormat,
			"upload",
			fmt.Errorf("content type %q does not match %s", declared, ext),
		)
	}
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}
