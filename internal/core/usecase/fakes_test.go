package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
	"github.com/kirillkom/kyc-extractor/internal/core/scoring"
)

type statusCall struct {
	status domain.ExtractionStatus
	errMsg string
}

type repoFake struct {
	mu sync.Mutex

	extraction  *domain.Extraction
	created     []domain.Extraction
	createErr   error
	getErr      error
	saveErr     error
	statusErr   error
	failErr     error
	statusCalls []statusCall
	honorCtx    bool
	saved       *domain.ExtractionResult

	listItems  []domain.Extraction
	listTotal  int
	listErr    error
	listFilter []domain.ExtractionFilter

	aggregates domain.ExtractionAggregates
	avgTime    float64
}

func (f *repoFake) Create(_ context.Context, extraction *domain.Extraction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *extraction)
	return nil
}

func (f *repoFake) GetByID(_ context.Context, id string) (*domain.Extraction, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.extraction == nil || f.extraction.ID != id {
		return nil, domain.WrapError(domain.ErrExtractionNotFound, "get extraction", errors.New(id))
	}
	copied := *f.extraction
	return &copied, nil
}

func (f *repoFake) UpdateStatus(ctx context.Context, _ string, status domain.ExtractionStatus, errMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.honorCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	if status == domain.StatusFailed && f.failErr != nil {
		return f.failErr
	}
	return f.statusErr
}

func (f *repoFake) SaveResult(_ context.Context, _ string, result domain.ExtractionResult) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = &result
	return nil
}

func (f *repoFake) List(_ context.Context, filter domain.ExtractionFilter) ([]domain.Extraction, int, error) {
	f.listFilter = append(f.listFilter, filter)
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	items := make([]domain.Extraction, len(f.listItems))
	copy(items, f.listItems)
	return items, f.listTotal, nil
}

func (f *repoFake) Aggregates(context.Context, int) (domain.ExtractionAggregates, error) {
	return f.aggregates, nil
}

func (f *repoFake) AvgProcessingTime(context.Context, int) (float64, error) {
	return f.avgTime, nil
}

type storageFake struct {
	mu     sync.Mutex
	saved  map[string]string
	err    error
	failOn string
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	if f.failOn != "" && strings.HasSuffix(key, f.failOn) {
		return errors.New("disk full")
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[key] = string(raw)
	return nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

type queueFake struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (f *queueFake) PublishExtractionRequested(_ context.Context, extractionID string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, extractionID)
	return nil
}

func (f *queueFake) SubscribeExtractionRequested(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

type rendererFake struct {
	doc domain.RenderedDocument
	err error
}

func (f *rendererFake) Render(context.Context, *domain.Extraction) (domain.RenderedDocument, error) {
	if f.err != nil {
		return domain.RenderedDocument{}, f.err
	}
	return f.doc, nil
}

type extractorFake struct {
	model domain.ModelExtraction
	err   error
	block bool
}

func (f *extractorFake) ExtractFields(ctx context.Context, _ domain.RenderedDocument) (domain.ModelExtraction, error) {
	if f.block {
		<-ctx.Done()
		return domain.ModelExtraction{}, ctx.Err()
	}
	if f.err != nil {
		return domain.ModelExtraction{}, f.err
	}
	return f.model, nil
}

type recorderFake struct {
	docTypes    []domain.DocumentType
	assessments []scoring.Assessment
}

func (f *recorderFake) ObserveAssessment(docType domain.DocumentType, assessment scoring.Assessment) {
	f.docTypes = append(f.docTypes, docType)
	f.assessments = append(f.assessments, assessment)
}

type sheetWriterFake struct {
	rows []domain.Extraction
	err  error
}

func (f *sheetWriterFake) WriteExtractions(w io.Writer, items []domain.Extraction) error {
	if f.err != nil {
		return f.err
	}
	f.rows = items
	_, err := io.WriteString(w, "xlsx")
	return err
}

func intPtr(value int) *int {
	return &value
}
