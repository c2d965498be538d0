package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
)

const schemaLockID int64 = 2026031001

type ExtractionRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewExtractionRepository(db *sql.DB) *ExtractionRepository {
	return &ExtractionRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *ExtractionRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *ExtractionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS extractions (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	file_size_bytes BIGINT NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	document_type TEXT NOT NULL DEFAULT '',
	data JSONB NOT NULL DEFAULT '{}'::jsonb,
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	confidence_reason TEXT NOT NULL DEFAULT '',
	validation_results JSONB,
	data_quality_score INTEGER CHECK (data_quality_score BETWEEN 0 AND 100),
	processing_time_ms BIGINT,
	api_version TEXT NOT NULL,
	uploaded_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_extractions_document_type ON extractions(document_type);
CREATE INDEX IF NOT EXISTS idx_extractions_status ON extractions(status);
CREATE INDEX IF NOT EXISTS idx_extractions_uploaded_at ON extractions(uploaded_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const selectColumns = `id, filename, mime_type, storage_path, file_size_bytes, status, error_message, document_type,
	data, confidence, confidence_reason, validation_results, data_quality_score, processing_time_ms,
	api_version, uploaded_at, updated_at`

func (r *ExtractionRepository) Create(ctx context.Context, extraction *domain.Extraction) error {
	dataJSON, err := json.Marshal(extraction.Data)
	if err != nil {
		return fmt.Errorf("marshal extracted data: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO extractions (
	id, filename, mime_type, storage_path, file_size_bytes, status, error_message, document_type, data, api_version, uploaded_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`,
		extraction.ID, extraction.Filename, extraction.MimeType, extraction.StoragePath, extraction.FileSizeBytes,
		string(extraction.Status), extraction.Error, string(extraction.DocumentType), dataJSON, extraction.APIVersion,
		extraction.UploadedAt, extraction.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert extraction: %w", err)
	}
	return nil
}

func (r *ExtractionRepository) GetByID(ctx context.Context, id string) (*domain.Extraction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+`
FROM extractions
WHERE id = $1
`, id)

	extraction, err := scanExtraction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrExtractionNotFound, "get extraction", fmt.Errorf("id=%s", id))
		}
		return nil, err
	}
	return extraction, nil
}

func (r *ExtractionRepository) UpdateStatus(ctx context.Context, id string, status domain.ExtractionStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE extractions
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, r.now())
	if err != nil {
		return fmt.Errorf("update extraction status: %w", err)
	}
	return requireAffected(result, "update extraction status", id)
}

func (r *ExtractionRepository) SaveResult(ctx context.Context, id string, res domain.ExtractionResult) error {
	dataJSON, err := json.Marshal(res.Data)
	if err != nil {
		return fmt.Errorf("marshal extracted data: %w", err)
	}
	validationJSON, err := json.Marshal(res.Validation)
	if err != nil {
		return fmt.Errorf("marshal validation results: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE extractions
SET document_type = $2, data = $3, confidence = $4, confidence_reason = $5, validation_results = $6,
	data_quality_score = $7, processing_time_ms = $8, updated_at = $9
WHERE id = $1
`, id, string(res.DocumentType), dataJSON, res.Confidence, res.ConfidenceReason, validationJSON,
		res.QualityScore, res.ProcessingTimeMS, r.now())
	if err != nil {
		return fmt.Errorf("save extraction result: %w", err)
	}
	return requireAffected(result, "save extraction result", id)
}

// List returns one page of history, newest first, plus the total matching count.
func (r *ExtractionRepository) List(ctx context.Context, filter domain.ExtractionFilter) ([]domain.Extraction, int, error) {
	where, args := r.filterClause(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM extractions`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count extractions: %w", err)
	}

	pageArgs := append(args, filter.Limit, filter.Offset)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s
FROM extractions%s
ORDER BY uploaded_at DESC, id DESC
LIMIT $%d OFFSET $%d`, selectColumns, where, len(args)+1, len(args)+2), pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list extractions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Extraction, 0, filter.Limit)
	for rows.Next() {
		extraction, err := scanExtraction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *extraction)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate extractions: %w", err)
	}
	return out, total, nil
}

func (r *ExtractionRepository) filterClause(filter domain.ExtractionFilter) (string, []any) {
	var conditions []string
	var args []any
	if filter.DocumentType != "" {
		args = append(args, string(filter.DocumentType))
		conditions = append(conditions, fmt.Sprintf("document_type = $%d", len(args)))
	}
	if filter.DaysAgo > 0 {
		args = append(args, r.now().AddDate(0, 0, -filter.DaysAgo))
		conditions = append(conditions, fmt.Sprintf("uploaded_at >= $%d", len(args)))
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// Aggregates computes dashboard counters over UTC calendar days.
func (r *ExtractionRepository) Aggregates(ctx context.Context, days int) (domain.ExtractionAggregates, error) {
	now := r.now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	yesterdayStart := todayStart.AddDate(0, 0, -1)
	windowStart := todayStart.AddDate(0, 0, -(days - 1))

	agg := domain.ExtractionAggregates{
		Daily:       map[string]int{},
		ScoreCounts: map[int]int{},
	}

	err := r.db.QueryRowContext(ctx, `
SELECT
	COUNT(*),
	COALESCE(AVG(confidence) FILTER (WHERE status = 'ready'), 0),
	COUNT(*) FILTER (WHERE uploaded_at >= $1),
	COUNT(*) FILTER (WHERE uploaded_at >= $2 AND uploaded_at < $1)
FROM extractions
`, todayStart, yesterdayStart).Scan(&agg.Total, &agg.AvgConfidence, &agg.Today, &agg.Yesterday)
	if err != nil {
		return domain.ExtractionAggregates{}, fmt.Errorf("summary aggregates: %w", err)
	}

	dailyRows, err := r.db.QueryContext(ctx, `
SELECT to_char(uploaded_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*)
FROM extractions
WHERE uploaded_at >= $1
GROUP BY day
`, windowStart)
	if err != nil {
		return domain.ExtractionAggregates{}, fmt.Errorf("daily aggregates: %w", err)
	}
	defer dailyRows.Close()
	for dailyRows.Next() {
		var day string
		var count int
		if err := dailyRows.Scan(&day, &count); err != nil {
			return domain.ExtractionAggregates{}, fmt.Errorf("scan daily aggregate: %w", err)
		}
		agg.Daily[day] = count
	}
	if err := dailyRows.Err(); err != nil {
		return domain.ExtractionAggregates{}, fmt.Errorf("iterate daily aggregates: %w", err)
	}

	scoreRows, err := r.db.QueryContext(ctx, `
SELECT data_quality_score, COUNT(*)
FROM extractions
WHERE data_quality_score IS NOT NULL
GROUP BY data_quality_score
`)
	if err != nil {
		return domain.ExtractionAggregates{}, fmt.Errorf("score histogram: %w", err)
	}
	defer scoreRows.Close()
	for scoreRows.Next() {
		var score, count int
		if err := scoreRows.Scan(&score, &count); err != nil {
			return domain.ExtractionAggregates{}, fmt.Errorf("scan score histogram: %w", err)
		}
		agg.ScoreCounts[score] = count
	}
	if err := scoreRows.Err(); err != nil {
		return domain.ExtractionAggregates{}, fmt.Errorf("iterate score histogram: %w", err)
	}

	return agg, nil
}

func (r *ExtractionRepository) AvgProcessingTime(ctx context.Context, sample int) (float64, error) {
	var avg float64
	err := r.db.QueryRowContext(ctx, `
SELECT COALESCE(AVG(processing_time_ms), 0)
FROM (
	SELECT processing_time_ms
	FROM extractions
	WHERE status = 'ready' AND processing_time_ms IS NOT NULL
	ORDER BY uploaded_at DESC
	LIMIT $1
) recent
`, sample).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("average processing time: %w", err)
	}
	return avg, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExtraction(row rowScanner) (*domain.Extraction, error) {
	var (
		extraction     domain.Extraction
		status         string
		documentType   string
		dataRaw        []byte
		validationRaw  []byte
		qualityScore   sql.NullInt64
		processingTime sql.NullInt64
	)

	err := row.Scan(
		&extraction.ID, &extraction.Filename, &extraction.MimeType, &extraction.StoragePath, &extraction.FileSizeBytes,
		&status, &extraction.Error, &documentType, &dataRaw, &extraction.Confidence, &extraction.ConfidenceReason,
		&validationRaw, &qualityScore, &processingTime, &extraction.APIVersion, &extraction.UploadedAt, &extraction.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan extraction: %w", err)
	}

	extraction.Status = domain.ExtractionStatus(status)
	extraction.DocumentType = domain.DocumentType(documentType)
	if len(dataRaw) > 0 {
		if err := json.Unmarshal(dataRaw, &extraction.Data); err != nil {
			return nil, fmt.Errorf("unmarshal extracted data: %w", err)
		}
	}
	if len(validationRaw) > 0 {
		var results domain.ValidationResults
		if err := json.Unmarshal(validationRaw, &results); err != nil {
			return nil, fmt.Errorf("unmarshal validation results: %w", err)
		}
		extraction.Validation = &results
	}
	if qualityScore.Valid {
		score := int(qualityScore.Int64)
		extraction.QualityScore = &score
	}
	if processingTime.Valid {
		extraction.ProcessingTimeMS = processingTime.Int64
	}
	return &extraction, nil
}

func requireAffected(result sql.Result, operation, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrExtractionNotFound, operation, fmt.Errorf("id=%s", id))
	}
	return nil
}
