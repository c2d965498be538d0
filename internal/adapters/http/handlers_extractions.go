package httpadapter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (rt *Router) uploadExtraction(w http.ResponseWriter, r *http.Request) {
	if rt.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, multipartError("multipart field 'file' is required", err))
		return
	}
	defer file.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	extraction, err := rt.ingestUC.Upload(r.Context(), fileHeader.Filename, mimeType, file)
	rt.recordUpload(mimeType, fileHeader.Size, err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, extraction)
}

func (rt *Router) uploadExtractionBatch(w http.ResponseWriter, r *http.Request) {
	if limit := rt.batchBodyLimit(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, r, multipartError("multipart body with 'files' is required", err))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File["files"]
	}
	if len(headers) == 0 {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "upload batch", errors.New("multipart field 'files' is required")))
		return
	}

	files := make([]domain.UploadFile, 0, len(headers))
	for _, header := range headers {
		content, err := readFileHeader(header)
		if err != nil {
			writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "upload batch", err))
			return
		}
		files = append(files, domain.UploadFile{
			Filename: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Content:  content,
		})
	}

	result, err := rt.ingestUC.UploadBatch(r.Context(), files)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for _, item := range result.Results {
		rt.recordUpload(item.MimeType, item.FileSizeBytes, nil)
	}
	for range result.Errors {
		rt.recordUpload("", 0, errors.New("rejected"))
	}

	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) getExtraction(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "get extraction", errors.New("extraction id is required")))
		return
	}

	extraction, err := rt.readerUC.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, extraction)
}

func (rt *Router) listExtractions(w http.ResponseWriter, r *http.Request) {
	filter, err := bindExtractionFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, err := rt.readerUC.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (rt *Router) exportExtractions(w http.ResponseWriter, r *http.Request) {
	filter, err := bindExtractionFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	err = rt.exportUC.ExportXLSX(r.Context(), filter, &buf)
	if rt.metrics != nil {
		rt.metrics.RecordExport(serviceName, err)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("kyc_extractions_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type extractionQueryParams struct {
	DocumentType *string
	DaysAgo      *int
	Offset       *int
	Limit        *int
}

func bindExtractionFilter(query url.Values) (domain.ExtractionFilter, error) {
	var params extractionQueryParams
	bindings := []struct {
		name string
		dest any
	}{
		{"document_type", &params.DocumentType},
		{"days_ago", &params.DaysAgo},
		{"offset", &params.Offset},
		{"limit", &params.Limit},
	}
	for _, binding := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, binding.name, query, binding.dest); err != nil {
			return domain.ExtractionFilter{}, domain.WrapError(domain.ErrInvalidInput, "bind query", err)
		}
	}

	var filter domain.ExtractionFilter
	if docType := domain.OptionalString(params.DocumentType); docType != nil {
		filter.DocumentType = domain.DocumentType(strings.ToUpper(*docType))
	}
	if params.DaysAgo != nil {
		filter.DaysAgo = *params.DaysAgo
	}
	if params.Offset != nil {
		filter.Offset = *params.Offset
	}
	if params.Limit != nil {
		filter.Limit = *params.Limit
	}
	return filter, nil
}

func (rt *Router) batchBodyLimit() int64 {
	if rt.cfg.MaxUploadBytes <= 0 {
		return 0
	}
	files := rt.cfg.BatchMaxFiles
	if files <= 0 {
		files = 1
	}
	return rt.cfg.MaxUploadBytes * int64(files)
}

func (rt *Router) recordUpload(mimeType string, size int64, err error) {
	if rt.metrics != nil {
		rt.metrics.RecordUpload(serviceName, mimeType, size, err)
	}
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", header.Filename, err)
	}
	defer file.Close()
	return io.ReadAll(file)
}

// multipartError keeps oversized bodies distinguishable from malformed ones.
func multipartError(message string, err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return fmt.Errorf("upload exceeds %d bytes: %w", maxBytesErr.Limit, err)
	}
	return domain.WrapError(domain.ErrInvalidInput, "parse upload", errors.New(message))
}
