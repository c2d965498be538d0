package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
	"github.com/kirillkom/kyc-extractor/internal/core/ports"
)

const (
	mimePDF  = "application/pdf"
	mimePNG  = "image/png"
	mimeJPEG = "image/jpeg"
)

// Renderer loads an upload from object storage and prepares it for the model:
// images pass through untouched, PDFs contribute their embedded page scans and
// their text layer.
type Renderer struct {
	storage ports.ObjectStorage
}

func NewRenderer(storage ports.ObjectStorage) *Renderer {
	return &Renderer{storage: storage}
}

func (r *Renderer) Render(ctx context.Context, extraction *domain.Extraction) (domain.RenderedDocument, error) {
	reader, err := r.storage.Open(ctx, extraction.StoragePath)
	if err != nil {
		return domain.RenderedDocument{}, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return domain.RenderedDocument{}, fmt.Errorf("read source document: %w", err)
	}

	doc := domain.RenderedDocument{Filename: extraction.Filename, MimeType: extraction.MimeType}
	switch extraction.MimeType {
	case mimePNG, mimeJPEG:
		doc.Images = [][]byte{raw}
	case mimePDF:
		if err := renderPDF(raw, &doc); err != nil {
			return domain.RenderedDocument{}, err
		}
	default:
		return domain.RenderedDocument{}, domain.WrapError(
			domain.ErrUnsupportedFormat,
			"render document",
			fmt.Errorf("mime type %q", extraction.MimeType),
		)
	}
	return doc, nil
}

// renderPDF fills doc with the page scans and text layer of a PDF. Scanned
// documents usually carry one JPEG per page and no text.
func renderPDF(raw []byte, doc *domain.RenderedDocument) error {
	images, imageErr := pdfPageImages(raw)
	text, textErr := pdfText(raw)
	if imageErr != nil && textErr != nil {
		return domain.WrapError(domain.ErrUnsupportedFormat, "read pdf", errors.Join(imageErr, textErr))
	}
	if len(images) == 0 && text == "" {
		return domain.WrapError(
			domain.ErrUnsupportedFormat,
			"read pdf",
			errors.New("pdf has neither page images nor a text layer"),
		)
	}
	doc.Images = images
	doc.Text = text
	return nil
}

// pdfText concatenates the plain text of every page. The pdf reader panics on
// some malformed files, so panics are turned into errors.
func pdfText(content []byte) (text string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("malformed pdf: %v", recovered)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var out strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		if out.Len() > 0 {
			out.WriteString("\n\n")
		}
		out.WriteString(pageText)
	}
	return out.String(), nil
}
