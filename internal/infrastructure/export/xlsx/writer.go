package xlsx

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
)

const SheetName = "Extractions"

var headers = []string{
	"Request ID",
	"Filename",
	"Document Type",
	"Company Name",
	"Identification Number",
	"ID Valid",
	"Pincode",
	"Pincode Valid",
	"Quality Score",
	"Quality Grade",
	"Confidence",
	"Status",
	"Uploaded At",
}

type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

// WriteExtractions renders one row per extraction. Unscored rows leave the
// score, grade and validity cells empty.
func (w *Writer) WriteExtractions(out io.Writer, items []domain.Extraction) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for idx, item := range items {
		row := idx + 2
		values := []any{
			item.ID,
			item.Filename,
			string(item.DocumentType),
			domain.StringValue(item.Data.CompanyName),
			domain.StringValue(item.Data.IdentificationNumber),
			"",
			domain.StringValue(item.Data.Pincode()),
			"",
			"",
			string(item.QualityGrade),
			item.Confidence,
			string(item.Status),
			item.UploadedAt.UTC().Format(time.RFC3339),
		}
		if item.Validation != nil {
			values[5] = validityLabel(item.Validation.IdentificationNumber)
			values[7] = validityLabel(item.Validation.Pincode)
		}
		if item.QualityScore != nil {
			values[8] = *item.QualityScore
		}

		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 38)
	_ = f.SetColWidth(SheetName, "B", "B", 28)
	_ = f.SetColWidth(SheetName, "C", "E", 24)
	_ = f.SetColWidth(SheetName, "M", "M", 22)

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func validityLabel(outcome domain.ValidationOutcome) string {
	switch {
	case !outcome.Checked():
		return "not checked"
	case outcome.IsValid():
		return "yes"
	default:
		return "no"
	}
}
