package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/BohdanGlowacki/UGODY/constants"
	"github.com/BohdanGlowacki/UGODY/internal/repository"
)

const (
	DocumentsSheet = "Documents"
	SummarySheet   = "Summary"

	pageSize    = 200
	previewSize = 200
)

// Service produces XLSX reports of ingested documents and their extraction status.
type Service struct {
	docs    repository.DocumentRepository
	results repository.ExtractionResultRepository
	logger  *slog.Logger
}

func NewService(docs repository.DocumentRepository, results repository.ExtractionResultRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, results: results, logger: logger}
}

// DocumentsXLSX returns a workbook with one row per document (newest first)
// and a per-status summary sheet.
func (s *Service) DocumentsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	// rename the default sheet instead of leaving an empty "Sheet1"
	if err := f.SetSheetName(f.GetSheetName(0), DocumentsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(DocumentsSheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Name",
		"Source Path",
		"Size (bytes)",
		"SHA-256",
		"Ingested At",
		"Status",
		"Method",
		"Pages",
		"Confidence",
		"Error",
		"Text Preview",
	}
	writeRow(f, DocumentsSheet, 1, toAny(headers)...)

	row := 2
	for offset := 0; ; offset += pageSize {
		page, err := s.docs.List(ctx, offset, pageSize)
		if err != nil {
			return nil, fmt.Errorf("list documents: %w", err)
		}
		for _, d := range page {
			res, err := s.results.GetByDocumentID(ctx, d.ID)
			if err != nil {
				return nil, fmt.Errorf("get result %s: %w", d.ID, err)
			}

			values := []any{d.Name, d.SourcePath, d.Size, d.ContentHash, d.IngestedAt.Format(time.RFC3339), "", "", "", "", "", ""}
			if res != nil {
				values[5] = res.Status.String()
				values[6] = res.Method
				values[7] = res.Pages
				if res.Confidence != nil {
					values[8] = *res.Confidence
				}
				if res.ErrorMessage != nil {
					values[9] = truncate(*res.ErrorMessage, previewSize)
				}
				values[10] = truncate(strings.Join(strings.Fields(res.Text), " "), previewSize)
			}
			writeRow(f, DocumentsSheet, row, values...)
			row++
		}
		if len(page) < pageSize {
			break
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(DocumentsSheet, "A", "A", 28) // name
	_ = f.SetColWidth(DocumentsSheet, "B", "B", 48) // path
	_ = f.SetColWidth(DocumentsSheet, "D", "D", 66) // hash
	_ = f.SetColWidth(DocumentsSheet, "E", "F", 22)
	_ = f.SetColWidth(DocumentsSheet, "J", "K", 60)

	counts, err := s.results.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	writeRow(f, SummarySheet, 1, "Status", "Documents")
	for i, st := range constants.ProcessingStatuses {
		writeRow(f, SummarySheet, i+2, st.String(), counts[st])
	}
	_ = f.SetColWidth(SummarySheet, "A", "B", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", row-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
