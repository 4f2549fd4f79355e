package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/ledongthuc/pdf"
)

// PDFTextParser reads the embedded text layer with ledongthuc/pdf.
type PDFTextParser struct {
	logger *slog.Logger
}

func NewPDFTextParser(logger *slog.Logger) *PDFTextParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFTextParser{logger: logger}
}

func (p *PDFTextParser) Pages(ctx context.Context, content []byte) (pages []string, err error) {
	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("parse pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	n := r.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		txt, err := page.GetPlainText(nil)
		if err != nil {
			p.logger.Debug("page text unreadable", "page", i, "error", err)
			pages = append(pages, "")
			continue
		}
		pages = append(pages, txt)
	}
	return pages, nil
}
