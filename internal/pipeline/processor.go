package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/BohdanGlowacki/UGODY/constants"
	"github.com/BohdanGlowacki/UGODY/internal/entity"
	"github.com/BohdanGlowacki/UGODY/internal/ocr"
	"github.com/BohdanGlowacki/UGODY/internal/repository"
)

// Extractor turns PDF bytes into text. *ocr.Extractor satisfies it.
type Extractor interface {
	Extract(ctx context.Context, content []byte) (ocr.Result, error)
}

// Processor drives one document through Processing to Completed or Failed.
type Processor struct {
	docs      repository.DocumentRepository
	results   repository.ExtractionResultRepository
	extractor Extractor
	logger    *slog.Logger
	now       func() time.Time
}

func NewProcessor(docs repository.DocumentRepository, results repository.ExtractionResultRepository, extractor Extractor, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		docs:      docs,
		results:   results,
		extractor: extractor,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ProcessDocument extracts text for a document and records the outcome.
// A Completed result is returned as is. If ctx is cancelled mid-extraction
// the row is left at Processing for recovery to pick up.
func (p *Processor) ProcessDocument(ctx context.Context, id uuid.UUID) (*entity.ExtractionResult, error) {
	doc, err := p.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	logger := p.logger.With("document_id", id, "name", doc.Name)

	existing, err := p.results.GetByDocumentID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.IsCompleted() {
		logger.Debug("already completed, skipping")
		return existing, nil
	}

	res := &entity.ExtractionResult{
		DocumentID:  id,
		Status:      constants.StatusProcessing,
		ProcessedAt: p.now(),
	}
	if existing != nil {
		res.ID = existing.ID
	}
	if err := p.results.Upsert(ctx, res); err != nil {
		return nil, err
	}

	content, err := p.docs.GetContent(ctx, id)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return res, err
		}
		return p.finishFailed(ctx, res, err)
	}

	start := time.Now()
	out, err := p.extract(ctx, content)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			logger.Warn("extraction interrupted, left in processing", "error", err)
			return res, err
		}
		logger.Error("extraction failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return p.finishFailed(ctx, res, err)
	}

	conf := out.Confidence
	res.Status = constants.StatusCompleted
	res.Text = out.Text
	res.Confidence = &conf
	res.Method = out.Method
	res.Pages = out.Pages
	res.ErrorMessage = nil
	res.ProcessedAt = p.now()
	if err := p.results.Upsert(context.WithoutCancel(ctx), res); err != nil {
		return nil, err
	}
	logger.Info("document processed",
		"method", out.Method,
		"pages", out.Pages,
		"pages_with_text", out.PagesWithText,
		"confidence", out.Confidence,
		"warnings", len(out.Warnings),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// MarkFailed records a failure for id outside the normal flow, e.g. after a panic.
func (p *Processor) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	msg := cause.Error()
	res := &entity.ExtractionResult{
		DocumentID:   id,
		Status:       constants.StatusFailed,
		ErrorMessage: &msg,
		ProcessedAt:  p.now(),
	}
	if existing, err := p.results.GetByDocumentID(ctx, id); err == nil && existing != nil {
		res.ID = existing.ID
	}
	return p.results.Upsert(ctx, res)
}

func (p *Processor) extract(ctx context.Context, content []byte) (res ocr.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()
	return p.extractor.Extract(ctx, content)
}

// finishFailed stores a Failed row and returns cause. The write ignores ctx
// cancellation so timeouts are still recorded.
func (p *Processor) finishFailed(ctx context.Context, res *entity.ExtractionResult, cause error) (*entity.ExtractionResult, error) {
	msg := cause.Error()
	res.Status = constants.StatusFailed
	res.Text = ""
	res.Confidence = nil
	res.ErrorMessage = &msg
	res.ProcessedAt = p.now()
	if err := p.results.Upsert(context.WithoutCancel(ctx), res); err != nil {
		return res, errors.Join(cause, err)
	}
	return res, cause
}
