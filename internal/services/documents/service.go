package documents

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BohdanGlowacki/UGODY/constants"
	"github.com/BohdanGlowacki/UGODY/internal/async"
	"github.com/BohdanGlowacki/UGODY/internal/common"
	"github.com/BohdanGlowacki/UGODY/internal/entity"
	"github.com/BohdanGlowacki/UGODY/internal/ingest"
	"github.com/BohdanGlowacki/UGODY/internal/repository"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Scanner is the directory ingestion entry point. *ingest.Service satisfies it.
type Scanner interface {
	Scan(ctx context.Context, dir string) (ingest.ScanSummary, []ingest.IngestionResult, error)
}

// Service is the document-facing API shared by the gRPC server and the CLIs.
type Service struct {
	scanner    Scanner
	docs       repository.DocumentRepository
	results    repository.ExtractionResultRepository
	queue      async.Queue
	defaultDir string
	logger     *slog.Logger
}

func NewService(
	scanner Scanner,
	docs repository.DocumentRepository,
	results repository.ExtractionResultRepository,
	queue async.Queue,
	defaultDir string,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		scanner:    scanner,
		docs:       docs,
		results:    results,
		queue:      queue,
		defaultDir: defaultDir,
		logger:     logger,
	}
}

// Scan ingests dir, or the configured scan directory when dir is empty.
func (s *Service) Scan(ctx context.Context, dir string) (ingest.ScanSummary, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = s.defaultDir
	}
	if dir == "" {
		return ingest.ScanSummary{}, common.NewAppError("INVALID_INPUT", "directory is required and no scan directory is configured", common.ErrInvalidInput)
	}

	summary, _, err := s.scanner.Scan(ctx, dir)
	if err != nil {
		s.logger.Error("directory scan failed", "dir", dir, "error", err)
		return summary, err
	}
	return summary, nil
}

// Enqueue queues a known document for (re)extraction.
func (s *Service) Enqueue(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	if _, err := s.docs.GetByID(ctx, id); err != nil {
		return err
	}
	job := async.Job{
		DocumentID:  id,
		Reason:      async.ReasonManual,
		SubmittedAt: time.Now().UTC(),
		TraceID:     common.RequestIDFromContext(ctx),
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.logger.Error("enqueue failed", "document_id", id, "error", err)
		return err
	}
	s.logger.Info("document queued", "document_id", id)
	return nil
}

// GetResult returns the latest result, or nil when extraction has not run yet.
func (s *Service) GetResult(ctx context.Context, rawID string) (*entity.ExtractionResult, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	if _, err := s.docs.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.results.GetByDocumentID(ctx, id)
}

func (s *Service) GetDocument(ctx context.Context, rawID string) (*entity.Document, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	return s.docs.GetByID(ctx, id)
}

func (s *Service) GetContent(ctx context.Context, rawID string) ([]byte, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	return s.docs.GetContent(ctx, id)
}

// DocumentStatus pairs a document with its extraction status.
// Result is nil when no extraction has been attempted.
type DocumentStatus struct {
	Document *entity.Document
	Result   *entity.ExtractionResult
}

// List returns one page of documents (newest first) and the total count.
func (s *Service) List(ctx context.Context, offset, limit int) ([]DocumentStatus, int, error) {
	if offset < 0 {
		return nil, 0, common.NewAppError("INVALID_INPUT", "offset must not be negative", common.ErrInvalidInput)
	}
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}

	docs, err := s.docs.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.docs.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	out := make([]DocumentStatus, 0, len(docs))
	for _, d := range docs {
		res, err := s.results.GetByDocumentID(ctx, d.ID)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, DocumentStatus{Document: d, Result: res})
	}
	return out, total, nil
}

// Stats counts results per status.
func (s *Service) Stats(ctx context.Context) (map[constants.ProcessingStatus]int, error) {
	return s.results.CountByStatus(ctx)
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, common.NewAppError("INVALID_INPUT", "document id must be a UUID", common.ErrInvalidInput)
	}
	return id, nil
}
