package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/BohdanGlowacki/UGODY/internal/async"
	"github.com/BohdanGlowacki/UGODY/internal/common"
	"github.com/BohdanGlowacki/UGODY/internal/entity"
	"github.com/BohdanGlowacki/UGODY/internal/repository"
)

// DedupIngestor stores each distinct content hash once and queues it for extraction.
//
// The existence check and the insert are not atomic. The unique index on
// content_hash catches concurrent ingest of the same bytes, and the loser is
// reported as deduplicated without enqueueing.
type DedupIngestor struct {
	docs   repository.DocumentRepository
	queue  async.Queue
	logger *slog.Logger
}

func NewDedupIngestor(docs repository.DocumentRepository, queue async.Queue, logger *slog.Logger) *DedupIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DedupIngestor{docs: docs, queue: queue, logger: logger}
}

func (i *DedupIngestor) Ingest(ctx context.Context, c Candidate) (IngestionResult, error) {
	out := IngestionResult{SourcePath: c.SourcePath, HashHex: c.ContentHash}
	if c.ContentHash == "" {
		c.ContentHash = Fingerprint(c.Content)
		out.HashHex = c.ContentHash
	}

	existing, err := i.docs.GetByHash(ctx, c.ContentHash)
	switch {
	case err == nil:
		i.logger.Debug("duplicate content skipped", "path", c.SourcePath, "content_hash", c.ContentHash, "document_id", existing.ID)
		out.DocumentID = existing.ID
		out.Deduplicated = true
		return out, nil
	case !errors.Is(err, common.ErrNotFound):
		return out, err
	}

	row, err := i.docs.Create(ctx, &entity.Document{
		Name:        c.Name,
		SourcePath:  c.SourcePath,
		Content:     c.Content,
		Size:        c.Size,
		ContentHash: c.ContentHash,
		CreatedAt:   c.CreatedAt,
		ModifiedAt:  c.ModifiedAt,
	})
	if errors.Is(err, repository.ErrDuplicateHash) {
		out.Deduplicated = true
		if winner, lerr := i.docs.GetByHash(ctx, c.ContentHash); lerr == nil {
			out.DocumentID = winner.ID
		}
		i.logger.Debug("concurrent ingest of identical content", "path", c.SourcePath, "content_hash", c.ContentHash, "document_id", out.DocumentID)
		return out, nil
	}
	if err != nil {
		return out, err
	}
	out.DocumentID = row.ID

	if err := i.queue.Enqueue(ctx, async.Job{DocumentID: row.ID, Reason: async.ReasonIngest, SubmittedAt: time.Now().UTC()}); err != nil {
		// the document is stored; startup recovery picks it up later
		i.logger.Error("failed to enqueue ingested document", "document_id", row.ID, "error", err)
		return out, err
	}
	i.logger.Info("document ingested", "document_id", row.ID, "path", c.SourcePath, "size", c.Size)
	return out, nil
}
