package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/BohdanGlowacki/UGODY/constants"
	"github.com/BohdanGlowacki/UGODY/internal/common"
	"github.com/BohdanGlowacki/UGODY/internal/entity"
)

var resultColumns = []string{"id", "document_id", "text", "confidence", "status", "error_message", "method", "pages", "processed_at"}

type ExtractionResultRepository interface {
	// GetByDocumentID returns (nil, nil) when the document has no result yet.
	GetByDocumentID(ctx context.Context, documentID uuid.UUID) (*entity.ExtractionResult, error)
	// Upsert writes res keyed by its DocumentID; an existing row keeps its ID.
	Upsert(ctx context.Context, res *entity.ExtractionResult) error
	// ListAwaitingExtraction returns documents with no result or an unfinished one, oldest first.
	ListAwaitingExtraction(ctx context.Context) ([]uuid.UUID, error)
	CountByStatus(ctx context.Context) (map[constants.ProcessingStatus]int, error)
}

type extractionResultRepo struct {
	db  *DB
	log *slog.Logger
}

func NewExtractionResultRepository(db *DB, log *slog.Logger) ExtractionResultRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractionResultRepo{db: db, log: log}
}

func (r *extractionResultRepo) GetByDocumentID(ctx context.Context, documentID uuid.UUID) (*entity.ExtractionResult, error) {
	b := r.db.builder()
	query, args := b.Select(resultColumns...).
		From(b.Table(resultsTable)).
		Where(entsql.EQ("document_id", documentID)).
		Limit(1).
		Query()

	var (
		res         entity.ExtractionResult
		confidence  sql.NullFloat64
		status      string
		errMessage  sql.NullString
		processedAt timeColumn
	)
	err := r.db.SQL.QueryRowContext(ctx, query, args...).Scan(
		&res.ID, &res.DocumentID, &res.Text, &confidence, &status, &errMessage, &res.Method, &res.Pages, &processedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("extraction_result lookup failed", "document_id", documentID, "err", err)
		return nil, common.WrapError(err, "get extraction result")
	}

	parsed, ok := constants.ParseProcessingStatus(status)
	if !ok {
		return nil, common.NewAppError("DATA_ERROR", "unknown stored status "+status, common.ErrDatabase)
	}
	res.Status = parsed
	if confidence.Valid {
		c := confidence.Float64
		res.Confidence = &c
	}
	if errMessage.Valid {
		m := errMessage.String
		res.ErrorMessage = &m
	}
	res.ProcessedAt = processedAt.Time
	return &res, nil
}

func (r *extractionResultRepo) Upsert(ctx context.Context, res *entity.ExtractionResult) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	if res.ProcessedAt.IsZero() {
		res.ProcessedAt = time.Now().UTC()
	}
	var confidence, errMessage any
	if res.Confidence != nil {
		confidence = *res.Confidence
	}
	if res.ErrorMessage != nil {
		errMessage = *res.ErrorMessage
	}

	query, args := r.db.builder().Insert(resultsTable).
		Columns("id", "document_id", "text", "confidence", "status", "error_message", "method", "pages", "processed_at").
		Values(res.ID, res.DocumentID, res.Text, confidence, string(res.Status), errMessage, res.Method, res.Pages, res.ProcessedAt.UTC()).
		OnConflict(
			entsql.ConflictColumns("document_id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("text")
				u.SetExcluded("confidence")
				u.SetExcluded("status")
				u.SetExcluded("error_message")
				u.SetExcluded("method")
				u.SetExcluded("pages")
				u.SetExcluded("processed_at")
			}),
		).
		Query()

	if _, err := r.db.SQL.ExecContext(ctx, query, args...); err != nil {
		r.log.Error("extraction_result upsert failed", "document_id", res.DocumentID, "status", res.Status, "err", err)
		return common.WrapError(err, "upsert extraction result")
	}

	switch res.Status {
	case constants.StatusFailed:
		r.log.Warn("extraction_result stored", "document_id", res.DocumentID, "status", res.Status, "error", derefString(res.ErrorMessage))
	default:
		r.log.Info("extraction_result stored", "document_id", res.DocumentID, "status", res.Status, "method", res.Method)
	}
	return nil
}

func (r *extractionResultRepo) ListAwaitingExtraction(ctx context.Context) ([]uuid.UUID, error) {
	b := r.db.builder()
	docs := b.Table(documentsTable)
	results := b.Table(resultsTable)
	query, args := b.Select(docs.C("id")).
		From(docs).
		LeftJoin(results).
		On(docs.C("id"), results.C("document_id")).
		Where(entsql.Or(
			entsql.IsNull(results.C("id")),
			entsql.In(results.C("status"), string(constants.StatusPending), string(constants.StatusProcessing)),
		)).
		OrderBy(docs.C("created_at")).
		Query()

	rows, err := r.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Error("listing unfinished documents failed", "err", err)
		return nil, common.WrapError(err, "list awaiting extraction")
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, common.WrapError(err, "scan document id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *extractionResultRepo) CountByStatus(ctx context.Context) (map[constants.ProcessingStatus]int, error) {
	b := r.db.builder()
	query, args := b.Select("status", entsql.Count("*")).
		From(b.Table(resultsTable)).
		GroupBy("status").
		Query()

	rows, err := r.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Error("counting results by status failed", "err", err)
		return nil, common.WrapError(err, "count by status")
	}
	defer rows.Close()

	out := make(map[constants.ProcessingStatus]int, len(constants.ProcessingStatuses))
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, common.WrapError(err, "scan status count")
		}
		if s, ok := constants.ParseProcessingStatus(status); ok {
			out[s] = n
		}
	}
	return out, rows.Err()
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
