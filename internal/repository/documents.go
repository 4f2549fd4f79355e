package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
	"github.com/google/uuid"

	"github.com/BohdanGlowacki/UGODY/internal/common"
	"github.com/BohdanGlowacki/UGODY/internal/entity"
)

// ErrDuplicateHash is returned by Create when the content hash is already stored.
var ErrDuplicateHash = errors.New("document with this content hash already exists")

// documentColumns lists every column except the content payload.
var documentColumns = []string{"id", "name", "source_path", "size", "content_hash", "created_at", "modified_at", "ingested_at"}

type DocumentRepository interface {
	GetByHash(ctx context.Context, hash string) (*entity.Document, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	GetContent(ctx context.Context, id uuid.UUID) ([]byte, error)
	Create(ctx context.Context, doc *entity.Document) (*entity.Document, error)
	List(ctx context.Context, offset, limit int) ([]*entity.Document, error)
	Count(ctx context.Context) (int, error)
}

type documentRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewDocumentRepository(db *DB, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepo{
		db:     db,
		logger: logger,
	}
}

func (r *documentRepo) GetByHash(ctx context.Context, hash string) (*entity.Document, error) {
	b := r.db.builder()
	query, args := b.Select(documentColumns...).
		From(b.Table(documentsTable)).
		Where(entsql.EQ("content_hash", hash)).
		Limit(1).
		Query()

	doc, err := scanDocument(r.db.SQL.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundf("document with hash %s", hash)
	}
	if err != nil {
		r.logger.Error("failed to get document by hash", "content_hash", hash, "error", err)
		return nil, common.WrapError(err, "get by hash")
	}
	return doc, nil
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	b := r.db.builder()
	query, args := b.Select(documentColumns...).
		From(b.Table(documentsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	doc, err := scanDocument(r.db.SQL.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundf("document %s", id)
	}
	if err != nil {
		r.logger.Error("failed to get document", "document_id", id, "error", err)
		return nil, common.WrapError(err, "get document")
	}
	return doc, nil
}

func (r *documentRepo) GetContent(ctx context.Context, id uuid.UUID) ([]byte, error) {
	b := r.db.builder()
	query, args := b.Select("content").
		From(b.Table(documentsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	var content []byte
	err := r.db.SQL.QueryRowContext(ctx, query, args...).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundf("document %s", id)
	}
	if err != nil {
		r.logger.Error("failed to load document content", "document_id", id, "error", err)
		return nil, common.WrapError(err, "get content")
	}
	return content, nil
}

// Create inserts doc, assigning its ID and ingest time when unset.
// A unique violation on content_hash is reported as ErrDuplicateHash.
func (r *documentRepo) Create(ctx context.Context, doc *entity.Document) (*entity.Document, error) {
	row := *doc
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.IngestedAt.IsZero() {
		row.IngestedAt = time.Now().UTC()
	}
	if row.Content == nil {
		row.Content = []byte{}
	}

	query, args := r.db.builder().Insert(documentsTable).
		Columns("id", "name", "source_path", "content", "size", "content_hash", "created_at", "modified_at", "ingested_at").
		Values(row.ID, row.Name, row.SourcePath, row.Content, row.Size, row.ContentHash,
			row.CreatedAt.UTC(), row.ModifiedAt.UTC(), row.IngestedAt.UTC()).
		Query()

	if _, err := r.db.SQL.ExecContext(ctx, query, args...); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			r.logger.Warn("document hash already stored", "content_hash", row.ContentHash, "source_path", row.SourcePath)
			return nil, ErrDuplicateHash
		}
		r.logger.Error("failed to create document", "source_path", row.SourcePath, "name", row.Name, "error", err)
		return nil, common.WrapError(err, "create document")
	}
	r.logger.Debug("document created", "document_id", row.ID, "content_hash", row.ContentHash, "size", row.Size)
	row.Content = nil
	return &row, nil
}

// List returns documents newest first by creation time, without content.
func (r *documentRepo) List(ctx context.Context, offset, limit int) ([]*entity.Document, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 50
	}
	b := r.db.builder()
	query, args := b.Select(documentColumns...).
		From(b.Table(documentsTable)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
		Limit(limit).
		Offset(offset).
		Query()

	rows, err := r.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list documents", "offset", offset, "limit", limit, "error", err)
		return nil, common.WrapError(err, "list documents")
	}
	defer rows.Close()

	out := make([]*entity.Document, 0, limit)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, common.WrapError(err, "scan document")
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "list documents")
	}
	return out, nil
}

func (r *documentRepo) Count(ctx context.Context) (int, error) {
	b := r.db.builder()
	query, args := b.Select().Count().From(b.Table(documentsTable)).Query()

	var n int
	if err := r.db.SQL.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		r.logger.Error("failed to count documents", "error", err)
		return 0, common.WrapError(err, "count documents")
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(s rowScanner) (*entity.Document, error) {
	var (
		doc                         entity.Document
		created, modified, ingested timeColumn
	)
	if err := s.Scan(&doc.ID, &doc.Name, &doc.SourcePath, &doc.Size, &doc.ContentHash, &created, &modified, &ingested); err != nil {
		return nil, err
	}
	doc.CreatedAt = created.Time
	doc.ModifiedAt = modified.Time
	doc.IngestedAt = ingested.Time
	return &doc, nil
}
