package repository

import (
	"context"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	"github.com/BohdanGlowacki/UGODY/constants"
)

const (
	documentsTable = "documents"
	resultsTable   = "extraction_results"
)

var (
	// DocumentsColumns holds the columns for the "documents" table.
	DocumentsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "name", Type: field.TypeString},
		{Name: "source_path", Type: field.TypeString, Size: 2147483647},
		{Name: "content", Type: field.TypeBytes},
		{Name: "size", Type: field.TypeInt64},
		{Name: "content_hash", Type: field.TypeString, Size: 64},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "modified_at", Type: field.TypeTime},
		{Name: "ingested_at", Type: field.TypeTime},
	}
	// DocumentsTable holds the schema information for the "documents" table.
	DocumentsTable = &schema.Table{
		Name:       documentsTable,
		Columns:    DocumentsColumns,
		PrimaryKey: []*schema.Column{DocumentsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "document_content_hash",
				Unique:  true,
				Columns: []*schema.Column{DocumentsColumns[5]},
			},
			{
				Name:    "document_created_at",
				Unique:  false,
				Columns: []*schema.Column{DocumentsColumns[6]},
			},
		},
	}
	// ExtractionResultsColumns holds the columns for the "extraction_results" table.
	ExtractionResultsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "text", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "confidence", Type: field.TypeFloat64, Nullable: true},
		{Name: "status", Type: field.TypeEnum, Enums: statusEnums(), Default: string(constants.StatusPending)},
		{Name: "error_message", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "method", Type: field.TypeString, Default: ""},
		{Name: "pages", Type: field.TypeInt, Default: 0},
		{Name: "processed_at", Type: field.TypeTime},
		{Name: "document_id", Type: field.TypeUUID, Unique: true},
	}
	// ExtractionResultsTable holds the schema information for the "extraction_results" table.
	ExtractionResultsTable = &schema.Table{
		Name:       resultsTable,
		Columns:    ExtractionResultsColumns,
		PrimaryKey: []*schema.Column{ExtractionResultsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "extraction_results_documents_extraction_result",
				Columns:    []*schema.Column{ExtractionResultsColumns[8]},
				RefColumns: []*schema.Column{DocumentsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "extractionresult_status",
				Unique:  false,
				Columns: []*schema.Column{ExtractionResultsColumns[3]},
			},
		},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		DocumentsTable,
		ExtractionResultsTable,
	}
)

func init() {
	ExtractionResultsTable.ForeignKeys[0].RefTable = DocumentsTable
}

func statusEnums() []string {
	out := make([]string, 0, len(constants.ProcessingStatuses))
	for _, s := range constants.ProcessingStatuses {
		out = append(out, string(s))
	}
	return out
}

// Migrate creates or upgrades the documents and extraction_results tables.
func Migrate(ctx context.Context, db *DB, logger *slog.Logger) error {
	m, err := schema.NewMigrate(entsql.OpenDB(db.Dialect, db.SQL))
	if err != nil {
		logger.Error("failed to create migrator", "error", err)
		return err
	}
	if err := m.Create(ctx, Tables...); err != nil {
		logger.Error("schema migration failed", "dialect", db.Dialect, "error", err)
		return err
	}
	logger.Info("schema migrated", "dialect", db.Dialect, "tables", len(Tables))
	return nil
}
