package export_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/BohdanGlowacki/UGODY/constants"
	"github.com/BohdanGlowacki/UGODY/internal/entity"
	"github.com/BohdanGlowacki/UGODY/internal/export"
	"github.com/BohdanGlowacki/UGODY/internal/ingest"
	"github.com/BohdanGlowacki/UGODY/internal/repository"
	"github.com/BohdanGlowacki/UGODY/internal/repository/repotest"
)

func TestDocumentsXLSX(t *testing.T) {
	ctx := context.Background()
	logger := repotest.DiscardLogger()
	db := repotest.Open(t)
	docs := repository.NewDocumentRepository(db, logger)
	results := repository.NewExtractionResultRepository(db, logger)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var ids []*entity.Document
	for i, name := range []string{"faktura.pdf", "skan.pdf"} {
		body := []byte("%PDF " + name)
		d, err := docs.Create(ctx, &entity.Document{
			Name: name, SourcePath: "/in/" + name, Content: body, Size: int64(len(body)),
			ContentHash: ingest.Fingerprint(body),
			CreatedAt:   base.Add(time.Duration(i) * time.Hour), ModifiedAt: base,
		})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, d)
	}
	conf := 95.0
	if err := results.Upsert(ctx, &entity.ExtractionResult{
		DocumentID: ids[0].ID, Status: constants.StatusCompleted, Text: "Faktura\n\nVAT  nr 1",
		Confidence: &conf, Method: constants.MethodPDFText, Pages: 1,
	}); err != nil {
		t.Fatal(err)
	}

	b, err := export.NewService(docs, results, logger).DocumentsXLSX(ctx)
	if err != nil {
		t.Fatalf("DocumentsXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(export.DocumentsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "Name" || rows[0][5] != "Status" {
		t.Errorf("header = %v", rows[0])
	}
	// newest first: skan.pdf has no result yet
	if rows[1][0] != "skan.pdf" || len(rows[1]) > 5 && rows[1][5] != "" {
		t.Errorf("row 1 = %v", rows[1])
	}
	done := rows[2]
	if done[0] != "faktura.pdf" || done[5] != "COMPLETED" || done[6] != constants.MethodPDFText || done[8] != "95" {
		t.Errorf("row 2 = %v", done)
	}
	if done[10] != "Faktura VAT nr 1" {
		t.Errorf("preview = %q", done[10])
	}

	summary, err := f.GetRows(export.SummarySheet)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"PENDING": "0", "PROCESSING": "0", "COMPLETED": "1", "FAILED": "0"}
	for _, r := range summary[1:] {
		if want[r[0]] != r[1] {
			t.Errorf("summary %s = %s, want %s", r[0], r[1], want[r[0]])
		}
	}
}
