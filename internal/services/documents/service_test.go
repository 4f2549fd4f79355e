package documents_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/BohdanGlowacki/UGODY/constants"
	"github.com/BohdanGlowacki/UGODY/internal/async"
	"github.com/BohdanGlowacki/UGODY/internal/common"
	"github.com/BohdanGlowacki/UGODY/internal/entity"
	"github.com/BohdanGlowacki/UGODY/internal/ingest"
	"github.com/BohdanGlowacki/UGODY/internal/repository"
	"github.com/BohdanGlowacki/UGODY/internal/repository/repotest"
	"github.com/BohdanGlowacki/UGODY/internal/services/documents"
)

type fakeScanner struct {
	dirs []string
}

func (f *fakeScanner) Scan(_ context.Context, dir string) (ingest.ScanSummary, []ingest.IngestionResult, error) {
	f.dirs = append(f.dirs, dir)
	return ingest.ScanSummary{Directory: dir, Scanned: 3, New: 2, Deduplicated: 1}, nil, nil
}

type env struct {
	svc     *documents.Service
	scanner *fakeScanner
	queue   *async.FIFO
	docs    repository.DocumentRepository
	results repository.ExtractionResultRepository
}

func newEnv(t *testing.T, defaultDir string) *env {
	t.Helper()
	logger := repotest.DiscardLogger()
	db := repotest.Open(t)
	e := &env{
		scanner: &fakeScanner{},
		queue:   async.NewFIFO(logger),
		docs:    repository.NewDocumentRepository(db, logger),
		results: repository.NewExtractionResultRepository(db, logger),
	}
	e.svc = documents.NewService(e.scanner, e.docs, e.results, e.queue, defaultDir, logger)
	return e
}

func (e *env) addDocument(t *testing.T, body string) *entity.Document {
	t.Helper()
	now := time.Now().UTC()
	doc, err := e.docs.Create(context.Background(), &entity.Document{
		Name:        body + ".pdf",
		SourcePath:  "/in/" + body + ".pdf",
		Content:     []byte(body),
		Size:        int64(len(body)),
		ContentHash: ingest.Fingerprint([]byte(body)),
		CreatedAt:   now,
		ModifiedAt:  now,
	})
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestScan_DefaultsToConfiguredDirectory(t *testing.T) {
	e := newEnv(t, "/srv/documents")
	ctx := context.Background()

	summary, err := e.svc.Scan(ctx, "  ")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if summary.New != 2 || summary.Deduplicated != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if _, err := e.svc.Scan(ctx, "/tmp/other"); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(e.scanner.dirs) != 2 || e.scanner.dirs[0] != "/srv/documents" || e.scanner.dirs[1] != "/tmp/other" {
		t.Errorf("dirs = %v", e.scanner.dirs)
	}
}

func TestScan_NoDirectory(t *testing.T) {
	e := newEnv(t, "")
	if _, err := e.svc.Scan(context.Background(), ""); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
}

func TestEnqueue(t *testing.T) {
	e := newEnv(t, "")
	doc := e.addDocument(t, "a")
	ctx := common.WithRequestID(context.Background(), "req-1")

	cases := []struct {
		name string
		id   string
		want error
	}{
		{"known", doc.ID.String(), nil},
		{"unknown", uuid.NewString(), common.ErrNotFound},
		{"malformed", "not-a-uuid", common.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := e.svc.Enqueue(ctx, tc.id)
			if tc.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	if e.queue.Len() != 1 {
		t.Fatalf("queue len = %d, want 1", e.queue.Len())
	}
	job, _ := e.queue.TryDequeue()
	if job.DocumentID != doc.ID || job.Reason != async.ReasonManual || job.TraceID != "req-1" {
		t.Errorf("job = %+v", job)
	}
}

func TestGetResult(t *testing.T) {
	e := newEnv(t, "")
	ctx := context.Background()
	doc := e.addDocument(t, "a")

	res, err := e.svc.GetResult(ctx, doc.ID.String())
	if err != nil || res != nil {
		t.Fatalf("before extraction: %v, %v", res, err)
	}
	if _, err := e.svc.GetResult(ctx, uuid.NewString()); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}

	conf := 95.0
	if err := e.results.Upsert(ctx, &entity.ExtractionResult{
		DocumentID: doc.ID, Status: constants.StatusCompleted, Text: "hello", Confidence: &conf, Method: constants.MethodPDFText,
	}); err != nil {
		t.Fatal(err)
	}
	res, err = e.svc.GetResult(ctx, doc.ID.String())
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "hello" || !res.IsCompleted() {
		t.Errorf("result = %+v", res)
	}
}

func TestGetDocumentAndContent(t *testing.T) {
	e := newEnv(t, "")
	ctx := context.Background()
	doc := e.addDocument(t, "payload")

	got, err := e.svc.GetDocument(ctx, doc.ID.String())
	if err != nil {
		t.Fatal(err)
	}
	if got.ContentHash != doc.ContentHash || got.Name != "payload.pdf" {
		t.Errorf("document = %+v", got)
	}
	body, err := e.svc.GetContent(ctx, doc.ID.String())
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "payload" {
		t.Errorf("content = %q", body)
	}
}

func TestListPagesWithTotal(t *testing.T) {
	e := newEnv(t, "")
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		e.addDocument(t, fmt.Sprintf("doc-%d", i))
	}

	page, total, err := e.svc.List(ctx, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 || len(page) != 2 {
		t.Fatalf("total = %d, len = %d", total, len(page))
	}
	for _, p := range page {
		if p.Result != nil {
			t.Errorf("unexpected result for %s", p.Document.ID)
		}
	}
	if _, _, err := e.svc.List(ctx, -1, 10); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("err = %v, want invalid input", err)
	}
}
