package ingest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/BohdanGlowacki/UGODY/internal/async"
	"github.com/BohdanGlowacki/UGODY/internal/common"
	"github.com/BohdanGlowacki/UGODY/internal/entity"
	"github.com/BohdanGlowacki/UGODY/internal/ingest"
	"github.com/BohdanGlowacki/UGODY/internal/repository"
	"github.com/BohdanGlowacki/UGODY/internal/repository/repotest"
)

type recordingQueue struct {
	mu   sync.Mutex
	jobs []async.Job
	err  error
}

func (q *recordingQueue) Enqueue(_ context.Context, job async.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func newService(t *testing.T, q async.Queue) (*ingest.Service, repository.DocumentRepository) {
	t.Helper()
	logger := repotest.DiscardLogger()
	docs := repository.NewDocumentRepository(repotest.Open(t), logger)
	svc := ingest.NewService(ingest.NewScanner(false, logger), ingest.NewDedupIngestor(docs, q, logger), logger)
	return svc, docs
}

func TestScanIngestsIdenticalContentOnce(t *testing.T) {
	ctx := context.Background()
	q := &recordingQueue{}
	svc, docs := newService(t, q)

	dir := t.TempDir()
	body := []byte("%PDF-1.4 identical bytes")
	for _, name := range []string{"invoice.pdf", "invoice-copy.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), body, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	summary, _, err := svc.Scan(ctx, dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if summary.Scanned != 2 || summary.New != 1 || summary.Deduplicated != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	// rescanning the same directory must not store or queue anything new
	summary, results, err := svc.Scan(ctx, dir)
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if summary.New != 0 || summary.Deduplicated != 2 {
		t.Fatalf("unexpected rescan summary %+v", summary)
	}
	for _, r := range results {
		if r.DocumentID != q.jobs[0].DocumentID {
			t.Fatalf("duplicate %s reported %s, want stored %s", r.SourcePath, r.DocumentID, q.jobs[0].DocumentID)
		}
	}

	if n, _ := docs.Count(ctx); n != 1 {
		t.Fatalf("stored %d documents, want 1", n)
	}
	if len(q.jobs) != 1 {
		t.Fatalf("enqueued %d jobs, want 1", len(q.jobs))
	}
	if q.jobs[0].Reason != async.ReasonIngest {
		t.Fatalf("job reason = %q", q.jobs[0].Reason)
	}
	doc, err := docs.GetByHash(ctx, ingest.Fingerprint(body))
	if err != nil || doc.ID != q.jobs[0].DocumentID {
		t.Fatalf("queued id does not match stored document: %v, %v", doc, err)
	}
}

func TestScanTenByteBinary(t *testing.T) {
	ctx := context.Background()
	q := &recordingQueue{}
	svc, _ := newService(t, q)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "scan.pdf"), []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, 0o644); err != nil {
		t.Fatal(err)
	}
	summary, _, err := svc.Scan(ctx, dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if summary.Scanned != 1 || summary.New != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestIngestDuplicateInsertRaceIsDeduplicated(t *testing.T) {
	ctx := context.Background()
	q := &recordingQueue{}
	logger := repotest.DiscardLogger()
	docs := repository.NewDocumentRepository(repotest.Open(t), logger)

	c := ingest.Candidate{Name: "a.pdf", SourcePath: "/x/a.pdf", Content: []byte("x"), Size: 1, ContentHash: ingest.Fingerprint([]byte("x"))}
	// the losing ingestor already passed its existence check when the winner inserts
	racer := ingest.NewDedupIngestor(&staleLookup{DocumentRepository: docs}, q, logger)
	first, err := ingest.NewDedupIngestor(docs, q, logger).Ingest(ctx, c)
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	r, err := racer.Ingest(ctx, c)
	if err != nil {
		t.Fatalf("racing ingest: %v", err)
	}
	if !r.Deduplicated {
		t.Fatalf("racing ingest should report a duplicate")
	}
	if r.DocumentID != first.DocumentID {
		t.Fatalf("racing ingest reported %s, want winner %s", r.DocumentID, first.DocumentID)
	}
	if len(q.jobs) != 1 {
		t.Fatalf("enqueued %d jobs, want 1", len(q.jobs))
	}
}

// staleLookup answers "not stored" once, like a check that ran before a concurrent insert.
type staleLookup struct {
	repository.DocumentRepository
	asked bool
}

func (s *staleLookup) GetByHash(ctx context.Context, hash string) (*entity.Document, error) {
	if !s.asked {
		s.asked = true
		return nil, common.NotFoundf("document with hash %s", hash)
	}
	return s.DocumentRepository.GetByHash(ctx, hash)
}

func TestScanCountsFailedIngests(t *testing.T) {
	ctx := context.Background()
	q := &recordingQueue{err: common.ErrQueueClosed}
	svc, _ := newService(t, q)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}
	summary, results, err := svc.Scan(ctx, dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if summary.Scanned != 2 || summary.Failed != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	for _, r := range results {
		if r.Err == "" {
			t.Fatalf("expected per-file error in %+v", r)
		}
	}
}

func TestScanPropagatesEnumerationFailure(t *testing.T) {
	svc, _ := newService(t, &recordingQueue{})
	file := filepath.Join(t.TempDir(), "file.pdf")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Scan(context.Background(), file); !errors.Is(err, common.ErrEnumeration) {
		t.Fatalf("Scan error = %v, want ErrEnumeration", err)
	}
}
