package server_test

import (
	"context"
	"encoding/base64"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BohdanGlowacki/UGODY/constants"
	"github.com/BohdanGlowacki/UGODY/internal/async"
	"github.com/BohdanGlowacki/UGODY/internal/entity"
	"github.com/BohdanGlowacki/UGODY/internal/ingest"
	"github.com/BohdanGlowacki/UGODY/internal/repository"
	"github.com/BohdanGlowacki/UGODY/internal/repository/repotest"
	"github.com/BohdanGlowacki/UGODY/internal/server"
	"github.com/BohdanGlowacki/UGODY/internal/services/documents"
)

type harness struct {
	conn    *grpc.ClientConn
	client  *server.PipelineClient
	docs    repository.DocumentRepository
	results repository.ExtractionResultRepository
	queue   *async.FIFO
	dir     string
}

func start(t *testing.T) *harness {
	t.Helper()
	logger := repotest.DiscardLogger()
	db := repotest.Open(t)
	h := &harness{
		docs:    repository.NewDocumentRepository(db, logger),
		results: repository.NewExtractionResultRepository(db, logger),
		queue:   async.NewFIFO(logger),
		dir:     t.TempDir(),
	}
	scan := ingest.NewService(ingest.NewScanner(false, logger), ingest.NewDedupIngestor(h.docs, h.queue, logger), logger)
	svc := documents.NewService(scan, h.docs, h.results, h.queue, h.dir, logger)

	lis := bufconn.Listen(1 << 20)
	gs, _ := server.New(svc, logger)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	h.conn = conn
	h.client = server.NewPipelineClient(conn)
	return h
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func (h *harness) addDocument(t *testing.T, body string) *entity.Document {
	t.Helper()
	now := time.Now().UTC()
	doc, err := h.docs.Create(context.Background(), &entity.Document{
		Name: body + ".pdf", SourcePath: "/in/" + body + ".pdf", Content: []byte(body),
		Size: int64(len(body)), ContentHash: ingest.Fingerprint([]byte(body)), CreatedAt: now, ModifiedAt: now,
	})
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestHealth(t *testing.T) {
	h := start(t)
	resp, err := healthpb.NewHealthClient(h.conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: server.ServiceName})
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v", resp.GetStatus())
	}
}

func TestScanUsesConfiguredDirectory(t *testing.T) {
	h := start(t)
	writeFile(t, h.dir, "a.pdf", "%PDF-1.4 one")
	writeFile(t, h.dir, "b.pdf", "%PDF-1.4 one")
	writeFile(t, h.dir, "notes.txt", "ignored")

	var header metadata.MD
	ctx := metadata.AppendToOutgoingContext(context.Background(), server.RequestIDHeader, "req-42")
	out, err := h.client.Scan(ctx, mustStruct(t, map[string]any{}), grpc.Header(&header))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	f := out.GetFields()
	if f["scanned"].GetNumberValue() != 2 || f["new"].GetNumberValue() != 1 || f["deduplicated"].GetNumberValue() != 1 {
		t.Errorf("response = %v", out)
	}
	if got := header.Get(server.RequestIDHeader); len(got) != 1 || got[0] != "req-42" {
		t.Errorf("request id header = %v", got)
	}
	if h.queue.Len() != 1 {
		t.Errorf("queue len = %d, want 1", h.queue.Len())
	}
}

func TestEnqueueAndGetResultErrors(t *testing.T) {
	h := start(t)
	ctx := context.Background()

	cases := []struct {
		name string
		call func(context.Context, *structpb.Struct, ...grpc.CallOption) (*structpb.Struct, error)
		req  map[string]any
		code codes.Code
	}{
		{"enqueue missing id", h.client.Enqueue, map[string]any{}, codes.InvalidArgument},
		{"enqueue malformed id", h.client.Enqueue, map[string]any{"document_id": "x"}, codes.InvalidArgument},
		{"enqueue unknown", h.client.Enqueue, map[string]any{"document_id": uuid.NewString()}, codes.NotFound},
		{"result unknown", h.client.GetResult, map[string]any{"document_id": uuid.NewString()}, codes.NotFound},
		{"document missing id", h.client.GetDocument, map[string]any{}, codes.InvalidArgument},
		{"document unknown", h.client.GetDocument, map[string]any{"document_id": uuid.NewString()}, codes.NotFound},
		{"content unknown", h.client.GetContent, map[string]any{"document_id": uuid.NewString()}, codes.NotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.call(ctx, mustStruct(t, tc.req))
			if got := status.Code(err); got != tc.code {
				t.Fatalf("code = %v, want %v (err %v)", got, tc.code, err)
			}
		})
	}
}

func TestGetResultAndList(t *testing.T) {
	h := start(t)
	ctx := context.Background()
	doc := h.addDocument(t, "invoice")
	h.addDocument(t, "other")

	out, err := h.client.GetResult(ctx, mustStruct(t, map[string]any{"document_id": doc.ID.String()}))
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if _, isNull := out.GetFields()["result"].GetKind().(*structpb.Value_NullValue); !isNull {
		t.Errorf("result = %v, want null", out.GetFields()["result"])
	}

	conf := 95.0
	if err := h.results.Upsert(ctx, &entity.ExtractionResult{
		DocumentID: doc.ID, Status: constants.StatusCompleted, Text: "Faktura", Confidence: &conf, Method: constants.MethodPDFText, Pages: 1,
	}); err != nil {
		t.Fatal(err)
	}
	out, err = h.client.GetResult(ctx, mustStruct(t, map[string]any{"document_id": doc.ID.String()}))
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	res := out.GetFields()["result"].GetStructValue().GetFields()
	if res["status"].GetStringValue() != "COMPLETED" || res["text"].GetStringValue() != "Faktura" || res["confidence"].GetNumberValue() != 95 {
		t.Errorf("result = %v", res)
	}
	if !res["terminal"].GetBoolValue() {
		t.Errorf("completed result should be terminal: %v", res)
	}

	if _, err := h.client.Enqueue(ctx, mustStruct(t, map[string]any{"document_id": doc.ID.String()})); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	list, err := h.client.ListDocuments(ctx, mustStruct(t, map[string]any{"limit": 1}))
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if got := list.GetFields()["total"].GetNumberValue(); got != 2 {
		t.Errorf("total = %v, want 2", got)
	}
	if got := len(list.GetFields()["documents"].GetListValue().GetValues()); got != 1 {
		t.Errorf("documents = %d, want 1", got)
	}
}

func TestGetDocumentContentAndStats(t *testing.T) {
	h := start(t)
	ctx := context.Background()
	doc := h.addDocument(t, "invoice")
	h.addDocument(t, "other")
	if err := h.results.Upsert(ctx, &entity.ExtractionResult{
		DocumentID: doc.ID, Status: constants.StatusFailed, Method: constants.MethodPDFOCR,
	}); err != nil {
		t.Fatal(err)
	}
	req := mustStruct(t, map[string]any{"document_id": doc.ID.String()})

	out, err := h.client.GetDocument(ctx, req)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	d := out.GetFields()["document"].GetStructValue().GetFields()
	if d["id"].GetStringValue() != doc.ID.String() || d["name"].GetStringValue() != "invoice.pdf" || d["content_hash"].GetStringValue() != doc.ContentHash {
		t.Errorf("document = %v", d)
	}
	if got := out.GetFields()["result"].GetStructValue().GetFields()["status"].GetStringValue(); got != "FAILED" {
		t.Errorf("result status = %q, want FAILED", got)
	}

	out, err = h.client.GetContent(ctx, req)
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(out.GetFields()["content_base64"].GetStringValue())
	if err != nil || string(raw) != "invoice" {
		t.Errorf("content = %q, %v", raw, err)
	}
	if got := out.GetFields()["size"].GetNumberValue(); got != 7 {
		t.Errorf("size = %v, want 7", got)
	}

	out, err = h.client.GetStats(ctx, mustStruct(t, map[string]any{}))
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	f := out.GetFields()
	if f["FAILED"].GetNumberValue() != 1 || f["COMPLETED"].GetNumberValue() != 0 || f["PENDING"].GetNumberValue() != 0 {
		t.Errorf("stats = %v", out)
	}
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}
