package server

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BohdanGlowacki/UGODY/constants"
	"github.com/BohdanGlowacki/UGODY/internal/common"
	"github.com/BohdanGlowacki/UGODY/internal/entity"
	"github.com/BohdanGlowacki/UGODY/internal/services/documents"
)

type PipelineService struct {
	svc    *documents.Service
	logger *slog.Logger
}

func NewPipelineService(svc *documents.Service, logger *slog.Logger) *PipelineService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PipelineService{svc: svc, logger: logger}
}

// Scan: {"directory"?: string} -> {"directory","scanned","new","deduplicated","failed"}
func (s *PipelineService) Scan(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	summary, err := s.svc.Scan(ctx, stringField(req, "directory"))
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(map[string]any{
		"directory":    summary.Directory,
		"scanned":      summary.Scanned,
		"new":          summary.New,
		"deduplicated": summary.Deduplicated,
		"failed":       summary.Failed,
	})
}

// Enqueue: {"document_id": string} -> {"document_id","queued"}
func (s *PipelineService) Enqueue(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "document_id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "document_id is required")
	}
	if err := s.svc.Enqueue(ctx, id); err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(map[string]any{"document_id": id, "queued": true})
}

// GetResult: {"document_id": string} -> {"document_id","result": null | {...}}
func (s *PipelineService) GetResult(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "document_id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "document_id is required")
	}
	res, err := s.svc.GetResult(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	out := map[string]any{"document_id": id, "result": nil}
	if res != nil {
		out["result"] = resultFields(res)
	}
	return toStruct(out)
}

// ListDocuments: {"offset"?: number, "limit"?: number} -> {"total","documents": [...]}
func (s *PipelineService) ListDocuments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	page, total, err := s.svc.List(ctx, intField(req, "offset"), intField(req, "limit"))
	if err != nil {
		return nil, common.ToStatus(err)
	}
	docs := make([]any, 0, len(page))
	for _, p := range page {
		d := documentFields(p.Document)
		d["status"] = nil
		if p.Result != nil {
			d["status"] = p.Result.Status.String()
		}
		docs = append(docs, d)
	}
	return toStruct(map[string]any{"total": total, "documents": docs})
}

// GetDocument: {"document_id": string} -> {"document": {...}, "result": null | {...}}
func (s *PipelineService) GetDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "document_id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "document_id is required")
	}
	doc, err := s.svc.GetDocument(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	res, err := s.svc.GetResult(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	out := map[string]any{"document": documentFields(doc), "result": nil}
	if res != nil {
		out["result"] = resultFields(res)
	}
	return toStruct(out)
}

// GetContent: {"document_id": string} -> {"document_id","size","content_base64"}
func (s *PipelineService) GetContent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "document_id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "document_id is required")
	}
	content, err := s.svc.GetContent(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(map[string]any{
		"document_id":    id,
		"size":           len(content),
		"content_base64": base64.StdEncoding.EncodeToString(content),
	})
}

// GetStats: {} -> {"PENDING": n, "PROCESSING": n, "COMPLETED": n, "FAILED": n}
func (s *PipelineService) GetStats(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	counts, err := s.svc.Stats(ctx)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	out := make(map[string]any, len(constants.ProcessingStatuses))
	for _, st := range constants.ProcessingStatuses {
		out[st.String()] = counts[st]
	}
	return toStruct(out)
}

func documentFields(d *entity.Document) map[string]any {
	return map[string]any{
		"id":           d.ID.String(),
		"name":         d.Name,
		"source_path":  d.SourcePath,
		"size":         d.Size,
		"content_hash": d.ContentHash,
		"created_at":   d.CreatedAt.Format(time.RFC3339Nano),
		"modified_at":  d.ModifiedAt.Format(time.RFC3339Nano),
		"ingested_at":  d.IngestedAt.Format(time.RFC3339Nano),
	}
}

func resultFields(r *entity.ExtractionResult) map[string]any {
	out := map[string]any{
		"status":        r.Status.String(),
		"terminal":      r.Status.IsTerminal(),
		"text":          r.Text,
		"method":        r.Method,
		"pages":         r.Pages,
		"processed_at":  r.ProcessedAt.Format(time.RFC3339Nano),
		"confidence":    nil,
		"error_message": nil,
	}
	if r.Confidence != nil {
		out["confidence"] = *r.Confidence
	}
	if r.ErrorMessage != nil {
		out["error_message"] = *r.ErrorMessage
	}
	return out
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return st, nil
}

func stringField(req *structpb.Struct, key string) string {
	if req == nil {
		return ""
	}
	return strings.TrimSpace(req.GetFields()[key].GetStringValue())
}

func intField(req *structpb.Struct, key string) int {
	if req == nil {
		return 0
	}
	return int(req.GetFields()[key].GetNumberValue())
}
