package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Candidate is a file found by a scan, not yet persisted.
type Candidate struct {
	Name        string
	SourcePath  string
	Content     []byte
	Size        int64
	ContentHash string
	CreatedAt   time.Time
	ModifiedAt  time.Time
}

// IngestionResult is the per-candidate ingest outcome.
type IngestionResult struct {
	SourcePath   string
	DocumentID   uuid.UUID
	Deduplicated bool
	HashHex      string
	Err          string
}

// ScanSummary summarizes a directory scan.
type ScanSummary struct {
	Directory    string `json:"directory"`
	Scanned      int    `json:"scanned"`
	New          int    `json:"new"`
	Deduplicated int    `json:"deduplicated"`
	Failed       int    `json:"failed"`
}

// Ingestor is the behavior the service depends on.
type Ingestor interface {
	Ingest(ctx context.Context, c Candidate) (IngestionResult, error)
}
