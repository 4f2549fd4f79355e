package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document is an ingested PDF. Rows are immutable once stored.
// Content is only populated by the ingest path and content lookups.
type Document struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	SourcePath  string    `json:"source_path"`
	Content     []byte    `json:"-"`
	Size        int64     `json:"size"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
	ModifiedAt  time.Time `json:"modified_at"`
	IngestedAt  time.Time `json:"ingested_at"`
}
