package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/BohdanGlowacki/UGODY/constants"
)

// ExtractionResult is the latest extraction outcome for a document.
// It is keyed by DocumentID and updated in place on every attempt.
type ExtractionResult struct {
	ID           uuid.UUID                  `json:"id"`
	DocumentID   uuid.UUID                  `json:"document_id"`
	Text         string                     `json:"text"`
	Confidence   *float64                   `json:"confidence,omitempty"`
	Status       constants.ProcessingStatus `json:"status"`
	ErrorMessage *string                    `json:"error_message,omitempty"`
	Method       string                     `json:"method,omitempty"`
	Pages        int                        `json:"pages"`
	ProcessedAt  time.Time                  `json:"processed_at"`
}

// IsCompleted reports whether the result short-circuits further extraction.
func (r *ExtractionResult) IsCompleted() bool {
	return r != nil && r.Status == constants.StatusCompleted
}
