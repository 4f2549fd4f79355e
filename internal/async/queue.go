package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BohdanGlowacki/UGODY/internal/common"
)

// Why a document was queued.
const (
	ReasonIngest   = "ingest"
	ReasonManual   = "manual"
	ReasonRecovery = "recovery"
)

// Job is one document awaiting extraction.
type Job struct {
	DocumentID  uuid.UUID
	Reason      string
	SubmittedAt time.Time
	TraceID     string
}

// Queue is the producer-side handle handed to ingestion and manual reprocessing.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

// FIFO is an unbounded, ordered queue with a single logical consumer.
// Entries are not deduplicated and live only in memory.
type FIFO struct {
	logger *slog.Logger

	mu     sync.Mutex
	items  []Job
	closed bool

	ready chan struct{} // cap 1; signalled on enqueue and close
}

func NewFIFO(logger *slog.Logger) *FIFO {
	if logger == nil {
		logger = slog.Default()
	}
	return &FIFO{
		logger: logger,
		ready:  make(chan struct{}, 1),
	}
}

func (q *FIFO) Enqueue(_ context.Context, job Job) error {
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now().UTC()
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("cannot enqueue: queue is shutting down", "document_id", job.DocumentID)
		return common.ErrQueueClosed
	}
	q.items = append(q.items, job)
	depth := len(q.items)
	q.mu.Unlock()

	q.signal()
	q.logger.Info("queued document for extraction", "document_id", job.DocumentID, "reason", job.Reason, "depth", depth)
	return nil
}

// TryDequeue pops the oldest job without blocking.
func (q *FIFO) TryDequeue() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Job{}, false
	}
	job := q.items[0]
	q.items[0] = Job{}
	q.items = q.items[1:]
	if len(q.items) == 0 {
		// drop the backing array once drained so it does not grow forever
		q.items = nil
	}
	return job, true
}

// Ready is signalled whenever work may be available.
func (q *FIFO) Ready() <-chan struct{} {
	return q.ready
}

func (q *FIFO) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close rejects further enqueues. Jobs already queued can still be dequeued.
func (q *FIFO) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	remaining := len(q.items)
	q.mu.Unlock()

	q.signal()
	q.logger.Info("queue closed", "remaining", remaining)
}

func (q *FIFO) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
