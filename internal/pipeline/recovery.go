package pipeline

import (
	"context"
	"time"

	"github.com/BohdanGlowacki/UGODY/internal/async"
	"github.com/BohdanGlowacki/UGODY/internal/repository"
)

// Recover re-queues documents with no result or a Pending/Processing result.
// Failed documents are left alone.
func Recover(ctx context.Context, results repository.ExtractionResultRepository, queue async.Queue) (int, error) {
	ids, err := results.ListAwaitingExtraction(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		job := async.Job{DocumentID: id, Reason: async.ReasonRecovery, SubmittedAt: time.Now().UTC()}
		if err := queue.Enqueue(ctx, job); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
