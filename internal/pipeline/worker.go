package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BohdanGlowacki/UGODY/constants"
	"github.com/BohdanGlowacki/UGODY/internal/async"
	"github.com/BohdanGlowacki/UGODY/internal/common"
	"github.com/BohdanGlowacki/UGODY/internal/entity"
)

// JobSource is the consumer side of the queue. *async.FIFO satisfies it.
type JobSource interface {
	TryDequeue() (async.Job, bool)
	Ready() <-chan struct{}
}

// Worker is the single consumer of the extraction queue.
type Worker struct {
	proc         *Processor
	queue        JobSource
	logger       *slog.Logger
	pollInterval time.Duration
	timeout      time.Duration
}

type Option func(*Worker)

func WithPollInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.timeout = d
		}
	}
}

func NewWorker(proc *Processor, queue JobSource, logger *slog.Logger, opts ...Option) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Worker{
		proc:         proc,
		queue:        queue,
		logger:       logger,
		pollInterval: time.Second,
		timeout:      3 * time.Minute,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Run consumes jobs until ctx is done. Job errors never stop the loop.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started", "poll_interval", w.pollInterval, "process_timeout", w.timeout)
	defer w.logger.Info("worker stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}
		job, ok := w.queue.TryDequeue()
		if !ok {
			if !w.wait(ctx) {
				return nil
			}
			continue
		}
		_, _ = w.handle(ctx, job)
	}
}

// wait blocks until work may be available. It returns false once ctx is done.
func (w *Worker) wait(ctx context.Context) bool {
	timer := time.NewTimer(w.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-w.queue.Ready():
	case <-timer.C:
	}
	return true
}

// DrainStats counts outcomes of a Drain call.
type DrainStats struct {
	Processed int `json:"processed"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Drain processes queued jobs until the queue is empty.
func (w *Worker) Drain(ctx context.Context) (DrainStats, error) {
	var stats DrainStats
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		job, ok := w.queue.TryDequeue()
		if !ok {
			w.logger.Info("queue drained",
				"processed", stats.Processed,
				"completed", stats.Completed,
				"failed", stats.Failed,
				"skipped", stats.Skipped,
			)
			return stats, nil
		}

		res, err := w.handle(ctx, job)
		stats.Processed++
		switch {
		case err == nil && res != nil && res.Status == constants.StatusCompleted:
			stats.Completed++
		case errors.Is(err, common.ErrNotFound):
			stats.Skipped++
		case errors.Is(ctx.Err(), context.Canceled):
			return stats, ctx.Err()
		default:
			stats.Failed++
		}
	}
}

func (w *Worker) handle(ctx context.Context, job async.Job) (res *entity.ExtractionResult, err error) {
	jctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	jctx = common.WithRequestID(jctx, job.TraceID)
	logger := common.LoggerFor(jctx, w.logger).With("document_id", job.DocumentID, "reason", job.Reason)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing: %v", r)
			logger.Error("job panicked", "panic", r)
			if ferr := w.proc.MarkFailed(context.WithoutCancel(jctx), job.DocumentID, err); ferr != nil {
				logger.Error("failed to record panic", "error", ferr)
			}
		}
	}()

	start := time.Now()
	res, err = w.proc.ProcessDocument(jctx, job.DocumentID)
	if err != nil {
		logger.Error("processing failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return res, err
	}
	logger.Info("processed document", "status", res.Status, "duration_ms", time.Since(start).Milliseconds())
	return res, nil
}
