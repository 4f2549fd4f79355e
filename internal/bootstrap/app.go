// Package bootstrap wires configuration into the store, queue, extractor and
// services shared by every binary.
package bootstrap

import (
	"context"
	"log/slog"

	"github.com/BohdanGlowacki/UGODY/internal/async"
	"github.com/BohdanGlowacki/UGODY/internal/common"
	"github.com/BohdanGlowacki/UGODY/internal/export"
	"github.com/BohdanGlowacki/UGODY/internal/ingest"
	"github.com/BohdanGlowacki/UGODY/internal/ocr"
	"github.com/BohdanGlowacki/UGODY/internal/pipeline"
	"github.com/BohdanGlowacki/UGODY/internal/repository"
	"github.com/BohdanGlowacki/UGODY/internal/services/documents"
)

type App struct {
	Config *common.Config
	Logger *slog.Logger

	DB      *repository.DB
	Docs    repository.DocumentRepository
	Results repository.ExtractionResultRepository
	Queue   *async.FIFO

	Ingest    *ingest.Service
	Extractor *ocr.Extractor
	Processor *pipeline.Processor
	Worker    *pipeline.Worker
	Documents *documents.Service
	Export    *export.Service
}

// OpenStore opens the configured database and applies the schema.
func OpenStore(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repository.DB, error) {
	db, err := repository.Open(ctx, repository.ConfigFrom(cfg), logger)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(ctx, db, logger); err != nil {
		repository.Close(db, logger)
		return nil, err
	}
	return db, nil
}

// NewExtractor builds the text-layer-then-OCR extractor for the configured engine.
func NewExtractor(cfg common.OCRConfig, logger *slog.Logger) (*ocr.Extractor, error) {
	oc := ocr.ConfigFrom(cfg)
	runner := ocr.NewExecRunner(logger)
	engine, err := ocr.NewEngine(cfg.Engine, oc, runner, logger)
	if err != nil {
		return nil, err
	}
	return ocr.NewExtractor(oc,
		ocr.NewPDFTextParser(logger),
		ocr.NewPopplerRenderer(oc, runner, logger),
		engine,
		logger,
	), nil
}

// New assembles the application. Callers own Close.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	extractor, err := NewExtractor(cfg.OCR, logger.With("component", "ocr"))
	if err != nil {
		return nil, err
	}
	db, err := OpenStore(ctx, cfg.Database, logger.With("component", "repository"))
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, DB: db, Extractor: extractor}
	a.Docs = repository.NewDocumentRepository(db, logger)
	a.Results = repository.NewExtractionResultRepository(db, logger)
	a.Queue = async.NewFIFO(logger.With("component", "queue"))

	a.Ingest = ingest.NewService(
		ingest.NewScanner(cfg.Scan.SkipHidden, logger),
		ingest.NewDedupIngestor(a.Docs, a.Queue, logger),
		logger.With("component", "ingest"),
	)
	a.Processor = pipeline.NewProcessor(a.Docs, a.Results, extractor, logger.With("component", "processor"))
	a.Worker = pipeline.NewWorker(a.Processor, a.Queue, logger.With("component", "worker"),
		pipeline.WithPollInterval(cfg.Worker.PollInterval),
		pipeline.WithProcessTimeout(cfg.Worker.ProcessTimeout),
	)
	a.Documents = documents.NewService(a.Ingest, a.Docs, a.Results, a.Queue, cfg.Scan.Directory, logger)
	a.Export = export.NewService(a.Docs, a.Results, logger.With("component", "export"))
	return a, nil
}

// Recover re-queues unfinished documents when enabled in config.
func (a *App) Recover(ctx context.Context) (int, error) {
	if !a.Config.Worker.RecoverOnStart {
		return 0, nil
	}
	n, err := pipeline.Recover(ctx, a.Results, a.Queue)
	if err != nil {
		return n, err
	}
	if n > 0 {
		a.Logger.Info("recovered unfinished documents", "count", n)
	}
	return n, nil
}

func (a *App) Close() {
	a.Queue.Close()
	repository.Close(a.DB, a.Logger)
}
