package ingest

import (
	"context"
	"log/slog"
	"time"
)

// Service runs a scan and feeds every candidate through the ingestor.
type Service struct {
	scanner  *Scanner
	ingestor Ingestor
	logger   *slog.Logger
}

func NewService(scanner *Scanner, ing Ingestor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{scanner: scanner, ingestor: ing, logger: logger}
}

// Scan ingests the PDFs in dir. Enumeration failures are returned;
// per-file failures are counted in the summary.
func (s *Service) Scan(ctx context.Context, dir string) (ScanSummary, []IngestionResult, error) {
	start := time.Now()
	summary := ScanSummary{Directory: dir}

	s.logger.Info("starting directory scan", "dir", dir)
	candidates, err := s.scanner.Scan(ctx, dir)
	if err != nil {
		return summary, nil, err
	}

	results := make([]IngestionResult, 0, len(candidates))
	for _, c := range candidates {
		summary.Scanned++
		r, err := s.ingestor.Ingest(ctx, c)
		if err != nil {
			s.logger.Error("ingest failed", "path", c.SourcePath, "error", err)
			r.Err = err.Error()
			summary.Failed++
			results = append(results, r)
			continue
		}
		if r.Deduplicated {
			summary.Deduplicated++
		} else {
			summary.New++
		}
		results = append(results, r)
	}

	s.logger.Info("directory scan completed",
		"dir", dir,
		"scanned", summary.Scanned,
		"new", summary.New,
		"deduplicated", summary.Deduplicated,
		"failed", summary.Failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return summary, results, nil
}
