package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/BohdanGlowacki/UGODY/internal/bootstrap"
	"github.com/BohdanGlowacki/UGODY/internal/common"
	"github.com/BohdanGlowacki/UGODY/internal/ingest"
	"github.com/BohdanGlowacki/UGODY/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

type report struct {
	Scan      ingest.ScanSummary  `json:"scan"`
	Drain     pipeline.DrainStats `json:"drain"`
	Recovered int                 `json:"recovered"`
	Export    string              `json:"export,omitempty"`
}

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config (defaults to $UGODY_CONFIG)")
		inmem      = flag.Bool("inmem", false, "use in-memory SQLite database")
		dir        = flag.String("dir", "", "directory to scan (defaults to scan.directory)")
		out        = flag.String("out", "", "write an XLSX report of all documents to this path")
	)
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	if *inmem {
		cfg.Database.Driver = common.DriverSQLite
		cfg.Database.DSN = "file:ugody-batch?mode=memory&cache=shared&_pragma=foreign_keys(1)&_time_format=sqlite"
	}
	if *dir != "" {
		cfg.Scan.Directory = *dir
	}
	if cfg.Scan.Directory == "" {
		printError("Error: --dir is required when scan.directory is not configured\n")
		os.Exit(1)
	}

	logger := common.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := run(ctx, cfg, *out, logger)
	if err != nil {
		logger.Error("batch failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		printError("Error: encode report: %v\n", err)
		os.Exit(1)
	}
	if rep.Drain.Failed > 0 {
		os.Exit(3)
	}
}

func run(ctx context.Context, cfg *common.Config, out string, logger *slog.Logger) (report, error) {
	var rep report

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return rep, err
	}
	defer app.Close()

	if rep.Recovered, err = app.Recover(ctx); err != nil {
		return rep, err
	}
	if rep.Scan, err = app.Documents.Scan(ctx, cfg.Scan.Directory); err != nil {
		return rep, err
	}
	if rep.Drain, err = app.Worker.Drain(ctx); err != nil {
		return rep, err
	}

	if out != "" {
		b, err := app.Export.DocumentsXLSX(ctx)
		if err != nil {
			return rep, err
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return rep, fmt.Errorf("create output dir: %w", err)
		}
		if err := os.WriteFile(out, b, 0o644); err != nil {
			return rep, fmt.Errorf("write xlsx: %w", err)
		}
		logger.Info("wrote export", "file", out, "bytes", len(b))
		rep.Export = out
	}
	return rep, nil
}
