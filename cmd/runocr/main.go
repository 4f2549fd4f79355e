package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BohdanGlowacki/UGODY/constants"
	"github.com/BohdanGlowacki/UGODY/internal/bootstrap"
	"github.com/BohdanGlowacki/UGODY/internal/common"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults to $UGODY_CONFIG)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: runocr [-config file] <document.pdf>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	// logs go to stderr so stdout stays machine readable
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: common.ParseLevel(cfg.Log.Level)}))
	slog.SetDefault(logger)

	if !constants.IsPDF(path) {
		logger.Error("not a pdf", "path", path)
		os.Exit(2)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}

	extractor, err := bootstrap.NewExtractor(cfg.OCR, logger)
	if err != nil {
		logger.Error("build extractor", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Worker.ProcessTimeout)
	defer cancel()

	res, err := extractor.Extract(ctx, content)
	if err != nil {
		logger.Error("text extraction failed", "path", path, "error", err, "duration_ms", res.Duration.Milliseconds())
		os.Exit(1)
	}

	out := map[string]any{
		"file":            path,
		"method":          res.Method,
		"confidence":      res.Confidence,
		"pages":           res.Pages,
		"pages_with_text": res.PagesWithText,
		"duration_ms":     res.Duration.Milliseconds(),
		"warnings":        res.Warnings,
		"text":            strings.TrimSpace(res.Text),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}
