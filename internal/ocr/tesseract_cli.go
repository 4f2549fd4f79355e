package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BohdanGlowacki/UGODY/internal/common"
)

func init() {
	RegisterEngine(common.EngineTesseractCLI, func(cfg Config, runner Runner, logger *slog.Logger) (Engine, error) {
		return NewTesseractCLI(cfg, runner, logger), nil
	})
}

// TesseractCLI recognizes page images by shelling out to tesseract.
type TesseractCLI struct {
	bin         string
	tessdataDir string
	psm         int
	dpi         int
	runner      Runner
	logger      *slog.Logger
}

func NewTesseractCLI(cfg Config, runner Runner, logger *slog.Logger) *TesseractCLI {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = NewExecRunner(logger)
	}
	return &TesseractCLI{
		bin:         cfg.Tesseract,
		tessdataDir: cfg.TessdataDir,
		psm:         cfg.PSM,
		dpi:         cfg.DPI,
		runner:      runner,
		logger:      logger,
	}
}

// Preflight checks the tessdata directory when one is configured, otherwise
// asks tesseract which languages it has installed.
func (t *TesseractCLI) Preflight(languages []string) error {
	if t.tessdataDir != "" {
		return CheckLanguageData(t.tessdataDir, languages)
	}
	out, errb, err := t.runner.Run(context.Background(), t.bin, "--list-langs")
	if err != nil {
		return execError("tesseract", err, errb)
	}
	// older builds print the listing on stderr
	return checkInstalledLanguages(string(out)+"\n"+string(errb), languages)
}

func (t *TesseractCLI) Recognize(ctx context.Context, image []byte, languages []string) (PageText, error) {
	dir, err := os.MkdirTemp("", "ugody-ocr-*")
	if err != nil {
		return PageText{}, fmt.Errorf("%w: temp dir: %v", common.ErrTransientIO, err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "page.png")
	if err := os.WriteFile(path, image, 0o600); err != nil {
		return PageText{}, fmt.Errorf("%w: write page image: %v", common.ErrTransientIO, err)
	}

	lang := LanguageSpec(languages)
	txt, err := t.text(ctx, path, lang)
	if err != nil {
		return PageText{}, err
	}
	if strings.TrimSpace(txt) == "" {
		return PageText{}, nil
	}
	conf, err := t.tsvConfidence(ctx, path, lang)
	if err != nil {
		t.logger.Warn("tesseract confidence unavailable", "error", err)
	}
	return PageText{Text: txt, Confidence: conf}, nil
}

func (t *TesseractCLI) args(path, lang string) []string {
	args := []string{path, "stdout", "-l", lang, "--dpi", strconv.Itoa(t.dpi)}
	if t.psm > 0 {
		args = append(args, "--psm", strconv.Itoa(t.psm))
	}
	if t.tessdataDir != "" {
		args = append(args, "--tessdata-dir", t.tessdataDir)
	}
	return args
}

// tesseract <file> stdout -l <lang>
func (t *TesseractCLI) text(ctx context.Context, path, lang string) (string, error) {
	out, errb, err := t.runner.Run(ctx, t.bin, t.args(path, lang)...)
	if err != nil {
		return "", execError("tesseract", err, errb)
	}
	return string(out), nil
}

// tsvConfidence runs tesseract in TSV mode and returns the mean word conf in 0..100.
func (t *TesseractCLI) tsvConfidence(ctx context.Context, path, lang string) (float64, error) {
	args := append(t.args(path, lang), "tsv")
	out, errb, err := t.runner.Run(ctx, t.bin, args...)
	if err != nil {
		return 0, execError("tesseract TSV", err, errb)
	}
	return parseTSVConfidence(string(out)), nil
}

// parseTSVConfidence averages the conf column (11th) over recognized words.
// Rows with conf -1 are layout rows, not words.
func parseTSVConfidence(tsv string) float64 {
	var sum, n float64
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || len(ln) == 0 {
			continue
		} // skip header
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := strings.TrimSpace(cols[10])
		if confStr == "" || confStr == "-1" || strings.TrimSpace(cols[11]) == "" {
			continue
		}
		if v, err := strconv.ParseFloat(confStr, 64); err == nil && v >= 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}
