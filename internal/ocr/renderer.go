package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/BohdanGlowacki/UGODY/internal/common"
)

func init() {
	// keep pdfcpu from creating a config dir under $HOME
	api.DisableConfigDir()
}

// PopplerRenderer counts pages with pdfcpu and rasterizes them with pdftoppm.
type PopplerRenderer struct {
	bin    string
	runner Runner
	logger *slog.Logger
}

func NewPopplerRenderer(cfg Config, runner Runner, logger *slog.Logger) *PopplerRenderer {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = NewExecRunner(logger)
	}
	return &PopplerRenderer{bin: cfg.Pdftoppm, runner: runner, logger: logger}
}

func (r *PopplerRenderer) PageCount(ctx context.Context, content []byte) (n int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			n, err = 0, fmt.Errorf("page count: %v", rec)
		}
	}()
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err = api.PageCount(bytes.NewReader(content), conf)
	if err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	return n, nil
}

// RenderPage writes page index+1 as a PNG at the given DPI.
func (r *PopplerRenderer) RenderPage(ctx context.Context, content []byte, index, dpi int) ([]byte, error) {
	dir, err := os.MkdirTemp("", "ugody-render-*")
	if err != nil {
		return nil, fmt.Errorf("%w: temp dir: %v", common.ErrTransientIO, err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(in, content, 0o600); err != nil {
		return nil, fmt.Errorf("%w: write pdf: %v", common.ErrTransientIO, err)
	}
	prefix := filepath.Join(dir, "page")
	page := strconv.Itoa(index + 1)

	// pdftoppm -f N -l N -r DPI -png -singlefile in.pdf prefix => prefix.png
	_, errb, err := r.runner.Run(ctx, r.bin, "-f", page, "-l", page, "-r", strconv.Itoa(dpi), "-png", "-singlefile", in, prefix)
	if err != nil {
		return nil, execError("pdftoppm", err, errb)
	}
	img, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("%w: read rendered page %s: %v", common.ErrTransientIO, page, err)
	}
	return img, nil
}
