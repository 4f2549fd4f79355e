//go:build gosseract

package tesseract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/otiai10/gosseract/v2"

	"github.com/BohdanGlowacki/UGODY/internal/common"
	"github.com/BohdanGlowacki/UGODY/internal/ocr"
)

func init() {
	ocr.RegisterEngine(common.EngineGosseract, func(cfg ocr.Config, _ ocr.Runner, logger *slog.Logger) (ocr.Engine, error) {
		return New(cfg, logger), nil
	})
}

// Engine runs libtesseract in process. A fresh client is used per page.
type Engine struct {
	tessdataDir string
	dpi         int
	psm         int
	logger      *slog.Logger
}

func New(cfg ocr.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{tessdataDir: cfg.TessdataDir, dpi: cfg.DPI, psm: cfg.PSM, logger: logger}
}

// availableLanguages is swapped in tests.
var availableLanguages = gosseract.GetAvailableLanguages

func (e *Engine) Preflight(languages []string) error {
	if e.tessdataDir != "" {
		return ocr.CheckLanguageData(e.tessdataDir, languages)
	}
	if len(languages) == 0 {
		return common.ConfigurationFaultf("no OCR languages configured")
	}
	installed, err := availableLanguages()
	if err != nil {
		return common.ConfigurationFaultf("list libtesseract languages: %v", err)
	}
	return ocr.CheckInstalledLanguages(installed, languages)
}

func (e *Engine) Recognize(ctx context.Context, image []byte, languages []string) (ocr.PageText, error) {
	if err := ctx.Err(); err != nil {
		return ocr.PageText{}, err
	}

	c := gosseract.NewClient()
	defer c.Close()

	if e.tessdataDir != "" {
		c.TessdataPrefix = e.tessdataDir
	}
	if err := c.SetLanguage(languages...); err != nil {
		return ocr.PageText{}, common.ConfigurationFaultf("set language %s: %v", ocr.LanguageSpec(languages), err)
	}
	if e.dpi > 0 {
		_ = c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(e.dpi))
	}
	if e.psm > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(e.psm)); err != nil {
			e.logger.Warn("page segmentation mode rejected", "psm", e.psm, "error", err)
		}
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return ocr.PageText{}, fmt.Errorf("%w: load page image: %v", common.ErrTransientIO, err)
	}

	txt, err := c.Text()
	if err != nil {
		return ocr.PageText{}, recognizeError(err)
	}

	var conf float64
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err == nil && len(boxes) > 0 {
		var sum float64
		for _, b := range boxes {
			sum += b.Confidence
		}
		conf = sum / float64(len(boxes))
	}
	return ocr.PageText{Text: txt, Confidence: conf}, nil
}
