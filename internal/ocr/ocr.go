package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BohdanGlowacki/UGODY/constants"
	"github.com/BohdanGlowacki/UGODY/internal/common"
)

const (
	// PageSeparator joins pages of the embedded text layer.
	PageSeparator = "\n\n"
	// PageBreak marks page boundaries in OCR output.
	PageBreak = "\n\f\n"
)

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Languages   []string // default pol+eng
	TessdataDir string   // directory holding <lang>.traineddata
	DPI         int      // rasterization DPI for scanned PDFs, default 300
	MaxPages    int      // 0 = no limit
	PSM         int      // tesseract page segmentation mode; 0 keeps the engine default

	MinTextLength        int     // runes the text layer needs before OCR is skipped, default 50
	DirectTextConfidence float64 // confidence reported for text-layer hits, default 95
}

func (c Config) withDefaults() Config {
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if len(c.Languages) == 0 {
		c.Languages = []string{"pol", "eng"}
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
	if c.MinTextLength <= 0 {
		c.MinTextLength = 50
	}
	if c.DirectTextConfidence <= 0 {
		c.DirectTextConfidence = 95.0
	}
	return c
}

// LanguageSpec renders languages the way tesseract expects them ("pol+eng").
func LanguageSpec(languages []string) string {
	return strings.Join(languages, "+")
}

// TextParser reads the embedded text layer, one string per page.
type TextParser interface {
	Pages(ctx context.Context, content []byte) ([]string, error)
}

// Renderer rasterizes PDF pages. index is zero-based.
type Renderer interface {
	PageCount(ctx context.Context, content []byte) (int, error)
	RenderPage(ctx context.Context, content []byte, index, dpi int) ([]byte, error)
}

// PageText is the OCR output for one page image. Confidence is 0..100.
type PageText struct {
	Text       string
	Confidence float64
}

// Engine recognizes text in page images.
type Engine interface {
	// Preflight fails with a configuration fault when language data is missing.
	Preflight(languages []string) error
	Recognize(ctx context.Context, image []byte, languages []string) (PageText, error)
}

type Result struct {
	Text          string
	Confidence    float64 // 0..100
	Method        string  // constants.MethodPDFText | constants.MethodPDFOCR
	Pages         int
	PagesWithText int
	Language      string
	Duration      time.Duration
	Warnings      []string
}

// Extractor tries the text layer first and falls back to per-page OCR.
type Extractor struct {
	cfg      Config
	parser   TextParser
	renderer Renderer
	engine   Engine
	logger   *slog.Logger
}

func NewExtractor(cfg Config, parser TextParser, renderer Renderer, engine Engine, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		cfg:      cfg.withDefaults(),
		parser:   parser,
		renderer: renderer,
		engine:   engine,
		logger:   logger,
	}
}

// Extract returns the document text and a 0..100 confidence.
// A document where no page yields text is a success with empty text.
func (e *Extractor) Extract(ctx context.Context, content []byte) (Result, error) {
	start := time.Now()
	e.logger.Debug("starting extraction", "bytes", len(content), "min_text_length", e.cfg.MinTextLength)

	res, ok := e.extractTextLayer(ctx, content)
	if ok {
		res.Duration = time.Since(start)
		e.logger.Info("text layer accepted", "pages", res.Pages, "chars", len(res.Text), "duration_ms", res.Duration.Milliseconds())
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	out, err := e.extractOCR(ctx, content)
	out.Warnings = append(res.Warnings, out.Warnings...)
	out.Duration = time.Since(start)
	if err != nil {
		return out, err
	}
	e.logger.Info("ocr extraction finished",
		"pages", out.Pages,
		"pages_with_text", out.PagesWithText,
		"confidence", out.Confidence,
		"duration_ms", out.Duration.Milliseconds(),
	)
	return out, nil
}

func (e *Extractor) extractTextLayer(ctx context.Context, content []byte) (Result, bool) {
	pages, err := e.parser.Pages(ctx, content)
	if err != nil {
		e.logger.Warn("text layer unreadable, falling back to ocr", "error", err)
		return Result{Warnings: []string{fmt.Sprintf("text layer: %v", err)}}, false
	}

	withText := 0
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			withText++
		}
	}
	text := strings.TrimSpace(strings.Join(pages, PageSeparator))
	chars := utf8.RuneCountInString(text)
	if chars < e.cfg.MinTextLength {
		e.logger.Debug("text layer too short, falling back to ocr", "chars", chars, "pages", len(pages))
		return Result{}, false
	}
	return Result{
		Text:          text,
		Confidence:    e.cfg.DirectTextConfidence,
		Method:        constants.MethodPDFText,
		Pages:         len(pages),
		PagesWithText: withText,
	}, true
}

func (e *Extractor) extractOCR(ctx context.Context, content []byte) (Result, error) {
	out := Result{Method: constants.MethodPDFOCR, Language: LanguageSpec(e.cfg.Languages)}

	if err := e.engine.Preflight(e.cfg.Languages); err != nil {
		e.logger.Error("ocr engine not usable", "languages", out.Language, "error", err)
		return out, err
	}

	n, err := e.renderer.PageCount(ctx, content)
	if err != nil {
		e.logger.Warn("page count failed, no pages to render", "error", err)
		out.Warnings = append(out.Warnings, fmt.Sprintf("page count: %v", err))
		n = 0
	}
	if e.cfg.MaxPages > 0 && n > e.cfg.MaxPages {
		out.Warnings = append(out.Warnings, fmt.Sprintf("only the first %d of %d pages were processed", e.cfg.MaxPages, n))
		n = e.cfg.MaxPages
	}
	out.Pages = n

	var (
		b   strings.Builder
		sum float64
	)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		page, err := e.recognizePage(ctx, content, i)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			if isConfigurationFault(err) {
				return out, err
			}
			e.logger.Warn("page skipped", "page", i+1, "error", err)
			out.Warnings = append(out.Warnings, fmt.Sprintf("page %d: %v", i+1, err))
			continue
		}

		txt := Normalize(page.Text)
		if txt == "" {
			e.logger.Debug("page produced no text", "page", i+1)
			continue
		}
		if b.Len() > 0 {
			b.WriteString(PageBreak) // keep a clear page break marker
		}
		b.WriteString(txt)
		sum += clampConfidence(page.Confidence)
		out.PagesWithText++
	}

	out.Text = b.String()
	if out.PagesWithText > 0 {
		out.Confidence = sum / float64(out.PagesWithText)
	}
	return out, nil
}

func (e *Extractor) recognizePage(ctx context.Context, content []byte, index int) (PageText, error) {
	img, err := e.renderer.RenderPage(ctx, content, index, e.cfg.DPI)
	if err != nil {
		return PageText{}, fmt.Errorf("render: %w", err)
	}
	page, err := e.engine.Recognize(ctx, img, e.cfg.Languages)
	if err != nil {
		return PageText{}, fmt.Errorf("recognize: %w", err)
	}
	return page, nil
}

func clampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 100:
		return 100
	default:
		return c
	}
}

// ConfigFrom maps the application OCR settings onto the extractor config.
func ConfigFrom(c common.OCRConfig) Config {
	return Config{
		Pdftoppm:             c.Pdftoppm,
		Tesseract:            c.Tesseract,
		Languages:            c.Languages,
		TessdataDir:          c.TessdataDir,
		DPI:                  c.DPI,
		MaxPages:             c.MaxPages,
		PSM:                  c.PSM,
		MinTextLength:        c.MinTextLength,
		DirectTextConfidence: c.DirectTextConfidence,
	}
}
