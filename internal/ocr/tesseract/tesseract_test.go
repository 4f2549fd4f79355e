//go:build gosseract

package tesseract

import (
	"errors"
	"testing"

	"github.com/BohdanGlowacki/UGODY/internal/common"
	"github.com/BohdanGlowacki/UGODY/internal/ocr"
)

func TestPreflightWithoutTessdataDirChecksInstalledLanguages(t *testing.T) {
	prev := availableLanguages
	defer func() { availableLanguages = prev }()
	availableLanguages = func() ([]string, error) { return []string{"eng", "osd"}, nil }

	e := New(ocr.Config{}, nil)
	if err := e.Preflight([]string{"eng"}); err != nil {
		t.Fatalf("Preflight(eng): %v", err)
	}
	if err := e.Preflight([]string{"pol", "eng"}); !errors.Is(err, common.ErrConfiguration) {
		t.Fatalf("Preflight(pol, eng) = %v, want configuration fault", err)
	}

	availableLanguages = func() ([]string, error) { return nil, errors.New("no tessdata") }
	if err := e.Preflight([]string{"eng"}); !errors.Is(err, common.ErrConfiguration) {
		t.Fatalf("Preflight with listing failure = %v, want configuration fault", err)
	}
}
