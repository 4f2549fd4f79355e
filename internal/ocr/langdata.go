package ocr

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BohdanGlowacki/UGODY/internal/common"
)

// CheckLanguageData verifies that <dir>/<lang>.traineddata exists and is
// non-empty for every requested language.
func CheckLanguageData(dir string, languages []string) error {
	if len(languages) == 0 {
		return common.ConfigurationFaultf("no OCR languages configured")
	}
	if dir == "" {
		return common.ConfigurationFaultf("tessdata directory not configured")
	}
	var missing []string
	for _, lang := range languages {
		path := filepath.Join(dir, lang+".traineddata")
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.Size() == 0 {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		return common.ConfigurationFaultf("missing OCR language data: %s", strings.Join(missing, ", "))
	}
	return nil
}

// checkInstalledLanguages compares the output of `tesseract --list-langs`
// against the requested languages.
func checkInstalledLanguages(listing string, languages []string) error {
	var installed []string
	for _, ln := range strings.Split(listing, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" || strings.HasPrefix(ln, "List of available languages") {
			continue
		}
		installed = append(installed, ln)
	}
	return CheckInstalledLanguages(installed, languages)
}

// CheckInstalledLanguages reports a configuration fault naming every requested
// language missing from installed.
func CheckInstalledLanguages(installed, languages []string) error {
	if len(languages) == 0 {
		return common.ConfigurationFaultf("no OCR languages configured")
	}
	have := make(map[string]bool, len(installed))
	for _, lang := range installed {
		have[lang] = true
	}
	var missing []string
	for _, lang := range languages {
		if !have[lang] {
			missing = append(missing, lang)
		}
	}
	if len(missing) > 0 {
		return common.ConfigurationFaultf("tesseract has no language data for: %s", strings.Join(missing, ", "))
	}
	return nil
}
