package tesseract

import (
	"fmt"
	"strings"

	"github.com/BohdanGlowacki/UGODY/internal/common"
)

// recognizeError classifies a failure from Client.Text. libtesseract is
// initialised lazily inside Text, so a bad language or tessdata prefix
// surfaces here and is a configuration fault.
func recognizeError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "TessBaseAPI") || strings.Contains(msg, "traineddata") {
		return common.ConfigurationFaultf("initialise libtesseract: %v", err)
	}
	return fmt.Errorf("%w: recognize: %v", common.ErrTransientIO, err)
}
