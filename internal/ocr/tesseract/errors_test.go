package tesseract

import (
	"errors"
	"testing"

	"github.com/BohdanGlowacki/UGODY/internal/common"
)

func TestRecognizeError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		config bool
	}{
		{"init failure", errors.New("failed to initialize TessBaseAPI with code -1: Failed loading language 'pol'"), true},
		{"missing traineddata", errors.New("Error opening data file /usr/share/tessdata/pol.traineddata"), true},
		{"page failure", errors.New("PixImage is not set"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recognizeError(tt.err)
			if errors.Is(got, common.ErrConfiguration) != tt.config {
				t.Fatalf("recognizeError(%q) = %v, configuration fault want %v", tt.err, got, tt.config)
			}
			if !tt.config && !errors.Is(got, common.ErrTransientIO) {
				t.Fatalf("recognizeError(%q) = %v, want transient", tt.err, got)
			}
		})
	}
}
