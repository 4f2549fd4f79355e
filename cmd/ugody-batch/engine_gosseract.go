//go:build gosseract

package main

// registers the in-process "gosseract" OCR engine
import _ "github.com/BohdanGlowacki/UGODY/internal/ocr/tesseract"
