package constants

import (
	"path/filepath"
	"strings"
)

// PDFExtension is the only extension picked up by directory scans.
const PDFExtension = "pdf"

// Extraction methods recorded on results.
const (
	MethodPDFText = "pdf-text"
	MethodPDFOCR  = "pdf-ocr"
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsPDF reports whether name carries the PDF extension, in any case.
func IsPDF(name string) bool {
	return NormalizeExt(filepath.Ext(name)) == PDFExtension
}
