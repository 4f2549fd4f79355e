// Package tesseract provides an in-process OCR engine backed by gosseract
// (libtesseract via cgo). It is compiled only with the "gosseract" build tag
// and registers itself with the ocr engine registry under "gosseract".
package tesseract
