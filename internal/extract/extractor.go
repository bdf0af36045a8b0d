// Package extract turns manual pages into text: OCR for page images, the embedded text
// layer for PDFs, and pre-extracted .txt sidecars when present.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// ErrNoOCR is returned for image pages when no OCR service is configured.
var ErrNoOCR = errors.New("no OCR service configured")

// ErrUnsupported is returned for page files of an unknown type.
var ErrUnsupported = errors.New("unsupported page type")

// TextExtractor returns the text of one page file.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Extractor dispatches on file type. A sidecar <page>.txt next to any page wins over
// OCR and the PDF text layer.
type Extractor struct {
	ocr    *OCRClient
	logger *zap.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) ExtractorOption {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor returns an extractor. ocr may be nil; image pages then need a sidecar.
func NewExtractor(ocr *OCRClient, opts ...ExtractorOption) *Extractor {
	e := &Extractor{ocr: ocr}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the text of the page at path.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".txt" {
		if text, ok, err := readSidecar(path); err != nil || ok {
			if ok && e.logger != nil {
				e.logger.Debug("extract using sidecar text", zap.String("path", path))
			}
			return text, err
		}
	}
	switch ext {
	case ".txt":
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		return validUTF8(content), nil
	case ".pdf":
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		text, err := extractPDF(content)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" && e.ocr != nil {
			return e.ocr.ExtractFile(ctx, path)
		}
		return text, nil
	case ".jpg", ".jpeg", ".png", ".tif", ".tiff", ".bmp", ".webp":
		if e.ocr == nil {
			return "", fmt.Errorf("%s: %w", path, ErrNoOCR)
		}
		return e.ocr.ExtractFile(ctx, path)
	default:
		return "", fmt.Errorf("%s: %w", path, ErrUnsupported)
	}
}

// SidecarPath returns the pre-extracted text file for a page: the page path with its
// extension replaced by .txt.
func SidecarPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".txt"
}

func readSidecar(path string) (string, bool, error) {
	content, err := os.ReadFile(SidecarPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read sidecar: %w", err)
	}
	return validUTF8(content), true, nil
}

// validUTF8 returns content as a string with invalid sequences replaced by U+FFFD.
func validUTF8(content []byte) string {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "�")
	}
	return string(content)
}
