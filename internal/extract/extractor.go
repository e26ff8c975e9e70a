// Package extract turns uploaded documents into plain text.
package extract

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/pkg/utils"
)

// MaxDocumentBytes bounds how much of a document is read.
const MaxDocumentBytes = 64 << 20

var supported = map[string]bool{
	".pdf": true, ".docx": true, ".xlsx": true,
	".txt": true, ".md": true, ".rst": true,
}

// Supported reports whether ext (with leading dot, any case) has a dedicated extractor.
func Supported(ext string) bool {
	return supported[strings.ToLower(ext)]
}

// Extractor extracts plain text from document files.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor returns an Extractor. logger may be nil.
func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: utils.OrNop(logger)}
}

// Extract reads the file at path and returns its text.
func (e *Extractor) Extract(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	defer f.Close()
	return e.ExtractReader(f, filepath.Base(path))
}

// ExtractReader reads a document named name from r. The extension of name
// selects the format.
func (e *Extractor) ExtractReader(r io.Reader, name string) (string, error) {
	content, err := io.ReadAll(io.LimitReader(r, MaxDocumentBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	if len(content) > MaxDocumentBytes {
		return "", fmt.Errorf("%w: %s is larger than %d bytes", models.ErrInvalidRequest, name, MaxDocumentBytes)
	}
	return e.ExtractBytes(content, strings.ToLower(filepath.Ext(name)))
}

// ExtractBytes extracts text from content based on ext, which includes the
// leading dot. Unknown extensions are read as plain text. Returns
// models.ErrExtractionEmpty when the document has no text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(ext) {
	case ".pdf":
		text, err = e.extractPDF(content)
	case ".docx":
		text, err = extractDOCX(content)
	case ".xlsx":
		text, err = extractExcel(content)
	default:
		text, err = extractPlain(content)
	}
	if err != nil {
		return "", err
	}
	if utils.IsBlank(text) {
		return "", models.ErrExtractionEmpty
	}
	return text, nil
}
