// Package document turns input files into raw text documents for the
// reconciliation pipeline.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/millworks/tariffmill/internal/models"
)

// Reader loads invoice documents from disk. PDF text extraction goes
// through mupdf; plain text files pass straight through.
type Reader struct {
	logger *zap.Logger
}

// NewReader creates a new document reader
func NewReader(logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{logger: logger}
}

// Read loads one document. The document ID is the file name without its
// extension.
func (r *Reader) Read(path string) (models.RawDocument, error) {
	if _, err := os.Stat(path); err != nil {
		return models.RawDocument{}, fmt.Errorf("document not found: %s", path)
	}

	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err := r.extractPDFText(path)
		if err != nil {
			return models.RawDocument{}, err
		}
		return models.RawDocument{ID: id, Text: text}, nil
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return models.RawDocument{}, fmt.Errorf("failed to read document: %w", err)
		}
		return models.RawDocument{ID: id, Text: string(data)}, nil
	default:
		return models.RawDocument{}, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

// extractPDFText concatenates the text layer of every page, page breaks
// preserved as form feeds so downstream normalization sees the boundaries.
func (r *Reader) extractPDFText(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	pageCount := doc.NumPage()
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		text, err := doc.Text(pageNum)
		if err != nil {
			r.logger.Warn("Failed to extract page text",
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}
		if pageNum > 0 {
			sb.WriteByte('\f')
		}
		sb.WriteString(text)
	}

	r.logger.Info("Document text extracted",
		zap.String("path", path),
		zap.Int("pages", pageCount),
		zap.Int("chars", sb.Len()))
	return sb.String(), nil
}
