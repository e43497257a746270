package reader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrUnsupportedFormat is returned when a file format is not supported.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrNoText is returned when a document yields no text at all.
var ErrNoText = errors.New("no text extracted from document")

// Document represents a loaded document.
type Document struct {
	// Path is the source file path
	Path string
	// Name is the base filename
	Name string
	// Data is the raw file content
	Data []byte
}

// Extractor converts raw document bytes into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// TextExtractor extracts text from PDF and plain-text uploads.
type TextExtractor struct{}

// NewTextExtractor returns the default Extractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Extract sniffs the content type and dispatches to the matching reader.
func (e *TextExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrNoText
	}

	switch kind := sniff(data); kind {
	case "application/pdf":
		return extractPDFText(data)
	case "text/plain":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: text is not valid UTF-8", ErrUnsupportedFormat)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind)
	}
}

func sniff(data []byte) string {
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}

// LoadFile reads a single document from the given path.
func LoadFile(path string) (Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".md", ".txt", ".markdown", ".pdf":
	default:
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read file %q: %w", path, err)
	}
	return Document{
		Path: path,
		Name: filepath.Base(path),
		Data: data,
	}, nil
}
