package reader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// pdfcpuConfig returns a relaxed configuration that never touches the
// user's pdfcpu config directory.
func pdfcpuConfig() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Validate checks that data is a well-formed PDF.
func Validate(data []byte) error {
	if err := api.Validate(bytes.NewReader(data), pdfcpuConfig()); err != nil {
		return fmt.Errorf("validate PDF: %w", err)
	}
	return nil
}

// extractPDFText returns the plain text of every page. When the text layer
// cannot be read it falls back to the string literals of the page content
// streams.
func extractPDFText(data []byte) (string, error) {
	if err := Validate(data); err != nil {
		return "", err
	}

	text, err := plainText(data)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}

	fallback, ferr := contentStreamText(data)
	if ferr != nil {
		if err != nil {
			return "", fmt.Errorf("extract PDF text: %w", err)
		}
		return "", fmt.Errorf("extract PDF content: %w", ferr)
	}
	if strings.TrimSpace(fallback) == "" {
		return "", ErrNoText
	}
	return fallback, nil
}

// plainText reads the text layer page by page with ledongthuc/pdf.
func plainText(data []byte) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(pageText)
	}
	return sb.String(), nil
}

var literalRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// contentStreamText extracts page content streams with pdfcpu and keeps the
// string literals drawn by text operators.
func contentStreamText(data []byte) (string, error) {
	// Create a temp dir for extraction output
	tmpDir, err := os.MkdirTemp("", "solvesafe-pdf-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	in := filepath.Join(tmpDir, "in.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return "", fmt.Errorf("write temp PDF: %w", err)
	}
	outDir := filepath.Join(tmpDir, "out")
	if err := os.Mkdir(outDir, 0o700); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	if err := api.ExtractContentFile(in, outDir, nil, pdfcpuConfig()); err != nil {
		return "", fmt.Errorf("extract PDF content: %w", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", fmt.Errorf("read temp dir: %w", err)
	}

	var sb strings.Builder
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(outDir, entry.Name()))
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(raw), "\n") {
			if !strings.HasSuffix(strings.TrimSpace(line), "Tj") && !strings.HasSuffix(strings.TrimSpace(line), "TJ") {
				continue
			}
			for _, m := range literalRe.FindAllStringSubmatch(line, -1) {
				sb.WriteString(unescapeLiteral(m[1]))
			}
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

var literalEscapes = strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`, `\n`, "\n", `\t`, "\t")

func unescapeLiteral(s string) string {
	return literalEscapes.Replace(s)
}
