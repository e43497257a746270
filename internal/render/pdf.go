package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/charmap"

	"github.com/akashicode/solvesafe/internal/reader"
)

const (
	pageMargin   = 50.0
	tabWidth     = 4
	proseLineH   = 16.0
	codeLineH    = 12.0
	headingLineH = 18.0
	blockGap     = 6.0
)

type font struct {
	family string
	style  string
	size   float64
	lineH  float64
	align  string
}

var fonts = map[Style]font{
	StyleTitle:   {family: "Times", style: "B", size: 16, lineH: 22, align: "C"},
	StyleLabel:   {family: "Times", style: "", size: 12, lineH: proseLineH, align: "L"},
	StyleHeading: {family: "Times", style: "B", size: 13, lineH: headingLineH, align: "L"},
	StyleProse:   {family: "Times", style: "", size: 12, lineH: proseLineH, align: "L"},
	StyleCode:    {family: "Courier", style: "", size: 10, lineH: codeLineH, align: "L"},
}

// FPDFSink lays documents out on A4 pages using the core PDF fonts. The
// core fonts only cover cp1252; other runes are drawn as '.' and logged.
type FPDFSink struct {
	// SkipValidation disables the structural check of the written file.
	SkipValidation bool

	log zerolog.Logger
}

// NewFPDFSink returns a sink that validates every file it writes.
func NewFPDFSink(log zerolog.Logger) *FPDFSink {
	return &FPDFSink{log: log.With().Str("component", "render").Logger()}
}

// Unsupported counts the runes in s that the core fonts cannot draw.
func Unsupported(s string) int {
	n := 0
	for _, r := range s {
		if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
			n++
		}
	}
	return n
}

// Write renders doc and returns the PDF bytes.
func (s *FPDFSink) Write(doc Document) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(doc.Title, true)
	pdf.SetAuthor(doc.Author, true)
	if !doc.CreatedAt.IsZero() {
		pdf.SetCreationDate(doc.CreatedAt)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	prev := StyleTitle
	replaced, lossyLines := 0, 0
	for i, seg := range doc.Segments {
		f, ok := fonts[seg.Style]
		if !ok {
			f = fonts[StyleProse]
		}

		switch {
		case i > 0 && seg.Style == StyleHeading:
			pdf.Ln(blockGap)
		case i > 0 && (seg.Style == StyleCode) != (prev == StyleCode):
			pdf.Ln(blockGap / 2)
		case i > 0 && prev == StyleLabel && seg.Style != StyleLabel:
			pdf.Ln(blockGap * 2)
		}
		prev = seg.Style

		text := seg.Text
		if seg.Style == StyleCode {
			text = strings.ReplaceAll(text, "\t", strings.Repeat(" ", tabWidth))
		}
		if strings.TrimSpace(text) == "" {
			pdf.Ln(f.lineH)
			continue
		}

		if n := Unsupported(text); n > 0 {
			replaced += n
			lossyLines++
		}
		pdf.SetFont(f.family, f.style, f.size)
		pdf.MultiCell(0, f.lineH, tr(text), "", f.align, false)
		if seg.Style == StyleTitle {
			pdf.Ln(blockGap)
		}
	}

	if replaced > 0 {
		s.log.Warn().
			Int("replaced_runes", replaced).
			Int("lines", lossyLines).
			Str("title", doc.Title).
			Msg("characters outside cp1252 drawn as placeholders")
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("layout document: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write PDF: %w", err)
	}

	if !s.SkipValidation {
		if err := reader.Validate(buf.Bytes()); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
