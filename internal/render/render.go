// Package render turns a sanitized solution into a styled PDF document.
//
// Layout happens in two steps. Body walks the text line by line and
// assigns each line a Style; a Sink then lays the styled lines out on pages.
package render

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/akashicode/solvesafe/internal/apperr"
	"github.com/akashicode/solvesafe/internal/models"
)

// Title heads every rendered document.
const Title = "Assignment Solution"

// Style selects how a Sink draws a segment.
type Style int

const (
	StyleTitle Style = iota
	StyleLabel
	StyleHeading
	StyleProse
	StyleCode
)

func (s Style) String() string {
	switch s {
	case StyleTitle:
		return "title"
	case StyleLabel:
		return "label"
	case StyleHeading:
		return "heading"
	case StyleProse:
		return "prose"
	case StyleCode:
		return "code"
	default:
		return fmt.Sprintf("style(%d)", int(s))
	}
}

// Segment is one output line with its style.
type Segment struct {
	Style Style
	Text  string
}

// Mode is the state of the line scanner.
type Mode int

const (
	ModeProse Mode = iota
	ModeCodeBlock
)

var (
	fenceRe   = regexp.MustCompile("^\\s*```\\s*[^`\\s]*\\s*$")
	headingRe = regexp.MustCompile(`^\*\*(.+)\*\*$`)
)

// IsFence reports whether line is a code fence, optionally tagged with a language.
func IsFence(line string) bool {
	return fenceRe.MatchString(line)
}

// Step consumes one line in mode m. It returns the next mode and the
// segment to emit, if any. Fence lines only toggle the mode.
func Step(m Mode, line string) (Mode, *Segment) {
	if IsFence(line) {
		if m == ModeProse {
			return ModeCodeBlock, nil
		}
		return ModeProse, nil
	}

	if m == ModeCodeBlock {
		return m, &Segment{Style: StyleCode, Text: line}
	}

	trimmed := strings.TrimSpace(line)
	if match := headingRe.FindStringSubmatch(trimmed); match != nil {
		heading := strings.ReplaceAll(match[1], "**", "")
		return m, &Segment{Style: StyleHeading, Text: strings.TrimSpace(heading)}
	}
	return m, &Segment{Style: StyleProse, Text: line}
}

// Body runs the line scanner over text. An unterminated fence leaves the
// remaining lines in code style.
func Body(text string) []Segment {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	segs := make([]Segment, 0, len(lines))
	mode := ModeProse
	for _, line := range lines {
		var seg *Segment
		mode, seg = Step(mode, line)
		if seg != nil {
			segs = append(segs, *seg)
		}
	}
	return segs
}

// Header returns the title and labeled metadata lines.
func Header(meta models.Metadata) []Segment {
	return []Segment{
		{Style: StyleTitle, Text: Title},
		{Style: StyleLabel, Text: "Enrollment: " + meta.Enrollment},
		{Style: StyleLabel, Text: "Name: " + meta.Name},
		{Style: StyleLabel, Text: "Batch: " + meta.Batch},
	}
}

// Document is what a Sink lays out.
type Document struct {
	Title     string
	Author    string
	CreatedAt time.Time
	Segments  []Segment
}

// Sink writes a laid-out document. Pagination and wrapping belong to the sink.
type Sink interface {
	Write(doc Document) ([]byte, error)
}

// Output is a rendered file ready for storage.
type Output struct {
	Name string
	Data []byte
}

// Renderer builds documents and hands them to a Sink.
type Renderer struct {
	sink Sink
}

// New returns a Renderer over sink.
func New(sink Sink) *Renderer {
	return &Renderer{sink: sink}
}

// Render lays out text under the metadata header.
func (r *Renderer) Render(text string, meta models.Metadata, createdAt time.Time) (*Output, error) {
	body := Body(text)
	doc := Document{
		Title:     Title,
		Author:    meta.Name,
		CreatedAt: createdAt,
		Segments:  append(Header(meta), body...),
	}

	data, err := r.sink.Write(doc)
	if err != nil {
		return nil, apperr.Render(fmt.Errorf("write document: %w", err))
	}
	if len(data) == 0 {
		return nil, apperr.Render(fmt.Errorf("sink produced an empty document"))
	}
	return &Output{Name: FileName(meta), Data: data}, nil
}
