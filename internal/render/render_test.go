package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashicode/solvesafe/internal/apperr"
	"github.com/akashicode/solvesafe/internal/models"
)

func TestBody(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Segment
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "heading prose and code",
			input: "**Q1**\nAnswer\n```\ncode line\n```\nmore prose",
			want: []Segment{
				{Style: StyleHeading, Text: "Q1"},
				{Style: StyleProse, Text: "Answer"},
				{Style: StyleCode, Text: "code line"},
				{Style: StyleProse, Text: "more prose"},
			},
		},
		{
			name:  "language tagged fence",
			input: "```python\nprint('hi')\n```",
			want:  []Segment{{Style: StyleCode, Text: "print('hi')"}},
		},
		{
			name:  "unterminated fence",
			input: "intro\n```\nx := 1\n\ny := 2",
			want: []Segment{
				{Style: StyleProse, Text: "intro"},
				{Style: StyleCode, Text: "x := 1"},
				{Style: StyleCode, Text: ""},
				{Style: StyleCode, Text: "y := 2"},
			},
		},
		{
			name:  "bold inside code is literal",
			input: "```\n**not a heading**\n```",
			want:  []Segment{{Style: StyleCode, Text: "**not a heading**"}},
		},
		{
			name:  "partial bold stays prose",
			input: "The **key** idea",
			want:  []Segment{{Style: StyleProse, Text: "The **key** idea"}},
		},
		{
			name:  "heading markers stripped",
			input: "  **Part **A** **  ",
			want:  []Segment{{Style: StyleHeading, Text: "Part A"}},
		},
		{
			name:  "crlf input",
			input: "a\r\nb",
			want: []Segment{
				{Style: StyleProse, Text: "a"},
				{Style: StyleProse, Text: "b"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Body(tt.input))
		})
	}
}

func TestBodyDropsFences(t *testing.T) {
	for _, seg := range Body("```go\nfunc main() {}\n```\ntext\n```\n") {
		assert.False(t, IsFence(seg.Text), "fence leaked into output: %q", seg.Text)
	}
}

func TestIsFence(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"```", true},
		{"   ```  ", true},
		{"```js", true},
		{"``` c++ ", true},
		{"```go run", false},
		{"text ```", false},
		{"``", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFence(tt.line))
		})
	}
}

func TestHeader(t *testing.T) {
	got := Header(models.Metadata{Enrollment: "E1", Name: "Ada", Batch: "B"})
	require.Len(t, got, 4)
	assert.Equal(t, Segment{Style: StyleTitle, Text: Title}, got[0])
	assert.Equal(t, "Enrollment: E1", got[1].Text)
	assert.Equal(t, "Name: Ada", got[2].Text)
	assert.Equal(t, "Batch: B", got[3].Text)
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name string
		meta models.Metadata
		want string
	}{
		{
			name: "plain",
			meta: models.Metadata{Enrollment: "123", Name: "Ada", Batch: "B1"},
			want: "123_Ada_B1.pdf",
		},
		{
			name: "unsafe characters",
			meta: models.Metadata{Enrollment: "1 2!", Name: "A B", Batch: "X/Y"},
			want: "1_2__A_B_X_Y.pdf",
		},
		{
			name: "non ascii",
			meta: models.Metadata{Enrollment: "é", Name: "n", Batch: "b"},
			want: "__n_b.pdf",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FileName(tt.meta)
			assert.Equal(t, tt.want, got)

			stem := got[:len(got)-len(Extension)]
			for _, r := range stem {
				ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
				assert.True(t, ok, "unexpected rune %q in %q", r, got)
			}
		})
	}
}

type recordingSink struct {
	doc  Document
	data []byte
	err  error
}

func (s *recordingSink) Write(doc Document) ([]byte, error) {
	s.doc = doc
	return s.data, s.err
}

func TestRendererRender(t *testing.T) {
	meta := models.Metadata{Enrollment: "E1", Name: "Ada", Batch: "B"}
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("header precedes body", func(t *testing.T) {
		sink := &recordingSink{data: []byte("%PDF-1.3")}
		out, err := New(sink).Render("**Q1**\nAnswer", meta, created)
		require.NoError(t, err)

		assert.Equal(t, "E1_Ada_B.pdf", out.Name)
		assert.Equal(t, []byte("%PDF-1.3"), out.Data)
		assert.Equal(t, created, sink.doc.CreatedAt)
		assert.Equal(t, "Ada", sink.doc.Author)
		require.Len(t, sink.doc.Segments, 6)
		assert.Equal(t, StyleTitle, sink.doc.Segments[0].Style)
		assert.Equal(t, Segment{Style: StyleHeading, Text: "Q1"}, sink.doc.Segments[4])
	})

	t.Run("sink error", func(t *testing.T) {
		_, err := New(&recordingSink{err: errors.New("disk full")}).Render("x", meta, created)
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindRender))
	})

	t.Run("empty output", func(t *testing.T) {
		_, err := New(&recordingSink{}).Render("x", meta, created)
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindRender))
	})
}

func TestFPDFSinkWrite(t *testing.T) {
	meta := models.Metadata{Enrollment: "E1", Name: "Zoë", Batch: "B"}
	text := "**Question 1**\nThe answer is below.\n```go\nfunc main() {\n\tprintln(\"hi\")\n}\n```\n\nClosing words."

	out, err := New(NewFPDFSink(zerolog.Nop())).Render(text, meta, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out.Data, []byte("%PDF")))
	assert.Equal(t, "E1_Zo__B.pdf", out.Name)
}

func TestFPDFSinkLongDocument(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 400; i++ {
		buf.WriteString("A fairly long line of prose that will need wrapping across the page width at least once.\n")
	}
	data, err := NewFPDFSink(zerolog.Nop()).Write(Document{Title: Title, Segments: Body(buf.String())})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestUnsupported(t *testing.T) {
	assert.Equal(t, 0, Unsupported("plain ASCII, Zoë – “quoted”"))
	assert.Equal(t, 3, Unsupported("数组 → x"))
}

func TestFPDFSinkWarnsOnReplacedRunes(t *testing.T) {
	var logs bytes.Buffer
	sink := NewFPDFSink(zerolog.New(&logs))

	data, err := sink.Write(Document{Title: Title, Segments: Body("数组 → x\nplain line")})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(logs.Bytes()), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, float64(3), entry["replaced_runes"])
	assert.Equal(t, float64(1), entry["lines"])
}

func TestFPDFSinkQuietForCP1252(t *testing.T) {
	var logs bytes.Buffer
	_, err := NewFPDFSink(zerolog.New(&logs)).Write(Document{Title: Title, Segments: Body("Zoë wrote – this")})
	require.NoError(t, err)
	assert.Empty(t, logs.String())
}
