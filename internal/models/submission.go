package models

import (
	"strings"
	"time"
)

// DefaultField replaces empty metadata values.
const DefaultField = "Unknown"

// Metadata is the caller-supplied identity shown on the rendered document.
type Metadata struct {
	Enrollment string `json:"enrollment"`
	Name       string `json:"name"`
	Batch      string `json:"batch"`
}

// WithDefaults returns a copy with blank fields set to DefaultField.
func (m Metadata) WithDefaults() Metadata {
	orDefault := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return DefaultField
		}
		return s
	}
	return Metadata{
		Enrollment: orDefault(m.Enrollment),
		Name:       orDefault(m.Name),
		Batch:      orDefault(m.Batch),
	}
}

// Submission is one processed upload. It is persisted once, after the
// solution document has been written, and never updated.
type Submission struct {
	Token             string    `json:"token"`
	SourceDocumentRef string    `json:"sourceDocumentRef"`
	ResultDocumentRef string    `json:"resultDocumentRef"`
	Metadata          Metadata  `json:"metadata"`
	CreatedAt         time.Time `json:"createdAt"`
}
