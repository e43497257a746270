// Package apperr defines the error taxonomy shared by the submission pipeline
// and its transport.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the user-facing and store-level cases.
var (
	ErrNotAssignmentLike = errors.New("not a valid assignment or lab document")
	ErrTooLarge          = errors.New("document text is too large")
	ErrMissingFile       = errors.New("no file uploaded")
	ErrNotFound          = errors.New("submission not found")
	ErrDuplicate         = errors.New("duplicate submission token")
	ErrEmptyResponse     = errors.New("generation service returned empty response")
)

// reasons holds the caller-facing text for each user-facing sentinel.
var reasons = []struct {
	err  error
	text string
}{
	{ErrNotAssignmentLike, "Not a valid assignment or lab PDF."},
	{ErrTooLarge, "PDF is too large."},
	{ErrMissingFile, "No file uploaded."},
	{ErrNotFound, "Submission not found."},
}

// Kind classifies a pipeline failure.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindExtraction          Kind = "extraction"
	KindGenerationTransient Kind = "generation_transient"
	KindGenerationFailed    Kind = "generation_failed"
	KindRender              Kind = "render"
	KindStore               Kind = "store"
	KindNotFound            Kind = "not_found"
	KindInternal            Kind = "internal"
)

// Error is a classified failure with the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Validation(err error) *Error {
	return New(KindValidation, "validate", err)
}

func Extraction(err error) *Error {
	return New(KindExtraction, "extract", err)
}

func GenerationTransient(err error) *Error {
	return New(KindGenerationTransient, "generate", err)
}

func GenerationFailed(err error) *Error {
	return New(KindGenerationFailed, "generate", err)
}

func Render(err error) *Error {
	return New(KindRender, "render", err)
}

func Store(op string, err error) *Error {
	return New(KindStore, op, err)
}

func NotFound(op string) *Error {
	return New(KindNotFound, op, ErrNotFound)
}

// KindOf returns the outermost Kind in err's chain, or KindInternal when
// err carries no classification.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// UserMessage returns the text safe to show a caller. Validation and
// not-found errors carry their specific reason; everything else is opaque.
func UserMessage(err error, fallback string) string {
	switch KindOf(err) {
	case KindValidation, KindNotFound:
		for _, r := range reasons {
			if errors.Is(err, r.err) {
				return r.text
			}
		}
		var e *Error
		errors.As(err, &e)
		return e.Err.Error()
	default:
		return fallback
	}
}
