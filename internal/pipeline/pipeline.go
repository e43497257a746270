// Package pipeline turns one uploaded assignment into a stored solution
// document.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/akashicode/solvesafe/internal/apperr"
	"github.com/akashicode/solvesafe/internal/llm"
	"github.com/akashicode/solvesafe/internal/models"
	"github.com/akashicode/solvesafe/internal/reader"
	"github.com/akashicode/solvesafe/internal/render"
	"github.com/akashicode/solvesafe/internal/store"
)

// Validator accepts or rejects extracted text.
type Validator interface {
	Validate(text string) error
}

// Sanitizer removes filler from generated text.
type Sanitizer interface {
	Sanitize(text string) string
}

// Renderer lays out a solution document.
type Renderer interface {
	Render(text string, meta models.Metadata, createdAt time.Time) (*render.Output, error)
}

// Documents stores the source and result files of a submission.
type Documents interface {
	SaveUpload(token string, data []byte) (string, error)
	SaveSolution(token, name string, data []byte) (string, error)
	Open(ref string) (*os.File, error)
	Remove(ref string) error
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Extractor reader.Extractor
	Validator Validator
	Generator llm.Generator
	Sanitizer Sanitizer
	Renderer  Renderer
	Store     store.Store
	Documents Documents
	Logger    zerolog.Logger

	// Now and NewToken default to time.Now and uuid.NewString.
	Now      func() time.Time
	NewToken func() string
}

// Upload is one incoming submission.
type Upload struct {
	Data     []byte
	Metadata models.Metadata
}

// Orchestrator runs submissions. Each call to Submit is an independent unit
// of work, so one Orchestrator serves any number of concurrent callers.
type Orchestrator struct {
	deps Deps
	log  zerolog.Logger
}

// New checks deps and returns an Orchestrator.
func New(deps Deps) (*Orchestrator, error) {
	switch {
	case deps.Extractor == nil:
		return nil, errors.New("pipeline: extractor is required")
	case deps.Validator == nil:
		return nil, errors.New("pipeline: validator is required")
	case deps.Generator == nil:
		return nil, errors.New("pipeline: generator is required")
	case deps.Sanitizer == nil:
		return nil, errors.New("pipeline: sanitizer is required")
	case deps.Renderer == nil:
		return nil, errors.New("pipeline: renderer is required")
	case deps.Store == nil:
		return nil, errors.New("pipeline: store is required")
	case deps.Documents == nil:
		return nil, errors.New("pipeline: documents are required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewToken == nil {
		deps.NewToken = uuid.NewString
	}
	return &Orchestrator{
		deps: deps,
		log:  deps.Logger.With().Str("component", "pipeline").Logger(),
	}, nil
}

// Submit runs an upload to completion and returns its token. A record is
// written only when every stage succeeded; on failure the returned error
// carries an apperr.Kind and any files written so far are removed.
func (o *Orchestrator) Submit(ctx context.Context, up Upload) (string, error) {
	if len(up.Data) == 0 {
		return "", apperr.Validation(apperr.ErrMissingFile)
	}

	token := o.deps.NewToken()
	createdAt := o.deps.Now().UTC()
	meta := up.Metadata.WithDefaults()
	log := o.log.With().Str("token", token).Logger()
	log.Info().Str("enrollment", meta.Enrollment).Int("bytes", len(up.Data)).Msg("submission received")

	text, err := o.deps.Extractor.Extract(ctx, up.Data)
	if err != nil {
		return "", o.fail(log, "extract", apperr.Extraction(err))
	}
	log.Info().Int("chars", len([]rune(text))).Msg("text extracted")

	if err := o.deps.Validator.Validate(text); err != nil {
		if apperr.KindOf(err) != apperr.KindValidation {
			err = apperr.Validation(err)
		}
		log.Info().Str("reason", apperr.UserMessage(err, err.Error())).Msg("submission rejected")
		return "", err
	}
	log.Info().Msg("text validated")

	var written []string
	cleanup := func() {
		for _, ref := range written {
			if rerr := o.deps.Documents.Remove(ref); rerr != nil {
				log.Error().Err(rerr).Str("ref", ref).Msg("remove document after failure")
			}
		}
	}

	sourceRef, err := o.deps.Documents.SaveUpload(token, up.Data)
	if err != nil {
		return "", o.fail(log, "save upload", apperr.Store("save upload", err))
	}
	written = append(written, sourceRef)

	raw, err := o.deps.Generator.Generate(ctx, BuildPrompt(text))
	if err != nil {
		cleanup()
		if apperr.KindOf(err) == apperr.KindInternal {
			err = apperr.GenerationFailed(err)
		}
		return "", o.fail(log, "generate", err)
	}
	log.Info().Int("chars", len(raw)).Msg("solution generated")

	solution := o.deps.Sanitizer.Sanitize(raw)
	log.Info().Int("chars", len(solution)).Msg("solution sanitized")

	out, err := o.deps.Renderer.Render(solution, meta, createdAt)
	if err != nil {
		cleanup()
		if apperr.KindOf(err) == apperr.KindInternal {
			err = apperr.Render(err)
		}
		return "", o.fail(log, "render", err)
	}

	resultRef, err := o.deps.Documents.SaveSolution(token, out.Name, out.Data)
	if err != nil {
		cleanup()
		return "", o.fail(log, "save solution", apperr.Store("save solution", err))
	}
	written = append(written, resultRef)
	log.Info().Str("file", out.Name).Msg("solution rendered")

	sub := &models.Submission{
		Token:             token,
		SourceDocumentRef: sourceRef,
		ResultDocumentRef: resultRef,
		Metadata:          meta,
		CreatedAt:         createdAt,
	}
	if err := o.deps.Store.Create(ctx, sub); err != nil {
		cleanup()
		return "", o.fail(log, "persist", apperr.Store("create submission", err))
	}
	log.Info().Msg("submission stored")
	return token, nil
}

func (o *Orchestrator) fail(log zerolog.Logger, stage string, err error) error {
	log.Error().Err(err).Str("stage", stage).Str("kind", string(apperr.KindOf(err))).Msg("submission failed")
	return err
}

// Lookup returns the result document ref for token with a single store query.
func (o *Orchestrator) Lookup(ctx context.Context, token string) (string, error) {
	sub, err := o.deps.Store.FindByToken(ctx, token)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", apperr.NotFound("lookup")
	}
	if err != nil {
		return "", apperr.Store("lookup", err)
	}
	return sub.ResultDocumentRef, nil
}

// Result is an opened solution document.
type Result struct {
	File *os.File
	Name string
}

// OpenResult looks up token and opens its solution document. The caller
// closes Result.File.
func (o *Orchestrator) OpenResult(ctx context.Context, token string) (*Result, error) {
	ref, err := o.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	f, err := o.deps.Documents.Open(ref)
	if err != nil {
		return nil, apperr.Store("open result", fmt.Errorf("%s: %w", ref, err))
	}
	return &Result{File: f, Name: filepath.Base(ref)}, nil
}
