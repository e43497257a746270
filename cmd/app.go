package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/akashicode/solvesafe/internal/config"
	"github.com/akashicode/solvesafe/internal/llm"
	"github.com/akashicode/solvesafe/internal/logging"
	"github.com/akashicode/solvesafe/internal/pipeline"
	"github.com/akashicode/solvesafe/internal/reader"
	"github.com/akashicode/solvesafe/internal/render"
	"github.com/akashicode/solvesafe/internal/retry"
	"github.com/akashicode/solvesafe/internal/sanitize"
	"github.com/akashicode/solvesafe/internal/store"
	"github.com/akashicode/solvesafe/internal/validate"
)

// app is the wired pipeline shared by serve and solve.
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	gen   llm.Generator
	store store.Store
	orch  *pipeline.Orchestrator
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})

	base, err := llm.New(ctx, &cfg.Generation)
	if err != nil {
		return nil, fmt.Errorf("create generator: %w", err)
	}
	policy := retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		Multiplier:  cfg.Retry.Multiplier,
	}
	gen := llm.NewRetrying(base, policy, nil, log.With().Str("component", "llm").Logger())

	san, err := sanitize.FromFile(cfg.Sanitize.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load sanitize rules: %w", err)
	}

	files, err := store.NewFiles(cfg.Storage.UploadDir, cfg.Storage.SolutionsDir)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store.URL)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	orch, err := pipeline.New(pipeline.Deps{
		Extractor: reader.NewTextExtractor(),
		Validator: validate.New(cfg.Validate.MaxChars),
		Generator: gen,
		Sanitizer: san,
		Renderer:  render.New(render.NewFPDFSink(log)),
		Store:     st,
		Documents: files,
		Logger:    log,
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	return &app{cfg: cfg, log: log, gen: gen, store: st, orch: orch}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
