package llm

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/akashicode/solvesafe/internal/apperr"
	"github.com/akashicode/solvesafe/internal/retry"
)

// Retrying retries a Generator while it reports the service unavailable.
type Retrying struct {
	next    Generator
	retrier retry.Retrier
	log     zerolog.Logger
}

// NewRetrying wraps next in policy. A nil sleep uses retry.Sleep.
func NewRetrying(next Generator, policy retry.Policy, sleep retry.SleepFunc, log zerolog.Logger) *Retrying {
	g := &Retrying{next: next, log: log}
	g.retrier = retry.Retrier{
		Policy:    policy,
		Retryable: func(err error) bool { return apperr.Is(err, apperr.KindGenerationTransient) },
		Sleep:     sleep,
		OnRetry:   g.onRetry,
	}
	return g
}

// Generate returns the first successful response. Every failure that ends
// the loop is reported as apperr.KindGenerationFailed.
func (g *Retrying) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := retry.Do(ctx, g.retrier, func(ctx context.Context, attempt int) (string, error) {
		g.log.Debug().Int("attempt", attempt).Msg("generating solution")
		text, err := g.next.Generate(ctx, prompt)
		if err != nil {
			if IsTransient(err) {
				return "", apperr.GenerationTransient(err)
			}
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", apperr.ErrEmptyResponse
		}
		return text, nil
	})
	if err != nil {
		return "", apperr.GenerationFailed(err)
	}
	return text, nil
}

// Model returns the wrapped generator's model name.
func (g *Retrying) Model() string {
	return ModelName(g.next)
}

func (g *Retrying) onRetry(attempt int, delay time.Duration, err error) {
	g.log.Warn().
		Err(err).
		Int("attempt", attempt).
		Dur("backoff", delay).
		Msg("generation service unavailable, retrying")
}
