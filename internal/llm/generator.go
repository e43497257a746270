// Package llm talks to the text-generation providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/akashicode/solvesafe/internal/config"
)

// ErrNilConfig is returned when a nil config is provided.
var ErrNilConfig = errors.New("llm config is nil")

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// New builds the Generator for the configured provider.
func New(ctx context.Context, cfg *config.GenerationConfig) (Generator, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(ctx, &cfg.Gemini)
	case config.ProviderOpenAI:
		return NewOpenAIClient(&cfg.OpenAI)
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}

// ModelName reports the model behind g, or "" when g does not say.
func ModelName(g Generator) string {
	if m, ok := g.(interface{ Model() string }); ok {
		return m.Model()
	}
	return ""
}

// IsTransient reports whether err means the service was temporarily
// unavailable. Only that condition is worth another attempt.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var gerr genai.APIError
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusServiceUnavailable || gerr.Status == "UNAVAILABLE"
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusServiceUnavailable
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusServiceUnavailable
	}
	return false
}
