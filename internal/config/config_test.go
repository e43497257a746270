package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, ProviderGemini, cfg.Generation.Provider)
	assert.Equal(t, "gemini-1.5-flash", cfg.Generation.Gemini.Model)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)
	assert.Equal(t, 5000, cfg.Validate.MaxChars)
	assert.Equal(t, "uploads", cfg.Storage.UploadDir)
	assert.Equal(t, "solutions", cfg.Storage.SolutionsDir)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("STORE_URL", "memory://")
	t.Setenv("PORT", "8081")
	t.Setenv("RETRY_BASE_DELAY", "250ms")
	t.Setenv("GENERATION_PROVIDER", "OpenAI")
	t.Setenv("LLM_BASE_URL", "http://llm.local/v1")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "g-key", cfg.Generation.Gemini.APIKey)
	assert.Equal(t, "memory://", cfg.Store.URL)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, ProviderOpenAI, cfg.Generation.Provider)
	assert.Equal(t, "http://llm.local/v1", cfg.Generation.OpenAI.BaseURL)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
generation:
  provider: openai
  openai:
    base_url: http://localhost:11434/v1
    api_key: sk-test
    model: llama3
validate:
  max_chars: 100
`), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.Generation.Provider)
	assert.Equal(t, "llama3", cfg.Generation.OpenAI.Model)
	assert.Equal(t, 100, cfg.Validate.MaxChars)
	require.NoError(t, Validate(cfg))
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(viper.New())
		require.NoError(t, err)
		cfg.Generation.Gemini.APIKey = "key"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid gemini", mutate: func(*Config) {}, wantErr: false},
		{name: "missing gemini key", mutate: func(c *Config) { c.Generation.Gemini.APIKey = "" }, wantErr: true},
		{name: "openai without model", mutate: func(c *Config) {
			c.Generation.Provider = ProviderOpenAI
			c.Generation.OpenAI = ProviderConfig{BaseURL: "http://x", APIKey: "k"}
		}, wantErr: true},
		{name: "unknown provider", mutate: func(c *Config) { c.Generation.Provider = "claude" }, wantErr: true},
		{name: "zero attempts", mutate: func(c *Config) { c.Retry.MaxAttempts = 0 }, wantErr: true},
		{name: "shrinking backoff", mutate: func(c *Config) { c.Retry.Multiplier = 0.5 }, wantErr: true},
		{name: "no store", mutate: func(c *Config) { c.Store.URL = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateNil(t *testing.T) {
	assert.Equal(t, ErrNilConfig, Validate(nil))
}
