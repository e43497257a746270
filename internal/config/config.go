package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrNilConfig is returned when a nil Config is provided.
var ErrNilConfig = errors.New("config is nil")

// Generation providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds the full application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Generation GenerationConfig `mapstructure:"generation"`
	Retry      RetryConfig      `mapstructure:"retry"`
	Validate   ValidateConfig   `mapstructure:"validate"`
	Sanitize   SanitizeConfig   `mapstructure:"sanitize"`
	Store      StoreConfig      `mapstructure:"store"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	CORSOrigins    []string `mapstructure:"cors_origins"`
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes"`
}

// GenerationConfig selects and configures the text-generation provider.
type GenerationConfig struct {
	Provider string         `mapstructure:"provider"`
	Gemini   ProviderConfig `mapstructure:"gemini"`
	OpenAI   ProviderConfig `mapstructure:"openai"`
}

// ProviderConfig holds connection details for a single AI provider.
type ProviderConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// RetryConfig mirrors retry.Policy.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	Multiplier  float64       `mapstructure:"multiplier"`
}

type ValidateConfig struct {
	MaxChars int `mapstructure:"max_chars"`
}

type SanitizeConfig struct {
	RulesFile string `mapstructure:"rules_file"`
}

// StoreConfig points at the submission record store, e.g.
// sqlite://data/solvesafe.db, redis://localhost:6379/0 or memory://.
type StoreConfig struct {
	URL string `mapstructure:"url"`
}

// StorageConfig holds the directories for uploaded and rendered documents.
type StorageConfig struct {
	UploadDir    string `mapstructure:"upload_dir"`
	SolutionsDir string `mapstructure:"solutions_dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every key so AutomaticEnv can override it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.max_upload_bytes", int64(12<<20))

	v.SetDefault("generation.provider", ProviderGemini)
	v.SetDefault("generation.gemini.base_url", "")
	v.SetDefault("generation.gemini.api_key", "")
	v.SetDefault("generation.gemini.model", "gemini-1.5-flash")
	v.SetDefault("generation.openai.base_url", "")
	v.SetDefault("generation.openai.api_key", "")
	v.SetDefault("generation.openai.model", "")

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", time.Second)
	v.SetDefault("retry.multiplier", 2.0)

	v.SetDefault("validate.max_chars", 5000)
	v.SetDefault("sanitize.rules_file", "")

	v.SetDefault("store.url", "sqlite://data/solvesafe.db")
	v.SetDefault("storage.upload_dir", "uploads")
	v.SetDefault("storage.solutions_dir", "solutions")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// bindEnv maps the conventional environment names onto config keys. The
// generic SECTION_KEY form from AutomaticEnv keeps working alongside them.
func bindEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"server.port":                {"SERVER_PORT", "PORT"},
		"generation.provider":        {"GENERATION_PROVIDER"},
		"generation.gemini.api_key":  {"GENERATION_GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"generation.gemini.model":    {"GENERATION_GEMINI_MODEL", "GEMINI_MODEL"},
		"generation.openai.base_url": {"GENERATION_OPENAI_BASE_URL", "LLM_BASE_URL"},
		"generation.openai.api_key":  {"GENERATION_OPENAI_API_KEY", "LLM_API_KEY"},
		"generation.openai.model":    {"GENERATION_OPENAI_MODEL", "LLM_MODEL"},
		"store.url":                  {"STORE_URL"},
		"storage.upload_dir":         {"STORAGE_UPLOAD_DIR", "UPLOAD_DIR"},
		"storage.solutions_dir":      {"STORAGE_SOLUTIONS_DIR", "SOLUTIONS_DIR"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}

// Load reads the Viper-populated config into a Config struct.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("unmarshal config: " + err.Error())
	}
	cfg.Generation.Provider = strings.ToLower(strings.TrimSpace(cfg.Generation.Provider))
	return &cfg, nil
}

// Validate checks the settings needed to run the pipeline.
func Validate(cfg *Config) error {
	if cfg == nil {
		return ErrNilConfig
	}

	switch cfg.Generation.Provider {
	case ProviderGemini:
		if cfg.Generation.Gemini.APIKey == "" {
			return errors.New("GOOGLE_API_KEY environment variable is required")
		}
	case ProviderOpenAI:
		p := cfg.Generation.OpenAI
		if p.BaseURL == "" {
			return errors.New("LLM_BASE_URL environment variable is required")
		}
		if p.APIKey == "" {
			return errors.New("LLM_API_KEY environment variable is required")
		}
		if p.Model == "" {
			return errors.New("LLM_MODEL environment variable is required")
		}
	default:
		return fmt.Errorf("unknown generation provider %q", cfg.Generation.Provider)
	}

	if cfg.Retry.MaxAttempts < 1 {
		return errors.New("retry.max_attempts must be at least 1")
	}
	if cfg.Retry.BaseDelay < 0 || cfg.Retry.Multiplier < 1 {
		return errors.New("retry.base_delay must be >= 0 and retry.multiplier >= 1")
	}
	if cfg.Store.URL == "" {
		return errors.New("store.url is required")
	}
	if cfg.Storage.UploadDir == "" || cfg.Storage.SolutionsDir == "" {
		return errors.New("storage.upload_dir and storage.solutions_dir are required")
	}
	return nil
}
