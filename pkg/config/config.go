package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/helmcode/ml-reasoning-assistant/pkg/cache"
	"github.com/helmcode/ml-reasoning-assistant/pkg/llm"
	"github.com/helmcode/ml-reasoning-assistant/pkg/store"
)

// Config holds all configuration. Everything comes from the environment or a
// .env file; there are no command-line flags.
type Config struct {
	HTTPAddr    string
	DatabaseURL string

	LLM llm.Config

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	ScenarioCacheTTL time.Duration

	NATSURL      string
	RunbooksFile string
	HistoryLimit int
	OutputFormat string
	LogLevel     slog.Level
}

// Load reads configuration from environment variables and the first .env
// file found.
func Load() (*Config, error) {
	for _, path := range []string{".env", "/app/.env"} {
		if err := godotenv.Load(path); err == nil {
			break
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	provider := llm.ParseProvider(os.Getenv("LLM_PROVIDER"))

	cfg := &Config{
		HTTPAddr:    getEnvOrDefault("HTTP_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		LLM: llm.Config{
			Provider: provider,
			APIKey:   credentialFor(provider),
			Model:    modelFor(provider),
			BaseURL:  os.Getenv("LLM_BASE_URL"),
		},

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		NATSURL:      os.Getenv("NATS_URL"),
		RunbooksFile: os.Getenv("RUNBOOKS_FILE"),
		OutputFormat: strings.ToLower(getEnvOrDefault("OUTPUT_FORMAT", "human")),
	}

	var err error
	if cfg.RedisDB, err = parseIntOrDefault("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.ScenarioCacheTTL, err = parseDurationOrDefault("SCENARIO_CACHE_TTL", cache.DefaultTTL); err != nil {
		return nil, err
	}
	if cfg.HistoryLimit, err = parseIntOrDefault("HISTORY_LIMIT", store.DefaultHistoryLimit); err != nil {
		return nil, err
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnvOrDefault("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that are wrong regardless of which command runs.
func (c *Config) Validate() error {
	supported := false
	for _, p := range llm.GetAvailableProviders() {
		if c.LLM.Provider == p {
			supported = true
		}
	}
	if !supported {
		return fmt.Errorf("LLM_PROVIDER %q is not supported", c.LLM.Provider)
	}

	switch c.OutputFormat {
	case "human", "json", "yaml":
	default:
		return fmt.Errorf("OUTPUT_FORMAT must be one of human, json, yaml (got %q)", c.OutputFormat)
	}

	if c.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be positive")
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("REDIS_DB must not be negative")
	}
	if c.ScenarioCacheTTL <= 0 {
		return fmt.Errorf("SCENARIO_CACHE_TTL must be positive")
	}
	return nil
}

// RequireDatabase is checked by every command that touches the store.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set. Add it to .env or the environment")
	}
	return nil
}

// LiveMode reports whether a model credential is configured.
func (c *Config) LiveMode() bool {
	return c.LLM.APIKey != ""
}

func credentialFor(p llm.Provider) string {
	switch p {
	case llm.ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case llm.ProviderClaude:
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return os.Getenv("HF_TOKEN")
	}
}

func modelFor(p llm.Provider) string {
	if m := os.Getenv("LLM_MODEL"); m != "" {
		return m
	}
	if p == llm.ProviderHuggingFace {
		return os.Getenv("HF_MODEL")
	}
	return ""
}

// Helper functions
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer (got %q)", key, value)
	}
	return result, nil
}

func parseDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration such as 30s (got %q)", key, value)
	}
	return d, nil
}
