package llm

import (
	"fmt"
	"strings"
)

// Provider represents the LLM provider type
type Provider string

const (
	ProviderHuggingFace Provider = "huggingface"
	ProviderOpenAI      Provider = "openai"
	ProviderClaude      Provider = "anthropic"
)

const (
	HuggingFaceRouterURL    = "https://router.huggingface.co/v1"
	OpenAIURL               = "https://api.openai.com/v1"
	DefaultHuggingFaceModel = "HuggingFaceH4/zephyr-7b-beta"
	DefaultOpenAIModel      = "gpt-4o"
	DefaultClaudeModel      = "claude-sonnet-4-20250514"
)

// Config selects a single backend and model.
type Config struct {
	Provider Provider
	APIKey   string
	Model    string
	BaseURL  string
}

// New creates an LLM client for the configured provider. A missing API key is
// reported as ErrNoCredential so callers can fall back to stub mode.
func New(cfg Config) (LLM, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoCredential
	}

	switch ParseProvider(string(cfg.Provider)) {
	case ProviderHuggingFace:
		return NewOpenAI(orDefault(cfg.BaseURL, HuggingFaceRouterURL), cfg.APIKey, orDefault(cfg.Model, DefaultHuggingFaceModel)), nil

	case ProviderOpenAI:
		return NewOpenAI(orDefault(cfg.BaseURL, OpenAIURL), cfg.APIKey, orDefault(cfg.Model, DefaultOpenAIModel)), nil

	case ProviderClaude:
		return NewClaude(cfg.APIKey, cfg.Model, cfg.BaseURL)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: huggingface, openai, anthropic)", cfg.Provider)
	}
}

// ParseProvider normalises a provider name. Empty means Hugging Face.
func ParseProvider(s string) Provider {
	switch p := strings.ToLower(strings.TrimSpace(s)); p {
	case "", "hf", "huggingface":
		return ProviderHuggingFace
	case "claude", "anthropic":
		return ProviderClaude
	default:
		return Provider(p)
	}
}

// GetAvailableProviders returns a list of available LLM providers
func GetAvailableProviders() []Provider {
	return []Provider{ProviderHuggingFace, ProviderOpenAI, ProviderClaude}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
