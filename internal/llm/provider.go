package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Platform names a model provider.
type Platform string

const (
	PlatformOllama Platform = "ollama"
	PlatformGemini Platform = "gemini"
	PlatformOpenAI Platform = "openai"
)

var defaultModels = map[Platform]string{
	PlatformOllama: "qwen3:8b",
	PlatformGemini: "gemini-2.5-flash",
	PlatformOpenAI: "gpt-4o-mini",
}

// ParsePlatform normalizes a platform name. "gpt" is accepted as openai.
func ParsePlatform(name string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(name)))
	if p == "gpt" {
		p = PlatformOpenAI
	}
	if _, ok := defaultModels[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPlatform, name)
	}
	return p, nil
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(p Platform) string {
	return defaultModels[p]
}

// ProviderConfig selects and configures a provider.
type ProviderConfig struct {
	Platform string
	Model    string
	BaseURL  string
	APIKey   string
}

// NewProvider builds a langchaingo model for the configured platform.
func NewProvider(ctx context.Context, cfg ProviderConfig) (llms.Model, error) {
	platform, err := ParsePlatform(cfg.Platform)
	if err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel(platform)
	}

	switch platform {
	case PlatformOllama:
		opts := []ollama.Option{ollama.WithModel(model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		return ollama.New(opts...)
	case PlatformGemini:
		return googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultModel(model),
		)
	default:
		opts := []openai.Option{openai.WithModel(model)}
		if cfg.APIKey != "" {
			opts = append(opts, openai.WithToken(cfg.APIKey))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(opts...)
	}
}
