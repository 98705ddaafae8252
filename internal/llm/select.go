package llm

import (
	"context"
	"fmt"

	"github.com/sallandpioneers/code-agent/internal/config"
)

// New creates the Provider named by cfg.Provider
func New(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL, cfg.Timeout)
	case "gemini":
		return NewGeminiProvider(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Timeout)
	case "anthropic":
		return NewAnthropicProvider(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Timeout)
	case "yandex":
		return NewYandexProvider(cfg.Yandex.APIKey, cfg.Yandex.FolderID, cfg.Yandex.Model, cfg.Yandex.Endpoint, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
