package ai

import (
	"fmt"
	"strings"

	"ai-chat-backend/internal/config"
	"ai-chat-backend/internal/domain"
	"ai-chat-backend/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.ClientFactory = (*Factory)(nil)

// Factory builds provider clients from configured credentials.
// Provider names are matched case-insensitively after trimming, with the
// usual colloquial aliases accepted.
type Factory struct {
	cfg config.AIConfig
}

func NewFactory(cfg config.AIConfig) *Factory {
	return &Factory{cfg: cfg}
}

func (f *Factory) Create(provider, model string) (adapter.ModelClient, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	model = strings.TrimSpace(model)
	if provider == "" {
		return nil, fmt.Errorf("provider is required: %w", domain.ErrInvalidArgument)
	}
	if model == "" {
		return nil, fmt.Errorf("model is required: %w", domain.ErrInvalidArgument)
	}

	switch provider {
	case "openai", "gpt", "chatgpt":
		return NewOpenAIClient(f.cfg.OpenAIKey, model)
	case "anthropic", "claude":
		return NewAnthropicClient(f.cfg.AnthropicKey, f.cfg.AnthropicURL, model, f.cfg.MaxOutputTokens)
	case "gemini", "google":
		return NewGeminiClient(f.cfg.GeminiKey, f.cfg.GeminiURL, model, f.cfg.MaxOutputTokens)
	case "noop":
		return NewNoopClient(model), nil
	}
	return nil, fmt.Errorf("provider %q: %w", provider, domain.ErrUnsupportedProvider)
}
