package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// NewProvider creates a Provider from configuration, wrapped as
// caller → timeout → retry → logging → base.
func NewProvider(ctx context.Context, cfg Config, sink EventSink, log *zap.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	p := base
	if sink != nil {
		p = WithLogging(p, cfg.Provider, sink, log)
	}
	p = WithRetry(p, cfg.Retry, log)
	if cfg.Timeout > 0 {
		p = WithTimeout(p, cfg.Timeout)
	}
	return p, nil
}
