package llm

import "fmt"

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// NewOpenRouterProvider targets OpenRouter, which speaks the OpenAI API.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	return NewOpenAIProvider(OpenAIConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: baseURL})
}
