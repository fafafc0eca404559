package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config holds all LLM provider configuration. It is decoded by viper from
// the llm section of the config file and READGATE_LLM_* variables.
type Config struct {
	Provider string `mapstructure:"provider" yaml:"provider"`

	Anthropic  AnthropicConfig  `mapstructure:"anthropic" yaml:"anthropic"`
	OpenAI     OpenAIConfig     `mapstructure:"openai" yaml:"openai"`
	Gemini     GeminiConfig     `mapstructure:"gemini" yaml:"gemini"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter" yaml:"openrouter"`
	Retry      RetryConfig      `mapstructure:"retry" yaml:"retry"`

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type AnthropicConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	Model   string `mapstructure:"model" yaml:"model"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	Model   string `mapstructure:"model" yaml:"model"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	Model  string `mapstructure:"model" yaml:"model"`
}

type OpenRouterConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	Model   string `mapstructure:"model" yaml:"model"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// RetryConfig configures backoff for transient failures.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait" yaml:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait" yaml:"max_wait"`
	Multiplier  float64       `mapstructure:"multiplier" yaml:"multiplier"`
}

// DefaultConfig returns the defaults. Question generation has a 30s budget
// on the client, so a single call gets 25s and at most two attempts.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"},
		Retry: RetryConfig{
			MaxAttempts: 2,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     4 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 25 * time.Second,
	}
}

// DiscoverConfig probes the vendors' standard API key variables and returns
// a Config for the first provider whose key is set.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()
	probes := []struct {
		env   string
		apply func(string)
		name  string
	}{
		{"ANTHROPIC_API_KEY", func(k string) { cfg.Anthropic.APIKey = k }, ProviderAnthropic},
		{"OPENAI_API_KEY", func(k string) { cfg.OpenAI.APIKey = k }, ProviderOpenAI},
		{"GEMINI_API_KEY", func(k string) { cfg.Gemini.APIKey = k }, ProviderGemini},
		{"OPENROUTER_API_KEY", func(k string) { cfg.OpenRouter.APIKey = k }, ProviderOpenRouter},
	}
	for _, p := range probes {
		if k := os.Getenv(p.env); k != "" {
			p.apply(k)
			cfg.Provider = p.name
			return cfg, true
		}
	}
	return Config{}, false
}

// Validate checks that the selected provider has its API key.
func (c Config) Validate() error {
	var key string
	switch c.Provider {
	case ProviderAnthropic:
		key = c.Anthropic.APIKey
	case ProviderOpenAI:
		key = c.OpenAI.APIKey
	case ProviderGemini:
		key = c.Gemini.APIKey
	case ProviderOpenRouter:
		key = c.OpenRouter.APIKey
	case ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("READGATE_LLM_%s_API_KEY is required for the %s provider", strings.ToUpper(c.Provider), c.Provider)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("llm.retry.max_attempts must be at least 1")
	}
	return nil
}
