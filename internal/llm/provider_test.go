package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/abhisek/readgate/internal/store"
)

func TestMockProvider_FIFO(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 10}},
		MockResponse{Content: json.RawMessage(`{"b":2}`)},
	)

	resp, err := mock.Generate(context.Background(), Request{System: "sys"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"a":1}` || resp.Usage.InputTokens != 10 {
		t.Fatalf("first response = %+v", resp)
	}
	resp, err = mock.Generate(context.Background(), Request{})
	if err != nil || string(resp.Content) != `{"b":2}` {
		t.Fatalf("second response = (%v, %v)", resp, err)
	}
	if mock.Calls[0].System != "sys" {
		t.Fatalf("calls not recorded")
	}

	_, err = mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("empty queue: expected ErrProviderUnavailable, got %T", err)
	}
}

func TestMockProvider_ValidatesAgainstSchema(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"name":"x"}`)})
	_, err := mock.Generate(context.Background(), Request{Schema: testSchema()})
	if !IsInvalidOutput(err) {
		t.Fatalf("expected invalid output, got %v", err)
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}
	if p := PurposeFrom(WithPurpose(ctx, PurposeQuizGen)); p != PurposeQuizGen {
		t.Fatalf("expected %q, got %q", PurposeQuizGen, p)
	}
}

func TestConfig_Validate(t *testing.T) {
	withRetry := func(c Config) Config { c.Retry = DefaultConfig().Retry; return c }
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"anthropic without key", Config{Provider: ProviderAnthropic}, "READGATE_LLM_ANTHROPIC_API_KEY"},
		{"anthropic with key", withRetry(Config{Provider: ProviderAnthropic, Anthropic: AnthropicConfig{APIKey: "k"}}), ""},
		{"openrouter without key", Config{Provider: ProviderOpenRouter}, "READGATE_LLM_OPENROUTER_API_KEY"},
		{"zero attempts", Config{Provider: ProviderOpenAI, OpenAI: OpenAIConfig{APIKey: "k"}}, "max_attempts"},
		{"mock needs no key", Config{Provider: ProviderMock}, ""},
		{"unknown provider", Config{Provider: "unknown"}, "unknown LLM provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDiscoverConfig(t *testing.T) {
	for _, k := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	if _, ok := DiscoverConfig(); ok {
		t.Fatal("expected no provider without keys")
	}
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, ok := DiscoverConfig()
	if !ok || cfg.Provider != ProviderOpenAI || cfg.OpenAI.APIKey != "sk-test" {
		t.Fatalf("DiscoverConfig = %+v, %v", cfg, ok)
	}
}

type memorySink struct {
	mu     sync.Mutex
	events []store.LLMRequestEventData
	err    error
}

func (s *memorySink) AppendLLMRequest(_ context.Context, d store.LLMRequestEventData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, d)
	return s.err
}

func TestLoggingProvider_RecordsEvents(t *testing.T) {
	sink := &memorySink{}
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"ok":true}`), Usage: Usage{InputTokens: 7, OutputTokens: 3}},
		MockResponse{Err: errors.New("boom")},
	)
	p := WithLogging(mock, ProviderMock, sink, zaptest.NewLogger(t))
	ctx := WithPurpose(context.Background(), PurposeQuizGen)

	if _, err := p.Generate(ctx, Request{System: "sys", Messages: []Message{{Role: RoleUser, Content: "hi"}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Generate(ctx, Request{}); err == nil {
		t.Fatal("expected error to pass through")
	}

	if len(sink.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(sink.events))
	}
	first := sink.events[0]
	if !first.Success || first.Purpose != PurposeQuizGen || first.InputTokens != 7 {
		t.Fatalf("first event = %+v", first)
	}
	if !strings.Contains(first.RequestBody, "[system]\nsys") {
		t.Fatalf("request body not serialized: %q", first.RequestBody)
	}
	if second := sink.events[1]; second.Success || second.ErrorMessage != "boom" {
		t.Fatalf("second event = %+v", second)
	}
}

func TestLoggingProvider_SinkFailureDoesNotFailCall(t *testing.T) {
	sink := &memorySink{err: errors.New("disk full")}
	p := WithLogging(NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)}), ProviderMock, sink, nil)
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("sink failure leaked into call: %v", err)
	}
}

func TestNewProvider_Mock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderMock
	p, err := NewProvider(context.Background(), cfg, &memorySink{}, nil)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("ModelID = %q", p.ModelID())
	}

	cfg.Provider = "nope"
	if _, err := NewProvider(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
