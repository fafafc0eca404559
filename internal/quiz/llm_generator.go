package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abhisek/readgate/internal/llm"
	"github.com/abhisek/readgate/internal/qa"
)

// LLMGenerator implements Generator using the LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// NewLLMGenerator creates an LLMGenerator with the given provider and config.
func NewLLMGenerator(provider llm.Provider, cfg Config) *LLMGenerator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &LLMGenerator{provider: provider, config: cfg}
}

// Generate drafts req.QuestionCount questions about material. A retryable
// validation failure triggers regeneration up to MaxAttempts.
func (g *LLMGenerator) Generate(ctx context.Context, req qa.GenerateRequest, material string) (*Draft, error) {
	llmReq := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(req, material, g.config)},
		},
		Schema:      QuizSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	var lastErr error
	for attempt := 0; attempt < g.config.MaxAttempts; attempt++ {
		purpose := llm.PurposeQuizGen
		if attempt > 0 {
			purpose = llm.PurposeQuizRegen
		}
		d, err := g.generateOnce(llm.WithPurpose(ctx, purpose), llmReq, req)
		if err == nil {
			return d, nil
		}
		lastErr = err
		var verr *ValidationError
		if !errors.As(err, &verr) || !verr.Retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

func (g *LLMGenerator) generateOnce(ctx context.Context, llmReq llm.Request, req qa.GenerateRequest) (*Draft, error) {
	resp, err := g.provider.Generate(ctx, llmReq)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var raw quizOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}

	d := &Draft{InsufficientContext: raw.InsufficientContext}
	if d.InsufficientContext {
		return d, nil
	}
	for _, q := range raw.Questions {
		d.Items = append(d.Items, DraftItem{Stem: q.Stem, Choices: q.Choices, CorrectIndex: q.CorrectIndex})
	}

	for _, v := range g.config.Validators {
		if verr := v.Validate(d, req); verr != nil {
			return nil, verr
		}
	}
	return d, nil
}
