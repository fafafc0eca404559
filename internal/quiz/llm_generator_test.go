package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/readgate/internal/llm"
	"github.com/abhisek/readgate/internal/policy"
	"github.com/abhisek/readgate/internal/qa"
)

func threeQuestionsJSON() json.RawMessage {
	return json.RawMessage(`{
		"insufficient_context": false,
		"questions": [
			{"stem": "What did the trial measure?", "choices": ["Sleep", "Blood pressure", "Height"], "correct_index": 1},
			{"stem": "How long did it run?", "choices": ["A week", "A month", "A year", "Ten years"], "correct_index": 2},
			{"stem": "What was the main finding?", "choices": ["No effect", "A small drop", "A large rise"], "correct_index": 1}
		]
	}`)
}

func oneQuestionJSON() json.RawMessage {
	return json.RawMessage(`{
		"insufficient_context": false,
		"questions": [
			{"stem": "What is the author's main claim?", "choices": ["Cities need trams", "Cars are cheap", "Buses are slow"], "correct_index": 0}
		]
	}`)
}

func sourceRequest() qa.GenerateRequest {
	return qa.GenerateRequest{
		QuestionCount: 3,
		TestMode:      policy.ModeSourceOnly,
		UserText:      "interesting",
	}
}

func TestLLMGenerator_Generate(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: threeQuestionsJSON()})
	gen := NewLLMGenerator(mock, DefaultConfig())

	d, err := gen.Generate(context.Background(), sourceRequest(), "The trial followed 400 adults for a year.")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(d.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(d.Items))
	}
	if d.Items[1].CorrectIndex != 2 {
		t.Errorf("CorrectIndex = %d, want 2", d.Items[1].CorrectIndex)
	}

	call := mock.LastCall()
	if call.Schema != QuizSchema {
		t.Error("expected QuizSchema on request")
	}
	if !strings.Contains(call.Messages[0].Content, "The trial followed 400 adults") {
		t.Error("prompt should include the source material")
	}
	if strings.Contains(call.Messages[0].Content, "interesting") {
		t.Error("source-only prompt should not include the user's text")
	}
}

func TestLLMGenerator_InsufficientContext(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"insufficient_context": true, "questions": []}`),
	})
	gen := NewLLMGenerator(mock, DefaultConfig())

	d, err := gen.Generate(context.Background(), sourceRequest(), "Subscribe to continue reading.")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !d.InsufficientContext {
		t.Fatal("expected insufficient context")
	}
}

func TestLLMGenerator_RetriesRetryableValidation(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: oneQuestionJSON()}, // wrong count
		llm.MockResponse{Content: threeQuestionsJSON()},
	)
	gen := NewLLMGenerator(mock, DefaultConfig())

	d, err := gen.Generate(context.Background(), sourceRequest(), "material")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(d.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(d.Items))
	}
	if mock.CallCount() != 2 {
		t.Errorf("calls = %d, want 2", mock.CallCount())
	}
}

func TestLLMGenerator_GivesUpAfterMaxAttempts(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: oneQuestionJSON()},
		llm.MockResponse{Content: oneQuestionJSON()},
		llm.MockResponse{Content: threeQuestionsJSON()},
	)
	gen := NewLLMGenerator(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), sourceRequest(), "material")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Validator != "count" {
		t.Errorf("Validator = %q, want count", verr.Validator)
	}
	if mock.CallCount() != 2 {
		t.Errorf("calls = %d, want 2", mock.CallCount())
	}
}

func TestLLMGenerator_ProviderError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	gen := NewLLMGenerator(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), sourceRequest(), "material")
	var unavailable *llm.ErrProviderUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if mock.CallCount() != 1 {
		t.Errorf("provider errors must not be retried here, calls = %d", mock.CallCount())
	}
}

func TestBuildUserMessage_Modes(t *testing.T) {
	cfg := DefaultConfig()
	req := qa.GenerateRequest{QuestionCount: 1, TestMode: policy.ModeUserOnly, UserText: "my own take"}

	msg := buildUserMessage(req, "source body", cfg)
	if strings.Contains(msg, "source body") {
		t.Error("user-only prompt should not include source material")
	}
	if !strings.Contains(msg, "my own take") {
		t.Error("user-only prompt should include the user's text")
	}

	req.TestMode = policy.ModeMixed
	msg = buildUserMessage(req, "source body", cfg)
	if !strings.Contains(msg, "source body") || !strings.Contains(msg, "my own take") {
		t.Error("mixed prompt should include both texts")
	}
}
