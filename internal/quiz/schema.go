package quiz

import "github.com/abhisek/readgate/internal/llm"

// QuizSchema defines the JSON the model must return.
var QuizSchema = &llm.Schema{
	Name:        "comprehension-quiz",
	Description: "Multiple choice questions that check whether the reader understood a text",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"insufficient_context": map[string]any{
				"type":        "boolean",
				"description": "True when the material is too thin to ask meaningful questions. Questions must then be empty.",
			},
			"questions": map[string]any{
				"type":     "array",
				"maxItems": 3,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"stem": map[string]any{
							"type":        "string",
							"description": "The question, answerable only by someone who read the material",
						},
						"choices": map[string]any{
							"type":     "array",
							"minItems": 3,
							"maxItems": 4,
							"items":    map[string]any{"type": "string"},
						},
						"correct_index": map[string]any{
							"type":        "integer",
							"minimum":     0,
							"maximum":     3,
							"description": "Zero-based index of the correct choice",
						},
					},
					"required":             []any{"stem", "choices", "correct_index"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"insufficient_context", "questions"},
		"additionalProperties": false,
	},
}

type quizOutput struct {
	InsufficientContext bool `json:"insufficient_context"`
	Questions           []struct {
		Stem         string   `json:"stem"`
		Choices      []string `json:"choices"`
		CorrectIndex int      `json:"correct_index"`
	} `json:"questions"`
}
