package quiz

import (
	"fmt"
	"strings"

	"github.com/abhisek/readgate/internal/qa"
)

// Validator checks a generated draft. Implementations are stateless.
type Validator interface {
	// Name returns a short identifier for logs and errors.
	Name() string

	// Validate returns nil if d passes.
	Validate(d *Draft, req qa.GenerateRequest) *ValidationError
}

// ValidationError describes why a draft failed validation.
type ValidationError struct {
	Validator string
	Message   string
	Retryable bool
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

const (
	maxStemLen   = 300
	maxChoiceLen = 200
)

// StructuralValidator checks that stems and choices are present and within
// length limits.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(d *Draft, _ qa.GenerateRequest) *ValidationError {
	for i, it := range d.Items {
		stem := strings.TrimSpace(it.Stem)
		if stem == "" {
			return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("question %d: stem is empty", i), Retryable: true}
		}
		if len(stem) > maxStemLen {
			return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("question %d: stem exceeds %d characters", i, maxStemLen), Retryable: true}
		}
		for j, c := range it.Choices {
			if strings.TrimSpace(c) == "" {
				return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("question %d: choice %d is empty", i, j), Retryable: true}
			}
			if len(c) > maxChoiceLen {
				return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("question %d: choice %d exceeds %d characters", i, j, maxChoiceLen), Retryable: true}
			}
		}
	}
	return nil
}

// ChoiceValidator checks choice counts, uniqueness and the correct index.
type ChoiceValidator struct{}

func (v *ChoiceValidator) Name() string { return "choices" }

func (v *ChoiceValidator) Validate(d *Draft, _ qa.GenerateRequest) *ValidationError {
	for i, it := range d.Items {
		if n := len(it.Choices); n < 3 || n > 4 {
			return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("question %d: has %d choices, want 3 or 4", i, n), Retryable: true}
		}
		if it.CorrectIndex < 0 || it.CorrectIndex >= len(it.Choices) {
			return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("question %d: correct_index %d out of range", i, it.CorrectIndex), Retryable: true}
		}
		seen := make(map[string]bool, len(it.Choices))
		for _, c := range it.Choices {
			key := strings.ToLower(strings.TrimSpace(c))
			if seen[key] {
				return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("question %d: duplicate choice %q", i, c), Retryable: true}
			}
			seen[key] = true
		}
	}
	return nil
}

// CountValidator checks that the draft has the requested number of
// questions.
type CountValidator struct{}

func (v *CountValidator) Name() string { return "count" }

func (v *CountValidator) Validate(d *Draft, req qa.GenerateRequest) *ValidationError {
	if len(d.Items) != req.QuestionCount {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("got %d questions, want %d", len(d.Items), req.QuestionCount),
			Retryable: true,
		}
	}
	return nil
}

// DuplicateValidator rejects drafts that ask the same question twice.
type DuplicateValidator struct{}

func (v *DuplicateValidator) Name() string { return "duplicate" }

func (v *DuplicateValidator) Validate(d *Draft, _ qa.GenerateRequest) *ValidationError {
	seen := make(map[string]int, len(d.Items))
	for i, it := range d.Items {
		key := strings.ToLower(strings.Join(strings.Fields(it.Stem), " "))
		if j, ok := seen[key]; ok {
			return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("questions %d and %d are identical", j, i), Retryable: true}
		}
		seen[key] = i
	}
	return nil
}
