package llm

import "context"

type purposeKey struct{}

// Purposes recorded with every LLM event. Regeneration after a rejected
// draft is tagged separately.
const (
	PurposeQuizGen   = "quiz-gen"
	PurposeQuizRegen = "quiz-regen"
)

// WithPurpose attaches a purpose label to the context for event logging.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok {
		return v
	}
	return "unknown"
}
