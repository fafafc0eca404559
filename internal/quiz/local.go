package quiz

import (
	"context"

	"github.com/abhisek/readgate/internal/qa"
)

// Local binds a Service to one actor so it can stand in for a remote edge
// when everything runs in one process.
type Local struct {
	Service *Service
	ActorID string
}

// GenerateQuestions generates a quiz owned by l.ActorID.
func (l Local) GenerateQuestions(ctx context.Context, req qa.GenerateRequest) (qa.GenerateResult, error) {
	req.ActorID = l.ActorID
	return l.Service.Generate(ctx, req)
}

// ValidateAnswers scores answers for a quiz owned by l.ActorID.
func (l Local) ValidateAnswers(ctx context.Context, req qa.ValidateRequest) (qa.ValidateResult, error) {
	return l.Service.Validate(ctx, l.ActorID, req)
}
