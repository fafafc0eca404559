package gate

import (
	"context"

	"github.com/abhisek/readgate/internal/qa"
)

// QuestionGenerator is the question generation collaborator.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, req qa.GenerateRequest) (qa.GenerateResult, error)
}

// AnswerScorer is the answer validation collaborator. It is the only judge
// of correctness.
type AnswerScorer interface {
	ValidateAnswers(ctx context.Context, req qa.ValidateRequest) (qa.ValidateResult, error)
}

// AnswerValidator turns scorer results into verdicts. It sends only the
// qaId and the chosen indexes.
type AnswerValidator struct {
	scorer AnswerScorer
}

// NewAnswerValidator creates an AnswerValidator.
func NewAnswerValidator(scorer AnswerScorer) *AnswerValidator {
	return &AnswerValidator{scorer: scorer}
}

// Validate scores answers for qaID. Transport failures come back as
// *ValidationTransportError.
func (v *AnswerValidator) Validate(ctx context.Context, qaID string, answers []int) (Verdict, error) {
	res, err := v.scorer.ValidateAnswers(ctx, qa.ValidateRequest{QAID: qaID, Answers: answers})
	if err != nil {
		return Verdict{}, &ValidationTransportError{Err: err}
	}

	passed := qa.Passed(res.Score, res.Total)
	if res.Passed != nil {
		passed = *res.Passed
	}

	verdict := Verdict{
		Outcome:      OutcomeFailed,
		Score:        res.Score,
		Total:        res.Total,
		WrongIndexes: res.WrongIndexes,
	}
	if passed {
		verdict.Outcome = OutcomePassed
	}
	return verdict, nil
}
