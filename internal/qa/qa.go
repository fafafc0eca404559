// Package qa holds the quiz wire types shared by the gate, its surfaces and
// the quiz service. Nothing here carries an answer key.
package qa

import (
	"errors"

	"github.com/abhisek/readgate/internal/policy"
)

// ErrAnswerCount is returned when the number of answers does not match the
// number of questions.
var ErrAnswerCount = errors.New("quiz: answer count does not match question count")

// The pass threshold. Passed applies it; nothing else compares scores.
const (
	passNumerator   = 2
	passDenominator = 3
)

// PassRatio is the share of correct answers needed to pass.
const PassRatio = float64(passNumerator) / float64(passDenominator)

// Passed reports whether score out of total meets PassRatio.
func Passed(score, total int) bool {
	if total <= 0 {
		return false
	}
	return score*passDenominator >= total*passNumerator
}

// Question is what a client sees: no answer, no explanation.
type Question struct {
	ID      string   `json:"id"`
	Stem    string   `json:"stem"`
	Choices []string `json:"choices"`
}

// Session is a generated quiz. QAID is the only token scoring needs.
type Session struct {
	QAID      string     `json:"qa_id"`
	Questions []Question `json:"questions"`
	SourceRef string     `json:"source_ref,omitempty"`
}

// GenerateRequest asks for a quiz. SummaryText, when set, is used as the
// source material instead of fetching SourceRef.
type GenerateRequest struct {
	ActorID       string          `json:"actor_id,omitempty"`
	SourceRef     string          `json:"source_ref,omitempty"`
	SummaryText   string          `json:"summary_text,omitempty"`
	UserText      string          `json:"user_text,omitempty"`
	QuestionCount int             `json:"question_count"`
	TestMode      policy.TestMode `json:"test_mode"`
}

// ResultKind tags a GenerateResult.
type ResultKind string

const (
	ResultOK                  ResultKind = "ok"
	ResultInsufficientContext ResultKind = "insufficient_context"
	ResultError               ResultKind = "error"
)

// ErrorKind classifies generation errors so callers never match on text.
type ErrorKind string

const (
	ErrorTranscriptUnavailable ErrorKind = "transcript_unavailable"
	ErrorSourceUnavailable     ErrorKind = "source_unavailable"
	ErrorProvider              ErrorKind = "provider"
	ErrorInvalidOutput         ErrorKind = "invalid_output"
)

// GenerateResult is the outcome of a generation request.
type GenerateResult struct {
	Kind      ResultKind `json:"kind"`
	Session   *Session   `json:"session,omitempty"`
	ErrorKind ErrorKind  `json:"error_kind,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// ValidateRequest is everything a client sends for scoring.
type ValidateRequest struct {
	QAID    string `json:"qa_id"`
	Answers []int  `json:"answers"`
}

// ValidateResult is the scorer's verdict. Passed is a pointer because some
// scorers report only score and total.
type ValidateResult struct {
	Passed       *bool `json:"passed,omitempty"`
	Score        int   `json:"score"`
	Total        int   `json:"total"`
	WrongIndexes []int `json:"wrong_indexes"`
}
