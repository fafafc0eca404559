package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/readgate/internal/llm"
	"github.com/abhisek/readgate/internal/policy"
	"github.com/abhisek/readgate/internal/qa"
	"github.com/abhisek/readgate/internal/source"
	"github.com/abhisek/readgate/internal/store"
	"github.com/abhisek/readgate/internal/textutil"
)

var (
	// ErrUnknownQA is returned when a qaId has no stored session, or belongs
	// to another actor.
	ErrUnknownQA = errors.New("quiz: unknown qa id")

	// ErrInvalidRequest is returned for generation requests no quiz can
	// satisfy.
	ErrInvalidRequest = errors.New("quiz: invalid generate request")
)

// SessionStore persists answer keys and attempts. *store.QARepo satisfies it.
type SessionStore interface {
	SaveSession(ctx context.Context, s store.QASession) error
	GetSession(ctx context.Context, qaID string) (*store.QASession, error)
	RecordAttempt(ctx context.Context, a store.QAAttempt) error
}

// Service is the server side of quiz generation and scoring.
type Service struct {
	gen        Generator
	previews   source.PreviewFetcher
	editorials source.EditorialLookup
	sessions   SessionStore
	minRunes   int
	log        *zap.Logger
}

// NewService creates a Service. previews and editorials may be nil, in
// which case requests must carry SummaryText.
func NewService(gen Generator, previews source.PreviewFetcher, editorials source.EditorialLookup, sessions SessionStore, minMaterialRunes int, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if minMaterialRunes <= 0 {
		minMaterialRunes = DefaultConfig().MinMaterialRunes
	}
	return &Service{
		gen:        gen,
		previews:   previews,
		editorials: editorials,
		sessions:   sessions,
		minRunes:   minMaterialRunes,
		log:        log,
	}
}

// Generate produces a quiz for req and stores its answer key. Collaborator
// failures come back as a qa.ResultError; the returned error is reserved for
// invalid requests and storage failures.
func (s *Service) Generate(ctx context.Context, req qa.GenerateRequest) (qa.GenerateResult, error) {
	if req.QuestionCount < 1 || req.QuestionCount > 3 {
		return qa.GenerateResult{}, fmt.Errorf("%w: question_count %d", ErrInvalidRequest, req.QuestionCount)
	}
	switch req.TestMode {
	case policy.ModeSourceOnly, policy.ModeMixed, policy.ModeUserOnly:
	default:
		return qa.GenerateResult{}, fmt.Errorf("%w: test_mode %q", ErrInvalidRequest, req.TestMode)
	}

	material, failed := s.material(ctx, req)
	if failed != nil {
		s.log.Info("quiz material unavailable",
			zap.String("source_ref", req.SourceRef),
			zap.String("error_kind", string(failed.ErrorKind)))
		return *failed, nil
	}
	if textutil.RuneLen(textutil.Normalize(material)) < s.minRunes {
		return qa.GenerateResult{Kind: qa.ResultInsufficientContext}, nil
	}

	draft, err := s.gen.Generate(ctx, req, material)
	if err != nil {
		kind := qa.ErrorProvider
		var verr *ValidationError
		if errors.As(err, &verr) || llm.IsInvalidOutput(err) {
			kind = qa.ErrorInvalidOutput
		}
		s.log.Warn("quiz generation failed", zap.String("error_kind", string(kind)), zap.Error(err))
		return qa.GenerateResult{Kind: qa.ResultError, ErrorKind: kind, Error: err.Error()}, nil
	}
	if draft.InsufficientContext {
		return qa.GenerateResult{Kind: qa.ResultInsufficientContext}, nil
	}

	sess := qa.Session{QAID: uuid.NewString(), SourceRef: req.SourceRef}
	key := make([]int, len(draft.Items))
	for i, it := range draft.Items {
		sess.Questions = append(sess.Questions, qa.Question{
			ID:      "q" + strconv.Itoa(i+1),
			Stem:    it.Stem,
			Choices: it.Choices,
		})
		key[i] = it.CorrectIndex
	}

	questions, err := json.Marshal(sess.Questions)
	if err != nil {
		return qa.GenerateResult{}, fmt.Errorf("marshal questions: %w", err)
	}
	err = s.sessions.SaveSession(ctx, store.QASession{
		QAID:      sess.QAID,
		ActorID:   req.ActorID,
		SourceRef: req.SourceRef,
		TestMode:  string(req.TestMode),
		Questions: questions,
		AnswerKey: key,
	})
	if err != nil {
		return qa.GenerateResult{}, fmt.Errorf("save quiz session: %w", err)
	}

	s.log.Info("quiz generated",
		zap.String("qa_id", sess.QAID),
		zap.Int("questions", len(sess.Questions)),
		zap.String("test_mode", string(req.TestMode)))
	return qa.GenerateResult{Kind: qa.ResultOK, Session: &sess}, nil
}

// material returns the text to quiz on, or a ready-made error result.
func (s *Service) material(ctx context.Context, req qa.GenerateRequest) (string, *qa.GenerateResult) {
	if req.TestMode == policy.ModeUserOnly {
		return req.UserText, nil
	}
	if req.SummaryText != "" {
		return req.SummaryText, nil
	}
	if req.SourceRef == "" {
		return "", unavailable(qa.ErrorSourceUnavailable, "no source reference or summary text")
	}

	if id, ok := source.EditorialID(req.SourceRef); ok {
		if s.editorials == nil {
			return "", unavailable(qa.ErrorSourceUnavailable, "editorial lookup not configured")
		}
		ed, err := s.editorials.GetEditorial(ctx, id)
		if err != nil || ed == nil {
			return "", unavailable(qa.ErrorSourceUnavailable, "editorial "+id+" not found")
		}
		return textutil.StripMarkers(ed.Body), nil
	}

	if s.previews == nil {
		return "", unavailable(qa.ErrorSourceUnavailable, "preview fetcher not configured")
	}
	p, err := s.previews.FetchPreview(ctx, req.SourceRef)
	if err != nil {
		s.log.Debug("preview fetch failed", zap.String("url", req.SourceRef), zap.Error(err))
		p = nil
	}

	platform := source.DetectPlatform(req.SourceRef)
	if p != nil && p.Platform != "" {
		platform = p.Platform
	}
	if source.IsMediaPlatform(platform) {
		// Audio and video pages only count when the fetcher produced a
		// transcript; descriptions are not the content.
		if p == nil || p.Content == "" {
			return "", unavailable(qa.ErrorTranscriptUnavailable, "no transcript for "+platform+" source")
		}
		return p.Content, nil
	}
	if text := p.BestText(); text != "" {
		return text, nil
	}
	return "", unavailable(qa.ErrorSourceUnavailable, "no readable content at "+req.SourceRef)
}

func unavailable(kind qa.ErrorKind, msg string) *qa.GenerateResult {
	return &qa.GenerateResult{Kind: qa.ResultError, ErrorKind: kind, Error: msg}
}

// Validate scores answers for req.QAID. When actorID is non-empty the
// session must belong to that actor. The result depends only on the stored
// key and the answers, so resubmission yields the same verdict.
func (s *Service) Validate(ctx context.Context, actorID string, req qa.ValidateRequest) (qa.ValidateResult, error) {
	sess, err := s.sessions.GetSession(ctx, req.QAID)
	if errors.Is(err, store.ErrNotFound) {
		return qa.ValidateResult{}, ErrUnknownQA
	}
	if err != nil {
		return qa.ValidateResult{}, err
	}
	if actorID != "" && sess.ActorID != "" && sess.ActorID != actorID {
		return qa.ValidateResult{}, ErrUnknownQA
	}
	if len(req.Answers) != len(sess.AnswerKey) {
		return qa.ValidateResult{}, fmt.Errorf("%w: got %d, want %d", qa.ErrAnswerCount, len(req.Answers), len(sess.AnswerKey))
	}

	res := Score(sess.AnswerKey, req.Answers)

	err = s.sessions.RecordAttempt(ctx, store.QAAttempt{
		QAID:    req.QAID,
		Answers: req.Answers,
		Score:   res.Score,
		Total:   res.Total,
		Passed:  *res.Passed,
	})
	if err != nil {
		s.log.Warn("failed to record quiz attempt", zap.String("qa_id", req.QAID), zap.Error(err))
	}
	return res, nil
}

// Score compares answers with key. len(answers) must equal len(key).
func Score(key, answers []int) qa.ValidateResult {
	res := qa.ValidateResult{Total: len(key), WrongIndexes: []int{}}
	for i, want := range key {
		if answers[i] == want {
			res.Score++
		} else {
			res.WrongIndexes = append(res.WrongIndexes, i)
		}
	}
	passed := qa.Passed(res.Score, res.Total)
	res.Passed = &passed
	return res
}
