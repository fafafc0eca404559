package edge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/abhisek/readgate/internal/llm"
	"github.com/abhisek/readgate/internal/policy"
	"github.com/abhisek/readgate/internal/qa"
	"github.com/abhisek/readgate/internal/quiz"
	"github.com/abhisek/readgate/internal/source"
	"github.com/abhisek/readgate/internal/store"
)

const testSecret = "test-secret"

const article = "Researchers followed 400 adults for a year and found that a daily walk lowered blood pressure slightly."

type fakePreviews map[string]*source.Preview

func (f fakePreviews) FetchPreview(_ context.Context, url string) (*source.Preview, error) {
	return f[url], nil
}

func quizJSON() json.RawMessage {
	return json.RawMessage(`{"insufficient_context": false, "questions": [
		{"stem": "What was measured?", "choices": ["Sleep", "Blood pressure", "Height"], "correct_index": 1},
		{"stem": "For how long?", "choices": ["A week", "A month", "A year"], "correct_index": 2},
		{"stem": "What was found?", "choices": ["No effect", "A small drop", "A rise"], "correct_index": 1}
	]}`)
}

type testEnv struct {
	srv   *httptest.Server
	store *store.Store
	mock  *llm.MockProvider
}

func newTestEnv(t *testing.T, rate float64, burst int) testEnv {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "edge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	previews := fakePreviews{"https://news.example/walk": {Title: "Walking", Content: article}}
	mock := llm.NewMockProvider()
	log := zaptest.NewLogger(t)
	svc := quiz.NewService(quiz.NewLLMGenerator(mock, quiz.DefaultConfig()), previews, st.Editorials(), st.QA(), 50, log)

	h, err := NewHandler(Config{
		Quiz:            svc,
		Previews:        previews,
		Actions:         st.Actions(),
		Editorials:      st.Editorials(),
		JWTSecret:       testSecret,
		QARatePerSecond: rate,
		QABurst:         burst,
		Log:             log,
	})
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return testEnv{srv: srv, store: st, mock: mock}
}

func clientFor(t *testing.T, env testEnv, actor string) *Client {
	t.Helper()
	token, err := MintToken(testSecret, actor, time.Hour)
	require.NoError(t, err)
	return NewClient(env.srv.URL, token, 5*time.Second)
}

func TestHealthNeedsNoToken(t *testing.T) {
	env := newTestEnv(t, 10, 10)
	resp, err := http.Get(env.srv.URL + "/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t, 10, 10)

	tests := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"garbage", "not-a-jwt"},
		{"wrong secret", func() string {
			tok, _ := MintToken("other-secret", "alice", time.Hour)
			return tok
		}()},
		{"expired", signClaims(t, jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		})},
		{"no expiry", signClaims(t, jwt.RegisteredClaims{Issuer: tokenIssuer, Subject: "alice"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(env.srv.URL, tt.token, time.Second)
			_, err := c.GetEditorial(context.Background(), "x")
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "err = %v", err)
			assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
		})
	}
}

func signClaims(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tok
}

func TestMintToken_RequiresPositiveTTL(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Minute} {
		_, err := MintToken(testSecret, "alice", ttl)
		assert.Error(t, err, "ttl %s", ttl)
	}

	_, err := MintToken("", "alice", time.Hour)
	assert.Error(t, err)

	tok, err := MintToken(testSecret, "alice", time.Hour)
	require.NoError(t, err)
	actor, err := authenticate(tok, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "alice", actor)
}

func TestAuthenticate_RejectsTokenWithoutExpiry(t *testing.T) {
	_, err := authenticate(signClaims(t, jwt.RegisteredClaims{Issuer: tokenIssuer, Subject: "alice"}), testSecret)
	assert.Error(t, err)
}

func TestActionsAndReferences(t *testing.T) {
	env := newTestEnv(t, 10, 10)
	c := clientFor(t, env, "alice")
	ctx := context.Background()

	root, err := c.CreateAction(ctx, CreateActionRequest{Intent: "post", Body: "read this", DirectSourceURL: "https://news.example/walk"})
	require.NoError(t, err)
	assert.NotEmpty(t, root.ID)
	assert.Equal(t, "alice", root.ActorID)

	_, err = c.CreateAction(ctx, CreateActionRequest{ID: "reshare", Intent: "share", QuotedReferenceID: root.ID})
	require.NoError(t, err)

	ref, err := c.GetReferencedAction(ctx, "reshare")
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, root.ID, ref.QuotedReferenceID)

	missing, err := c.GetReferencedAction(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPreviewAndEditorial(t *testing.T) {
	env := newTestEnv(t, 10, 10)
	c := clientFor(t, env, "alice")
	ctx := context.Background()

	p, err := c.FetchPreview(ctx, "https://news.example/walk")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Walking", p.Title)

	p, err = c.FetchPreview(ctx, "https://news.example/missing")
	require.NoError(t, err)
	assert.Nil(t, p)

	require.NoError(t, env.store.Editorials().Upsert(ctx, source.Editorial{ID: "weekly", Title: "Weekly", Body: article}))
	ed, err := c.GetEditorial(ctx, "weekly")
	require.NoError(t, err)
	require.NotNil(t, ed)
	assert.Equal(t, article, ed.Body)
}

func TestQuizRoundTrip(t *testing.T) {
	env := newTestEnv(t, 10, 10)
	env.mock.AddResponse(llm.MockResponse{Content: quizJSON()})
	alice := clientFor(t, env, "alice")
	ctx := context.Background()

	res, err := alice.GenerateQuestions(ctx, qa.GenerateRequest{
		SourceRef:     "https://news.example/walk",
		QuestionCount: 3,
		TestMode:      policy.ModeSourceOnly,
	})
	require.NoError(t, err)
	require.Equal(t, qa.ResultOK, res.Kind)
	require.Len(t, res.Session.Questions, 3)

	verdict, err := alice.ValidateAnswers(ctx, qa.ValidateRequest{QAID: res.Session.QAID, Answers: []int{1, 2, 0}})
	require.NoError(t, err)
	require.NotNil(t, verdict.Passed)
	assert.True(t, *verdict.Passed)
	assert.Equal(t, 2, verdict.Score)
	assert.Equal(t, []int{2}, verdict.WrongIndexes)

	again, err := alice.ValidateAnswers(ctx, qa.ValidateRequest{QAID: res.Session.QAID, Answers: []int{1, 2, 0}})
	require.NoError(t, err)
	assert.Equal(t, verdict, again)

	// Another actor cannot score alice's quiz.
	bob := clientFor(t, env, "bob")
	_, err = bob.ValidateAnswers(ctx, qa.ValidateRequest{QAID: res.Session.QAID, Answers: []int{1, 2, 1}})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	_, err = alice.ValidateAnswers(ctx, qa.ValidateRequest{QAID: res.Session.QAID, Answers: []int{1}})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
}

func TestQuizRequestValidation(t *testing.T) {
	env := newTestEnv(t, 10, 10)
	c := clientFor(t, env, "alice")

	_, err := c.GenerateQuestions(context.Background(), qa.GenerateRequest{
		SummaryText:   article,
		QuestionCount: 7,
		TestMode:      policy.ModeSourceOnly,
	})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Zero(t, env.mock.CallCount())
}

func TestQuizRateLimitedPerActor(t *testing.T) {
	env := newTestEnv(t, 0.001, 1)
	ctx := context.Background()
	alice := clientFor(t, env, "alice")

	req := qa.ValidateRequest{QAID: "unknown", Answers: []int{0}}
	_, err := alice.ValidateAnswers(ctx, req)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	_, err = alice.ValidateAnswers(ctx, req)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)

	// Buckets are per actor.
	bob := clientFor(t, env, "bob")
	_, err = bob.ValidateAnswers(ctx, req)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
