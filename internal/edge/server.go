// Package edge exposes the gate's server-side collaborators over HTTP and
// provides the matching client.
package edge

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/readgate/internal/policy"
	"github.com/abhisek/readgate/internal/qa"
	"github.com/abhisek/readgate/internal/quiz"
	"github.com/abhisek/readgate/internal/source"
	"github.com/abhisek/readgate/internal/store"
)

// BasePath prefixes every API route.
const BasePath = "/v1"

// QuizService generates and scores quizzes. *quiz.Service satisfies it.
type QuizService interface {
	Generate(ctx context.Context, req qa.GenerateRequest) (qa.GenerateResult, error)
	Validate(ctx context.Context, actorID string, req qa.ValidateRequest) (qa.ValidateResult, error)
}

// ActionStore creates actions and answers quoted-reference lookups.
// *store.ActionRepo satisfies it.
type ActionStore interface {
	Create(ctx context.Context, a store.Action) error
	GetReferencedAction(ctx context.Context, id string) (*source.ReferencedAction, error)
}

// Config for the HTTP API handler.
type Config struct {
	Quiz       QuizService
	Previews   source.PreviewFetcher
	Actions    ActionStore
	Editorials source.EditorialLookup

	JWTSecret string

	// QARatePerSecond and QABurst bound /qa/* calls per actor.
	QARatePerSecond float64
	QABurst         int

	Log *zap.Logger
}

type server struct {
	cfg     Config
	limiter *actorLimiter
	log     *zap.Logger
}

// NewHandler returns an HTTP handler exposing the edge API.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Quiz == nil || cfg.Previews == nil || cfg.Actions == nil || cfg.Editorials == nil {
		return nil, errors.New("edge: quiz, previews, actions and editorials are required")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("edge: jwt secret is required")
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	s := &server{
		cfg:     cfg,
		limiter: newActorLimiter(cfg.QARatePerSecond, cfg.QABurst),
		log:     log,
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(s.accessLog)
	router.Use(authMiddleware(BasePath, cfg.JWTSecret))

	hcfg := huma.DefaultConfig("readgate edge API", "1.0.0")
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, BasePath)

	s.registerHealth(group)
	s.registerPreview(group)
	s.registerActions(group)
	s.registerEditorials(group)
	s.registerQA(group)

	return router, nil
}

func (s *server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *server) handleError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, quiz.ErrUnknownQA), errors.Is(err, store.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, qa.ErrAnswerCount), errors.Is(err, quiz.ErrInvalidRequest):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return huma.Error503ServiceUnavailable("request timed out")
	}
	s.log.Error("edge request failed", zap.Error(err))
	return huma.Error500InternalServerError("internal error")
}

func (s *server) registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string
	}, error) {
		return &struct {
			Body map[string]string
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func (s *server) registerPreview(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-preview",
		Method:      http.MethodGet,
		Path:        "/preview",
		Summary:     "Fetch a link preview",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		URL string `query:"url" required:"true"`
	}) (*struct {
		Body source.Preview
	}, error) {
		p, err := s.cfg.Previews.FetchPreview(ctx, input.URL)
		if err != nil {
			s.log.Debug("preview failed", zap.String("url", input.URL), zap.Error(err))
			return nil, huma.Error404NotFound("no preview")
		}
		if p == nil {
			return nil, huma.Error404NotFound("no preview")
		}
		return &struct {
			Body source.Preview
		}{Body: *p}, nil
	})
}

func (s *server) registerActions(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-action",
		Method:        http.MethodPost,
		Path:          "/actions",
		Summary:       "Publish an action",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		Body CreateActionRequest
	}) (*struct {
		Body ActionResponse
	}, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		a := input.Body.action(actor)
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		a.CreatedAt = time.Now().UTC()
		if err := s.cfg.Actions.Create(ctx, a); err != nil {
			return nil, s.handleError(err)
		}
		return &struct {
			Body ActionResponse
		}{Body: actionResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-action",
		Method:      http.MethodGet,
		Path:        "/actions/{id}",
		Summary:     "Look up a quoted reference",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body source.ReferencedAction
	}, error) {
		ref, err := s.cfg.Actions.GetReferencedAction(ctx, input.ID)
		if err != nil {
			return nil, s.handleError(err)
		}
		if ref == nil {
			return nil, huma.Error404NotFound("action not found")
		}
		return &struct {
			Body source.ReferencedAction
		}{Body: *ref}, nil
	})
}

func (s *server) registerEditorials(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-editorial",
		Method:      http.MethodGet,
		Path:        "/editorials/{id}",
		Summary:     "Fetch editorial copy",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body source.Editorial
	}, error) {
		ed, err := s.cfg.Editorials.GetEditorial(ctx, input.ID)
		if err != nil {
			return nil, s.handleError(err)
		}
		if ed == nil {
			return nil, huma.Error404NotFound("editorial not found")
		}
		return &struct {
			Body source.Editorial
		}{Body: *ed}, nil
	})
}

func (s *server) limitQA(ctx context.Context) (string, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return "", err
	}
	if !s.limiter.allow(actor) {
		return "", huma.Error429TooManyRequests("too many quiz requests")
	}
	return actor, nil
}

func (s *server) registerQA(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "generate-quiz",
		Method:      http.MethodPost,
		Path:        "/qa/generate",
		Summary:     "Generate a comprehension quiz",
		Errors:      []int{http.StatusUnauthorized, http.StatusUnprocessableEntity, http.StatusTooManyRequests},
	}, func(ctx context.Context, input *struct {
		Body GenerateQuizRequest
	}) (*struct {
		Body qa.GenerateResult
	}, error) {
		actor, err := s.limitQA(ctx)
		if err != nil {
			return nil, err
		}
		res, err := s.cfg.Quiz.Generate(ctx, qa.GenerateRequest{
			ActorID:       actor,
			SourceRef:     input.Body.SourceRef,
			SummaryText:   input.Body.SummaryText,
			UserText:      input.Body.UserText,
			QuestionCount: input.Body.QuestionCount,
			TestMode:      policy.TestMode(input.Body.TestMode),
		})
		if err != nil {
			return nil, s.handleError(err)
		}
		return &struct {
			Body qa.GenerateResult
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "validate-quiz",
		Method:      http.MethodPost,
		Path:        "/qa/validate",
		Summary:     "Score answers for a quiz",
		Errors:      []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusUnprocessableEntity, http.StatusTooManyRequests},
	}, func(ctx context.Context, input *struct {
		Body ValidateQuizRequest
	}) (*struct {
		Body qa.ValidateResult
	}, error) {
		actor, err := s.limitQA(ctx)
		if err != nil {
			return nil, err
		}
		res, err := s.cfg.Quiz.Validate(ctx, actor, qa.ValidateRequest{
			QAID:    input.Body.QAID,
			Answers: input.Body.Answers,
		})
		if err != nil {
			return nil, s.handleError(err)
		}
		return &struct {
			Body qa.ValidateResult
		}{Body: res}, nil
	})
}
