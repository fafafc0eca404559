package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/abhisek/readgate/internal/edge"
	"github.com/abhisek/readgate/internal/gate"
	"github.com/abhisek/readgate/internal/llm"
	"github.com/abhisek/readgate/internal/policy"
	"github.com/abhisek/readgate/internal/preview"
	"github.com/abhisek/readgate/internal/quiz"
	"github.com/abhisek/readgate/internal/source"
	"github.com/abhisek/readgate/internal/store"
)

// newPreviewFetcher builds the HTTP preview fetcher, behind a Redis cache
// when preview.redis_addr is set. The returned close func releases the
// Redis client.
func newPreviewFetcher(ctx context.Context) (source.PreviewFetcher, func(), error) {
	pc := cfg.Preview
	fetcher := preview.NewHTTPFetcher(preview.Config{
		Timeout:         pc.Timeout,
		MaxBytes:        pc.MaxBytes,
		RatePerSecond:   pc.RatePerSecond,
		Burst:           pc.Burst,
		UserAgent:       pc.UserAgent,
		MaxContentRunes: pc.MaxContentRune,
	}, nil, logger.Named("preview"))

	if pc.RedisAddr == "" {
		return fetcher, func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: pc.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, previews will not be cached", zap.String("addr", pc.RedisAddr), zap.Error(err))
	}
	cached := preview.NewRedisCache(rdb, fetcher, pc.CacheTTL, logger.Named("preview-cache"))
	return cached, func() { _ = rdb.Close() }, nil
}

// newQuizService builds the server-side quiz logic on top of the
// configured LLM provider. LLM calls are recorded in the event log.
func newQuizService(ctx context.Context, st *store.Store, previews source.PreviewFetcher) (*quiz.Service, error) {
	if err := cfg.LLM.Validate(); err != nil {
		if discovered, ok := llm.DiscoverConfig(); ok {
			cfg.LLM = discovered
		} else {
			return nil, fmt.Errorf("LLM provider not configured: %w", err)
		}
	}
	provider, err := llm.NewProvider(ctx, cfg.LLM, st.EventRepo(), logger.Named("llm"))
	if err != nil {
		return nil, err
	}
	qc := quiz.DefaultConfig()
	gen := quiz.NewLLMGenerator(provider, qc)
	return quiz.NewService(gen, previews, st.Editorials(), st.QA(), qc.MinMaterialRunes, logger.Named("quiz")), nil
}

// collaborators are the gate's remote dependencies, either in-process or
// behind an edge service.
type collaborators struct {
	previews   source.PreviewFetcher
	refs       source.ReferenceLookup
	editorials source.EditorialLookup
	generator  gate.QuestionGenerator
	scorer     gate.AnswerScorer
	publish    func(ctx context.Context, a store.Action) error
	close      func()
}

// newCollaborators wires the gate either to client.edge_url or, when that
// is empty, to in-process services backed by st.
func newCollaborators(ctx context.Context, st *store.Store, actorID string) (*collaborators, error) {
	if cfg.Client.EdgeURL != "" {
		if cfg.Client.Token == "" {
			return nil, errors.New("client.token is required with client.edge_url (see `readgate token`)")
		}
		c := edge.NewClient(cfg.Client.EdgeURL, cfg.Client.Token, cfg.Client.Timeout)
		return &collaborators{
			previews:   c,
			refs:       c,
			editorials: c,
			generator:  c,
			scorer:     c,
			publish: func(ctx context.Context, a store.Action) error {
				_, err := c.CreateAction(ctx, edge.CreateActionRequest{
					ID:                a.ID,
					Intent:            string(a.Intent),
					Body:              a.Body,
					DirectSourceURL:   a.DirectSourceURL,
					QuotedReferenceID: a.QuotedReferenceID,
				})
				return err
			},
			close: func() {},
		}, nil
	}

	previews, closePreviews, err := newPreviewFetcher(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := newQuizService(ctx, st, previews)
	if err != nil {
		closePreviews()
		return nil, err
	}
	local := quiz.Local{Service: svc, ActorID: actorID}
	return &collaborators{
		previews:   previews,
		refs:       st.Actions(),
		editorials: st.Editorials(),
		generator:  local,
		scorer:     local,
		publish:    st.Actions().Create,
		close:      closePreviews,
	}, nil
}

func (c *collaborators) resolver() *source.Resolver {
	return source.NewResolver(c.previews, c.refs, c.editorials, cfg.Gate.Resolver(), logger.Named("resolver"))
}

func newPolicy() *policy.Policy {
	return policy.New(cfg.Policy.Thresholds())
}
