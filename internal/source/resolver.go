// Package source resolves what a gated action is actually about.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/readgate/internal/textutil"
)

// ErrRequiredSourceMissing is returned when an action that must carry a
// source resolves to none.
var ErrRequiredSourceMissing = errors.New("required source missing")

const (
	// MinOCRRunes is the minimum extracted text length for media to count
	// as a source.
	MinOCRRunes = 120

	// MinEditorialRunes is the minimum editorial body length after marker
	// stripping.
	MinEditorialRunes = 50
)

// Config bounds the resolver's work.
type Config struct {
	// MaxChainDepth is the number of quoted-reference hops walked.
	MaxChainDepth int

	// HopTimeout bounds each collaborator call.
	HopTimeout time.Duration

	// ResolveTimeout bounds the whole resolution.
	ResolveTimeout time.Duration
}

// DefaultConfig returns the standard resolver bounds.
func DefaultConfig() Config {
	return Config{
		MaxChainDepth:  10,
		HopTimeout:     5 * time.Second,
		ResolveTimeout: 15 * time.Second,
	}
}

// Resolver determines the effective source of an action.
type Resolver struct {
	previews   PreviewFetcher
	refs       ReferenceLookup
	editorials EditorialLookup
	config     Config
	log        *zap.Logger
}

// NewResolver creates a Resolver. Any collaborator may be nil, in which case
// the corresponding step never yields a source.
func NewResolver(previews PreviewFetcher, refs ReferenceLookup, editorials EditorialLookup, cfg Config, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxChainDepth <= 0 {
		cfg.MaxChainDepth = DefaultConfig().MaxChainDepth
	}
	return &Resolver{
		previews:   previews,
		refs:       refs,
		editorials: editorials,
		config:     cfg,
		log:        log.Named("source"),
	}
}

// Resolve walks the priority order and returns the first source found.
// Collaborator failures are soft: the step is skipped. The only errors
// returned are ErrRequiredSourceMissing and cancellation of ctx.
func (r *Resolver) Resolve(ctx context.Context, desc ActionDescriptor) (EffectiveSource, error) {
	if r.config.ResolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.ResolveTimeout)
		defer cancel()
	}

	src := r.resolve(ctx, desc)

	// Abandonment by the caller is not a resolution failure.
	if err := ctx.Err(); err != nil && errors.Is(err, context.Canceled) {
		return None(), err
	}

	if desc.RequireSource && (src.Kind == KindNone || src.Kind == KindSelfText) {
		return src, fmt.Errorf("%w: %s action by %s", ErrRequiredSourceMissing, desc.Intent, desc.ActorUserID)
	}
	return src, nil
}

func (r *Resolver) resolve(ctx context.Context, desc ActionDescriptor) EffectiveSource {
	directEditorial, isEditorial := EditorialID(desc.DirectSourceURL)

	// 1. Direct URL.
	if desc.DirectSourceURL != "" && !isEditorial {
		return r.urlSource(ctx, desc.DirectSourceURL)
	}

	// 2. Quote chain.
	if desc.DirectSourceURL == "" && desc.QuotedReferenceID != "" {
		if link, ok := r.walkChain(ctx, desc.QuotedReferenceID); ok {
			if id, ed := EditorialID(link); ed {
				if src, ok := r.editorialSource(ctx, id); ok {
					return src
				}
			} else {
				return r.urlSource(ctx, link)
			}
		}
	}

	// 3. Attached media text.
	if m := desc.AttachedMedia; m != nil && m.Status == OCRDone && textutil.RuneLen(m.Text) >= MinOCRRunes {
		return EffectiveSource{Kind: KindMediaOCR, MediaID: m.ID, Text: m.Text}
	}

	// 4. Editorial reference.
	if isEditorial {
		if src, ok := r.editorialSource(ctx, directEditorial); ok {
			return src
		}
	}

	// 5. The user's own words.
	if textutil.Normalize(desc.UserText) != "" {
		return EffectiveSource{Kind: KindSelfText, Text: desc.UserText}
	}
	return None()
}

// walkChain follows quoted references iteratively, at most MaxChainDepth
// hops, and returns the first link found. A visited set stops cycles early;
// the depth bound stops everything else.
func (r *Resolver) walkChain(ctx context.Context, startID string) (string, bool) {
	if r.refs == nil {
		return "", false
	}
	visited := make(map[string]bool, r.config.MaxChainDepth)
	id := startID
	for hop := 0; hop < r.config.MaxChainDepth && id != ""; hop++ {
		if visited[id] {
			r.log.Debug("quote chain cycle", zap.String("id", id), zap.Int("hop", hop))
			return "", false
		}
		visited[id] = true

		action, err := r.lookup(ctx, id)
		if err != nil {
			r.log.Debug("quote chain hop failed", zap.String("id", id), zap.Int("hop", hop), zap.Error(err))
			return "", false
		}
		if action == nil {
			return "", false
		}
		if action.DirectSourceURL != "" {
			return action.DirectSourceURL, true
		}
		id = action.QuotedReferenceID
	}
	return "", false
}

func (r *Resolver) lookup(ctx context.Context, id string) (*ReferencedAction, error) {
	ctx, cancel := r.hopContext(ctx)
	defer cancel()
	return r.refs.GetReferencedAction(ctx, id)
}

func (r *Resolver) urlSource(ctx context.Context, link string) EffectiveSource {
	src := EffectiveSource{Kind: KindURL, URL: link, Platform: DetectPlatform(link)}
	if r.previews == nil {
		return src
	}

	hctx, cancel := r.hopContext(ctx)
	defer cancel()
	p, err := r.previews.FetchPreview(hctx, link)
	if err != nil {
		r.log.Debug("preview fetch failed", zap.String("url", link), zap.Error(err))
		return src
	}
	if p == nil {
		return src
	}
	src.Title = p.Title
	src.Image = p.Image
	src.Content = p.BestText()
	if src.Platform == "" {
		src.Platform = p.Platform
	}
	return src
}

func (r *Resolver) editorialSource(ctx context.Context, id string) (EffectiveSource, bool) {
	if r.editorials == nil {
		return EffectiveSource{}, false
	}
	hctx, cancel := r.hopContext(ctx)
	defer cancel()
	ed, err := r.editorials.GetEditorial(hctx, id)
	if err != nil || ed == nil {
		r.log.Debug("editorial lookup failed", zap.String("id", id), zap.Error(err))
		return EffectiveSource{}, false
	}
	body := textutil.StripMarkers(ed.Body)
	if textutil.RuneLen(body) < MinEditorialRunes {
		return EffectiveSource{}, false
	}
	return EffectiveSource{Kind: KindEditorial, EditorialID: ed.ID, Title: ed.Title, Body: body}, true
}

func (r *Resolver) hopContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.config.HopTimeout > 0 {
		return context.WithTimeout(ctx, r.config.HopTimeout)
	}
	return context.WithCancel(ctx)
}
