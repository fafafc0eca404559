package gate

import (
	"context"

	"github.com/abhisek/readgate/internal/policy"
	"github.com/abhisek/readgate/internal/qa"
	"github.com/abhisek/readgate/internal/source"
)

// ReaderView is what the reading surface presents.
type ReaderView struct {
	Source      source.EffectiveSource
	Requirement policy.Requirement
	Intent      source.Intent
	UserText    string
}

// Playable reports whether the reader embeds live audio or video.
func (v ReaderView) Playable() bool {
	return v.Source.Kind == source.KindURL && source.IsMediaPlatform(v.Source.Platform)
}

// Surfaces is the presentation layer a workflow drives. Calls come from the
// workflow's event loop one at a time.
type Surfaces interface {
	ShowReader(ctx context.Context, view ReaderView) error

	// StopPlayback halts any live media in the reader. It is always called
	// before HideReader.
	StopPlayback(ctx context.Context) error
	HideReader(ctx context.Context) error

	// ShowQuiz returns only after the quiz surface has rendered.
	ShowQuiz(ctx context.Context, s qa.Session) error
	HideQuiz(ctx context.Context) error

	ShowIntentPrompt(ctx context.Context, minWords int) error
	ShowError(ctx context.Context, e UserError) error
	ShowVerdict(ctx context.Context, v Verdict) error
}

// Attacher is implemented by surfaces that need the controller, e.g. to
// forward user input.
type Attacher interface {
	Attach(c *Controller)
}

// Commands are the user inputs a surface forwards to its workflow.
// *Controller implements it.
type Commands interface {
	CompleteReading() error
	SubmitIntent(text string) error
	Submit(answers []int) error
	Close() error
}

var _ Commands = (*Controller)(nil)
