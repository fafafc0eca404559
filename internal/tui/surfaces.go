package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/readgate/internal/gate"
	"github.com/abhisek/readgate/internal/qa"
)

// ErrProgramClosed is returned by surface calls made after the terminal
// program has exited.
var ErrProgramClosed = errors.New("tui: program closed")

// DefaultMountTimeout bounds how long ShowQuiz waits for the quiz screen.
const DefaultMountTimeout = 5 * time.Second

// Surfaces implements gate.Surfaces on top of a running bubbletea program.
type Surfaces struct {
	send         func(tea.Msg)
	closed       chan struct{}
	mountTimeout time.Duration
}

var (
	_ gate.Surfaces = (*Surfaces)(nil)
	_ gate.Attacher = (*Surfaces)(nil)
)

// NewSurfaces creates Surfaces that deliver to send. Call Close once the
// program has exited.
func NewSurfaces(send func(tea.Msg)) *Surfaces {
	return &Surfaces{
		send:         send,
		closed:       make(chan struct{}),
		mountTimeout: DefaultMountTimeout,
	}
}

// Close marks the program as gone; pending and future calls fail fast.
func (s *Surfaces) Close() {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
}

func (s *Surfaces) deliver(msg tea.Msg) error {
	select {
	case <-s.closed:
		return ErrProgramClosed
	default:
	}
	s.send(msg)
	return nil
}

// Attach hands the controller to the program so screens can forward input.
func (s *Surfaces) Attach(c *gate.Controller) {
	_ = s.deliver(attachMsg{cmds: c, state: c.State})
}

func (s *Surfaces) ShowReader(_ context.Context, view gate.ReaderView) error {
	return s.deliver(showReaderMsg{view: view})
}

func (s *Surfaces) StopPlayback(context.Context) error {
	return s.deliver(stopPlaybackMsg{})
}

func (s *Surfaces) HideReader(context.Context) error {
	return s.deliver(hideReaderMsg{})
}

// ShowQuiz blocks until the quiz screen is on the stack.
func (s *Surfaces) ShowQuiz(ctx context.Context, session qa.Session) error {
	mounted := make(chan struct{})
	if err := s.deliver(showQuizMsg{session: session, mounted: mounted}); err != nil {
		return err
	}

	timer := time.NewTimer(s.mountTimeout)
	defer timer.Stop()
	select {
	case <-mounted:
		return nil
	case <-s.closed:
		return ErrProgramClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("quiz screen not mounted after %s", s.mountTimeout)
	}
}

func (s *Surfaces) HideQuiz(context.Context) error {
	return s.deliver(hideQuizMsg{})
}

func (s *Surfaces) ShowIntentPrompt(_ context.Context, minWords int) error {
	return s.deliver(showIntentMsg{minWords: minWords})
}

func (s *Surfaces) ShowError(_ context.Context, e gate.UserError) error {
	return s.deliver(showErrorMsg{err: e})
}

func (s *Surfaces) ShowVerdict(_ context.Context, v gate.Verdict) error {
	return s.deliver(showVerdictMsg{verdict: v})
}
