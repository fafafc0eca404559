// Package tui hosts a gate workflow in a terminal program.
package tui

import (
	"context"
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/readgate/internal/gate"
	"github.com/abhisek/readgate/internal/source"
)

// Gater runs a gate workflow. *gate.Orchestrator implements it.
type Gater interface {
	Gate(ctx context.Context, desc source.ActionDescriptor, surfaces gate.Surfaces) (gate.Verdict, error)
}

// Result is what the terminal session produced.
type Result struct {
	Verdict gate.Verdict

	// TookDegraded is true when the user accepted the verdict's degraded
	// option on the result screen.
	TookDegraded bool
}

// Run gates desc interactively. It returns once the user has dismissed the
// result screen, or the program was quit, in which case the workflow is
// abandoned.
func Run(ctx context.Context, g Gater, desc source.ActionDescriptor, opts ...tea.ProgramOption) (Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var res Result
	m := newModel(desc.Intent, func(accepted bool) { res.TookDegraded = accepted })
	p := tea.NewProgram(m, append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)
	surfaces := NewSurfaces(p.Send)

	var gateErr error
	eg := new(errgroup.Group)
	eg.Go(func() error {
		defer surfaces.Close()
		defer cancel()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})
	eg.Go(func() error {
		res.Verdict, gateErr = g.Gate(ctx, desc, surfaces)
		return nil
	})

	if err := eg.Wait(); err != nil {
		return res, fmt.Errorf("run terminal program: %w", err)
	}
	return res, gateErr
}
