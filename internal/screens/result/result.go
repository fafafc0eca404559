// Package result shows a workflow's verdict.
package result

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/readgate/internal/gate"
	"github.com/abhisek/readgate/internal/screen"
	"github.com/abhisek/readgate/internal/ui/components"
	"github.com/abhisek/readgate/internal/ui/layout"
	"github.com/abhisek/readgate/internal/ui/theme"
)

// Screen implements screen.Screen for the verdict.
type Screen struct {
	verdict gate.Verdict
	menu    *components.Menu
	done    components.Button
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates a result screen. When the verdict offers a degraded option,
// the user may take it; onDegraded is called with their choice before the
// program quits.
func New(v gate.Verdict, onDegraded func(accepted bool)) *Screen {
	s := &Screen{verdict: v}
	quit := func() tea.Cmd { return tea.Quit }
	s.done = components.NewButton("Done", true, quit)

	if v.DegradedOption != "" {
		choose := func(accepted bool) func() tea.Cmd {
			return func() tea.Cmd {
				if onDegraded != nil {
					onDegraded(accepted)
				}
				return tea.Quit
			}
		}
		m := components.NewMenu([]components.MenuItem{
			{Label: "Post it anyway, labelled " + humanize(v.DegradedOption), Action: choose(true)},
			{Label: "Discard", Action: choose(false)},
		})
		s.menu = &m
	}
	return s
}

func (s *Screen) Init() tea.Cmd { return nil }

func (s *Screen) Title() string { return "Result" }

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.menu != nil {
		return []layout.KeyHint{{Key: "↑↓", Description: "Choose"}, {Key: "Enter", Description: "Confirm"}}
	}
	return []layout.KeyHint{{Key: "Enter", Description: "Close"}}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	if s.menu != nil {
		m, c := s.menu.Update(msg)
		s.menu = &m
		return s, c
	}
	s.done, cmd = s.done.Update(msg)
	return s, cmd
}

// Headline is the one-line summary of a verdict.
func Headline(v gate.Verdict) string {
	switch v.Outcome {
	case gate.OutcomePassed:
		return fmt.Sprintf("Passed %d/%d. Your action went through.", v.Score, v.Total)
	case gate.OutcomeFailed:
		return fmt.Sprintf("%d/%d correct. Not enough to go through.", v.Score, v.Total)
	case gate.OutcomeBypassed:
		return "No quiz needed. Your action went through."
	case gate.OutcomeAbandoned:
		return "Cancelled. Nothing was posted."
	}
	return "Something went wrong. Nothing was posted."
}

func (s *Screen) View(width, height int) string {
	v := s.verdict
	color := theme.Error
	if v.Allows() {
		color = theme.Success
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(color).Bold(true).Render(Headline(v)))
	if v.Reason != "" {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render("(" + humanize(v.Reason) + ")"))
	}
	if len(v.WrongIndexes) > 0 {
		nums := make([]string, len(v.WrongIndexes))
		for i, idx := range v.WrongIndexes {
			nums[i] = fmt.Sprint(idx + 1)
		}
		b.WriteString("\n\n")
		b.WriteString(theme.Body.Render("Missed: question " + strings.Join(nums, ", ")))
	}
	b.WriteString("\n\n")
	if s.menu != nil {
		b.WriteString(s.menu.View())
	} else {
		b.WriteString(s.done.View())
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(b.String())
}

func humanize(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}
