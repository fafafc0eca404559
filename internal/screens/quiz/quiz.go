// Package quiz is the quiz surface. It only ever holds the questions and
// the user's picks; scoring happens server-side.
package quiz

import (
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/readgate/internal/gate"
	"github.com/abhisek/readgate/internal/qa"
	"github.com/abhisek/readgate/internal/screen"
	"github.com/abhisek/readgate/internal/ui/components"
	"github.com/abhisek/readgate/internal/ui/layout"
	"github.com/abhisek/readgate/internal/ui/theme"
)

// MountedMsg is emitted once the screen has been initialised on the stack.
type MountedMsg struct {
	QAID string
}

// Screen implements screen.Screen for an active quiz.
type Screen struct {
	qaID       string
	cmds       gate.Commands
	items      []components.MultiChoice
	current    int
	submitting bool
	notice     string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates a quiz screen for s.
func New(s qa.Session, cmds gate.Commands) *Screen {
	items := make([]components.MultiChoice, len(s.Questions))
	for i, q := range s.Questions {
		items[i] = components.NewMultiChoice(fmt.Sprintf("%d. %s", i+1, q.Stem), q.Choices)
	}
	return &Screen{qaID: s.QAID, cmds: cmds, items: items}
}

func (s *Screen) Init() tea.Cmd {
	id := s.qaID
	return func() tea.Msg { return MountedMsg{QAID: id} }
}

func (s *Screen) Title() string {
	return "Quick check"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "A-D", Description: "Answer"},
		{Key: "←→", Description: "Question"},
	}
	if s.complete() {
		hints = append(hints, layout.KeyHint{Key: "S", Description: "Submit"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Cancel"})
}

// Answers returns the confirmed picks, -1 for unanswered questions.
func (s *Screen) Answers() []int {
	out := make([]int, len(s.items))
	for i, it := range s.items {
		out[i] = it.Chosen
	}
	return out
}

func (s *Screen) complete() bool {
	for _, it := range s.items {
		if !it.Answered() {
			return false
		}
	}
	return len(s.items) > 0
}

func (s *Screen) answered() int {
	n := 0
	for _, it := range s.items {
		if it.Answered() {
			n++
		}
	}
	return n
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.ErrorMsg:
		s.submitting = false
		s.notice = msg.Text
		return s, nil

	case screen.CommandDoneMsg:
		if msg.Err != nil {
			s.submitting = false
			s.notice = describe(msg.Err)
		}
		return s, nil

	case tea.KeyMsg:
		if s.submitting || len(s.items) == 0 {
			return s, nil
		}
		switch msg.String() {
		case "left", "shift+tab":
			if s.current > 0 {
				s.current--
			}
			return s, nil
		case "right", "tab":
			if s.current < len(s.items)-1 {
				s.current++
			}
			return s, nil
		case "s":
			if !s.complete() || s.cmds == nil {
				return s, nil
			}
			s.submitting = true
			s.notice = ""
			answers, cmds := s.Answers(), s.cmds
			return s, func() tea.Msg { return screen.CommandDoneMsg{Err: cmds.Submit(answers)} }
		}

		before := s.items[s.current].Chosen
		var cmd tea.Cmd
		s.items[s.current], cmd = s.items[s.current].Update(msg)
		if before < 0 && s.items[s.current].Answered() {
			s.advance()
		}
		return s, cmd
	}
	return s, nil
}

// advance moves to the next unanswered question, if any.
func (s *Screen) advance() {
	for i := 1; i <= len(s.items); i++ {
		j := (s.current + i) % len(s.items)
		if !s.items[j].Answered() {
			s.current = j
			return
		}
	}
}

func describe(err error) string {
	switch {
	case errors.Is(err, gate.ErrBusy):
		return "Checking your answers…"
	case errors.Is(err, qa.ErrAnswerCount):
		return "Answer every question before submitting."
	}
	return err.Error()
}

func (s *Screen) View(width, height int) string {
	if len(s.items) == 0 {
		return ""
	}
	var b strings.Builder

	total := len(s.items)
	bar := components.NewProgressBar(
		fmt.Sprintf("Question %d of %d", s.current+1, total),
		float64(s.answered())/float64(total), false, width/2)
	b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(bar.View()))
	b.WriteString("\n\n")

	card := theme.Card.Width(width - 4).Render(s.items[s.current].View(width - 10))
	b.WriteString(card)
	b.WriteString("\n\n")

	switch {
	case s.notice != "":
		b.WriteString(theme.Notice.Render(s.notice))
	case s.submitting:
		b.WriteString(theme.Hint.Render("Checking your answers…"))
	case s.complete():
		b.WriteString(theme.Hint.Render("All answered. Press S to submit."))
	}
	return b.String()
}
