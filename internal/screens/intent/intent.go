// Package intent asks for the user's own opinion when the source cannot be
// quizzed.
package intent

import (
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/readgate/internal/gate"
	"github.com/abhisek/readgate/internal/screen"
	"github.com/abhisek/readgate/internal/ui/components"
	"github.com/abhisek/readgate/internal/ui/layout"
	"github.com/abhisek/readgate/internal/ui/theme"
)

const maxOpinionChars = 4000

// Screen implements screen.Screen for the intent prompt.
type Screen struct {
	minWords int
	cmds     gate.Commands
	input    components.TextInput
	waiting  bool
	notice   string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates an intent prompt requiring minWords words.
func New(minWords int, cmds gate.Commands) *Screen {
	return &Screen{
		minWords: minWords,
		cmds:     cmds,
		input:    components.NewTextInput("What do you think about it?", maxOpinionChars, minWords),
	}
}

func (s *Screen) Init() tea.Cmd {
	return s.input.Init()
}

func (s *Screen) Title() string {
	return "Your take"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Submit"},
		{Key: "Esc", Description: "Cancel"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.ErrorMsg:
		s.waiting = false
		s.notice = msg.Text
		return s, nil

	case screen.CommandDoneMsg:
		s.waiting = false
		if msg.Err != nil {
			s.notice = s.describe(msg.Err)
		}
		return s, nil

	case tea.KeyMsg:
		if msg.String() == "enter" {
			if s.waiting || s.cmds == nil {
				return s, nil
			}
			if s.input.Words() < s.minWords {
				s.notice = fmt.Sprintf("Write at least %d words.", s.minWords)
				return s, nil
			}
			s.waiting = true
			s.notice = ""
			text, cmds := s.input.Value(), s.cmds
			return s, func() tea.Msg { return screen.CommandDoneMsg{Err: cmds.SubmitIntent(text)} }
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *Screen) describe(err error) string {
	if errors.Is(err, gate.ErrIntentTooShort) {
		return fmt.Sprintf("Write at least %d words.", s.minWords)
	}
	return err.Error()
}

func (s *Screen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Width(width).Render("We couldn't get a transcript for this"))
	b.WriteString("\n\n")
	b.WriteString(theme.Subtitle.Width(width).Render(
		fmt.Sprintf("Tell us what you took from it in %d words or more and we'll let it through.", s.minWords)))
	b.WriteString("\n\n")
	b.WriteString(theme.Card.Width(width - 4).Render(s.input.View()))
	if s.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.Notice.Render(s.notice))
	}
	return b.String()
}
