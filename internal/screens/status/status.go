// Package status is the screen shown while the workflow has nothing for
// the user to do yet.
package status

import (
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/readgate/internal/screen"
	"github.com/abhisek/readgate/internal/ui/theme"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type tickMsg time.Time

// Screen is a spinner with a message.
type Screen struct {
	title   string
	message string
	frame   int
	notice  string
}

var _ screen.Screen = (*Screen)(nil)

// New creates a status screen.
func New(title, message string) *Screen {
	return &Screen{title: title, message: message}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (s *Screen) Init() tea.Cmd {
	return tick()
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		s.frame = (s.frame + 1) % len(frames)
		return s, tick()
	case screen.ErrorMsg:
		s.notice = msg.Text
	}
	return s, nil
}

func (s *Screen) View(width, height int) string {
	body := lipgloss.NewStyle().Foreground(theme.Primary).Render(frames[s.frame]) + " " +
		lipgloss.NewStyle().Foreground(theme.Text).Render(s.message)
	if s.notice != "" {
		body += "\n\n" + theme.Notice.Render(s.notice)
	}
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(body)
}

func (s *Screen) Title() string {
	return s.title
}
