// Package reader is the reading surface: it presents the effective source
// and, for audio and video, a playback indicator.
package reader

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/readgate/internal/gate"
	"github.com/abhisek/readgate/internal/policy"
	"github.com/abhisek/readgate/internal/screen"
	"github.com/abhisek/readgate/internal/source"
	"github.com/abhisek/readgate/internal/ui/components"
	"github.com/abhisek/readgate/internal/ui/layout"
	"github.com/abhisek/readgate/internal/ui/theme"
)

// playbackTickMsg advances the playback clock.
type playbackTickMsg time.Time

// Screen implements screen.Screen for the reader.
type Screen struct {
	view gate.ReaderView
	cmds gate.Commands

	offset  int
	playing bool
	elapsed time.Duration
	waiting bool
	notice  string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates a reader for view. cmds receives the "done reading" command.
func New(view gate.ReaderView, cmds gate.Commands) *Screen {
	return &Screen{view: view, cmds: cmds}
}

func playbackTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return playbackTickMsg(t) })
}

func (s *Screen) Init() tea.Cmd {
	if s.view.Playable() {
		s.playing = true
		return playbackTick()
	}
	return nil
}

// StopPlayback halts the playback indicator.
func (s *Screen) StopPlayback() {
	s.playing = false
}

// Playing reports whether playback is running.
func (s *Screen) Playing() bool { return s.playing }

func (s *Screen) Title() string {
	return "Read first"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "Enter", Description: "I've read it"},
		{Key: "Esc", Description: "Cancel"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case playbackTickMsg:
		if !s.playing {
			return s, nil
		}
		s.elapsed += time.Second
		return s, playbackTick()

	case screen.ErrorMsg:
		s.waiting = false
		s.notice = msg.Text

	case screen.CommandDoneMsg:
		if msg.Err != nil {
			s.waiting = false
			s.notice = describe(msg.Err)
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.offset > 0 {
				s.offset--
			}
		case "down", "j":
			s.offset++
		case "enter":
			if s.waiting || s.cmds == nil {
				return s, nil
			}
			s.waiting = true
			s.notice = ""
			cmds := s.cmds
			return s, func() tea.Msg { return screen.CommandDoneMsg{Err: cmds.CompleteReading()} }
		}
	}
	return s, nil
}

func describe(err error) string {
	switch {
	case errors.Is(err, gate.ErrBusy):
		return "Still preparing your questions…"
	case errors.Is(err, gate.ErrInvalidTransition):
		return "That isn't available right now."
	}
	return err.Error()
}

func (s *Screen) View(width, height int) string {
	src := s.view.Source
	var head strings.Builder

	title := src.Title
	if title == "" {
		title = sourceLabel(src)
	}
	head.WriteString(theme.Title.Width(width).Render(title))
	head.WriteString("\n")
	if src.Kind == source.KindURL {
		head.WriteString(theme.Subtitle.Width(width).Render(src.URL))
		head.WriteString("\n")
	}
	head.WriteString(theme.Hint.Width(width).Align(lipgloss.Center).Render(requirementLine(s.view.Requirement)))
	head.WriteString("\n")
	if s.view.Playable() {
		head.WriteString(s.playbackLine(width))
		head.WriteString("\n")
	}

	var foot string
	switch {
	case s.notice != "":
		foot = theme.Notice.Render(s.notice)
	case s.waiting:
		foot = theme.Hint.Render("Preparing questions…")
	default:
		foot = components.NewButton("I've read it", true, nil).View()
	}

	headStr := head.String()
	bodyHeight := height - lipgloss.Height(headStr) - lipgloss.Height(foot) - 2
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	body := s.body(width, bodyHeight)

	return headStr + "\n" + body + "\n\n" + foot
}

func (s *Screen) playbackLine(width int) string {
	state := "■ stopped"
	color := theme.TextDim
	if s.playing {
		state = "▶ playing"
		color = theme.Success
	}
	m := int(s.elapsed.Minutes())
	sec := int(s.elapsed.Seconds()) % 60
	return lipgloss.NewStyle().Foreground(color).Width(width).Align(lipgloss.Center).
		Render(fmt.Sprintf("%s  %d:%02d", state, m, sec))
}

func (s *Screen) body(width, height int) string {
	text := s.view.Source.ReadableText()
	if text == "" && s.view.Source.Kind == source.KindURL {
		text = "Open the link above and read it, then come back and press Enter."
	}
	if s.view.Requirement.TestMode == policy.ModeUserOnly && s.view.UserText != "" {
		if text != "" {
			text += "\n\n"
		}
		text += "Your text:\n\n" + s.view.UserText
	}

	padX := 4
	if layout.IsCompactWidth(width) {
		padX = 1
	}
	wrapped := theme.Reading.Width(width - padX).Render(text)
	lines := strings.Split(wrapped, "\n")

	maxOffset := len(lines) - height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if s.offset > maxOffset {
		s.offset = maxOffset
	}
	end := s.offset + height
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[s.offset:end], "\n")
}

func sourceLabel(src source.EffectiveSource) string {
	switch src.Kind {
	case source.KindEditorial:
		return "Editorial"
	case source.KindMediaOCR:
		return "Text from the attached image"
	case source.KindSelfText:
		return "The post you're replying to"
	}
	return "Source"
}

func requirementLine(r policy.Requirement) string {
	q := "questions"
	if r.QuestionCount == 1 {
		q = "question"
	}
	return fmt.Sprintf("%d %s about %s follow", r.QuestionCount, q, modeLabel(r.TestMode))
}

func modeLabel(m policy.TestMode) string {
	switch m {
	case policy.ModeMixed:
		return "the source and your text"
	case policy.ModeUserOnly:
		return "your text"
	}
	return "the source"
}
