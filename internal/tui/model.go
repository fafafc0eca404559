package tui

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/readgate/internal/gate"
	"github.com/abhisek/readgate/internal/router"
	"github.com/abhisek/readgate/internal/screen"
	"github.com/abhisek/readgate/internal/screens/intent"
	quizscreen "github.com/abhisek/readgate/internal/screens/quiz"
	"github.com/abhisek/readgate/internal/screens/reader"
	"github.com/abhisek/readgate/internal/screens/result"
	"github.com/abhisek/readgate/internal/screens/status"
	"github.com/abhisek/readgate/internal/source"
	"github.com/abhisek/readgate/internal/ui/layout"
)

// Model is the root bubbletea model. It mounts and unmounts screens as the
// workflow drives the surfaces.
type Model struct {
	router *router.Router
	intent source.Intent

	cmds  gate.Commands
	state func() gate.State

	reader  *reader.Screen
	quiz    *quizscreen.Screen
	mounted chan struct{}

	verdict    *gate.Verdict
	onDegraded func(bool)

	width  int
	height int
}

func newModel(intent source.Intent, onDegraded func(bool)) *Model {
	return &Model{
		router:     router.New(status.New("Checking", "Finding what this "+string(intent)+" is about…")),
		intent:     intent,
		onDegraded: onDegraded,
	}
}

func (m *Model) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case attachMsg:
		m.cmds = msg.cmds
		m.state = msg.state
		return m, nil

	case showReaderMsg:
		m.reader = reader.New(msg.view, m.cmds)
		return m, m.router.Replace(m.reader)

	case stopPlaybackMsg:
		if m.reader != nil {
			m.reader.StopPlayback()
		}
		return m, nil

	case hideReaderMsg:
		if m.reader != nil {
			m.router.Remove(m.reader)
			m.reader = nil
		}
		return m, nil

	case showQuizMsg:
		m.quiz = quizscreen.New(msg.session, m.cmds)
		m.mounted = msg.mounted
		return m, m.router.Push(m.quiz)

	case quizscreen.MountedMsg:
		if m.mounted != nil && m.quiz != nil && m.router.Mounted(m.quiz) {
			close(m.mounted)
			m.mounted = nil
		}
		return m, nil

	case hideQuizMsg:
		if m.quiz != nil {
			m.router.Remove(m.quiz)
			m.quiz = nil
		}
		return m, nil

	case showIntentMsg:
		return m, m.router.Push(intent.New(msg.minWords, m.cmds))

	case showErrorMsg:
		return m, m.router.Update(screen.ErrorMsg{Text: msg.err.Message, Retryable: msg.err.Retryable})

	case showVerdictMsg:
		v := msg.verdict
		m.verdict = &v
		m.reader, m.quiz = nil, nil
		return m, m.router.Reset(result.New(v, m.onDegraded))

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.verdict != nil {
				return m, tea.Quit
			}
			if m.cmds != nil {
				cmds := m.cmds
				return m, func() tea.Msg { return screen.CommandDoneMsg{Err: cmds.Close()} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m *Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	progress := string(m.intent)
	if m.state != nil {
		progress += " · " + m.state().String()
	}
	header := layout.RenderHeader(title, progress, m.width)

	var hints []layout.KeyHint
	if hp, ok := active.(screen.KeyHintProvider); ok {
		hints = hp.KeyHints()
	} else {
		hints = []layout.KeyHint{{Key: "Esc", Description: "Cancel"}}
	}
	hints = append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
	footer := layout.RenderFooter(hints, m.width)

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}
