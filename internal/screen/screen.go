package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/readgate/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// ErrorMsg is delivered to the active screen when the workflow reports a
// problem the user should see.
type ErrorMsg struct {
	Text      string
	Retryable bool
}

// CommandDoneMsg carries the result of a command a screen sent to the
// workflow.
type CommandDoneMsg struct {
	Err error
}
