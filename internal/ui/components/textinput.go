package components

import (
	"fmt"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/readgate/internal/textutil"
	"github.com/abhisek/readgate/internal/ui/theme"
)

// TextInput wraps bubbles/textinput with a live word counter.
type TextInput struct {
	Model    textinput.Model
	MinWords int
}

// NewTextInput creates a new styled text input. minWords, when positive,
// drives the counter shown under the field.
func NewTextInput(placeholder string, charLimit, minWords int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()

	if charLimit > 0 {
		ti.CharLimit = charLimit
	}

	return TextInput{
		Model:    ti,
		MinWords: minWords,
	}
}

// Init returns the initial command.
func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update handles messages.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// Words returns the current word count.
func (t TextInput) Words() int {
	return textutil.WordCount(t.Model.Value())
}

// View renders the text input.
func (t TextInput) View() string {
	view := t.Model.View()
	if t.MinWords <= 0 {
		return view
	}
	n := t.Words()
	counter := fmt.Sprintf("%d / %d words", n, t.MinWords)
	style := lipgloss.NewStyle().Foreground(theme.TextDim)
	if n >= t.MinWords {
		style = lipgloss.NewStyle().Foreground(theme.Success)
	}
	return view + "\n" + style.Render(counter)
}

// Value returns the current input value.
func (t TextInput) Value() string {
	return t.Model.Value()
}
