package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/readgate/internal/ui/theme"
)

var choiceLabels = []string{"A", "B", "C", "D"}

// MultiChoice is a multiple-choice selector. It records which option was
// picked and nothing else; correctness is decided elsewhere.
type MultiChoice struct {
	Question string
	Options  []string
	Selected int

	// Chosen is the confirmed option, -1 until enter is pressed.
	Chosen int
}

// NewMultiChoice creates a new multiple-choice component.
func NewMultiChoice(question string, options []string) MultiChoice {
	return MultiChoice{
		Question: question,
		Options:  options,
		Chosen:   -1,
	}
}

// Answered reports whether an option has been confirmed.
func (m MultiChoice) Answered() bool { return m.Chosen >= 0 }

// Update handles keyboard navigation and selection. Letter keys pick an
// option directly. A confirmed answer can be changed until the quiz is
// submitted.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	case "enter", "space":
		m.Chosen = m.Selected
	default:
		for i := range m.Options {
			if i < len(choiceLabels) && strings.EqualFold(key, choiceLabels[i]) {
				m.Selected = i
				m.Chosen = i
			}
		}
	}

	return m, nil
}

// View renders the multiple-choice component.
func (m MultiChoice) View(width int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Width(width).Render(m.Question))
	b.WriteString("\n\n")

	for i, opt := range m.Options {
		label := "?"
		if i < len(choiceLabels) {
			label = choiceLabels[i]
		}
		prefix := "  "
		if i == m.Selected {
			prefix = "▸ "
		}
		mark := " "
		if i == m.Chosen {
			mark = "●"
		}
		line := fmt.Sprintf("%s%s %s)  %s", prefix, mark, label, opt)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case i == m.Chosen:
			style = theme.Selected
		case i == m.Selected:
			style = lipgloss.NewStyle().Foreground(theme.Primary)
		}
		b.WriteString(style.Width(width).Render(line))
		b.WriteString("\n")
	}

	return b.String()
}
