package components

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/readgate/internal/ui/theme"
)

// Button is a single action triggered by enter.
type Button struct {
	Label   string
	Active  bool
	OnPress func() tea.Cmd
}

// NewButton creates a new button.
func NewButton(label string, active bool, onPress func() tea.Cmd) Button {
	return Button{Label: label, Active: active, OnPress: onPress}
}

// Update fires OnPress on enter when the button is active.
func (b Button) Update(msg tea.Msg) (Button, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || !b.Active || b.OnPress == nil {
		return b, nil
	}
	if k := kmsg.String(); k == "enter" || k == "space" {
		return b, b.OnPress()
	}
	return b, nil
}

// View renders the button with its key hint.
func (b Button) View() string {
	label := " " + b.Label + "  ⏎ "
	if b.Active {
		return theme.ButtonActive.Render(label)
	}
	return theme.ButtonInactive.Render(label)
}
