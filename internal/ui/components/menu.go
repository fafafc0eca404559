package components

import (
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/readgate/internal/ui/theme"
)

// MenuItem is one choice in a Menu.
type MenuItem struct {
	Label  string
	Action func() tea.Cmd
}

// Menu is a vertical list of choices. Digits pick an item directly.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu creates a menu with the first item selected.
func NewMenu(items []MenuItem) Menu {
	return Menu{Items: items}
}

// Update handles keyboard navigation.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(m.Items) == 0 {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Items)-1 {
			m.Selected++
		}
	case "enter":
		return m, m.run(m.Selected)
	default:
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(m.Items) {
			m.Selected = n - 1
			return m, m.run(m.Selected)
		}
	}
	return m, nil
}

func (m Menu) run(i int) tea.Cmd {
	if a := m.Items[i].Action; a != nil {
		return a()
	}
	return nil
}

// View renders the menu.
func (m Menu) View() string {
	var b strings.Builder
	for i, item := range m.Items {
		line := strconv.Itoa(i+1) + ". " + item.Label
		if i == m.Selected {
			b.WriteString(theme.Selected.Render("▸ " + line))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}
