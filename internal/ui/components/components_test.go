package components

import (
	"testing"

	tea "charm.land/bubbletea/v2"
)

func key(code rune, text string) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code, Text: text}
}

func TestMultiChoice_NavigateAndConfirm(t *testing.T) {
	m := NewMultiChoice("Which?", []string{"one", "two", "three"})
	if m.Answered() {
		t.Fatal("fresh component reports an answer")
	}

	m, _ = m.Update(key(tea.KeyDown, ""))
	m, _ = m.Update(key(tea.KeyDown, ""))
	m, _ = m.Update(key(tea.KeyDown, ""))
	if m.Selected != 2 {
		t.Fatalf("Selected = %d, want 2 (clamped)", m.Selected)
	}

	m, _ = m.Update(key(tea.KeyEnter, ""))
	if m.Chosen != 2 {
		t.Fatalf("Chosen = %d, want 2", m.Chosen)
	}

	m, _ = m.Update(key('a', "a"))
	if m.Chosen != 0 || m.Selected != 0 {
		t.Fatalf("letter pick: chosen %d selected %d", m.Chosen, m.Selected)
	}

	// No D option exists.
	m, _ = m.Update(key('d', "d"))
	if m.Chosen != 0 {
		t.Fatalf("out-of-range letter changed the answer to %d", m.Chosen)
	}
}

func TestTextInput_WordCount(t *testing.T) {
	ti := NewTextInput("", 0, 3)
	ti.Model.SetValue("one two")
	if ti.Words() != 2 {
		t.Fatalf("Words = %d", ti.Words())
	}
}

func TestMenu_DigitShortcut(t *testing.T) {
	var picked string
	item := func(name string) MenuItem {
		return MenuItem{Label: name, Action: func() tea.Cmd { picked = name; return nil }}
	}
	m := NewMenu([]MenuItem{item("post"), item("discard")})

	m, _ = m.Update(key('2', "2"))
	if picked != "discard" || m.Selected != 1 {
		t.Fatalf("picked %q selected %d", picked, m.Selected)
	}
	m, _ = m.Update(key(tea.KeyUp, ""))
	m.Update(key(tea.KeyEnter, ""))
	if picked != "post" {
		t.Fatalf("picked %q", picked)
	}
}

func TestProgressBar_Clamps(t *testing.T) {
	if NewProgressBar("", 1.5, false, 10).View() == "" {
		t.Fatal("empty render")
	}
}
