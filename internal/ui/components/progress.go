package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/readgate/internal/ui/theme"
)

// ProgressBar is a horizontal bar with an optional label and percentage.
type ProgressBar struct {
	Label       string
	Percent     float64
	ShowPercent bool
	Width       int
}

// NewProgressBar creates a new progress bar. percent is clamped to [0, 1].
func NewProgressBar(label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{
		Label:       label,
		Percent:     min(max(percent, 0), 1),
		ShowPercent: showPercent,
		Width:       width,
	}
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var prefix, suffix string
	if p.Label != "" {
		prefix = theme.Body.Render(p.Label) + "  "
	}
	if p.ShowPercent {
		suffix = theme.Hint.Render(fmt.Sprintf("  %3d%%", int(p.Percent*100)))
	}

	barWidth := max(p.Width-lipgloss.Width(prefix)-lipgloss.Width(suffix), 4)
	filled := int(float64(barWidth) * p.Percent)

	return prefix +
		theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled)) +
		suffix
}
