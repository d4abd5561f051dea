package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ANSI 256 color palette
var (
	colorCleanGreen = lipgloss.Color("71")
	colorAmber      = lipgloss.Color("179")
	colorDangerRed  = lipgloss.Color("167")

	colorCyan = lipgloss.Color("73")
	colorGold = lipgloss.Color("220")

	colorFg    = lipgloss.Color("253")
	colorDim   = lipgloss.Color("242")
	colorBoxBg = lipgloss.Color("236")
)

// Braille spinner frames
var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

const (
	iconWarn    = "⚠"
	iconStar    = "★"
	iconOK      = "○"
	iconSensor  = "◉"
	iconAllergy = "●"
)

// Lipgloss styles
var (
	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleDim      = lipgloss.NewStyle().Foreground(colorDim)
	styleScanned  = lipgloss.NewStyle().Bold(true).Foreground(colorFg)
	styleCode     = lipgloss.NewStyle().Foreground(colorCyan)
	styleCleanTxt = lipgloss.NewStyle().Foreground(colorCleanGreen)
	styleAmber    = lipgloss.NewStyle().Foreground(colorAmber)
	styleDanger   = lipgloss.NewStyle().Foreground(colorDangerRed).Bold(true)

	styleKey       = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	styleActiveTab = lipgloss.NewStyle().Foreground(colorCyan).Bold(true).Underline(true)

	styleAllergenBox = lipgloss.NewStyle().
				Background(colorBoxBg).
				Padding(0, 1)

	styleToastBox = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			Padding(0, 1)
)

func renderSpinner(frame int) string {
	f := spinnerFrames[frame%len(spinnerFrames)]
	return lipgloss.NewStyle().Foreground(colorCyan).Render(f)
}

func truncateWithEllipsis(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	w := lipgloss.Width(s)
	if w <= maxWidth {
		return s
	}
	if maxWidth <= 1 {
		return "…"
	}
	runes := []rune(s)
	for i := len(runes) - 1; i >= 0; i-- {
		candidate := string(runes[:i]) + "…"
		if lipgloss.Width(candidate) <= maxWidth {
			return candidate
		}
	}
	return "…"
}

func padRight(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
