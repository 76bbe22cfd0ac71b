package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/fieldops/internal/orchestrator"
	"github.com/alexanderramin/fieldops/internal/schedule"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// ClassStyle maps a badge style class onto the palette.
func ClassStyle(class string) lipgloss.Style {
	switch class {
	case schedule.StyleGreen:
		return StyleGreen
	case schedule.StyleRed:
		return StyleRed
	case schedule.StyleAmber:
		return StyleYellow
	default:
		return StyleDim
	}
}

// BadgeIndicator renders a schedule badge such as "● Completed".
func BadgeIndicator(b schedule.Badge) string {
	var glyph string
	switch b.State {
	case schedule.StateCompleted:
		glyph = "✔"
	case schedule.StateNotCompleted:
		glyph = "✖"
	default:
		glyph = "○"
	}
	return ClassStyle(b.StyleClass).Render(glyph + " " + b.Label)
}

// RunStatusPill returns a colored indicator for a batch outcome.
func RunStatusPill(status string) string {
	switch orchestrator.RunStatus(status) {
	case orchestrator.StatusOK:
		return StyleGreen.Render("● ok")
	case orchestrator.StatusPartial:
		return StyleYellow.Render("◐ partial")
	case orchestrator.StatusFailed:
		return StyleRed.Render("✖ failed")
	case orchestrator.StatusRejected:
		return StyleDim.Render("⊘ rejected")
	default:
		return StyleDim.Render(status)
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
