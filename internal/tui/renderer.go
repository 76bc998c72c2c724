package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jmylchreest/onscreen/internal/display"
)

// Renderer draws display slots as styled terminal lines. Slot bookkeeping is
// shared with the headless renderer; this type only adds drawing.
type Renderer struct {
	*display.HeadlessRenderer

	empty lipgloss.Style
}

// NewRenderer creates a terminal renderer.
func NewRenderer() *Renderer {
	return &Renderer{
		HeadlessRenderer: display.NewHeadlessRenderer(),
		empty:            lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true),
	}
}

// View renders the visible slots in display order, each limited to width
// columns. width <= 0 means unlimited.
func (r *Renderer) View(width int) string {
	var lines []string
	for _, slot := range r.Slots() {
		if slot.Hidden || slot.Style == nil {
			continue
		}
		text := slot.Text
		if width > 2 && lipgloss.Width(text) > width-2 {
			text = truncate(text, width-2)
		}
		lines = append(lines, slot.Style.Render(text))
	}

	if len(lines) == 0 {
		return r.empty.Render("no messages")
	}
	return strings.Join(lines, "\n")
}

// truncate shortens s to at most n terminal cells, ending with an ellipsis.
// Wide characters count as two cells.
func truncate(s string, n int) string {
	if ansi.StringWidth(s) <= n {
		return s
	}
	if n <= 1 {
		return ansi.Truncate(s, n, "")
	}
	return ansi.Truncate(s, n, "…")
}
