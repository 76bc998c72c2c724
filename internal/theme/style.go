package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Style is a reusable text style for one on-screen message.
//
// Styles are handed out by a StylePool. Fading mutates the current colors, so
// a style coming back out of the pool is reset to the palette's base colors.
type Style struct {
	owner   *StylePool
	palette *Palette
	base    lipgloss.Style

	text   colorful.Color
	shadow colorful.Color
	alpha  float64

	pooled   bool
	disposed bool
}

func newStyle(owner *StylePool, palette *Palette) *Style {
	s := &Style{
		owner:   owner,
		palette: palette,
		base: lipgloss.NewStyle().
			Bold(palette.Bold).
			PaddingLeft(1).
			Border(lipgloss.ThickBorder(), false, false, false, true),
	}
	s.Reset()
	return s
}

// Reset restores the palette's base colors at full opacity.
func (s *Style) Reset() {
	s.text = s.palette.TextColor()
	s.shadow = s.palette.ShadowColor()
	s.alpha = 1
}

// Fade blends the base colors toward the background at the given opacity.
func (s *Style) Fade(alpha float64) {
	s.alpha = alpha
	bg := s.palette.BackgroundColor()
	s.text = Blend(bg, s.palette.TextColor(), alpha)
	s.shadow = Blend(bg, s.palette.ShadowColor(), alpha)
}

// Alpha returns the opacity last applied with Fade.
func (s *Style) Alpha() float64 { return s.alpha }

// TextColor returns the current, possibly faded, text color.
func (s *Style) TextColor() colorful.Color { return s.text }

// Render draws text with the current colors.
func (s *Style) Render(text string) string {
	return s.base.
		Foreground(lipgloss.Color(s.text.Hex())).
		BorderForeground(lipgloss.Color(s.shadow.Hex())).
		Render(text)
}
