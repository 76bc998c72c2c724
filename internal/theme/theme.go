package theme

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pelletier/go-toml/v2"
)

// ErrThemeNotFound is returned when no user or bundled palette has the name.
var ErrThemeNotFound = errors.New("theme not found")

// Palette is the immutable set of colors messages are drawn with. The text
// color is the base color every pooled style starts from.
type Palette struct {
	Name       string `toml:"-"`
	Path       string `toml:"-"` // Empty for bundled palettes
	Text       string `toml:"text"`
	Shadow     string `toml:"shadow"`
	Background string `toml:"background"`
	Bold       bool   `toml:"bold"`

	text       colorful.Color
	shadow     colorful.Color
	background colorful.Color
}

// ParsePalette decodes a TOML palette and resolves its colors.
func ParsePalette(name string, data []byte) (*Palette, error) {
	p := &Palette{Name: name}
	if err := toml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse theme %q: %w", name, err)
	}
	if err := p.resolve(); err != nil {
		return nil, fmt.Errorf("invalid theme %q: %w", name, err)
	}
	return p, nil
}

// resolve parses the hex colors.
func (p *Palette) resolve() error {
	var err error
	if p.text, err = colorful.Hex(p.Text); err != nil {
		return fmt.Errorf("text color %q: %w", p.Text, err)
	}
	if p.shadow, err = colorful.Hex(p.Shadow); err != nil {
		return fmt.Errorf("shadow color %q: %w", p.Shadow, err)
	}
	if p.background, err = colorful.Hex(p.Background); err != nil {
		return fmt.Errorf("background color %q: %w", p.Background, err)
	}
	return nil
}

// TextColor returns the base text color.
func (p *Palette) TextColor() colorful.Color { return p.text }

// ShadowColor returns the shadow color.
func (p *Palette) ShadowColor() colorful.Color { return p.shadow }

// BackgroundColor returns the color faded text converges to.
func (p *Palette) BackgroundColor() colorful.Color { return p.background }

// Blend returns fg drawn over bg at the given opacity.
func Blend(bg, fg colorful.Color, alpha float64) colorful.Color {
	switch {
	case alpha <= 0:
		return bg
	case alpha >= 1:
		return fg
	}
	return bg.BlendRgb(fg, alpha).Clamped()
}

// DefaultPalette returns the embedded default palette.
func DefaultPalette() *Palette {
	data, _ := GetEmbeddedTheme(DefaultThemeName)
	p, err := ParsePalette(DefaultThemeName, data)
	if err != nil {
		// The embedded default is part of the binary
		panic(err)
	}
	return p
}

// LoadPalette loads a palette by name.
// Resolution order:
//  1. themesDir/<name>.toml
//  2. Embedded palettes
//
// A user file with the same name overrides the bundled palette. A broken
// user file falls back to the bundled one with a warning.
func LoadPalette(name, themesDir string, logger *slog.Logger) (*Palette, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if name == "" {
		name = DefaultThemeName
	}

	if themesDir != "" {
		path := filepath.Join(themesDir, name+".toml")
		data, err := os.ReadFile(path)
		if err == nil {
			p, err := ParsePalette(name, data)
			if err == nil {
				p.Path = path
				logger.Debug("loaded user theme", "name", name, "path", path)
				return p, nil
			}
			logger.Warn("failed to load user theme, trying bundled", "theme", name, "error", err)
		} else if !os.IsNotExist(err) {
			logger.Warn("failed to read user theme", "theme", name, "error", err)
		}
	}

	if data, found := GetEmbeddedTheme(name); found {
		logger.Debug("loaded bundled theme", "name", name)
		return ParsePalette(name, data)
	}

	return nil, fmt.Errorf("%w: %s", ErrThemeNotFound, name)
}

// ThemeInfo provides basic palette information for listing.
type ThemeInfo struct {
	Name      string
	Path      string
	IsDefault bool
	IsBundled bool
}

// ListAvailableThemes lists all available palettes (bundled + user).
// User palettes shadowing a bundled name are listed once, as bundled.
func ListAvailableThemes(themesDir string) ([]ThemeInfo, error) {
	seen := make(map[string]bool)
	var themes []ThemeInfo

	for _, name := range ListEmbeddedThemes() {
		if !seen[name] {
			seen[name] = true
			themes = append(themes, ThemeInfo{
				Name:      name,
				IsDefault: name == DefaultThemeName,
				IsBundled: true,
			})
		}
	}

	if themesDir == "" {
		return themes, nil
	}

	entries, err := os.ReadDir(themesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return themes, nil
		}
		return themes, err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) == ".toml" {
			themeName := name[:len(name)-5]
			if !seen[themeName] {
				seen[themeName] = true
				themes = append(themes, ThemeInfo{
					Name: themeName,
					Path: filepath.Join(themesDir, name),
				})
			}
		}
	}

	return themes, nil
}
