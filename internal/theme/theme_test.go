package theme

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestParsePalette(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{
			name:    "valid",
			content: "text = \"#ffffff\"\nshadow = \"#000000\"\nbackground = \"#101010\"\nbold = true\n",
		},
		{
			name:    "invalid toml",
			content: "text = ",
			wantErr: true,
		},
		{
			name:    "invalid color",
			content: "text = \"white\"\nshadow = \"#000000\"\nbackground = \"#101010\"\n",
			wantErr: true,
		},
		{
			name:    "missing background",
			content: "text = \"#ffffff\"\nshadow = \"#000000\"\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePalette("test", []byte(tt.content))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "test", p.Name)
			assert.True(t, p.Bold)
			assert.Equal(t, "#ffffff", p.TextColor().Hex())
			assert.Equal(t, "#101010", p.BackgroundColor().Hex())
		})
	}
}

func TestLoadPalette_Bundled(t *testing.T) {
	p, err := LoadPalette("ember", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "ember", p.Name)
	assert.Empty(t, p.Path)
	assert.True(t, p.Bold)
}

func TestLoadPalette_EmptyNameIsDefault(t *testing.T) {
	p, err := LoadPalette("", t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultThemeName, p.Name)
}

func TestLoadPalette_UserOverridesBundled(t *testing.T) {
	dir := t.TempDir()
	content := "text = \"#00ff00\"\nshadow = \"#000000\"\nbackground = \"#000000\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.toml"), []byte(content), 0644))

	p, err := LoadPalette("default", dir, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "default.toml"), p.Path)
	assert.Equal(t, "#00ff00", p.TextColor().Hex())
}

func TestLoadPalette_BrokenUserFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mono.toml"), []byte("text = \"nope\""), 0644))

	var buf bytes.Buffer
	p, err := LoadPalette("mono", dir, testLogger(&buf))
	require.NoError(t, err)
	assert.Empty(t, p.Path)
	assert.Contains(t, buf.String(), "failed to load user theme")
}

func TestLoadPalette_NotFound(t *testing.T) {
	_, err := LoadPalette("nonexistent", t.TempDir(), nil)
	assert.True(t, errors.Is(err, ErrThemeNotFound))
}

func TestListAvailableThemes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.toml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.toml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(""), 0644))

	themes, err := ListAvailableThemes(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(themes))
	for _, th := range themes {
		names = append(names, th.Name)
		if th.Name == "default" {
			assert.True(t, th.IsDefault)
			assert.True(t, th.IsBundled)
		}
		if th.Name == "custom" {
			assert.False(t, th.IsBundled)
			assert.Equal(t, filepath.Join(dir, "custom.toml"), th.Path)
		}
	}
	assert.ElementsMatch(t, []string{"default", "ember", "mono", "custom"}, names)
}

func TestListAvailableThemes_MissingDir(t *testing.T) {
	themes, err := ListAvailableThemes("/nonexistent/themes")
	require.NoError(t, err)
	assert.Len(t, themes, len(BundledThemes))
}

func TestBlend(t *testing.T) {
	bg, _ := colorful.Hex("#000000")
	fg, _ := colorful.Hex("#ffffff")

	assert.Equal(t, "#000000", Blend(bg, fg, 0).Hex())
	assert.Equal(t, "#000000", Blend(bg, fg, -1).Hex())
	assert.Equal(t, "#ffffff", Blend(bg, fg, 1).Hex())
	assert.Equal(t, "#ffffff", Blend(bg, fg, 2).Hex())
	assert.Equal(t, "#808080", Blend(bg, fg, 0.5).Hex())
}
