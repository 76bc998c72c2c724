// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/onscreen/internal/model"
)

// Default configuration values.
const (
	DefaultOrderNewestFirst = true
	DefaultMaxShown         = 4
	DefaultForceFadeAfter   = 15 * time.Second
	DefaultMidwayFadeValue  = 0.75
	DefaultFPS              = 30
	DefaultThemeName        = "default"
	DefaultLanguage         = "en"
	DefaultVolume           = 80
	MaxFPS                  = 240
	configDirName           = "onscreen"
	configFileName          = "config.toml"
	themesDirName           = "themes"
)

// Config is the onscreen configuration.
// Loaded from ~/.config/onscreen/config.toml
type Config struct {
	Messages MessagesConfig `toml:"messages"`
	Frame    FrameConfig    `toml:"frame"`
	Theme    ThemeConfig    `toml:"theme"`
	Locale   LocaleConfig   `toml:"locale"`
	Audio    AudioConfig    `toml:"audio"`
	Input    InputConfig    `toml:"input"`
}

// MessagesConfig controls the message registry. It is read once when the
// registry is created.
type MessagesConfig struct {
	OrderNewestFirst bool     `toml:"order_newest_first"`            // New entries on top
	MaxShown         int      `toml:"max_shown"`                     // Capacity, clamped to >= 1
	ForceFadeAfter   Duration `toml:"max_display_before_force_fade"` // e.g. "15s"
	MidwayFadeValue  float64  `toml:"midway_fade_value"`             // Opacity at half lifetime, (0,1)
}

// FrameConfig controls the TUI frame loop.
type FrameConfig struct {
	FPS int `toml:"fps"`
}

// ThemeConfig selects the color palette.
type ThemeConfig struct {
	Name string `toml:"name"` // Palette name without .toml extension
}

// LocaleConfig selects the message catalog.
type LocaleConfig struct {
	Language string `toml:"language"` // BCP 47 tag, e.g. "en", "de-AT"
}

// AudioConfig contains audio settings.
type AudioConfig struct {
	Enabled bool        `toml:"enabled"`
	Volume  int         `toml:"volume"` // 0-100
	Sounds  SoundConfig `toml:"sounds"`
}

// SoundConfig contains per-duration-class sound file paths.
type SoundConfig struct {
	Short     string `toml:"short"`
	Normal    string `toml:"normal"`
	Long      string `toml:"long"`
	ExtraLong string `toml:"extra_long"`
}

// InputConfig enables message sources beyond the command line flags.
type InputConfig struct {
	DBus        bool `toml:"dbus"`         // Serve org.freedesktop.Notifications
	DBusMonitor bool `toml:"dbus_monitor"` // Watch notifications sent to another daemon
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Messages: MessagesConfig{
			OrderNewestFirst: DefaultOrderNewestFirst,
			MaxShown:         DefaultMaxShown,
			ForceFadeAfter:   Duration(DefaultForceFadeAfter),
			MidwayFadeValue:  DefaultMidwayFadeValue,
		},
		Frame: FrameConfig{
			FPS: DefaultFPS,
		},
		Theme: ThemeConfig{
			Name: DefaultThemeName,
		},
		Locale: LocaleConfig{
			Language: DefaultLanguage,
		},
		Audio: AudioConfig{
			Enabled: false,
			Volume:  DefaultVolume,
		},
	}
}

// ConfigDir returns the onscreen configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, configDirName)
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), configFileName)
}

// ThemesDir returns the directory searched for user palettes.
func ThemesDir() string {
	return filepath.Join(ConfigDir(), themesDirName)
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns the default config if the file doesn't exist. The result is
// normalized and validated.
func LoadConfig(path string, logger *slog.Logger) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	// A missing file leaves data empty and the defaults in place
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if len(data) > 0 {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.Normalize(logger)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Normalize clamps recoverable values and logs a warning for each one.
func (c *Config) Normalize(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	c.Messages.Normalize(logger)
}

// Normalize clamps MaxShown to at least 1.
func (m *MessagesConfig) Normalize(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if m.MaxShown < 1 {
		logger.Warn("max_shown must be at least 1, clamping", "max_shown", m.MaxShown)
		m.MaxShown = 1
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Messages.Validate(); err != nil {
		return err
	}

	if c.Frame.FPS < 1 || c.Frame.FPS > MaxFPS {
		return fmt.Errorf("fps must be between 1 and %d, got %d", MaxFPS, c.Frame.FPS)
	}

	if strings.TrimSpace(c.Theme.Name) == "" {
		return errors.New("theme name cannot be empty")
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}

	return nil
}

// Validate checks the registry settings. MaxShown is not checked here
// because Normalize recovers it.
func (m *MessagesConfig) Validate() error {
	if m.MidwayFadeValue <= 0 || m.MidwayFadeValue >= 1 {
		return fmt.Errorf("midway_fade_value must be between 0 and 1 (exclusive), got %v", m.MidwayFadeValue)
	}
	if m.ForceFadeAfter < 0 {
		return fmt.Errorf("max_display_before_force_fade cannot be negative, got %s", m.ForceFadeAfter.Duration())
	}
	return nil
}

// GetSoundForClass returns the sound file path for the given duration class.
// Expands ~ to home directory.
func (c *Config) GetSoundForClass(class model.DurationClass) string {
	var path string
	switch class {
	case model.DurationShort:
		path = c.Audio.Sounds.Short
	case model.DurationLong:
		path = c.Audio.Sounds.Long
	case model.DurationExtraLong:
		path = c.Audio.Sounds.ExtraLong
	default:
		path = c.Audio.Sounds.Normal
	}
	return expandPath(path)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
