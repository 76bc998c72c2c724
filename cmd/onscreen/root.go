// Package main provides the CLI entrypoint for onscreen.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/onscreen/internal/config"
	"github.com/jmylchreest/onscreen/internal/locale"
	"github.com/jmylchreest/onscreen/internal/theme"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
		logFile    string
	}
	logger  *slog.Logger
	logSink io.Closer
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "onscreen",
	Short: "Fading on-screen messages in the terminal",
	Long: `onscreen shows short messages that fade out on their own.

Repeated messages are folded into one entry with a counter, the number of
entries on screen is capped, and the entry closest to fading makes room
for a new one. Messages come from stdin, a followed file or D-Bus desktop
notifications.

Running onscreen without a subcommand starts the terminal display.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogger(); err != nil {
			return err
		}

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath, logger)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logSink != nil {
			return logSink.Close()
		}
		return nil
	},
	// Default to the display when no subcommand is provided
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDisplay(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/onscreen/config.toml)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.logFile, "log-file", "",
		"Append logs to this file instead of stderr")
}

// setupLogger configures the global slog logger.
func setupLogger() error {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	// Log to stderr so stdout is clean for output
	var w io.Writer = os.Stderr
	if globalOpts.logFile != "" {
		f, err := os.OpenFile(globalOpts.logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		logSink = f
	}

	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// getConfig returns the global config instance.
func getConfig() *config.Config {
	return cfg
}

// loadPalette loads the configured palette, falling back to the default one
// with a warning.
func loadPalette(name string) *theme.Palette {
	palette, err := theme.LoadPalette(name, config.ThemesDir(), logger)
	if err != nil {
		logger.Warn("failed to load theme, using default", "theme", name, "error", err)
		return theme.DefaultPalette()
	}
	return palette
}

// loadLocalizer loads the catalog for lang.
func loadLocalizer(lang string) (*locale.Localizer, error) {
	l, err := locale.Load(lang, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load locale: %w", err)
	}
	return l, nil
}
