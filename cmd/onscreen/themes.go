package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/onscreen/internal/config"
	"github.com/jmylchreest/onscreen/internal/theme"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List available color palettes",
	Long: `List the bundled palettes and those in ~/.config/onscreen/themes.
A user palette with the same name as a bundled one replaces it.`,
	Args: cobra.NoArgs,
	RunE: runThemes,
}

func init() {
	rootCmd.AddCommand(themesCmd)
}

func runThemes(cmd *cobra.Command, args []string) error {
	c := getConfig()

	themes, err := theme.ListAvailableThemes(config.ThemesDir())
	if err != nil {
		return err
	}

	for _, info := range themes {
		palette, err := theme.LoadPalette(info.Name, config.ThemesDir(), logger)
		if err != nil {
			logger.Warn("failed to load theme", "theme", info.Name, "error", err)
			continue
		}

		marker := " "
		if info.Name == c.Theme.Name {
			marker = "*"
		}
		source := "bundled"
		if palette.Path != "" {
			source = palette.Path
		}

		sample := lipgloss.NewStyle().
			Foreground(lipgloss.Color(palette.Text)).
			Background(lipgloss.Color(palette.Background)).
			Bold(palette.Bold).
			Padding(0, 1).
			Render("Sample (x2)")

		fmt.Fprintf(os.Stdout, "%s %-12s %s  %s\n", marker, info.Name, sample, source)
	}
	return nil
}
