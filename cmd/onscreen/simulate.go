package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/onscreen/internal/adapter/output"
	"github.com/jmylchreest/onscreen/internal/display"
	"github.com/jmylchreest/onscreen/internal/scenario"
)

var simulateOpts struct {
	format   string
	template string
	compact  bool
	summary  bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate SCRIPT",
	Short: "Replay a scripted message sequence without a terminal",
	Long: `Replay a YAML scenario against the display registry and print the
snapshots it takes.

A scenario looks like:

  name: burst
  language: de
  settings:
    max_shown: 2
  steps:
    - show: Saved
      class: short
      repeat: 3
    - notify: {app: mail, summary: New mail}
    - tick: 0.5
      repeat: 4
    - extra: 2
    - snapshot: after burst

Settings override the [messages] section of the config for this run.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVarP(&simulateOpts.format, "format", "f", "plain",
		"Output format (plain, json, yaml)")
	simulateCmd.Flags().StringVar(&simulateOpts.template, "template", "",
		"Go template for each entry in plain format (fields: .Index, .Entry)")
	simulateCmd.Flags().BoolVar(&simulateOpts.compact, "compact", false,
		"Single-line JSON")
	simulateCmd.Flags().BoolVar(&simulateOpts.summary, "summary", false,
		"Print shown/merged/closed counts to stderr")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	c := getConfig()

	format, err := output.ParseFormat(simulateOpts.format)
	if err != nil {
		return err
	}
	opts := output.DefaultFormatterOptions()
	opts.Template = simulateOpts.template
	opts.Compact = simulateOpts.compact
	formatter, err := output.NewFormatter(format, opts)
	if err != nil {
		return err
	}

	script, err := scenario.Load(args[0])
	if err != nil {
		return err
	}

	lang := c.Locale.Language
	if script.Language != "" {
		lang = script.Language
	}
	localizer, err := loadLocalizer(lang)
	if err != nil {
		return err
	}

	res, err := scenario.Run(script, scenario.Options{
		Messages:  c.Messages,
		Palette:   loadPalette(c.Theme.Name),
		Formatter: localizer,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("scenario %s failed: %w", args[0], err)
	}

	sections := make([]output.Section, len(res.Snapshots))
	for i, snap := range res.Snapshots {
		sections[i] = output.Section{Label: snap.Label, Elapsed: snap.Elapsed, Entries: snap.Entries}
	}
	if err := formatter.FormatSections(os.Stdout, sections); err != nil {
		return err
	}

	if simulateOpts.summary {
		fmt.Fprintf(os.Stderr, "%s shown, %s merged, %s expired, %s evicted over %ss\n",
			humanize.Comma(int64(res.Shown)),
			humanize.Comma(int64(res.Merged)),
			humanize.Comma(int64(res.Closed[display.CloseExpired])),
			humanize.Comma(int64(res.Closed[display.CloseEvicted])),
			humanize.FtoaWithDigits(res.Elapsed, 2),
		)
	}
	return nil
}
