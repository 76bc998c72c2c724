package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/onscreen/internal/core"
	"github.com/jmylchreest/onscreen/internal/model"
	"github.com/jmylchreest/onscreen/internal/theme"
)

var curveOpts struct {
	class  string
	steps  int
	midway float64
}

var curveCmd = &cobra.Command{
	Use:   "curve",
	Short: "Print the fade curve of a duration class",
	Long: `Print opacity over the lifetime of a message, from fully shown to
faded out, together with the text color it blends to on the configured
theme.`,
	Args: cobra.NoArgs,
	RunE: runCurve,
}

func init() {
	rootCmd.AddCommand(curveCmd)

	curveCmd.Flags().StringVar(&curveOpts.class, "class", "normal",
		"Duration class (short, normal, long, extra-long)")
	curveCmd.Flags().IntVar(&curveOpts.steps, "steps", 8,
		"Number of intervals")
	curveCmd.Flags().Float64Var(&curveOpts.midway, "midway", 0,
		"Opacity at half lifetime (default from config)")
}

func runCurve(cmd *cobra.Command, args []string) error {
	c := getConfig()

	class, err := model.ParseDurationClass(curveOpts.class)
	if err != nil {
		return err
	}
	lifetime, err := core.DurationFor(class)
	if err != nil {
		return err
	}
	if curveOpts.steps < 1 {
		return fmt.Errorf("steps must be at least 1, got %d", curveOpts.steps)
	}

	midway := c.Messages.MidwayFadeValue
	if curveOpts.midway != 0 {
		if curveOpts.midway <= 0 || curveOpts.midway >= 1 {
			return fmt.Errorf("midway must be between 0 and 1 (exclusive), got %v", curveOpts.midway)
		}
		midway = curveOpts.midway
	}
	curve := core.FadeCurve{Midway: midway}
	palette := loadPalette(c.Theme.Name)

	fmt.Fprintf(os.Stdout, "%s: %ss, midway %s\n", class, humanize.FtoaWithDigits(lifetime, 2), humanize.FtoaWithDigits(midway, 3))
	fmt.Fprintf(os.Stdout, "%8s %8s %7s  %s\n", "elapsed", "left", "alpha", "color")
	for i := 0; i <= curveOpts.steps; i++ {
		remaining := lifetime * float64(curveOpts.steps-i) / float64(curveOpts.steps)
		alpha := curve.Alpha(remaining, lifetime)
		color := theme.Blend(palette.BackgroundColor(), palette.TextColor(), alpha)

		fmt.Fprintf(os.Stdout, "%8s %8s %7s  %s %s\n",
			humanize.FtoaWithDigits(lifetime-remaining, 2)+"s",
			humanize.FtoaWithDigits(remaining, 2)+"s",
			humanize.FtoaWithDigits(alpha, 3),
			color.Hex(),
			strings.Repeat("█", int(alpha*20+0.5)),
		)
	}
	return nil
}
