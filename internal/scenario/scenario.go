// Package scenario replays scripted message traffic against a display
// manager without a terminal. Scripts are YAML: a list of steps that show
// messages, advance the clock and take snapshots of the active entries.
package scenario

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/onscreen/internal/config"
	"github.com/jmylchreest/onscreen/internal/display"
	"github.com/jmylchreest/onscreen/internal/model"
	"github.com/jmylchreest/onscreen/internal/theme"
)

// ErrInvalidStep is returned for a step that does not name exactly one action.
var ErrInvalidStep = errors.New("invalid scenario step")

// Script is a parsed scenario file.
type Script struct {
	Name     string   `yaml:"name"`
	Language string   `yaml:"language"` // Overrides the configured locale
	Settings Settings `yaml:"settings"`
	Steps    []Step   `yaml:"steps"`
}

// Settings overrides the configured registry settings for one script.
type Settings struct {
	OrderNewestFirst *bool            `yaml:"order_newest_first"`
	MaxShown         *int             `yaml:"max_shown"`
	ForceFadeAfter   *config.Duration `yaml:"max_display_before_force_fade"`
	MidwayFadeValue  *float64         `yaml:"midway_fade_value"`
}

// Apply copies the set fields onto cfg.
func (s Settings) Apply(cfg *config.MessagesConfig) {
	if s.OrderNewestFirst != nil {
		cfg.OrderNewestFirst = *s.OrderNewestFirst
	}
	if s.MaxShown != nil {
		cfg.MaxShown = *s.MaxShown
	}
	if s.ForceFadeAfter != nil {
		cfg.ForceFadeAfter = *s.ForceFadeAfter
	}
	if s.MidwayFadeValue != nil {
		cfg.MidwayFadeValue = *s.MidwayFadeValue
	}
}

// Step is one scripted action, run Repeat times (at least once).
type Step struct {
	Show     *string              `yaml:"show"`
	Notify   *Notification        `yaml:"notify"`
	Class    *model.DurationClass `yaml:"class"` // For show and notify, default normal
	Tick     *float64             `yaml:"tick"`  // Seconds
	Extra    *float64             `yaml:"extra"` // Seconds passed on the next tick
	Snapshot *string              `yaml:"snapshot"`
	Repeat   int                  `yaml:"repeat"`
}

// Notification is a desktop notification to show.
type Notification struct {
	App     string `yaml:"app"`
	Summary string `yaml:"summary"`
	Body    string `yaml:"body"`
}

// Load reads and parses a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates a script.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every step names exactly one action.
func (s *Script) Validate() error {
	for i, step := range s.Steps {
		actions := 0
		for _, set := range []bool{step.Show != nil, step.Notify != nil, step.Tick != nil, step.Extra != nil, step.Snapshot != nil} {
			if set {
				actions++
			}
		}
		if actions != 1 {
			return fmt.Errorf("%w %d: want exactly one of show, notify, tick, extra, snapshot; got %d", ErrInvalidStep, i+1, actions)
		}
		if step.Repeat < 0 {
			return fmt.Errorf("%w %d: repeat cannot be negative", ErrInvalidStep, i+1)
		}
	}
	return nil
}

// Snapshot is the registry state captured by a snapshot step.
type Snapshot struct {
	Label   string                  `json:"label" yaml:"label"`
	Elapsed float64                 `json:"elapsed" yaml:"elapsed"` // Seconds of scripted time
	Entries []display.EntrySnapshot `json:"entries" yaml:"entries"`
}

// Result summarizes a run.
type Result struct {
	Snapshots []Snapshot
	Shown     int // New entries
	Merged    int
	Closed    map[display.CloseReason]int
	Elapsed   float64
}

// Options configures a run.
type Options struct {
	Messages  config.MessagesConfig
	Palette   *theme.Palette    // nil uses the default palette
	Formatter display.Formatter // nil uses the built-in format
	Logger    *slog.Logger
}

// Run replays the script against a fresh manager with a headless renderer.
// The manager is closed before Run returns; entries still shown count as
// closed at shutdown.
func Run(script *Script, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg := opts.Messages
	script.Settings.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario settings: %w", err)
	}

	mgr := display.NewManager(cfg, display.NewHeadlessRenderer(), theme.NewStylePool(opts.Palette, logger), logger)
	mgr.SetFormatter(opts.Formatter)

	res := &Result{Closed: make(map[display.CloseReason]int)}
	mgr.SetShowCallback(func(_ model.Message, merged bool) {
		if merged {
			res.Merged++
		} else {
			res.Shown++
		}
	})
	mgr.SetCloseCallback(func(_ model.Message, reason display.CloseReason) {
		res.Closed[reason]++
	})
	defer mgr.Close()

	for i, step := range script.Steps {
		for range max(step.Repeat, 1) {
			if err := runStep(mgr, step, res); err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
		}
	}

	logger.Debug("scenario finished",
		"name", script.Name,
		"steps", len(script.Steps),
		"elapsed", res.Elapsed,
		"active", mgr.ActiveCount(),
	)
	return res, nil
}

// runStep performs one repetition of step.
func runStep(mgr *display.Manager, step Step, res *Result) error {
	class := model.DurationNormal
	if step.Class != nil {
		class = *step.Class
	}

	switch {
	case step.Show != nil:
		return mgr.ShowText(*step.Show, class)

	case step.Notify != nil:
		n := step.Notify
		return mgr.ShowMessage(model.NewNotificationMessage(n.App, n.Summary, n.Body, class, 0))

	case step.Tick != nil:
		res.Elapsed += max(*step.Tick+mgr.PendingExtraTime(), 0)
		mgr.Tick(*step.Tick)

	case step.Extra != nil:
		mgr.PassExtraTime(*step.Extra)

	case step.Snapshot != nil:
		res.Snapshots = append(res.Snapshots, Snapshot{
			Label:   *step.Snapshot,
			Elapsed: res.Elapsed,
			Entries: mgr.Snapshot(),
		})
	}
	return nil
}
