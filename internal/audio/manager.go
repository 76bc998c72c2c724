package audio

import (
	"context"
	"log/slog"
	"os"

	"github.com/jmylchreest/onscreen/internal/config"
	"github.com/jmylchreest/onscreen/internal/model"
)

// Chimes plays the configured sound of a message's duration class whenever
// a new entry is shown. Merges into an existing entry stay silent.
type Chimes struct {
	logger  *slog.Logger
	player  *Player
	watcher *Watcher
	enabled bool

	sounds map[model.DurationClass]string
}

// NewChimes loads the sound paths from cfg. Missing files are skipped with a
// warning.
func NewChimes(cfg *config.Config, logger *slog.Logger) *Chimes {
	if logger == nil {
		logger = slog.Default()
	}

	player := NewPlayer(logger)
	player.SetVolume(float64(cfg.Audio.Volume) / 100.0)

	c := &Chimes{
		logger:  logger,
		player:  player,
		watcher: NewWatcher(player, logger),
		enabled: cfg.Audio.Enabled,
		sounds:  make(map[model.DurationClass]string),
	}

	for _, class := range model.DurationClasses() {
		path := cfg.GetSoundForClass(class)
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			logger.Warn("sound file not found", "class", class, "path", path)
			continue
		}
		c.sounds[class] = path
		logger.Debug("loaded sound", "class", class, "path", path)
	}

	return c
}

// Enabled reports whether chimes are played at all.
func (c *Chimes) Enabled() bool {
	return c.enabled
}

// SoundFor returns the sound file for class.
func (c *Chimes) SoundFor(class model.DurationClass) (string, bool) {
	path, ok := c.sounds[class]
	return path, ok
}

// Start preloads every sound and watches the files for changes.
func (c *Chimes) Start(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	for _, path := range c.sounds {
		if err := c.player.Preload(path); err != nil {
			c.logger.Warn("failed to preload sound", "path", path, "error", err)
		}
		c.watcher.Watch(path)
	}
	if err := c.watcher.Start(ctx); err != nil {
		return err
	}

	c.logger.Info("audio started", "sounds", len(c.sounds))
	return nil
}

// Stop releases the speaker and the watcher.
func (c *Chimes) Stop() {
	c.watcher.Stop()
	c.player.Close()
}

// HandleShown plays the chime for a newly shown message. It has the
// signature of display.ShowCallback.
func (c *Chimes) HandleShown(msg model.Message, merged bool) {
	if !c.enabled || merged {
		return
	}
	path, ok := c.sounds[msg.DurationClass()]
	if !ok {
		return
	}
	if err := c.player.Play(path); err != nil {
		c.logger.Warn("failed to play sound", "path", path, "error", err)
	}
}
