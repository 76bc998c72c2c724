package input

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Follower tails a file and turns every appended line into a message.
// Lines already in the file when Run starts are skipped unless FromStart is
// set. A truncated file is read again from the beginning.
type Follower struct {
	path      string
	fromStart bool
	logger    *slog.Logger

	offset    int64
	partial   []byte
	ready     chan struct{}
	readyOnce sync.Once
	started   bool
}

// NewFollower creates a Follower for path.
func NewFollower(path string, fromStart bool, logger *slog.Logger) *Follower {
	if logger == nil {
		logger = slog.Default()
	}
	return &Follower{
		path:      path,
		fromStart: fromStart,
		logger:    logger,
		ready:     make(chan struct{}),
	}
}

// Name returns the adapter identifier.
func (f *Follower) Name() string {
	return "follow"
}

// Ready is closed once the file is being watched by the first Run.
func (f *Follower) Ready() <-chan struct{} {
	return f.ready
}

// Run watches the file until ctx is done. A Follower may be run again after
// a previous Run returned; it resumes from the last offset read.
func (f *Follower) Run(ctx context.Context, sink Sink) error {
	if !f.fromStart && !f.started {
		info, err := os.Stat(f.path)
		switch {
		case err == nil:
			f.offset = info.Size()
		case !os.IsNotExist(err):
			return &AdapterError{Source: f.Name(), Message: "failed to stat file", Err: err}
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return &AdapterError{Source: f.Name(), Message: "failed to create watcher", Err: err}
	}
	defer watcher.Close()

	// Watch the directory containing the file (more reliable for writes)
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return &AdapterError{Source: f.Name(), Message: "failed to watch directory", Err: err}
	}
	f.started = true
	f.readyOnce.Do(func() { close(f.ready) })

	// Pick up anything written before the watch was in place
	f.readNew(sink)

	filename := filepath.Base(f.path)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// Only care about our file
			if filepath.Base(event.Name) != filename {
				continue
			}

			switch {
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				f.readNew(sink)
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				f.logger.Debug("followed file removed", "file", f.path)
				f.offset = 0
				f.partial = nil
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("file watcher error", "file", f.path, "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}

// readNew reads from the last offset to the end of the file and emits every
// complete line.
func (f *Follower) readNew(sink Sink) {
	file, err := os.Open(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.logger.Warn("failed to open followed file", "file", f.path, "error", err)
		}
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		f.logger.Warn("failed to stat followed file", "file", f.path, "error", err)
		return
	}
	if info.Size() < f.offset {
		f.logger.Debug("followed file truncated", "file", f.path)
		f.offset = 0
		f.partial = nil
	}

	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		f.logger.Warn("failed to seek followed file", "file", f.path, "error", err)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		f.logger.Warn("failed to read followed file", "file", f.path, "error", err)
		return
	}
	f.offset += int64(len(data))

	data = append(f.partial, data...)
	for {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		if msg, ok := ParseLine(string(data[:idx])); ok {
			sink(msg)
		}
		data = data[idx+1:]
	}
	f.partial = append([]byte(nil), data...)
}
