package input

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/onscreen/internal/model"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantOK    bool
		wantText  string
		wantClass model.DurationClass
	}{
		{"plain", "hello world", true, "hello world", model.DurationNormal},
		{"trimmed", "   padded  ", true, "padded", model.DurationNormal},
		{"short prefix", "short: quick one", true, "quick one", model.DurationShort},
		{"extra long prefix", "extra-long:stays", true, "stays", model.DurationExtraLong},
		{"unknown prefix kept", "note: keep me", true, "note: keep me", model.DurationNormal},
		{"url kept", "https://example.com", true, "https://example.com", model.DurationNormal},
		{"control chars", "a\x07b", true, "a b", model.DurationNormal},
		{"json text", `{"text": "from json", "duration": "long"}`, true, "from json", model.DurationLong},
		{"json bad class", `{"text": "x", "duration": "forever"}`, true, "x", model.DurationNormal},
		{"json notification", `{"app_name": "mail", "summary": "New", "body": "hi"}`, true, "mail: New - hi", model.DurationNormal},
		{"broken json is text", `{"text": `, true, `{"text":`, model.DurationNormal},
		{"empty", "", false, "", 0},
		{"blank", "   ", false, "", 0},
		{"comment", "# ignored", false, "", 0},
		{"prefix only", "long:", false, "", 0},
		{"json empty", `{}`, false, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := ParseLine(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Nil(t, msg)
				return
			}
			assert.Equal(t, tt.wantText, msg.Content())
			assert.Equal(t, tt.wantClass, msg.DurationClass())
		})
	}
}

func TestParseLine_NotificationType(t *testing.T) {
	msg, ok := ParseLine(`{"app_name": "mail", "summary": "New"}`)
	require.True(t, ok)
	n, isNotification := msg.(*model.NotificationMessage)
	require.True(t, isNotification)
	assert.Equal(t, "mail", n.AppName)
	assert.Equal(t, "New", n.Summary)
}

func collect(msgs *[]string) Sink {
	return func(m model.Message) {
		*msgs = append(*msgs, m.Content())
	}
}

func TestLineReader_Run(t *testing.T) {
	input := "first\n\n# comment\nlong: second\nthird"
	r := NewLineReader("test", strings.NewReader(input))
	assert.Equal(t, "test", r.Name())

	var got []string
	require.NoError(t, r.Run(context.Background(), collect(&got)))
	assert.Equal(t, []string{"first", "second", "third"}, got)
}

func TestLineReader_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var got []string
	r := NewLineReader("test", strings.NewReader("a\nb\n"))
	require.NoError(t, r.Run(ctx, collect(&got)))
	assert.Empty(t, got)
}

func TestLineReader_ReadError(t *testing.T) {
	boom := errors.New("boom")
	r := NewLineReader("broken", iotest.ErrReader(boom))

	err := r.Run(context.Background(), func(model.Message) {})
	var ae *AdapterError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "broken", ae.Source)
	assert.ErrorIs(t, err, boom)
}

func TestAdapterError(t *testing.T) {
	err := &AdapterError{Source: "x", Message: "failed"}
	assert.Equal(t, "failed", err.Error())
	assert.Nil(t, err.Unwrap())

	err.Err = errors.New("cause")
	assert.Equal(t, "failed: cause", err.Error())
}

// syncCollector gathers messages delivered from the follower goroutine.
type syncCollector struct {
	mu   sync.Mutex
	msgs []string
}

func (c *syncCollector) sink(m model.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, m.Content())
}

func (c *syncCollector) get() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.msgs...)
}

func appendFile(t *testing.T, path, data string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func runFollower(t *testing.T, f *Follower, c *syncCollector) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx, c.sink) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("follower did not stop")
		}
	})

	select {
	case <-f.Ready():
	case err := <-done:
		t.Fatalf("follower exited early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("follower not ready")
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestFollower_SkipsExistingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.log")
	require.NoError(t, os.WriteFile(path, []byte("old line\n"), 0644))

	c := &syncCollector{}
	runFollower(t, NewFollower(path, false, discardLogger()), c)

	appendFile(t, path, "new line\nshort: another\n")
	require.Eventually(t, func() bool { return len(c.get()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"new line", "another"}, c.get())
}

func TestFollower_FromStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.log")
	require.NoError(t, os.WriteFile(path, []byte("old line\n"), 0644))

	c := &syncCollector{}
	runFollower(t, NewFollower(path, true, discardLogger()), c)

	require.Eventually(t, func() bool { return len(c.get()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"old line"}, c.get())
}

func TestFollower_PartialLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.log")

	c := &syncCollector{}
	runFollower(t, NewFollower(path, false, discardLogger()), c)

	appendFile(t, path, "hel")
	appendFile(t, path, "lo\n")
	require.Eventually(t, func() bool { return len(c.get()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"hello"}, c.get())
}

func TestFollower_Truncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.log")
	require.NoError(t, os.WriteFile(path, []byte("a fairly long existing line\n"), 0644))

	c := &syncCollector{}
	runFollower(t, NewFollower(path, false, discardLogger()), c)

	require.NoError(t, os.WriteFile(path, []byte("fresh\n"), 0644))
	require.Eventually(t, func() bool {
		got := c.get()
		return len(got) > 0 && got[len(got)-1] == "fresh"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFollower_RunAgain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.log")
	f := NewFollower(path, false, discardLogger())

	first := &syncCollector{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx, first.sink) }()
	<-f.Ready()
	appendFile(t, path, "one\n")
	require.Eventually(t, func() bool { return len(first.get()) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	appendFile(t, path, "two\n")

	second := &syncCollector{}
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	done = make(chan error, 1)
	go func() { done <- f.Run(ctx, second.sink) }()

	require.Eventually(t, func() bool { return len(second.get()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"two"}, second.get())
	cancel()
	assert.NoError(t, <-done)
}
