package display

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/onscreen/internal/config"
	"github.com/jmylchreest/onscreen/internal/locale"
	"github.com/jmylchreest/onscreen/internal/model"
	"github.com/jmylchreest/onscreen/internal/theme"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

type fixture struct {
	mgr      *Manager
	renderer *HeadlessRenderer
	pool     *theme.StylePool
	closed   []closeEvent
	shown    []showEvent
}

type closeEvent struct {
	content string
	reason  CloseReason
}

type showEvent struct {
	content string
	merged  bool
}

func newFixture(t *testing.T, mutate func(*config.MessagesConfig)) *fixture {
	t.Helper()
	cfg := config.DefaultConfig().Messages
	if mutate != nil {
		mutate(&cfg)
	}

	f := &fixture{
		renderer: NewHeadlessRenderer(),
		pool:     theme.NewStylePool(nil, discardLogger()),
	}
	f.mgr = NewManager(cfg, f.renderer, f.pool, discardLogger())
	f.mgr.SetCloseCallback(func(msg model.Message, reason CloseReason) {
		f.closed = append(f.closed, closeEvent{msg.Content(), reason})
	})
	f.mgr.SetShowCallback(func(msg model.Message, merged bool) {
		f.shown = append(f.shown, showEvent{msg.Content(), merged})
	})
	return f
}

func contents(snaps []EntrySnapshot) []string {
	out := make([]string, len(snaps))
	for i, s := range snaps {
		out[i] = s.Content
	}
	return out
}

func TestManager_FreshMessageLifetime(t *testing.T) {
	tests := []struct {
		class model.DurationClass
		want  float64
	}{
		{model.DurationShort, 2},
		{model.DurationNormal, 4},
		{model.DurationLong, 12},
		{model.DurationExtraLong, 25},
	}

	for _, tt := range tests {
		t.Run(tt.class.String(), func(t *testing.T) {
			f := newFixture(t, nil)
			require.NoError(t, f.mgr.ShowText("hello", tt.class))

			snaps := f.mgr.Snapshot()
			require.Len(t, snaps, 1)
			assert.Equal(t, tt.want, snaps[0].Timing.OriginalTimeRemaining)
			assert.Equal(t, tt.want, snaps[0].Timing.TimeRemaining)
			assert.Zero(t, snaps[0].Timing.TotalDisplayedTime)
			assert.Equal(t, 1.0, snaps[0].Alpha)
			assert.Equal(t, "hello", snaps[0].Text)
		})
	}
}

func TestManager_InvalidDurationClass(t *testing.T) {
	f := newFixture(t, nil)

	err := f.mgr.ShowText("bad", model.DurationClass(42))
	assert.True(t, errors.Is(err, model.ErrInvalidDurationClass))
	assert.Equal(t, 0, f.mgr.ActiveCount())
	assert.Equal(t, 0, f.renderer.Created())
	assert.Equal(t, 0, f.pool.Created())
	assert.Empty(t, f.shown)
}

func TestManager_NilMessage(t *testing.T) {
	f := newFixture(t, nil)
	assert.ErrorIs(t, f.mgr.ShowMessage(nil), ErrNilMessage)
}

func TestManager_RejectsActiveInstance(t *testing.T) {
	tests := []struct {
		name           string
		forceFadeAfter time.Duration
	}{
		{"within merge window", 10 * time.Second},
		{"past force fade", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(c *config.MessagesConfig) {
				c.ForceFadeAfter = config.Duration(tt.forceFadeAfter)
			})
			msg := model.NewSimpleMessage("same", model.DurationNormal)

			require.NoError(t, f.mgr.ShowMessage(msg))
			f.mgr.Tick(1)
			assert.ErrorIs(t, f.mgr.ShowMessage(msg), ErrMessageActive)
			assert.ErrorIs(t, f.mgr.ShowMessage(msg), ErrMessageActive)

			f.mgr.Tick(1)
			snaps := f.mgr.Snapshot()
			require.Len(t, snaps, 1)
			assert.Equal(t, 1, snaps[0].Multiplier)
			assert.Equal(t, 2.0, snaps[0].Timing.TimeRemaining)
			assert.Equal(t, 2.0, snaps[0].Timing.TotalDisplayedTime)
			assert.Equal(t, 1, f.renderer.Created())
			assert.Len(t, f.shown, 1)
		})
	}
}

func TestManager_ExpiredInstanceCanBeShownAgain(t *testing.T) {
	f := newFixture(t, nil)
	msg := model.NewSimpleMessage("again", model.DurationShort)

	require.NoError(t, f.mgr.ShowMessage(msg))
	f.mgr.Tick(3)
	require.Equal(t, 0, f.mgr.ActiveCount())

	require.NoError(t, f.mgr.ShowMessage(msg))
	snaps := f.mgr.Snapshot()
	require.Len(t, snaps, 1)
	assert.Equal(t, 2.0, snaps[0].Timing.TimeRemaining)
}

func TestManager_MergeDuplicate(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.mgr.ShowText("Test", model.DurationNormal))
	f.mgr.Tick(1.5)
	require.NoError(t, f.mgr.ShowText("Test", model.DurationNormal))

	snaps := f.mgr.Snapshot()
	require.Len(t, snaps, 1)
	assert.Equal(t, 2, snaps[0].Multiplier)
	assert.Equal(t, 4.0, snaps[0].Timing.TimeRemaining)
	assert.Equal(t, 1.5, snaps[0].Timing.TotalDisplayedTime)
	assert.Equal(t, 1.0, snaps[0].Alpha)
	assert.Equal(t, "Test (x2)", snaps[0].Text)

	slot, ok := f.renderer.Slot(snaps[0].Slot)
	require.True(t, ok)
	assert.Equal(t, "Test (x2)", slot.Text)

	assert.Equal(t, []showEvent{{"Test", false}, {"Test", true}}, f.shown)
	assert.Equal(t, 1, f.renderer.Created())
	assert.Equal(t, 1, f.pool.Created())
}

func TestManager_MergeUsesLocalizedTemplate(t *testing.T) {
	f := newFixture(t, nil)
	l, err := locale.Load("de", discardLogger())
	require.NoError(t, err)
	f.mgr.SetFormatter(l)

	require.NoError(t, f.mgr.ShowText("Test", model.DurationNormal))
	require.NoError(t, f.mgr.ShowText("Test", model.DurationNormal))

	snaps := f.mgr.Snapshot()
	require.Len(t, snaps, 1)
	assert.Equal(t, "Test (×2)", snaps[0].Text)

	f.mgr.SetFormatter(nil)
	require.NoError(t, f.mgr.ShowText("Test", model.DurationNormal))
	assert.Equal(t, "Test (x3)", f.mgr.Snapshot()[0].Text)
}

func TestManager_MergeKeepsDisplayOrder(t *testing.T) {
	f := newFixture(t, func(c *config.MessagesConfig) { c.OrderNewestFirst = false })

	require.NoError(t, f.mgr.ShowText("a", model.DurationNormal))
	require.NoError(t, f.mgr.ShowText("b", model.DurationNormal))
	require.NoError(t, f.mgr.ShowText("a", model.DurationNormal))

	assert.Equal(t, []string{"a", "b"}, contents(f.mgr.Snapshot()))
}

func TestManager_ForceFadeCreatesNewEntry(t *testing.T) {
	f := newFixture(t, func(c *config.MessagesConfig) {
		c.ForceFadeAfter = config.Duration(2 * time.Second)
		c.OrderNewestFirst = false
	})

	// Exactly at the limit still merges
	require.NoError(t, f.mgr.ShowText("Test", model.DurationNormal))
	f.mgr.Tick(2)
	require.NoError(t, f.mgr.ShowText("Test", model.DurationNormal))
	require.Equal(t, 1, f.mgr.ActiveCount())

	f.mgr.Tick(0.5)
	require.NoError(t, f.mgr.ShowText("Test", model.DurationNormal))

	snaps := f.mgr.Snapshot()
	require.Len(t, snaps, 2)
	assert.Equal(t, 2, snaps[0].Multiplier)
	assert.Equal(t, 3.5, snaps[0].Timing.TimeRemaining)
	assert.Equal(t, 1, snaps[1].Multiplier)
	assert.Equal(t, 4.0, snaps[1].Timing.TimeRemaining)

	// The old entry keeps decaying on its own clock
	f.mgr.Tick(1)
	snaps = f.mgr.Snapshot()
	assert.Equal(t, 2.5, snaps[0].Timing.TimeRemaining)
	assert.Equal(t, 3.0, snaps[1].Timing.TimeRemaining)

	// Further duplicates go to the fresh entry
	require.NoError(t, f.mgr.ShowText("Test", model.DurationNormal))
	snaps = f.mgr.Snapshot()
	assert.Equal(t, 2, snaps[0].Multiplier)
	assert.Equal(t, 2, snaps[1].Multiplier)
}

func TestManager_CapacityEvictsFirstShown(t *testing.T) {
	for _, newestFirst := range []bool{true, false} {
		t.Run(fmt.Sprintf("newest_first=%v", newestFirst), func(t *testing.T) {
			f := newFixture(t, func(c *config.MessagesConfig) {
				c.MaxShown = 4
				c.OrderNewestFirst = newestFirst
			})

			for i := 1; i <= 5; i++ {
				require.NoError(t, f.mgr.ShowText(fmt.Sprintf("msg %d", i), model.DurationNormal))
				assert.LessOrEqual(t, f.mgr.ActiveCount(), 4)
			}

			assert.Equal(t, 4, f.mgr.ActiveCount())
			assert.NotContains(t, contents(f.mgr.Snapshot()), "msg 1")
			assert.Equal(t, []closeEvent{{"msg 1", CloseEvicted}}, f.closed)

			assert.Equal(t, 4, f.renderer.Live())
			assert.Equal(t, 1, f.renderer.Destroyed())
			assert.Equal(t, 5, f.pool.Created())
			assert.Equal(t, 1, f.pool.Len())
		})
	}
}

func TestManager_EvictsLeastRemaining(t *testing.T) {
	f := newFixture(t, func(c *config.MessagesConfig) { c.MaxShown = 2 })

	require.NoError(t, f.mgr.ShowText("long", model.DurationLong))
	f.mgr.Tick(1)
	require.NoError(t, f.mgr.ShowText("short", model.DurationShort))
	require.NoError(t, f.mgr.ShowText("normal", model.DurationNormal))

	assert.ElementsMatch(t, []string{"long", "normal"}, contents(f.mgr.Snapshot()))
	assert.Equal(t, []closeEvent{{"short", CloseEvicted}}, f.closed)
}

func TestManager_NewEntryCanBeEvicted(t *testing.T) {
	f := newFixture(t, func(c *config.MessagesConfig) { c.MaxShown = 1 })

	require.NoError(t, f.mgr.ShowText("long", model.DurationLong))
	require.NoError(t, f.mgr.ShowText("short", model.DurationShort))

	assert.Equal(t, []string{"long"}, contents(f.mgr.Snapshot()))
	assert.Equal(t, []closeEvent{{"short", CloseEvicted}}, f.closed)
	assert.Equal(t, []showEvent{{"long", false}, {"short", false}}, f.shown)
}

func TestManager_ClampsMaxShown(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.DefaultConfig().Messages
	cfg.MaxShown = 0

	mgr := NewManager(cfg, nil, nil, slog.New(slog.NewTextHandler(&buf, nil)))
	assert.Equal(t, 1, mgr.Config().MaxShown)
	assert.Contains(t, buf.String(), "level=WARN")

	require.NoError(t, mgr.ShowText("a", model.DurationNormal))
	require.NoError(t, mgr.ShowText("b", model.DurationNormal))
	assert.Equal(t, 1, mgr.ActiveCount())
}

func TestManager_TickExpires(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.mgr.ShowText("Test", model.DurationNormal))
	f.mgr.Tick(5)

	assert.Equal(t, 0, f.mgr.ActiveCount())
	assert.Equal(t, []closeEvent{{"Test", CloseExpired}}, f.closed)
	assert.Equal(t, 0, f.renderer.Live())
	assert.Equal(t, 1, f.pool.Len())
	assert.Zero(t, f.renderer.UnknownHandles())
}

func TestManager_TickZeroRemainingStaysActive(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.mgr.ShowText("Test", model.DurationNormal))
	f.mgr.Tick(4)

	snaps := f.mgr.Snapshot()
	require.Len(t, snaps, 1)
	assert.Zero(t, snaps[0].Timing.TimeRemaining)
	assert.Zero(t, snaps[0].Alpha)
	assert.Equal(t, 4.0, snaps[0].Timing.TotalDisplayedTime)
}

func TestManager_TickAppliesFadeCurve(t *testing.T) {
	f := newFixture(t, func(c *config.MessagesConfig) { c.MidwayFadeValue = 0.6 })

	require.NoError(t, f.mgr.ShowText("Test", model.DurationNormal))
	f.mgr.Tick(2)

	snaps := f.mgr.Snapshot()
	require.Len(t, snaps, 1)
	assert.Equal(t, 0.6, snaps[0].Alpha)

	slot, ok := f.renderer.Slot(snaps[0].Slot)
	require.True(t, ok)
	assert.Equal(t, 0.6, slot.Alpha)
	require.NotNil(t, slot.Style)
	assert.Equal(t, 0.6, slot.Style.Alpha())
}

func TestManager_TickRemovesInOrder(t *testing.T) {
	f := newFixture(t, func(c *config.MessagesConfig) { c.OrderNewestFirst = false })

	require.NoError(t, f.mgr.ShowText("a", model.DurationShort))
	require.NoError(t, f.mgr.ShowText("b", model.DurationLong))
	require.NoError(t, f.mgr.ShowText("c", model.DurationShort))
	require.NoError(t, f.mgr.ShowText("d", model.DurationLong))

	f.mgr.Tick(3)

	assert.Equal(t, []string{"b", "d"}, contents(f.mgr.Snapshot()))
	assert.Equal(t, []closeEvent{{"a", CloseExpired}, {"c", CloseExpired}}, f.closed)
	for _, s := range f.mgr.Snapshot() {
		assert.Equal(t, 9.0, s.Timing.TimeRemaining)
		assert.Equal(t, 3.0, s.Timing.TotalDisplayedTime)
	}
}

func TestManager_PassExtraTime(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.mgr.ShowText("Test", model.DurationLong))
	f.mgr.PassExtraTime(2)
	f.mgr.PassExtraTime(1)
	assert.Equal(t, 3.0, f.mgr.PendingExtraTime())

	// Nothing happens until the next tick
	assert.Equal(t, 12.0, f.mgr.Snapshot()[0].Timing.TimeRemaining)

	f.mgr.Tick(1)
	assert.Equal(t, 8.0, f.mgr.Snapshot()[0].Timing.TimeRemaining)
	assert.Zero(t, f.mgr.PendingExtraTime())

	f.mgr.Tick(1)
	assert.Equal(t, 7.0, f.mgr.Snapshot()[0].Timing.TimeRemaining)
}

func TestManager_PassExtraTimeIgnoresNegative(t *testing.T) {
	var buf bytes.Buffer
	mgr := NewManager(config.DefaultConfig().Messages, nil, nil, slog.New(slog.NewTextHandler(&buf, nil)))

	mgr.PassExtraTime(-1)
	assert.Zero(t, mgr.PendingExtraTime())
	assert.Contains(t, buf.String(), "ignoring invalid extra time")
}

func TestManager_NegativeDeltaIsClamped(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.mgr.ShowText("Test", model.DurationNormal))
	f.mgr.Tick(-3)

	snaps := f.mgr.Snapshot()
	assert.Equal(t, 4.0, snaps[0].Timing.TimeRemaining)
	assert.Zero(t, snaps[0].Timing.TotalDisplayedTime)
}

func TestManager_InsertOrder(t *testing.T) {
	tests := []struct {
		name        string
		newestFirst bool
		want        []string
	}{
		{"newest first", true, []string{"c", "b", "a"}},
		{"oldest first", false, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(c *config.MessagesConfig) { c.OrderNewestFirst = tt.newestFirst })
			for _, s := range []string{"a", "b", "c"} {
				require.NoError(t, f.mgr.ShowText(s, model.DurationNormal))
			}

			assert.Equal(t, tt.want, contents(f.mgr.Snapshot()))

			var rendered []string
			for _, s := range f.renderer.Slots() {
				rendered = append(rendered, s.Text)
			}
			assert.Equal(t, tt.want, rendered)
		})
	}
}

// recordingRenderer logs the calls made for destroyed slots.
type recordingRenderer struct {
	*HeadlessRenderer
	calls []string
}

func (r *recordingRenderer) Hide(h SlotHandle) {
	r.calls = append(r.calls, "hide")
	r.HeadlessRenderer.Hide(h)
}

func (r *recordingRenderer) SetStyle(h SlotHandle, s *theme.Style) {
	if s == nil {
		r.calls = append(r.calls, "detach")
	}
	r.HeadlessRenderer.SetStyle(h, s)
}

func (r *recordingRenderer) DestroySlot(h SlotHandle) {
	r.calls = append(r.calls, "destroy")
	r.HeadlessRenderer.DestroySlot(h)
}

func TestManager_DestroySequence(t *testing.T) {
	r := &recordingRenderer{HeadlessRenderer: NewHeadlessRenderer()}
	pool := theme.NewStylePool(nil, discardLogger())
	mgr := NewManager(config.DefaultConfig().Messages, r, pool, discardLogger())

	require.NoError(t, mgr.ShowText("Test", model.DurationShort))
	require.Empty(t, r.calls)

	mgr.Tick(3)
	assert.Equal(t, []string{"hide", "detach", "destroy"}, r.calls)
	assert.Equal(t, 1, pool.Len())
}

func TestManager_StylesAreReused(t *testing.T) {
	f := newFixture(t, nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, f.mgr.ShowText(fmt.Sprintf("msg %d", i), model.DurationShort))
		f.mgr.Tick(3)
	}

	assert.Equal(t, 1, f.pool.Created())
	assert.Equal(t, 5, f.renderer.Created())
}

func TestManager_Close(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.mgr.ShowText("a", model.DurationNormal))
	require.NoError(t, f.mgr.ShowText("b", model.DurationNormal))
	held := f.renderer.Slots()[0].Style

	f.mgr.Close()
	assert.Equal(t, 0, f.mgr.ActiveCount())
	assert.Len(t, f.closed, 2)
	for _, ev := range f.closed {
		assert.Equal(t, CloseShutdown, ev.reason)
	}
	assert.Equal(t, 0, f.pool.Len())
	assert.True(t, held.Disposed())
	assert.Equal(t, 0, f.renderer.Live())

	assert.ErrorIs(t, f.mgr.ShowText("c", model.DurationNormal), ErrClosed)

	f.mgr.Close()
	assert.Len(t, f.closed, 2)
}

func TestManager_EvictMissingEntryPanics(t *testing.T) {
	f := newFixture(t, nil)

	defer func() {
		err, ok := recover().(error)
		require.True(t, ok)
		var de *DisplayError
		assert.True(t, errors.As(err, &de))
		assert.ErrorIs(t, err, ErrInconsistentState)
	}()
	f.mgr.evict(&entry{msg: model.NewSimpleMessage("ghost", model.DurationNormal)})
}

func TestManager_DoubleReleasePanics(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.mgr.ShowText("Test", model.DurationShort))
	require.NoError(t, f.pool.Release(f.mgr.entries[0].style))

	defer func() {
		err, ok := recover().(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, theme.ErrAlreadyPooled)
	}()
	f.mgr.Tick(3)
}

func TestManager_Invariants(t *testing.T) {
	f := newFixture(t, func(c *config.MessagesConfig) {
		c.MaxShown = 3
		c.ForceFadeAfter = config.Duration(3 * time.Second)
	})
	rng := rand.New(rand.NewPCG(1, 2))
	classes := model.DurationClasses()

	for step := 0; step < 2000; step++ {
		switch rng.IntN(4) {
		case 0, 1:
			text := fmt.Sprintf("msg %d", rng.IntN(5))
			require.NoError(t, f.mgr.ShowText(text, classes[rng.IntN(len(classes))]))
		case 2:
			f.mgr.PassExtraTime(rng.Float64())
		default:
			f.mgr.Tick(rng.Float64() * 0.5)
		}

		assert.LessOrEqual(t, f.mgr.ActiveCount(), 3)
		for _, s := range f.mgr.Snapshot() {
			assert.GreaterOrEqual(t, s.Timing.TimeRemaining, 0.0)
			assert.LessOrEqual(t, s.Timing.TimeRemaining, s.Timing.OriginalTimeRemaining)
			assert.GreaterOrEqual(t, s.Alpha, 0.0)
			assert.LessOrEqual(t, s.Alpha, 1.0)
		}
		assert.Equal(t, f.mgr.ActiveCount(), f.renderer.Live())
		assert.Equal(t, f.pool.Created(), f.mgr.ActiveCount()+f.pool.Len())
	}
}

func TestCloseReason_String(t *testing.T) {
	assert.Equal(t, "expired", CloseExpired.String())
	assert.Equal(t, "evicted", CloseEvicted.String())
	assert.Equal(t, "shutdown", CloseShutdown.String())
	assert.Equal(t, "unknown", CloseReason(9).String())
	assert.Equal(t, "front", InsertFront.String())
	assert.Equal(t, "back", InsertBack.String())
}

func TestDisplayError(t *testing.T) {
	err := &DisplayError{Message: "broken"}
	assert.Equal(t, "broken", err.Error())
	assert.Nil(t, err.Unwrap())

	err = &DisplayError{Message: "broken", Cause: ErrInconsistentState}
	assert.Equal(t, "broken: inconsistent display state", err.Error())
	assert.ErrorIs(t, err, ErrInconsistentState)
}
