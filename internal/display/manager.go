package display

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/jmylchreest/onscreen/internal/config"
	"github.com/jmylchreest/onscreen/internal/core"
	"github.com/jmylchreest/onscreen/internal/model"
	"github.com/jmylchreest/onscreen/internal/theme"
)

var (
	// ErrNilMessage is returned when ShowMessage is called without a message.
	ErrNilMessage = errors.New("message is nil")
	// ErrClosed is returned when showing a message after Close.
	ErrClosed = errors.New("display manager is closed")
	// ErrMessageActive is returned when a message instance that already backs
	// an active entry is shown again. Duplicates must be separate instances.
	ErrMessageActive = errors.New("message is already active")
	// ErrInconsistentState marks a broken registry invariant. It is only
	// ever carried by a panic.
	ErrInconsistentState = errors.New("inconsistent display state")
)

// entry pairs a message with the slot and style it owns.
type entry struct {
	msg     model.Message
	slot    SlotHandle
	style   *theme.Style
	text    string
	alpha   float64
	seq     uint64 // Insertion order, oldest first
	expired bool
}

// Manager is the registry of active on-screen messages.
//
// The caller drives it from a single goroutine: ShowMessage, PassExtraTime
// and Tick must never run concurrently. The Manager has no timer of its own.
type Manager struct {
	config    config.MessagesConfig
	renderer  Renderer
	pool      *theme.StylePool
	curve     core.FadeCurve
	formatter Formatter
	logger    *slog.Logger

	entries   []*entry // Display order
	extraTime float64
	nextSeq   uint64
	closed    bool

	// Callbacks
	onShow  ShowCallback
	onClose CloseCallback
}

// NewManager creates a display manager. MaxShown below 1 is clamped with a
// warning. A nil renderer records slots in memory; a nil pool uses the
// default palette.
func NewManager(cfg config.MessagesConfig, renderer Renderer, pool *theme.StylePool, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Normalize(logger)
	if renderer == nil {
		renderer = NewHeadlessRenderer()
	}
	if pool == nil {
		pool = theme.NewStylePool(nil, logger)
	}

	return &Manager{
		config:    cfg,
		renderer:  renderer,
		pool:      pool,
		curve:     core.FadeCurve{Midway: cfg.MidwayFadeValue},
		formatter: plainFormatter{},
		logger:    logger,
	}
}

// SetFormatter sets the formatter for merged messages. nil restores the
// built-in "content (xN)" format.
func (m *Manager) SetFormatter(f Formatter) {
	if f == nil {
		f = plainFormatter{}
	}
	m.formatter = f
}

// SetShowCallback sets the callback for show events.
func (m *Manager) SetShowCallback(cb ShowCallback) {
	m.onShow = cb
}

// SetCloseCallback sets the callback for entry close events.
func (m *Manager) SetCloseCallback(cb CloseCallback) {
	m.onClose = cb
}

// Config returns the normalized configuration.
func (m *Manager) Config() config.MessagesConfig {
	return m.config
}

// ShowText shows text as a simple message.
func (m *Manager) ShowText(text string, class model.DurationClass) error {
	return m.ShowMessage(model.NewSimpleMessage(text, class))
}

// ShowMessage shows msg, merging it into an active entry for the same message
// if that entry has not been displayed longer than the force-fade limit.
// Otherwise a new entry is inserted and the oldest-fading entries are evicted
// until the capacity holds again.
func (m *Manager) ShowMessage(msg model.Message) error {
	if msg == nil {
		return ErrNilMessage
	}
	if m.closed {
		return ErrClosed
	}
	if slices.ContainsFunc(m.entries, func(e *entry) bool { return e.msg == msg }) {
		return ErrMessageActive
	}
	lifetime, err := core.DurationFor(msg.DurationClass())
	if err != nil {
		return fmt.Errorf("failed to show message: %w", err)
	}

	if i := core.FindMergeCandidate(msg, m.messages(), m.config.ForceFadeAfter.Seconds()); i >= 0 {
		e := m.entries[i]
		e.msg.UpdateFromOtherMessage(msg)
		e.msg.Timing().Reset()
		m.refreshText(e)
		m.applyOpacity(e)

		m.logger.Debug("merged message",
			"slot", e.slot,
			"multiplier", e.msg.Multiplier(),
			"total_displayed", e.msg.Timing().TotalDisplayedTime,
		)

		if m.onShow != nil {
			m.onShow(msg, true)
		}
		return nil
	}

	e := &entry{
		msg:   msg,
		style: m.pool.Acquire(),
		slot:  m.renderer.CreateSlot(),
		seq:   m.nextSeq,
	}
	m.nextSeq++

	msg.Timing().Start(lifetime)
	m.renderer.SetStyle(e.slot, e.style)
	m.refreshText(e)
	m.applyOpacity(e)

	if m.config.OrderNewestFirst {
		m.renderer.SetInsertPosition(e.slot, InsertFront)
		m.entries = slices.Insert(m.entries, 0, e)
	} else {
		m.renderer.SetInsertPosition(e.slot, InsertBack)
		m.entries = append(m.entries, e)
	}

	m.logger.Debug("showed message",
		"slot", e.slot,
		"class", msg.DurationClass(),
		"lifetime", lifetime,
		"active", len(m.entries),
	)

	if m.onShow != nil {
		m.onShow(msg, false)
	}

	m.enforceCapacity()
	return nil
}

// PassExtraTime adds seconds to the delta of the next Tick only. Negative
// values are ignored.
func (m *Manager) PassExtraTime(seconds float64) {
	if seconds < 0 || math.IsNaN(seconds) {
		m.logger.Warn("ignoring invalid extra time", "seconds", seconds)
		return
	}
	m.extraTime += seconds
}

// PendingExtraTime returns the extra time the next Tick will add.
func (m *Manager) PendingExtraTime() float64 {
	return m.extraTime
}

// Tick advances every entry by deltaTime seconds plus any pending extra time.
// Entries whose remaining time drops below zero are destroyed after the scan,
// in display order.
func (m *Manager) Tick(deltaTime float64) {
	delta := deltaTime + m.extraTime
	m.extraTime = 0
	if delta < 0 || math.IsNaN(delta) {
		delta = 0
	}

	var expired []*entry
	for _, e := range m.entries {
		t := e.msg.Timing()
		t.TimeRemaining -= delta
		if t.TimeRemaining < 0 {
			e.expired = true
			expired = append(expired, e)
			continue
		}
		t.TotalDisplayedTime += delta
		m.applyOpacity(e)
	}

	if len(expired) == 0 {
		return
	}

	m.entries = slices.DeleteFunc(m.entries, func(e *entry) bool {
		return e.expired
	})
	for _, e := range expired {
		m.destroy(e, CloseExpired)
	}
}

// ActiveCount returns the number of active entries.
func (m *Manager) ActiveCount() int {
	return len(m.entries)
}

// Snapshot returns a copy of the active entries in display order.
func (m *Manager) Snapshot() []EntrySnapshot {
	snaps := make([]EntrySnapshot, 0, len(m.entries))
	for _, e := range m.entries {
		snaps = append(snaps, EntrySnapshot{
			Slot:       e.slot,
			Content:    e.msg.Content(),
			Text:       e.text,
			Class:      e.msg.DurationClass(),
			Multiplier: e.msg.Multiplier(),
			Timing:     *e.msg.Timing(),
			Alpha:      e.alpha,
		})
	}
	return snaps
}

// Close destroys every active entry and drains the style pool. Later calls
// to ShowMessage fail with ErrClosed; Close itself is idempotent.
func (m *Manager) Close() {
	if m.closed {
		return
	}
	m.closed = true

	entries := m.entries
	m.entries = nil
	for _, e := range entries {
		m.destroy(e, CloseShutdown)
	}

	disposed := m.pool.Drain()
	m.logger.Debug("display manager closed",
		"closed_entries", len(entries),
		"disposed_styles", disposed,
	)
}

// messages returns the active messages in display order.
func (m *Manager) messages() []model.Message {
	msgs := make([]model.Message, len(m.entries))
	for i, e := range m.entries {
		msgs[i] = e.msg
	}
	return msgs
}

// refreshText pushes the entry's current text to its slot.
func (m *Manager) refreshText(e *entry) {
	text := e.msg.Content()
	if n := e.msg.Multiplier(); n >= 2 {
		text = m.formatter.FormatMultipliedMessage(text, n)
	}
	e.text = text
	m.renderer.SetText(e.slot, text)
}

// applyOpacity pushes the fade curve value for the entry's clock to its slot.
func (m *Manager) applyOpacity(e *entry) {
	t := e.msg.Timing()
	e.alpha = m.curve.Alpha(t.TimeRemaining, t.OriginalTimeRemaining)
	m.renderer.SetOpacity(e.slot, e.alpha)
}

// enforceCapacity evicts entries until at most MaxShown remain.
func (m *Manager) enforceCapacity() {
	for len(m.entries) > m.config.MaxShown {
		m.evict(m.evictionCandidate())
	}
}

// evictionCandidate returns the entry with the least remaining time. Ties go
// to the entry inserted first, whatever the display order.
func (m *Manager) evictionCandidate() *entry {
	var victim *entry
	for _, e := range m.entries {
		if victim == nil {
			victim = e
			continue
		}
		remaining := e.msg.Timing().TimeRemaining
		best := victim.msg.Timing().TimeRemaining
		if remaining < best || (remaining == best && e.seq < victim.seq) {
			victim = e
		}
	}
	return victim
}

// evict removes e from the registry and destroys it.
func (m *Manager) evict(e *entry) {
	idx := slices.Index(m.entries, e)
	if idx < 0 {
		panic(&DisplayError{Message: "eviction target not in registry", Cause: ErrInconsistentState})
	}
	m.entries = slices.Delete(m.entries, idx, idx+1)

	m.logger.Debug("evicted message",
		"slot", e.slot,
		"time_remaining", e.msg.Timing().TimeRemaining,
		"active", len(m.entries),
	)
	m.destroy(e, CloseEvicted)
}

// destroy releases the entry's style and slot. The entry must already be out
// of the registry.
func (m *Manager) destroy(e *entry, reason CloseReason) {
	if err := m.pool.Release(e.style); err != nil {
		panic(&DisplayError{Message: "failed to release style", Cause: err})
	}
	e.style = nil

	m.renderer.Hide(e.slot)
	// Detach first so the slot's teardown cannot release the style again
	m.renderer.SetStyle(e.slot, nil)
	m.renderer.DestroySlot(e.slot)

	if reason == CloseExpired {
		m.logger.Debug("message expired", "slot", e.slot)
	}

	if m.onClose != nil {
		m.onClose(e.msg, reason)
	}
}

// DisplayError represents a display-related error.
type DisplayError struct {
	Message string
	Cause   error
}

func (e *DisplayError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DisplayError) Unwrap() error {
	return e.Cause
}
