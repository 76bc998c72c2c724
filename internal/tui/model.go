// Package tui hosts the display manager in a BubbleTea terminal program.
// The frame loop is the only goroutine that touches the manager; message
// sources hand their messages to it through the program.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/onscreen/internal/adapter/input"
	"github.com/jmylchreest/onscreen/internal/display"
	"github.com/jmylchreest/onscreen/internal/locale"
	"github.com/jmylchreest/onscreen/internal/model"
)

// FastForwardSeconds is the extra time passed by the fast-forward key.
const FastForwardSeconds = 1.0

// IncomingMsg carries a message from a source into the frame loop.
type IncomingMsg struct {
	Message model.Message
}

// frameMsg is sent once per frame.
type frameMsg time.Time

// Model is the main TUI model.
type Model struct {
	// Collaborators
	mgr       *display.Manager
	renderer  *Renderer
	localizer *locale.Localizer
	logger    *slog.Logger

	// Frame timing
	interval  time.Duration
	lastFrame time.Time

	// Components
	help help.Model
	keys KeyMap

	// State
	width    int
	height   int
	ready    bool
	received int
	numbered int

	// Status message
	statusMsg string
	statusErr bool
}

// New creates a new TUI model. fps outside 1..240 falls back to 30.
func New(mgr *display.Manager, renderer *Renderer, localizer *locale.Localizer, fps int, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	if fps < 1 || fps > 240 {
		fps = 30
	}

	return Model{
		mgr:       mgr,
		renderer:  renderer,
		localizer: localizer,
		logger:    logger,
		interval:  time.Second / time.Duration(fps),
		help:      help.New(),
		keys:      DefaultKeyMap(),
	}
}

// Init starts the frame loop.
func (m Model) Init() tea.Cmd {
	return m.nextFrame()
}

// nextFrame schedules the next frame.
func (m Model) nextFrame() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case frameMsg:
		now := time.Time(msg)
		if !m.lastFrame.IsZero() {
			m.mgr.Tick(now.Sub(m.lastFrame).Seconds())
		}
		m.lastFrame = now
		return m, m.nextFrame()

	case IncomingMsg:
		cmd := m.show(msg.Message)
		return m, cmd

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil
	}

	return m, nil
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

// show hands a message to the manager. A rejected message is reported in
// the status line.
func (m *Model) show(msg model.Message) tea.Cmd {
	m.received++
	if err := m.mgr.ShowMessage(msg); err != nil {
		m.logger.Warn("failed to show message", "error", err)
		return func() tea.Msg {
			return statusMsg{text: err.Error(), isErr: true}
		}
	}
	return nil
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Test):
		text := m.localizer.Format(locale.KeyTestMessage, "", 0)
		cmd := m.show(model.NewSimpleMessage(text, model.DurationNormal))
		return m, cmd

	case key.Matches(msg, m.keys.Numbered):
		m.numbered++
		text := m.localizer.Format(locale.KeyNumberedMessage, "", m.numbered)
		cmd := m.show(model.NewSimpleMessage(text, model.DurationNormal))
		return m, cmd

	case key.Matches(msg, m.keys.FastForward):
		m.mgr.PassExtraTime(FastForwardSeconds)
		return m, nil
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	messages := m.renderer.View(m.width)
	footer := m.viewStatus() + "\n" + m.help.View(m.keys)

	gap := m.height - lipgloss.Height(messages) - lipgloss.Height(footer)
	if gap < 1 {
		gap = 1
	}
	return messages + lipgloss.NewStyle().Height(gap).Render("") + "\n" + footer
}

// viewStatus renders the status line.
func (m Model) viewStatus() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	if m.statusMsg != "" {
		if m.statusErr {
			style = style.Foreground(lipgloss.Color("9"))
		}
		return style.Render(m.statusMsg)
	}

	s := m.localizer.Format(locale.KeyStatusLine, "", m.mgr.ActiveCount())
	s += " · " + humanize.Comma(int64(m.received)) + " received"
	if extra := m.mgr.PendingExtraTime(); extra > 0 {
		s += " · +" + humanize.FtoaWithDigits(extra, 2) + "s"
	}
	return style.Render(s)
}

// RunOptions configures the TUI.
type RunOptions struct {
	Manager   *display.Manager
	Renderer  *Renderer
	Localizer *locale.Localizer
	FPS       int
	Sources   []input.Source
	Logger    *slog.Logger

	// InputTTY reads keys from the terminal instead of stdin, for when stdin
	// is itself a message source.
	InputTTY bool
}

// Run starts the TUI and blocks until the user quits. Sources run in their
// own goroutines and are stopped before Run returns. The manager is not
// closed; that is left to the caller.
func Run(ctx context.Context, opts RunOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := New(opts.Manager, opts.Renderer, opts.Localizer, opts.FPS, logger)
	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.InputTTY {
		progOpts = append(progOpts, tea.WithInputTTY())
	}
	p := tea.NewProgram(m, progOpts...)

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	for _, src := range opts.Sources {
		wg.Add(1)
		go func(src input.Source) {
			defer wg.Done()
			err := src.Run(ctx, func(msg model.Message) {
				p.Send(IncomingMsg{Message: msg})
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("input source stopped", "source", src.Name(), "error", err)
			}
		}(src)
	}

	// Quit the program when the caller cancels
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, err := p.Run()
	cancel()

	// A blocked stdin read cannot be interrupted; don't wait on it forever
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		logger.Debug("input sources still running at exit")
	}

	return err
}
