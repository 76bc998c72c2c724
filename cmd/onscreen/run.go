package main

import (
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/onscreen/internal/adapter/input"
	"github.com/jmylchreest/onscreen/internal/audio"
	"github.com/jmylchreest/onscreen/internal/dbus"
	"github.com/jmylchreest/onscreen/internal/display"
	"github.com/jmylchreest/onscreen/internal/model"
	"github.com/jmylchreest/onscreen/internal/theme"
	"github.com/jmylchreest/onscreen/internal/tui"
)

var runOpts struct {
	stdin       bool
	follow      string
	fromStart   bool
	dbus        bool
	dbusMonitor bool
	fps         int
	theme       string
	language    string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Show messages in the terminal",
	Long: `Show messages in the terminal until you quit.

Message sources:
  --stdin          one message per line read from stdin
  --follow FILE    one message per line appended to FILE
  --dbus           serve org.freedesktop.Notifications
  --dbus-monitor   watch notifications sent to another daemon

A line may start with a duration class ("short:", "long:", "extra-long:")
or be a JSON object with text/duration or app_name/summary/body fields.

Key bindings:
  t           Show a test message
  n           Show a numbered message
  f, →        Pass one second of extra time
  ?           Show help
  q           Quit

Logs would draw over the display, so they are dropped unless --log-file
is given.`,
	RunE: runDisplay,
}

func init() {
	rootCmd.AddCommand(runCmd)

	for _, cmd := range []*cobra.Command{rootCmd, runCmd} {
		flags := cmd.Flags()
		flags.BoolVar(&runOpts.stdin, "stdin", false, "Read messages from stdin")
		flags.StringVar(&runOpts.follow, "follow", "", "Read messages appended to a file")
		flags.BoolVar(&runOpts.fromStart, "from-start", false, "With --follow, also show lines already in the file")
		flags.BoolVar(&runOpts.dbus, "dbus", false, "Serve D-Bus desktop notifications")
		flags.BoolVar(&runOpts.dbusMonitor, "dbus-monitor", false, "Watch D-Bus notifications meant for another daemon")
		flags.IntVar(&runOpts.fps, "fps", 0, "Frames per second (default from config)")
		flags.StringVar(&runOpts.theme, "theme", "", "Color palette (default from config)")
		flags.StringVar(&runOpts.language, "lang", "", "Message language (default from config)")
		cmd.MarkFlagsMutuallyExclusive("dbus", "dbus-monitor")
	}
}

func runDisplay(cmd *cobra.Command, args []string) error {
	c := getConfig()
	if runOpts.fps > 0 {
		c.Frame.FPS = runOpts.fps
	}
	if runOpts.theme != "" {
		c.Theme.Name = runOpts.theme
	}
	if runOpts.language != "" {
		c.Locale.Language = runOpts.language
	}
	useDBus := runOpts.dbus || (c.Input.DBus && !runOpts.dbusMonitor)
	useMonitor := runOpts.dbusMonitor || (c.Input.DBusMonitor && !useDBus)

	log := logger
	if globalOpts.logFile == "" {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	localizer, err := loadLocalizer(c.Locale.Language)
	if err != nil {
		return err
	}

	renderer := tui.NewRenderer()
	mgr := display.NewManager(c.Messages, renderer, theme.NewStylePool(loadPalette(c.Theme.Name), log), log)
	mgr.SetFormatter(localizer)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		sources []input.Source
		onShow  []display.ShowCallback
		onClose []display.CloseCallback
	)

	if runOpts.stdin {
		sources = append(sources, input.NewStdinReader())
	}
	if runOpts.follow != "" {
		sources = append(sources, input.NewFollower(runOpts.follow, runOpts.fromStart, log))
	}
	if useDBus {
		srv := dbus.NewNotificationServer(log)
		info := dbus.DefaultServerInfo()
		info.Version = version
		srv.SetServerInfo(info)
		sources = append(sources, srv)
		onShow = append(onShow, srv.HandleShown)
		onClose = append(onClose, srv.HandleClosed)
	}
	if useMonitor {
		sources = append(sources, dbus.NewMonitor(log))
	}

	chimes := audio.NewChimes(c, log)
	if chimes.Enabled() {
		if err := chimes.Start(ctx); err != nil {
			log.Warn("failed to start audio", "error", err)
		}
		defer chimes.Stop()
		onShow = append(onShow, chimes.HandleShown)
	}

	mgr.SetShowCallback(func(msg model.Message, merged bool) {
		for _, cb := range onShow {
			cb(msg, merged)
		}
	})
	mgr.SetCloseCallback(func(msg model.Message, reason display.CloseReason) {
		for _, cb := range onClose {
			cb(msg, reason)
		}
	})

	err = tui.Run(ctx, tui.RunOptions{
		Manager:   mgr,
		Renderer:  renderer,
		Localizer: localizer,
		FPS:       c.Frame.FPS,
		Sources:   sources,
		Logger:    log,
		InputTTY:  runOpts.stdin,
	})

	// Entries still shown are closed so D-Bus senders hear about them
	mgr.Close()

	return err
}
