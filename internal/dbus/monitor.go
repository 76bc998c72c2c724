package dbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/onscreen/internal/adapter/input"
)

// Monitor passively observes D-Bus notification traffic without claiming ownership.
// This allows running alongside another notification daemon (like dunst).
// Monitored notifications carry no D-Bus id: the owning daemon answers
// for them.
type Monitor struct {
	logger *slog.Logger
}

// NewMonitor creates a new notification monitor.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{logger: logger}
}

// Name returns the source identifier.
func (m *Monitor) Name() string {
	return "dbus-monitor"
}

// Run watches Notify calls until ctx is done.
func (m *Monitor) Run(ctx context.Context, sink input.Sink) error {
	// A monitoring connection can't be used for anything else, so it must
	// not be the shared session bus
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return &input.AdapterError{Source: m.Name(), Message: "failed to connect to session bus", Err: err}
	}
	defer conn.Close()

	ch := make(chan *dbus.Message, 100)
	conn.Eavesdrop(ch)

	if err := m.become(conn); err != nil {
		return &input.AdapterError{Source: m.Name(), Message: "failed to monitor notifications", Err: err}
	}

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if !isNotifyCall(msg) {
				continue
			}
			n, err := parseNotify(msg.Body)
			if err != nil {
				m.logger.Warn("malformed Notify call", "error", err)
				continue
			}
			m.logger.Debug("captured notification", "app", n.AppName, "summary", n.Summary)
			sink(n.ToMessage(0))

		case <-ctx.Done():
			return nil
		}
	}
}

// become turns conn into a monitor, falling back to eavesdropping match
// rules on buses without the Monitoring interface.
func (m *Monitor) become(conn *dbus.Conn) error {
	rules := []string{
		"type='method_call',interface='org.freedesktop.Notifications',member='Notify'",
	}

	err := conn.BusObject().Call(
		"org.freedesktop.DBus.Monitoring.BecomeMonitor",
		0,
		rules,
		uint32(0),
	).Err
	if err == nil {
		m.logger.Info("started D-Bus monitor using BecomeMonitor")
		return nil
	}

	m.logger.Warn("BecomeMonitor not available, trying AddMatch", "error", err)
	matchRule := "type='method_call',interface='org.freedesktop.Notifications',member='Notify',eavesdrop='true'"
	if err := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchRule).Err; err != nil {
		return fmt.Errorf("failed to add match rule (eavesdrop may require permissions): %w", err)
	}

	m.logger.Info("started D-Bus monitor using AddMatch with eavesdrop")
	return nil
}

// isNotifyCall reports whether msg is a Notify method call.
func isNotifyCall(msg *dbus.Message) bool {
	if msg.Type != dbus.TypeMethodCall {
		return false
	}
	iface, ok := msg.Headers[dbus.FieldInterface]
	if !ok || iface.Value() != DBusInterface {
		return false
	}
	member, ok := msg.Headers[dbus.FieldMember]
	return ok && member.Value() == "Notify"
}

// parseNotify decodes the arguments of a Notify call:
// (app_name, replaces_id, app_icon, summary, body, actions, hints, expire_timeout).
func parseNotify(body []any) (*DBusNotification, error) {
	if len(body) < 8 {
		return nil, fmt.Errorf("expected 8 arguments, got %d", len(body))
	}

	n := &DBusNotification{}
	var ok bool
	if n.AppName, ok = body[0].(string); !ok {
		return nil, fmt.Errorf("invalid app_name type %T", body[0])
	}
	if n.ReplacesID, ok = body[1].(uint32); !ok {
		return nil, fmt.Errorf("invalid replaces_id type %T", body[1])
	}
	if n.AppIcon, ok = body[2].(string); !ok {
		return nil, fmt.Errorf("invalid app_icon type %T", body[2])
	}
	if n.Summary, ok = body[3].(string); !ok {
		return nil, fmt.Errorf("invalid summary type %T", body[3])
	}
	if n.Body, ok = body[4].(string); !ok {
		return nil, fmt.Errorf("invalid body type %T", body[4])
	}

	// The rest are optional for display purposes
	if actions, ok := body[5].([]string); ok {
		n.Actions = actions
	}
	if hints, ok := body[6].(map[string]dbus.Variant); ok {
		n.Hints = hints
	}
	if timeout, ok := body[7].(int32); ok {
		n.ExpireTimeout = timeout
	} else {
		n.ExpireTimeout = -1
	}

	return n, nil
}

var _ input.Source = (*Monitor)(nil)
