package dbus

import (
	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/onscreen/internal/display"
	"github.com/jmylchreest/onscreen/internal/model"
)

// CloseReason represents the reason for closing a notification.
// These values are defined by the freedesktop.org Desktop Notifications protocol.
type CloseReason uint32

const (
	// CloseReasonExpired indicates the notification expired (timeout reached).
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed indicates the user dismissed the notification.
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed indicates the notification was closed via CloseNotification.
	CloseReasonClosed CloseReason = 3
	// CloseReasonUndefined is reserved/undefined per the freedesktop.org protocol.
	CloseReasonUndefined CloseReason = 4
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// CloseReasonFor maps why an on-screen entry went away to the reason
// reported to the sender. Evicted entries count as expired: they ran out of
// room rather than being dismissed.
func CloseReasonFor(reason display.CloseReason) CloseReason {
	switch reason {
	case display.CloseExpired, display.CloseEvicted:
		return CloseReasonExpired
	case display.CloseShutdown:
		return CloseReasonClosed
	default:
		return CloseReasonUndefined
	}
}

// Urgency levels from the urgency hint.
const (
	UrgencyLow      = 0
	UrgencyNormal   = 1
	UrgencyCritical = 2
)

// DBusNotification represents an incoming D-Bus Notify call.
// It contains the raw parameters from the org.freedesktop.Notifications.Notify method.
type DBusNotification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// Urgency extracts the urgency hint from the notification.
// Returns UrgencyNormal if not specified.
func (n *DBusNotification) Urgency() int {
	if v, ok := n.Hints["urgency"]; ok {
		if b, ok := v.Value().(byte); ok {
			return int(b)
		}
	}
	return UrgencyNormal
}

// Category extracts the category hint from the notification.
// Returns empty string if not specified.
func (n *DBusNotification) Category() string {
	if v, ok := n.Hints["category"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// Transient returns true if the transient hint is set.
func (n *DBusNotification) Transient() bool {
	if v, ok := n.Hints["transient"]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// DurationClass picks how long the notification stays on screen. A
// notification that asks never to expire gets the longest class; otherwise
// the urgency decides, and transient ones are kept short.
func (n *DBusNotification) DurationClass() model.DurationClass {
	if n.ExpireTimeout == 0 {
		return model.DurationExtraLong
	}
	if n.Transient() {
		return model.DurationShort
	}
	switch n.Urgency() {
	case UrgencyLow:
		return model.DurationShort
	case UrgencyCritical:
		return model.DurationLong
	default:
		return model.DurationNormal
	}
}

// ToMessage converts the notification into a registry message announced
// under id.
func (n *DBusNotification) ToMessage(id uint32) *model.NotificationMessage {
	return model.NewNotificationMessage(n.AppName, n.Summary, n.Body, n.DurationClass(), id)
}

// ServerCapabilities lists the capabilities advertised by onscreen.
var ServerCapabilities = []string{
	"body", // Body text is shown after the summary
}

// ServerInfo contains information about the notification server.
type ServerInfo struct {
	Name        string // "onscreen"
	Vendor      string // "onscreen"
	Version     string // Build version
	SpecVersion string // "1.2"
}

// DefaultServerInfo returns the default server information.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:        "onscreen",
		Vendor:      "onscreen",
		Version:     "dev",
		SpecVersion: "1.2",
	}
}
