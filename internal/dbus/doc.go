// Package dbus receives desktop notifications over the
// org.freedesktop.Notifications D-Bus interface. The server claims the bus
// name and answers GetCapabilities, Notify, CloseNotification and
// GetServerInformation; the monitor only watches Notify calls meant for
// another daemon. Both hand notifications to the display as messages.
package dbus
