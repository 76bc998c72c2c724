// Package model defines the message types shown by onscreen.
package model

import (
	"fmt"
	"strings"
)

// Timing holds the fade clock of a message, in seconds.
//
// TimeRemaining stays within [0, OriginalTimeRemaining] while the message is
// active; a merge sets it back to OriginalTimeRemaining. TotalDisplayedTime
// accumulates across merges and is what eventually forces a fresh entry.
type Timing struct {
	TimeRemaining         float64 `json:"time_remaining" yaml:"time_remaining"`
	OriginalTimeRemaining float64 `json:"original_time_remaining" yaml:"original_time_remaining"`
	TotalDisplayedTime    float64 `json:"total_displayed_time" yaml:"total_displayed_time"`
}

// Start initializes the clock for a freshly shown message.
func (t *Timing) Start(lifetime float64) {
	t.OriginalTimeRemaining = lifetime
	t.TimeRemaining = lifetime
	t.TotalDisplayedTime = 0
}

// Reset refills the remaining time after a merge.
func (t *Timing) Reset() {
	t.TimeRemaining = t.OriginalTimeRemaining
}

// Message is anything that can be shown as an on-screen message.
//
// Concrete kinds decide what "the same message" means and what a merge
// refreshes. Implementations embed Base for the shared state.
type Message interface {
	// Content returns the text to display for a single occurrence.
	Content() string
	// DurationClass selects the fade lifetime.
	DurationClass() DurationClass
	// Multiplier is the number of occurrences merged into this message.
	Multiplier() int
	// Timing returns the message's fade clock. The pointer stays valid for
	// the lifetime of the message.
	Timing() *Timing
	// IsSameMessage reports whether other should be merged into this message.
	IsSameMessage(other Message) bool
	// UpdateFromOtherMessage merges other into this message.
	UpdateFromOtherMessage(other Message)
}

// Base carries the state shared by every message kind.
type Base struct {
	class      DurationClass
	multiplier int
	timing     Timing
}

// NewBase returns a Base for a single occurrence of the given class.
func NewBase(class DurationClass) Base {
	return Base{class: class, multiplier: 1}
}

// DurationClass returns the duration class.
func (b *Base) DurationClass() DurationClass { return b.class }

// Multiplier returns the merged occurrence count.
func (b *Base) Multiplier() int {
	if b.multiplier < 1 {
		return 1
	}
	return b.multiplier
}

// Timing returns the fade clock.
func (b *Base) Timing() *Timing { return &b.timing }

// absorb adds the occurrences of other to this message.
func (b *Base) absorb(other Message) {
	b.multiplier = b.Multiplier() + other.Multiplier()
}

// SimpleMessage is a plain line of text. Two simple messages are the same
// when their text matches.
type SimpleMessage struct {
	Base
	Text string
}

// NewSimpleMessage creates a simple text message.
func NewSimpleMessage(text string, class DurationClass) *SimpleMessage {
	return &SimpleMessage{Base: NewBase(class), Text: text}
}

// Content returns the text.
func (m *SimpleMessage) Content() string { return m.Text }

// IsSameMessage reports whether other is a simple message with the same text.
func (m *SimpleMessage) IsSameMessage(other Message) bool {
	o, ok := other.(*SimpleMessage)
	return ok && o.Text == m.Text
}

// UpdateFromOtherMessage merges the occurrence count of other.
func (m *SimpleMessage) UpdateFromOtherMessage(other Message) {
	m.absorb(other)
}

// TemplatedMessage is a format string with arguments, grouped by category.
// Messages with the same category and template merge; the merge takes the
// newest arguments, so "Picked up 3 glucose" becomes "Picked up 5 glucose"
// rather than a second line.
type TemplatedMessage struct {
	Base
	Category string
	Template string
	Args     []any
}

// NewTemplatedMessage creates a templated message. Template uses fmt verbs.
func NewTemplatedMessage(category, template string, class DurationClass, args ...any) *TemplatedMessage {
	return &TemplatedMessage{
		Base:     NewBase(class),
		Category: category,
		Template: template,
		Args:     args,
	}
}

// Content renders the template with the current arguments.
func (m *TemplatedMessage) Content() string {
	if len(m.Args) == 0 {
		return m.Template
	}
	return fmt.Sprintf(m.Template, m.Args...)
}

// IsSameMessage reports whether other has the same category and template.
func (m *TemplatedMessage) IsSameMessage(other Message) bool {
	o, ok := other.(*TemplatedMessage)
	return ok && o.Category == m.Category && o.Template == m.Template
}

// UpdateFromOtherMessage merges the count and takes the arguments of other.
func (m *TemplatedMessage) UpdateFromOtherMessage(other Message) {
	m.absorb(other)
	if o, ok := other.(*TemplatedMessage); ok {
		m.Args = append([]any(nil), o.Args...)
	}
}

// NotificationMessage is a desktop notification received over D-Bus.
type NotificationMessage struct {
	Base
	AppName string
	Summary string
	Body    string

	// DBusID is the id the first occurrence was announced under. Later
	// occurrences merged into this message are closed by the sender side.
	DBusID uint32
}

// NewNotificationMessage creates a notification message.
func NewNotificationMessage(appName, summary, body string, class DurationClass, dbusID uint32) *NotificationMessage {
	return &NotificationMessage{
		Base:    NewBase(class),
		AppName: appName,
		Summary: summary,
		Body:    body,
		DBusID:  dbusID,
	}
}

// Content joins the app name, summary and body on one line.
func (m *NotificationMessage) Content() string {
	var sb strings.Builder
	if m.AppName != "" {
		sb.WriteString(m.AppName)
		sb.WriteString(": ")
	}
	sb.WriteString(m.Summary)
	if body := strings.Join(strings.Fields(m.Body), " "); body != "" {
		sb.WriteString(" - ")
		sb.WriteString(body)
	}
	return sb.String()
}

// IsSameMessage reports whether other has the same app, summary and body.
func (m *NotificationMessage) IsSameMessage(other Message) bool {
	o, ok := other.(*NotificationMessage)
	return ok &&
		o.AppName == m.AppName &&
		o.Summary == m.Summary &&
		o.Body == m.Body
}

// UpdateFromOtherMessage merges the occurrence count of other.
func (m *NotificationMessage) UpdateFromOtherMessage(other Message) {
	m.absorb(other)
}

var (
	_ Message = (*SimpleMessage)(nil)
	_ Message = (*TemplatedMessage)(nil)
	_ Message = (*NotificationMessage)(nil)
)
