package display

import (
	"fmt"

	"github.com/jmylchreest/onscreen/internal/theme"
)

// SlotHandle identifies a renderer display slot. It is opaque to the Manager.
type SlotHandle string

// InsertPosition is where a new slot appears in the display order.
type InsertPosition int

const (
	// InsertFront places the slot above all existing slots.
	InsertFront InsertPosition = iota
	// InsertBack places the slot below all existing slots.
	InsertBack
)

// String returns the string representation of InsertPosition.
func (p InsertPosition) String() string {
	switch p {
	case InsertFront:
		return "front"
	case InsertBack:
		return "back"
	default:
		return "unknown"
	}
}

// Renderer draws message slots. The Manager is the only caller and never
// calls it concurrently.
type Renderer interface {
	// CreateSlot allocates a new, visible, empty slot.
	CreateSlot() SlotHandle
	// DestroySlot releases a slot. The handle is invalid afterwards.
	DestroySlot(handle SlotHandle)
	// Hide detaches a slot from the display without releasing it.
	Hide(handle SlotHandle)
	// SetOpacity sets the slot's opacity in [0, 1].
	SetOpacity(handle SlotHandle, alpha float64)
	// SetStyle attaches a pooled style; nil detaches the current one.
	SetStyle(handle SlotHandle, style *theme.Style)
	// SetText replaces the slot's text.
	SetText(handle SlotHandle, text string)
	// SetInsertPosition moves the slot to the front or back of the order.
	SetInsertPosition(handle SlotHandle, pos InsertPosition)
}

// Formatter decorates the text of a merged message with its occurrence count.
// *locale.Localizer implements it.
type Formatter interface {
	FormatMultipliedMessage(content string, multiplier int) string
}

// plainFormatter is used when no localized formatter is configured.
type plainFormatter struct{}

func (plainFormatter) FormatMultipliedMessage(content string, multiplier int) string {
	return fmt.Sprintf("%s (x%d)", content, multiplier)
}
