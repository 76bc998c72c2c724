package display

import (
	"github.com/jmylchreest/onscreen/internal/model"
)

// CloseReason is why an entry left the display.
type CloseReason int

const (
	// CloseExpired means the entry's fade time ran out during a tick.
	CloseExpired CloseReason = iota
	// CloseEvicted means the entry made room for a newer one.
	CloseEvicted
	// CloseShutdown means the manager was closed with the entry still shown.
	CloseShutdown
)

// String returns the string representation of CloseReason.
func (r CloseReason) String() string {
	switch r {
	case CloseExpired:
		return "expired"
	case CloseEvicted:
		return "evicted"
	case CloseShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// ShowCallback is called with every message accepted by ShowMessage. merged
// is true when it was folded into an existing entry instead of getting its own.
type ShowCallback func(msg model.Message, merged bool)

// CloseCallback is called after an entry has been destroyed.
type CloseCallback func(msg model.Message, reason CloseReason)

// EntrySnapshot is a copy of one active entry's state, in display order.
type EntrySnapshot struct {
	Slot       SlotHandle          `json:"slot" yaml:"slot"`
	Content    string              `json:"content" yaml:"content"`
	Text       string              `json:"text" yaml:"text"`
	Class      model.DurationClass `json:"class" yaml:"class"`
	Multiplier int                 `json:"multiplier" yaml:"multiplier"`
	Timing     model.Timing        `json:"timing" yaml:"timing"`
	Alpha      float64             `json:"alpha" yaml:"alpha"`
}
