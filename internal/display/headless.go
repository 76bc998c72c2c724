package display

import (
	"slices"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/onscreen/internal/theme"
)

// HeadlessSlot is the recorded state of one slot.
type HeadlessSlot struct {
	Handle SlotHandle
	Text   string
	Alpha  float64
	Style  *theme.Style
	Hidden bool
}

// HeadlessRenderer keeps slots in memory instead of drawing them. It is used
// by the simulator and in tests.
type HeadlessRenderer struct {
	slots map[SlotHandle]*HeadlessSlot
	order []SlotHandle

	created   int
	destroyed int
	unknown   int
}

// NewHeadlessRenderer creates an empty headless renderer.
func NewHeadlessRenderer() *HeadlessRenderer {
	return &HeadlessRenderer{
		slots: make(map[SlotHandle]*HeadlessSlot),
	}
}

// CreateSlot allocates a slot at the back of the order.
func (r *HeadlessRenderer) CreateSlot() SlotHandle {
	handle := SlotHandle(ulid.Make().String())
	r.slots[handle] = &HeadlessSlot{Handle: handle, Alpha: 1}
	r.order = append(r.order, handle)
	r.created++
	return handle
}

// DestroySlot forgets a slot.
func (r *HeadlessRenderer) DestroySlot(handle SlotHandle) {
	if _, ok := r.slots[handle]; !ok {
		r.unknown++
		return
	}
	delete(r.slots, handle)
	r.order = slices.DeleteFunc(r.order, func(h SlotHandle) bool { return h == handle })
	r.destroyed++
}

// Hide marks a slot hidden.
func (r *HeadlessRenderer) Hide(handle SlotHandle) {
	if s := r.lookup(handle); s != nil {
		s.Hidden = true
	}
}

// SetOpacity records the slot's opacity and fades its style.
func (r *HeadlessRenderer) SetOpacity(handle SlotHandle, alpha float64) {
	if s := r.lookup(handle); s != nil {
		s.Alpha = alpha
		if s.Style != nil {
			s.Style.Fade(alpha)
		}
	}
}

// SetStyle records the slot's style.
func (r *HeadlessRenderer) SetStyle(handle SlotHandle, style *theme.Style) {
	if s := r.lookup(handle); s != nil {
		s.Style = style
	}
}

// SetText records the slot's text.
func (r *HeadlessRenderer) SetText(handle SlotHandle, text string) {
	if s := r.lookup(handle); s != nil {
		s.Text = text
	}
}

// SetInsertPosition moves the slot to the front or back of the order.
func (r *HeadlessRenderer) SetInsertPosition(handle SlotHandle, pos InsertPosition) {
	idx := slices.Index(r.order, handle)
	if idx < 0 {
		r.unknown++
		return
	}
	r.order = slices.Delete(r.order, idx, idx+1)
	if pos == InsertFront {
		r.order = slices.Insert(r.order, 0, handle)
	} else {
		r.order = append(r.order, handle)
	}
}

// Slot returns a copy of a slot's state.
func (r *HeadlessRenderer) Slot(handle SlotHandle) (HeadlessSlot, bool) {
	s, ok := r.slots[handle]
	if !ok {
		return HeadlessSlot{}, false
	}
	return *s, true
}

// Slots returns copies of the live slots in display order.
func (r *HeadlessRenderer) Slots() []HeadlessSlot {
	out := make([]HeadlessSlot, 0, len(r.order))
	for _, h := range r.order {
		out = append(out, *r.slots[h])
	}
	return out
}

// Live returns the number of slots not yet destroyed.
func (r *HeadlessRenderer) Live() int { return len(r.slots) }

// Created returns the number of slots ever created.
func (r *HeadlessRenderer) Created() int { return r.created }

// Destroyed returns the number of slots destroyed.
func (r *HeadlessRenderer) Destroyed() int { return r.destroyed }

// UnknownHandles counts calls made with a handle the renderer does not know.
func (r *HeadlessRenderer) UnknownHandles() int { return r.unknown }

func (r *HeadlessRenderer) lookup(handle SlotHandle) *HeadlessSlot {
	s, ok := r.slots[handle]
	if !ok {
		r.unknown++
		return nil
	}
	return s
}
