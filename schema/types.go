package schema

// SessionID identifies a live engine session.
type SessionID string

// Mode selects which buffers a session drives.
type Mode string

const (
	// ModeDocument drives a single editable buffer.
	ModeDocument Mode = "document"
	// ModeDiff drives an editable left/right pair.
	ModeDiff Mode = "diff"
	// ModeCompare drives a read-only original/modified pair.
	ModeCompare Mode = "compare"
)

// Slot names one text buffer inside a session.
type Slot string

const (
	// SlotContent is the single buffer of a document session.
	SlotContent Slot = "content"
	// SlotLeft is the left side of an editable diff.
	SlotLeft Slot = "left"
	// SlotRight is the right side of an editable diff.
	SlotRight Slot = "right"
	// SlotOriginal is the original side of a compare view.
	SlotOriginal Slot = "original"
	// SlotModified is the modified side of a compare view.
	SlotModified Slot = "modified"
)

var modeSlots = map[Mode][]Slot{
	ModeDocument: {SlotContent},
	ModeDiff:     {SlotLeft, SlotRight},
	ModeCompare:  {SlotOriginal, SlotModified},
}

// Valid reports whether the mode is known.
func (m Mode) Valid() bool {
	_, ok := modeSlots[m]
	return ok
}

// Slots returns the buffers of the mode in display order.
func (m Mode) Slots() []Slot {
	slots := modeSlots[m]
	out := make([]Slot, len(slots))
	copy(out, slots)
	return out
}

// HasSlot reports whether slot belongs to the mode.
func (m Mode) HasSlot(slot Slot) bool {
	for _, s := range modeSlots[m] {
		if s == slot {
			return true
		}
	}
	return false
}

// IsDiff reports whether the mode renders two buffers side by side.
func (m Mode) IsDiff() bool {
	return m == ModeDiff || m == ModeCompare
}

// Page returns the engine page that hosts the mode.
func (m Mode) Page() string {
	switch m {
	case ModeDiff:
		return "diff"
	case ModeCompare:
		return "compare"
	default:
		return "editor"
	}
}

// Contents holds text per slot.
type Contents map[Slot]string

// Clone returns a copy of the contents.
func (c Contents) Clone() Contents {
	if c == nil {
		return nil
	}
	out := make(Contents, len(c))
	for slot, value := range c {
		out[slot] = value
	}
	return out
}
