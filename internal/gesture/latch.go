package gesture

// Latch remembers whether a full fist has been seen since the last lights
// toggle. It turns the continuous "hand is open" condition into a single
// closed-to-open edge.
type Latch int

const (
	// LatchIdle means no fist has been seen; an open hand does nothing.
	LatchIdle Latch = iota
	// LatchArmed means a full fist was seen; the next open hand fires.
	LatchArmed
)

func (l Latch) String() string {
	if l == LatchArmed {
		return "armed"
	}
	return "idle"
}

// Armed reports whether the next fully open hand will toggle the lights.
func (l Latch) Armed() bool {
	return l == LatchArmed
}
