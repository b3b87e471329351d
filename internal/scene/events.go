package scene

import "time"

// EventKind names a discrete scene transition.
type EventKind string

const (
	EventJumpStarted    EventKind = "jump-started"
	EventLightsSwitched EventKind = "lights-switched"
	EventGiftOpened     EventKind = "gift-opened"
)

// Event is emitted by Machine.Step for each accepted trigger. Ignored
// triggers (a jump while airborne, a second gift open) emit nothing.
type Event struct {
	Kind       EventKind `json:"kind"`
	Tick       uint64    `json:"tick"`
	At         time.Time `json:"at"`
	ThemeIndex int       `json:"theme_index"`
}

// EventSink receives events fire-and-forget. Implementations must not block
// the render tick; slow work belongs on their own goroutine.
type EventSink interface {
	HandleEvent(Event)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(Event)

// HandleEvent calls f(ev).
func (f SinkFunc) HandleEvent(ev Event) { f(ev) }
