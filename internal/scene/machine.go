package scene

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/ayusman/yuletide/internal/gesture"
)

// NominalTick is the frame length all per-tick constants are tuned for.
const NominalTick = time.Second / 60

// Auto-rotation speeds of the tree group.
const (
	DirectedRotateSpeed = 8.0
	IdleRotateSpeed     = 0.5
)

// Rand is the randomness the machine draws from. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Config holds machine configuration.
type Config struct {
	Themes     []Theme
	LightCount int
	// Textures are the session's photos; empty means placeholders.
	Textures []Texture
	// Greeting is shown once the gift is open.
	Greeting string
	Rand     Rand
	Now      func() time.Time
}

// DefaultConfig returns a Config with the stock themes and light count.
func DefaultConfig() Config {
	return Config{
		Themes:     DefaultThemes,
		LightCount: DefaultLightCount,
	}
}

// State is the complete scene state. It is owned by a single Machine and
// only mutated inside Step.
type State struct {
	AutoRotateSpeed float64   `json:"auto_rotate_speed"`
	Jump            JumpState `json:"jump"`
	ThemeIndex      int       `json:"theme_index"`
	LightColors     []Color   `json:"light_colors"`
	GiftOpened      bool      `json:"gift_opened"`
	Lid             Lid       `json:"lid"`
	Gallery         Gallery   `json:"gallery"`
}

func (s State) clone() State {
	s.LightColors = slices.Clone(s.LightColors)
	s.Gallery.Items = slices.Clone(s.Gallery.Items)
	return s
}

// Machine advances the scene from gesture signals. It is not safe for
// concurrent use; callers keep it on one goroutine.
type Machine struct {
	config  Config
	state   State
	tick    uint64
	elapsed time.Duration
	status  string
}

// NewMachine creates a machine at theme 0 with a freshly painted light table.
func NewMachine(config Config) *Machine {
	if len(config.Themes) == 0 {
		config.Themes = DefaultThemes
	}
	if config.LightCount <= 0 {
		config.LightCount = DefaultLightCount
	}
	if config.Rand == nil {
		config.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	config.Textures = slices.Clone(config.Textures)

	m := &Machine{
		config: config,
		state: State{
			AutoRotateSpeed: IdleRotateSpeed,
			LightColors:     make([]Color, config.LightCount),
			Lid:             newLid(),
		},
		status: gesture.StatusWaiting,
	}
	paintLights(m.state.LightColors, config.Themes[0], config.Rand)
	return m
}

// Step advances existing motion by dt and then applies sig. It returns the
// events for triggers accepted on this tick, in jump, lights, gift order.
func (m *Machine) Step(sig gesture.Signal, dt time.Duration) []Event {
	k := 0.0
	if dt > 0 {
		k = float64(dt) / float64(NominalTick)
		m.elapsed += dt
	}
	m.tick++

	m.state.Jump.advance(k)
	if m.state.GiftOpened {
		m.state.Lid.advance(k)
		m.state.Gallery.advance(k, m.elapsed.Seconds())
	}

	m.status = sig.Status
	if sig.RotateDirection != 0 {
		m.state.AutoRotateSpeed = float64(sig.RotateDirection) * DirectedRotateSpeed
	} else {
		m.state.AutoRotateSpeed = IdleRotateSpeed
	}

	var events []Event
	if sig.Jump && m.state.Jump.start() {
		events = append(events, m.event(EventJumpStarted))
	}
	if sig.LightsToggle {
		m.state.ThemeIndex = (m.state.ThemeIndex + 1) % len(m.config.Themes)
		paintLights(m.state.LightColors, m.config.Themes[m.state.ThemeIndex], m.config.Rand)
		events = append(events, m.event(EventLightsSwitched))
	}
	if sig.GiftOpen && !m.state.GiftOpened {
		m.state.GiftOpened = true
		m.state.Lid.launch(m.config.Rand)
		m.state.Gallery = buildGallery(m.config.Textures, m.config.Rand)
		events = append(events, m.event(EventGiftOpened))
	}
	return events
}

func (m *Machine) event(kind EventKind) Event {
	return Event{
		Kind:       kind,
		Tick:       m.tick,
		At:         m.config.Now(),
		ThemeIndex: m.state.ThemeIndex,
	}
}

// State returns a deep copy of the current state.
func (m *Machine) State() State {
	return m.state.clone()
}

// Tick returns the number of Step calls so far.
func (m *Machine) Tick() uint64 {
	return m.tick
}

// Theme returns the active light theme.
func (m *Machine) Theme() Theme {
	return m.config.Themes[m.state.ThemeIndex]
}
