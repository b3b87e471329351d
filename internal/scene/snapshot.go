package scene

import "github.com/go-gl/mathgl/mgl64"

// Snapshot is the render-facing view of a Machine after a tick. It owns its
// slices and is safe to hand to other goroutines.
type Snapshot struct {
	Tick            uint64  `json:"tick"`
	Elapsed         float64 `json:"elapsed"`
	Status          string  `json:"status"`
	AutoRotateSpeed float64 `json:"auto_rotate_speed"`

	Jumping    bool    `json:"jumping"`
	JumpHeight float64 `json:"jump_height"`

	ThemeIndex  int     `json:"theme_index"`
	ThemeName   string  `json:"theme_name"`
	LightColors []Color `json:"light_colors"`

	GiftOpened      bool          `json:"gift_opened"`
	LidPosition     mgl64.Vec3    `json:"lid_position"`
	LidRotation     mgl64.Vec3    `json:"lid_rotation"`
	LidResting      bool          `json:"lid_resting"`
	GalleryRotation float64       `json:"gallery_rotation"`
	Photos          []PhotoSprite `json:"photos"`
	Greeting        string        `json:"greeting,omitempty"`
}

// PhotoSprite is where a renderer should draw one gallery photo.
type PhotoSprite struct {
	Texture  Texture    `json:"texture"`
	Position mgl64.Vec3 `json:"position"`
	Scale    float64    `json:"scale"`
	Spin     float64    `json:"spin"`
}

// Snapshot captures the current state for rendering.
func (m *Machine) Snapshot() Snapshot {
	s := m.state
	snap := Snapshot{
		Tick:            m.tick,
		Elapsed:         m.elapsed.Seconds(),
		Status:          m.status,
		AutoRotateSpeed: s.AutoRotateSpeed,
		Jumping:         s.Jump.Active,
		JumpHeight:      s.Jump.Height(),
		ThemeIndex:      s.ThemeIndex,
		ThemeName:       m.Theme().Name,
		LightColors:     append([]Color(nil), s.LightColors...),
		GiftOpened:      s.GiftOpened,
		LidPosition:     s.Lid.Position,
		LidRotation:     s.Lid.Rotation,
		LidResting:      s.Lid.Resting,
		GalleryRotation: s.Gallery.Rotation,
		Photos:          make([]PhotoSprite, len(s.Gallery.Items)),
	}
	for i, it := range s.Gallery.Items {
		snap.Photos[i] = PhotoSprite{
			Texture:  it.Texture,
			Position: it.Position,
			Scale:    it.Scale,
			Spin:     it.Spin,
		}
	}
	if s.GiftOpened {
		snap.Greeting = m.config.Greeting
	}
	return snap
}
