package scene

// Color is a linear RGB color. Light colors are intensified past 1.0 so the
// renderer's bloom pass picks them up.
type Color struct {
	R float64 `json:"r" yaml:"r"`
	G float64 `json:"g" yaml:"g"`
	B float64 `json:"b" yaml:"b"`
}

// Hex converts a 0xRRGGBB value to a Color in [0,1].
func Hex(v uint32) Color {
	return Color{
		R: float64((v>>16)&0xff) / 255,
		G: float64((v>>8)&0xff) / 255,
		B: float64(v&0xff) / 255,
	}
}

// Scale multiplies every channel by s.
func (c Color) Scale(s float64) Color {
	return Color{R: c.R * s, G: c.G * s, B: c.B * s}
}

// Theme is a named fairy-light palette.
type Theme struct {
	Name    string   `json:"name" yaml:"name"`
	Palette []uint32 `json:"palette" yaml:"palette"`
}

// DefaultThemes is the palette table cycled by the lights gesture.
var DefaultThemes = []Theme{
	{Name: "Classic", Palette: []uint32{0xff2020, 0x20ff40, 0xffd700, 0xffffff}},
	{Name: "Frost", Palette: []uint32{0x00e5ff, 0xb3f5ff, 0xffffff, 0x4060ff}},
	{Name: "Candy Cane", Palette: []uint32{0xff1a75, 0xffffff, 0xff4d4d}},
	{Name: "Aurora", Palette: []uint32{0x00ff9c, 0x00c2ff, 0xa040ff, 0xff40e0}},
	{Name: "Ember", Palette: []uint32{0xff6a00, 0xffb000, 0xff2a00, 0xfff0c0}},
}
