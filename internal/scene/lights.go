package scene

const (
	// DefaultLightCount is the number of fairy-light instances on the tree.
	DefaultLightCount = 400
	// LightIntensity boosts sampled palette colors for bloom.
	LightIntensity = 5.0
)

// paintLights draws a fresh color for every light from theme's palette.
// Each call re-randomizes the whole table, so toggling back to a theme
// never reproduces its previous look.
func paintLights(dst []Color, theme Theme, r Rand) {
	if len(theme.Palette) == 0 {
		for i := range dst {
			dst[i] = Color{R: 1, G: 1, B: 1}.Scale(LightIntensity)
		}
		return
	}
	for i := range dst {
		dst[i] = Hex(theme.Palette[r.IntN(len(theme.Palette))]).Scale(LightIntensity)
	}
}
