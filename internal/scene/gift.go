package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Lid integrator constants, per nominal tick.
const (
	LidStepScale   = 0.05
	LidGravity     = 0.35
	LidFloor       = -2.0
	LidLaunchSpeed = 12.0
	// LidDrift is the full width of the random sideways launch velocity.
	LidDrift = 2.0
	LidSpin  = 0.3
)

// Gallery layout constants.
const (
	MaxPhotos          = 12
	GalleryRadius      = 35.0
	GalleryBaseHeight  = 20.0
	GalleryHeightRange = 10.0
	HoverOffsetRange   = 10.0
	HoverAmplitude     = 2.0
	ItemFollow         = 0.05
	GallerySpin        = 0.005
	ItemSpin           = 0.01
	ItemStartScale     = 0.1
)

var (
	// GiftOrigin is where the gift box sits and where photos emerge from.
	GiftOrigin = mgl64.Vec3{0, 1.5, 30}
	// LidStart is the closed lid's position relative to the box.
	LidStart = mgl64.Vec3{0, 3, 0}
)

// Texture is an opaque handle to a renderable image.
type Texture string

// PlaceholderTextures are used when a session supplies no photos.
var PlaceholderTextures = []Texture{
	"placeholder:red",
	"placeholder:green",
	"placeholder:blue",
	"placeholder:yellow",
	"placeholder:magenta",
	"placeholder:cyan",
}

// Lid is the gift lid's rigid-body state. Once Resting it never moves again.
type Lid struct {
	Position        mgl64.Vec3 `json:"position"`
	Rotation        mgl64.Vec3 `json:"rotation"`
	Velocity        mgl64.Vec3 `json:"velocity"`
	AngularVelocity mgl64.Vec3 `json:"angular_velocity"`
	Resting         bool       `json:"resting"`
}

func newLid() Lid {
	return Lid{Position: LidStart}
}

// launch throws the lid upward with a small random sideways drift and spin.
func (l *Lid) launch(r Rand) {
	l.Velocity = mgl64.Vec3{
		(r.Float64() - 0.5) * LidDrift,
		LidLaunchSpeed,
		(r.Float64() - 0.5) * LidDrift,
	}
	l.AngularVelocity = mgl64.Vec3{
		r.Float64() * LidSpin,
		r.Float64() * LidSpin,
		r.Float64() * LidSpin,
	}
}

// advance integrates k nominal ticks. The lid comes to rest exactly on the
// floor with no bounce.
func (l *Lid) advance(k float64) {
	if l.Resting {
		return
	}
	l.Position = l.Position.Add(l.Velocity.Mul(LidStepScale * k))
	l.Rotation[0] += l.AngularVelocity[0] * k
	l.Rotation[1] += l.AngularVelocity[1] * k
	l.Velocity[1] -= LidGravity * k

	if l.Position[1] < LidFloor {
		l.Position[1] = LidFloor
		l.Velocity = mgl64.Vec3{}
		l.AngularVelocity = mgl64.Vec3{}
		l.Resting = true
	}
}

// GalleryItem is one photo flying out of the gift toward its orbit slot.
type GalleryItem struct {
	Texture     Texture    `json:"texture"`
	Position    mgl64.Vec3 `json:"position"`
	Target      mgl64.Vec3 `json:"target"`
	Scale       float64    `json:"scale"`
	Spin        float64    `json:"spin"`
	HoverOffset float64    `json:"hover_offset"`
}

// Gallery is the orbiting photo ring. Rotation spins the whole ring.
type Gallery struct {
	Rotation float64       `json:"rotation"`
	Items    []GalleryItem `json:"items"`
}

// buildGallery lays photos on a circle of GalleryRadius, truncating to
// MaxPhotos. With no textures the placeholders are used.
func buildGallery(textures []Texture, r Rand) Gallery {
	if len(textures) == 0 {
		textures = PlaceholderTextures
	}
	count := min(len(textures), MaxPhotos)

	items := make([]GalleryItem, count)
	for i := range items {
		angle := float64(i) / float64(count) * 2 * math.Pi
		items[i] = GalleryItem{
			Texture:  textures[i],
			Position: GiftOrigin,
			Target: mgl64.Vec3{
				math.Cos(angle) * GalleryRadius,
				GalleryBaseHeight + r.Float64()*GalleryHeightRange,
				math.Sin(angle) * GalleryRadius,
			},
			Scale:       ItemStartScale,
			HoverOffset: r.Float64() * HoverOffsetRange,
		}
	}
	return Gallery{Items: items}
}

// advance moves every item a fraction of the way to its hovering target.
// elapsed is scene time in seconds and drives the hover bob.
func (g *Gallery) advance(k, elapsed float64) {
	g.Rotation += GallerySpin * k
	follow := followFactor(k)

	for i := range g.Items {
		it := &g.Items[i]
		goal := mgl64.Vec3{
			it.Target[0],
			it.Target[1] + math.Sin(elapsed+it.HoverOffset)*HoverAmplitude,
			it.Target[2],
		}
		it.Position = it.Position.Add(goal.Sub(it.Position).Mul(follow))
		it.Spin += ItemSpin * k
	}
}

// followFactor converts the per-tick smoothing factor to k ticks, so the
// approach rate is the same at any tick length.
func followFactor(k float64) float64 {
	if k == 1 {
		return ItemFollow
	}
	return 1 - math.Pow(1-ItemFollow, k)
}
