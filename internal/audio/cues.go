package audio

import (
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/ayusman/yuletide/internal/scene"
)

// Rand supplies bell detune draws.
type Rand interface {
	Float64() float64
}

var (
	jumpCue = ToneSpec{
		Wave: Triangle, FromHz: 150, ToHz: 300, Sweep: 100 * time.Millisecond,
		FromGain: 0.1, ToGain: 0.01, Decay: 300 * time.Millisecond,
		Length: 300 * time.Millisecond,
	}
	switchCue = ToneSpec{
		Wave: Square, FromHz: 600, ToHz: 100, Sweep: 100 * time.Millisecond,
		FromGain: 0.05, ToGain: 0.01, Decay: 100 * time.Millisecond,
		Length: 100 * time.Millisecond,
	}
	bellPartials = []float64{440, 880, 1320}
)

const (
	bellLength = 1500 * time.Millisecond
	bellDetune = 0.1
)

// bellCue is a chord of slightly detuned sine partials, quieter as they rise.
func bellCue(r Rand) []ToneSpec {
	specs := make([]ToneSpec, len(bellPartials))
	for i, hz := range bellPartials {
		hz *= 1 - bellDetune + r.Float64()*2*bellDetune
		specs[i] = ToneSpec{
			Wave: Sine, FromHz: hz, ToHz: hz,
			FromGain: 0.05 / float64(i+1), ToGain: 0.001, Decay: bellLength,
			Length: bellLength,
		}
	}
	return specs
}

// Cue returns the sound for an event kind, or nil for kinds without one.
func Cue(kind scene.EventKind, sr beep.SampleRate, r Rand) beep.Streamer {
	switch kind {
	case scene.EventJumpStarted:
		return NewTone(sr, jumpCue)
	case scene.EventLightsSwitched:
		return NewTone(sr, switchCue)
	case scene.EventGiftOpened:
		specs := bellCue(r)
		voices := make([]beep.Streamer, len(specs))
		for i, s := range specs {
			voices[i] = NewTone(sr, s)
		}
		return beep.Mix(voices...)
	default:
		return nil
	}
}
