// Package audio synthesizes the short sound cues played for scene events.
package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep/v2"
)

// Waveform maps a phase in [0,1) to a sample in [-1,1].
type Waveform func(phase float64) float64

// Basic oscillator shapes.
var (
	Sine     Waveform = func(p float64) float64 { return math.Sin(2 * math.Pi * p) }
	Square   Waveform = func(p float64) float64 { return math.Copysign(1, 0.5-p) }
	Triangle Waveform = func(p float64) float64 { return 1 - 4*math.Abs(p-0.5) }
)

// ToneSpec describes one oscillator voice. Frequency and gain follow
// exponential ramps and then hold their final value until Length.
type ToneSpec struct {
	Wave     Waveform
	FromHz   float64
	ToHz     float64
	Sweep    time.Duration
	FromGain float64
	ToGain   float64
	Decay    time.Duration
	Length   time.Duration
}

// Tone is a finite beep.Streamer rendering a ToneSpec.
type Tone struct {
	spec  ToneSpec
	rate  float64
	pos   int
	total int
	phase float64
}

// NewTone renders spec at sample rate sr.
func NewTone(sr beep.SampleRate, spec ToneSpec) *Tone {
	return &Tone{
		spec:  spec,
		rate:  float64(sr),
		total: sr.N(spec.Length),
	}
}

// Len is the total number of samples.
func (t *Tone) Len() int { return t.total }

// Stream implements beep.Streamer.
func (t *Tone) Stream(samples [][2]float64) (n int, ok bool) {
	if t.pos >= t.total {
		return 0, false
	}
	for i := range samples {
		if t.pos >= t.total {
			break
		}
		at := float64(t.pos) / t.rate
		v := t.spec.Wave(t.phase) * expRamp(t.spec.FromGain, t.spec.ToGain, at, t.spec.Decay.Seconds())
		samples[i][0], samples[i][1] = v, v

		t.phase += expRamp(t.spec.FromHz, t.spec.ToHz, at, t.spec.Sweep.Seconds()) / t.rate
		t.phase -= math.Floor(t.phase)
		t.pos++
		n++
	}
	return n, true
}

// Err implements beep.Streamer.
func (t *Tone) Err() error { return nil }

// expRamp moves from a to b exponentially over span seconds, then holds b.
// Both ends must be positive.
func expRamp(a, b, at, span float64) float64 {
	switch {
	case span <= 0 || at >= span:
		return b
	case a == b:
		return a
	default:
		return a * math.Pow(b/a, at/span)
	}
}
