package audio

import (
	"math"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/ayusman/yuletide/internal/scene"
)

type constRand float64

func (r constRand) Float64() float64 { return float64(r) }

const testRate = beep.SampleRate(8000)

// drain streams s to completion and returns all samples.
func drain(t *testing.T, s beep.Streamer) [][2]float64 {
	t.Helper()
	var out [][2]float64
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		out = append(out, buf[:n]...)
		if !ok {
			return out
		}
		if len(out) > int(testRate)*10 {
			t.Fatal("streamer never finished")
		}
	}
}

func TestWaveforms(t *testing.T) {
	tests := []struct {
		name  string
		wave  Waveform
		phase float64
		want  float64
	}{
		{"sine quarter", Sine, 0.25, 1},
		{"sine half", Sine, 0.5, 0},
		{"square low half", Square, 0.1, 1},
		{"square high half", Square, 0.9, -1},
		{"triangle start", Triangle, 0, -1},
		{"triangle peak", Triangle, 0.5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.wave(tt.phase); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("wave(%v) = %v, want %v", tt.phase, got, tt.want)
			}
		})
	}
}

func TestExpRamp(t *testing.T) {
	if got := expRamp(150, 300, 0, 0.1); got != 150 {
		t.Errorf("start = %v, want 150", got)
	}
	if got := expRamp(150, 300, 0.05, 0.1); math.Abs(got-150*math.Sqrt2) > 1e-9 {
		t.Errorf("midpoint = %v, want geometric mean", got)
	}
	if got := expRamp(150, 300, 0.2, 0.1); got != 300 {
		t.Errorf("after span = %v, want hold at 300", got)
	}
	if got := expRamp(440, 440, 0.5, 0); got != 440 {
		t.Errorf("zero span = %v, want 440", got)
	}
}

func TestCue_Lengths(t *testing.T) {
	tests := []struct {
		kind scene.EventKind
		want time.Duration
	}{
		{scene.EventJumpStarted, 300 * time.Millisecond},
		{scene.EventLightsSwitched, 100 * time.Millisecond},
		{scene.EventGiftOpened, 1500 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			cue := Cue(tt.kind, testRate, constRand(0.5))
			if cue == nil {
				t.Fatal("Cue returned nil")
			}
			samples := drain(t, cue)
			if len(samples) != testRate.N(tt.want) {
				t.Errorf("got %d samples, want %d", len(samples), testRate.N(tt.want))
			}
		})
	}
}

func TestCue_Unknown(t *testing.T) {
	if Cue("snowball", testRate, constRand(0)) != nil {
		t.Error("unknown kinds should have no cue")
	}
}

func TestTone_Envelope(t *testing.T) {
	samples := drain(t, NewTone(testRate, jumpCue))

	peak := func(from, to int) float64 {
		m := 0.0
		for _, s := range samples[from:to] {
			m = math.Max(m, math.Abs(s[0]))
		}
		return m
	}
	n := len(samples)
	head, tail := peak(0, n/10), peak(n-n/10, n)
	if head > jumpCue.FromGain+1e-9 {
		t.Errorf("head peak %v exceeds start gain", head)
	}
	if tail >= head {
		t.Errorf("tail peak %v should be quieter than head %v", tail, head)
	}
	for i, s := range samples {
		if s[0] != s[1] {
			t.Fatalf("sample %d not mono: %v", i, s)
		}
	}
}

func TestBellCue_Detune(t *testing.T) {
	low := bellCue(constRand(0))
	high := bellCue(constRand(1))
	for i, hz := range bellPartials {
		if math.Abs(low[i].FromHz-hz*0.9) > 1e-9 {
			t.Errorf("partial %d low detune = %v", i, low[i].FromHz)
		}
		if math.Abs(high[i].FromHz-hz*1.1) > 1e-9 {
			t.Errorf("partial %d high detune = %v", i, high[i].FromHz)
		}
		if low[i].FromGain != 0.05/float64(i+1) {
			t.Errorf("partial %d gain = %v", i, low[i].FromGain)
		}
	}
}
