package scene

import "math"

const (
	// JumpPhaseStep is the phase advance per nominal tick.
	JumpPhaseStep = 0.1
	// JumpPeak is the height reached at phase π/2.
	JumpPeak = 10.0
)

// JumpState is the character's jump timeline. Phase stays within [0, π]
// while Active and is reset to 0 on landing.
type JumpState struct {
	Active bool    `json:"active"`
	Phase  float64 `json:"phase"`
}

// start begins a jump. It returns false when a jump is already in flight.
func (j *JumpState) start() bool {
	if j.Active {
		return false
	}
	j.Active = true
	j.Phase = 0
	return true
}

func (j *JumpState) advance(k float64) {
	if !j.Active {
		return
	}
	j.Phase += JumpPhaseStep * k
	if j.Phase >= math.Pi {
		j.Active = false
		j.Phase = 0
	}
}

// Height returns the vertical offset of the character.
func (j JumpState) Height() float64 {
	if !j.Active {
		return 0
	}
	return math.Sin(j.Phase) * JumpPeak
}
