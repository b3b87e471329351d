// Package detector provides hand landmark types and the detectors that produce them.
package detector

import (
	"errors"
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrMalformedFrame is returned when a tracker hands over a landmark set
// that cannot describe a hand (wrong point count, NaN or infinite values).
var ErrMalformedFrame = errors.New("malformed landmark frame")

// Point3D is a landmark position. X and Y are normalized image coordinates
// in [0,1] with Y growing downward; Z is depth relative to the wrist.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks of a single tracked hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// FromPoints builds a HandLandmarks from a tracker's point list.
// Anything other than exactly NumLandmarks finite points is rejected.
func FromPoints(points []Point3D, handedness string, score float64) (*HandLandmarks, error) {
	if len(points) != NumLandmarks {
		return nil, fmt.Errorf("%w: got %d points, want %d", ErrMalformedFrame, len(points), NumLandmarks)
	}

	h := &HandLandmarks{Handedness: handedness, Score: score}
	copy(h.Points[:], points)

	if !h.Valid() {
		return nil, fmt.Errorf("%w: non-finite coordinate", ErrMalformedFrame)
	}
	return h, nil
}

// Valid reports whether every coordinate is a finite number.
func (h *HandLandmarks) Valid() bool {
	if h == nil {
		return false
	}
	for _, p := range h.Points {
		if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
			return false
		}
	}
	return true
}

// PlanarDistance returns the distance between two landmarks in the image plane,
// ignoring depth.
func (h *HandLandmarks) PlanarDistance(a, b int) float64 {
	pa, pb := h.Points[a], h.Points[b]
	return math.Hypot(pa.X-pb.X, pa.Y-pb.Y)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
