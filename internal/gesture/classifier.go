package gesture

import (
	"sync"

	"github.com/ayusman/yuletide/internal/detector"
)

// Classification thresholds, in normalized image units.
const (
	// CurlMargin is the vertical hysteresis between a fingertip and its PIP joint.
	CurlMargin = 0.03
	// ThumbReach is the planar thumb-tip to index-MCP distance above which the
	// thumb counts as extended.
	ThumbReach = 0.15
	// RotateLeftBelow and RotateRightAbove split the image into rotation zones
	// by the index fingertip's x coordinate. Boundary values do not rotate.
	RotateLeftBelow  = 0.4
	RotateRightAbove = 0.6
)

// fingers captures the extension state of one hand.
type fingers struct {
	indexExt     bool
	middleExt    bool
	pinkyExt     bool
	middleCurled bool
	ringCurled   bool
	pinkyCurled  bool
	thumb        bool
	indexX       float64
}

func readFingers(h *detector.HandLandmarks) fingers {
	p := h.Points
	extended := func(tip, pip int) bool { return p[tip].Y < p[pip].Y-CurlMargin }
	curled := func(tip, pip int) bool { return p[tip].Y > p[pip].Y+CurlMargin }

	return fingers{
		indexExt:     extended(detector.IndexTip, detector.IndexPIP),
		middleExt:    extended(detector.MiddleTip, detector.MiddlePIP),
		pinkyExt:     extended(detector.PinkyTip, detector.PinkyPIP),
		middleCurled: curled(detector.MiddleTip, detector.MiddlePIP),
		ringCurled:   curled(detector.RingTip, detector.RingPIP),
		pinkyCurled:  curled(detector.PinkyTip, detector.PinkyPIP),
		thumb:        h.PlanarDistance(detector.ThumbTip, detector.IndexMCP) > ThumbReach,
		indexX:       p[detector.IndexTip].X,
	}
}

// Classify maps one landmark frame to a Signal and the latch to carry into
// the next frame. A nil or invalid hand yields the neutral signal and leaves
// the latch untouched.
//
// All four pose checks run on every frame, in order, and each match
// overwrites the status label of the previous ones.
func Classify(hand *detector.HandLandmarks, latch Latch) (Signal, Latch) {
	if !hand.Valid() {
		return Neutral(), latch
	}

	f := readFingers(hand)
	sig := Signal{Status: StatusHandDetected}

	// Point to rotate.
	if f.indexExt && f.middleCurled && f.ringCurled && f.pinkyCurled {
		switch {
		case f.indexX < RotateLeftBelow:
			sig.RotateDirection = 1
			sig.Status = StatusRotateLeft
		case f.indexX > RotateRightAbove:
			sig.RotateDirection = -1
			sig.Status = StatusRotateRight
		default:
			sig.Status = StatusPointing
		}
	}

	// Scissors to jump.
	if f.indexExt && f.middleExt && f.ringCurled && f.pinkyCurled {
		sig.Jump = true
		sig.Status = StatusJumping
	}

	// Love sign to open the gift.
	if f.thumb && f.indexExt && f.middleCurled && f.ringCurled && f.pinkyExt {
		sig.GiftOpen = true
		sig.Status = StatusOpeningGift
	}

	// Fist then open hand to switch lights.
	open := 0
	for _, b := range []bool{f.indexExt, f.middleExt, !f.ringCurled, f.pinkyExt} {
		if b {
			open++
		}
	}
	switch {
	case open >= 4:
		if latch.Armed() {
			sig.LightsToggle = true
			sig.Status = StatusLightsSwitch
			latch = LatchIdle
		}
	case open == 0 && !f.thumb:
		latch = LatchArmed
		sig.Status = StatusCharging
	}

	return sig, latch
}

// Classifier carries the latch between frames for a single landmark stream.
type Classifier struct {
	mu    sync.Mutex
	latch Latch
}

// NewClassifier returns a classifier with an idle latch.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Process classifies a frame and advances the latch.
func (c *Classifier) Process(hand *detector.HandLandmarks) Signal {
	c.mu.Lock()
	defer c.mu.Unlock()

	sig, next := Classify(hand, c.latch)
	c.latch = next
	return sig
}

// Latch returns the current latch state.
func (c *Classifier) Latch() Latch {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latch
}

// Reset returns the latch to idle.
func (c *Classifier) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latch = LatchIdle
}
