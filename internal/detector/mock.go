package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Finger poses used by the preset builders below. Y grows downward, so an
// extended finger has its tip well above (smaller Y than) its PIP joint.
type fingerPose int

const (
	poseExtended fingerPose = iota
	poseCurled
	poseRelaxed // tip level with PIP: neither extended nor curled
)

// fingerJoints lists MCP, PIP, DIP, tip for the four non-thumb fingers.
var fingerJoints = [4][4]int{
	{IndexMCP, IndexPIP, IndexDIP, IndexTip},
	{MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip},
	{RingMCP, RingPIP, RingDIP, RingTip},
	{PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip},
}

var fingerBaseX = [4]float64{0.56, 0.50, 0.45, 0.40}

// handPose assembles a right hand with the given thumb state and finger poses.
func handPose(thumbOut bool, index, middle, ring, pinky fingerPose) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}
	h.Points[Wrist] = Point3D{X: 0.50, Y: 0.85}

	h.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.80}
	h.Points[ThumbMCP] = Point3D{X: 0.60, Y: 0.75}
	if thumbOut {
		h.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65}
		h.Points[ThumbTip] = Point3D{X: 0.75, Y: 0.55}
	} else {
		h.Points[ThumbIP] = Point3D{X: 0.58, Y: 0.70}
		h.Points[ThumbTip] = Point3D{X: 0.54, Y: 0.68}
	}

	for f, pose := range []fingerPose{index, middle, ring, pinky} {
		x := fingerBaseX[f]
		j := fingerJoints[f]
		h.Points[j[0]] = Point3D{X: x, Y: 0.65}
		switch pose {
		case poseExtended:
			h.Points[j[1]] = Point3D{X: x, Y: 0.52}
			h.Points[j[2]] = Point3D{X: x, Y: 0.43}
			h.Points[j[3]] = Point3D{X: x, Y: 0.35}
		case poseCurled:
			h.Points[j[1]] = Point3D{X: x, Y: 0.60, Z: -0.05}
			h.Points[j[2]] = Point3D{X: x, Y: 0.66, Z: -0.04}
			h.Points[j[3]] = Point3D{X: x, Y: 0.70, Z: -0.02}
		case poseRelaxed:
			h.Points[j[1]] = Point3D{X: x, Y: 0.58}
			h.Points[j[2]] = Point3D{X: x, Y: 0.57}
			h.Points[j[3]] = Point3D{X: x, Y: 0.58}
		}
	}
	return h
}

// PointingLandmarks returns an index-finger point with the fingertip at
// horizontal image position x.
func PointingLandmarks(x float64) HandLandmarks {
	h := handPose(false, poseExtended, poseCurled, poseCurled, poseCurled)
	h.Points[IndexTip].X = x
	return h
}

// ScissorsLandmarks returns the "V" pose: index and middle extended.
func ScissorsLandmarks() HandLandmarks {
	return handPose(false, poseExtended, poseExtended, poseCurled, poseCurled)
}

// LoveSignLandmarks returns the sign-language "I love you" pose: thumb, index
// and pinky extended with middle and ring curled.
func LoveSignLandmarks() HandLandmarks {
	return handPose(true, poseExtended, poseCurled, poseCurled, poseExtended)
}

// FistLandmarks returns a closed fist with the thumb tucked in.
func FistLandmarks() HandLandmarks {
	return handPose(false, poseCurled, poseCurled, poseCurled, poseCurled)
}

// ThumbOutFistLandmarks returns a fist with the thumb sticking out, which
// does not count as a full fist.
func ThumbOutFistLandmarks() HandLandmarks {
	return handPose(true, poseCurled, poseCurled, poseCurled, poseCurled)
}

// OpenPalmLandmarks returns an open palm with all fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	return handPose(true, poseExtended, poseExtended, poseExtended, poseExtended)
}

// RelaxedLandmarks returns a half-closed hand that matches no pose.
func RelaxedLandmarks() HandLandmarks {
	return handPose(false, poseRelaxed, poseRelaxed, poseRelaxed, poseRelaxed)
}
