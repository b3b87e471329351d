package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/yuletide/internal/capture"
	"github.com/ayusman/yuletide/internal/detector"
)

// Camera pacing defaults.
const (
	DefaultIdleFPS     = 5
	DefaultActiveFPS   = 15
	DefaultIdleTimeout = 2 * time.Second
)

// CameraConfig wires a CameraSource.
type CameraConfig struct {
	Camera   capture.Camera
	Detector detector.Detector
	Motion   *capture.MotionDetector
	// Preview, when set, receives every captured frame for the MJPEG stream.
	Preview *capture.Preview

	IdleFPS     int
	ActiveFPS   int
	IdleTimeout time.Duration
	// MinConfidence drops hands the detector is less sure about.
	MinConfidence float64

	Log *zap.SugaredLogger
}

// CameraSource reads frames from a camera, gates hand detection on motion
// and drops to IdleFPS after IdleTimeout without motion or a tracked hand.
type CameraSource struct {
	config CameraConfig
	log    *zap.SugaredLogger

	mu     sync.Mutex
	active bool
	next   time.Time
	closed bool
}

// NewCameraSource opens the camera in idle mode.
func NewCameraSource(config CameraConfig) (*CameraSource, error) {
	if config.Camera == nil || config.Detector == nil {
		return nil, errors.New("tracker: camera and detector are required")
	}
	if config.Motion == nil {
		config.Motion = capture.NewMotionDetector(1.0)
	}
	if config.IdleFPS <= 0 {
		config.IdleFPS = DefaultIdleFPS
	}
	if config.ActiveFPS <= 0 {
		config.ActiveFPS = DefaultActiveFPS
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultIdleTimeout
	}
	log := config.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	if err := config.Camera.Open(); err != nil {
		return nil, fmt.Errorf("open camera: %w", err)
	}
	config.Camera.SetFPS(config.IdleFPS)

	return &CameraSource{config: config, log: log}, nil
}

// Active reports whether the source is in active (detecting) mode.
func (s *CameraSource) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Next waits for the current frame interval, reads a frame and, in active
// mode, runs hand detection on it.
func (s *CameraSource) Next(ctx context.Context) (Frame, error) {
	if err := s.pace(ctx); err != nil {
		return Frame{}, err
	}

	frame, err := s.config.Camera.ReadFrame()
	if err != nil {
		return Frame{Timestamp: time.Now()}, fmt.Errorf("read frame: %w", err)
	}
	defer frame.Close()
	now := time.Now()

	if s.config.Preview != nil {
		if err := s.config.Preview.Publish(frame); err != nil {
			s.log.Debugf("preview encode failed: %v", err)
		}
	}

	s.config.Motion.Detect(frame)
	if !s.updateMode() {
		return Frame{Timestamp: now}, nil
	}

	hands, err := s.config.Detector.Detect(frame)
	if err != nil {
		return Frame{Timestamp: now}, fmt.Errorf("detect hands: %w", err)
	}

	hand := bestHand(hands, s.config.MinConfidence)
	if hand != nil {
		// A held pose produces little motion; keep detecting while a hand is up.
		s.config.Motion.MarkActive()
	}
	return Frame{Hand: hand, Timestamp: now}, nil
}

// pace sleeps until the next frame slot for the current mode.
func (s *CameraSource) pace(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	wait := time.Until(s.next)
	s.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	fps := s.config.IdleFPS
	if s.active {
		fps = s.config.ActiveFPS
	}
	s.next = time.Now().Add(time.Second / time.Duration(fps))
	return nil
}

// updateMode switches between idle and active frame rates and reports
// whether detection should run on this frame.
func (s *CameraSource) updateMode() bool {
	active := s.config.Motion.Active(s.config.IdleTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	if active == s.active {
		return active
	}
	s.active = active
	if active {
		s.config.Camera.SetFPS(s.config.ActiveFPS)
		s.log.Info("Switched to active mode")
	} else {
		s.config.Camera.SetFPS(s.config.IdleFPS)
		s.log.Info("Switched to idle mode")
	}
	return active
}

// Close releases the camera, motion detector and hand detector.
func (s *CameraSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.config.Motion.Close()
	return errors.Join(s.config.Camera.Close(), s.config.Detector.Close())
}
