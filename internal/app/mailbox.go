package app

import (
	"sync"

	"github.com/ayusman/yuletide/internal/gesture"
)

// signalSlot hands classifier output from the tracker goroutine to the tick
// goroutine. It holds one signal: rotation and status are last-write-wins,
// trigger flags accumulate until the next Take.
//
// Each session gets a new generation. Signals classified under an older
// generation are dropped so a trigger from the previous session never
// reaches the new scene.
type signalSlot struct {
	mu  sync.Mutex
	sig gesture.Signal
	gen uint64
}

func newSignalSlot() *signalSlot {
	return &signalSlot{sig: gesture.Neutral()}
}

// Generation returns the current session generation.
func (s *signalSlot) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Advance starts a new generation and resets the slot to neutral.
func (s *signalSlot) Advance() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.sig = gesture.Neutral()
	return s.gen
}

// Put merges sig, classified under generation gen, into the slot. It
// reports false when gen is stale and sig was dropped.
func (s *signalSlot) Put(sig gesture.Signal, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return false
	}
	s.sig.RotateDirection = sig.RotateDirection
	s.sig.Status = sig.Status
	s.sig.Jump = s.sig.Jump || sig.Jump
	s.sig.LightsToggle = s.sig.LightsToggle || sig.LightsToggle
	s.sig.GiftOpen = s.sig.GiftOpen || sig.GiftOpen
	return true
}

// Take returns the merged signal and clears its triggers. Continuous fields
// stay until the tracker overwrites them.
func (s *signalSlot) Take() gesture.Signal {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig := s.sig
	s.sig.Jump = false
	s.sig.LightsToggle = false
	s.sig.GiftOpen = false
	return sig
}
