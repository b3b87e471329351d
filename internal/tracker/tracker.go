// Package tracker produces landmark frames for the gesture classifier, either
// from the local camera and hand detector or from landmarks pushed by a
// browser-side tracker.
package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/ayusman/yuletide/internal/detector"
)

// ErrClosed is returned by Next once a source has been closed.
var ErrClosed = errors.New("tracker: source closed")

// Frame is one tracker result. A nil Hand is a valid frame meaning no hand
// is visible.
type Frame struct {
	Hand      *detector.HandLandmarks
	Timestamp time.Time
}

// Source yields landmark frames at tracker cadence.
type Source interface {
	// Next blocks until the next frame is available. Errors other than
	// ErrClosed and context cancellation are per-frame and the caller should
	// keep reading.
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// bestHand picks the most confident hand at or above minScore.
func bestHand(hands []detector.HandLandmarks, minScore float64) *detector.HandLandmarks {
	var best *detector.HandLandmarks
	for i := range hands {
		h := &hands[i]
		if h.Score < minScore {
			continue
		}
		if best == nil || h.Score > best.Score {
			best = h
		}
	}
	return best
}
