package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/ayusman/yuletide/internal/detector"
)

// DefaultStaleAfter is how long a PushSource waits for a pushed frame before
// reporting that the hand is gone.
const DefaultStaleAfter = 500 * time.Millisecond

// PushSource receives landmarks from an external tracker (the browser over
// websocket). It holds only the latest frame; a slow reader skips frames.
type PushSource struct {
	staleAfter time.Duration

	mu      sync.Mutex
	pending *Frame
	notify  chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewPushSource creates a PushSource. staleAfter ≤ 0 uses DefaultStaleAfter.
func NewPushSource(staleAfter time.Duration) *PushSource {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &PushSource{
		staleAfter: staleAfter,
		notify:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Push offers a frame, replacing any frame not yet read. hand may be nil.
func (p *PushSource) Push(hand *detector.HandLandmarks) {
	f := Frame{Hand: hand, Timestamp: time.Now()}

	p.mu.Lock()
	p.pending = &f
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// PushPoints validates a raw point list and pushes it. A malformed list is
// pushed as a no-hand frame and its error returned.
func (p *PushSource) PushPoints(points []detector.Point3D, handedness string, score float64) error {
	if len(points) == 0 {
		p.Push(nil)
		return nil
	}
	hand, err := detector.FromPoints(points, handedness, score)
	if err != nil {
		p.Push(nil)
		return err
	}
	p.Push(hand)
	return nil
}

// Next returns the latest pushed frame, or a no-hand frame when nothing has
// arrived for staleAfter.
func (p *PushSource) Next(ctx context.Context) (Frame, error) {
	timer := time.NewTimer(p.staleAfter)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		case <-p.done:
			return Frame{}, ErrClosed
		case <-timer.C:
			return Frame{Timestamp: time.Now()}, nil
		case <-p.notify:
			p.mu.Lock()
			f := p.pending
			p.pending = nil
			p.mu.Unlock()
			if f != nil {
				return *f, nil
			}
		}
	}
}

// Pending reports whether a pushed frame is waiting to be read.
func (p *PushSource) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != nil
}

// Close unblocks pending and future Next calls.
func (p *PushSource) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}
