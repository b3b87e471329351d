package capture

import (
	"context"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Preview holds the most recent camera frame as JPEG so viewers (the MJPEG
// stream) never compete with the tracker for device reads.
type Preview struct {
	mu      sync.Mutex
	jpeg    []byte
	seq     uint64
	at      time.Time
	updated chan struct{}
}

// NewPreview creates an empty Preview.
func NewPreview() *Preview {
	return &Preview{updated: make(chan struct{})}
}

// Publish encodes frame and replaces the current preview.
func (p *Preview) Publish(frame *gocv.Mat) error {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return err
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	p.PublishJPEG(data)
	return nil
}

// PublishJPEG replaces the current preview with already-encoded bytes.
func (p *Preview) PublishJPEG(data []byte) {
	p.mu.Lock()
	p.jpeg = data
	p.seq++
	p.at = time.Now()
	close(p.updated)
	p.updated = make(chan struct{})
	p.mu.Unlock()
}

// Latest returns the current JPEG and its sequence number. seq is 0 until
// the first publish.
func (p *Preview) Latest() (data []byte, seq uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jpeg, p.seq
}

// Next blocks until a frame newer than seq is available.
func (p *Preview) Next(ctx context.Context, seq uint64) ([]byte, uint64, error) {
	for {
		p.mu.Lock()
		if p.seq > seq {
			data, cur := p.jpeg, p.seq
			p.mu.Unlock()
			return data, cur, nil
		}
		wait := p.updated
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, seq, ctx.Err()
		case <-wait:
		}
	}
}
