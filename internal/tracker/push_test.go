package tracker

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/yuletide/internal/detector"
)

func TestPushSource_LatestWins(t *testing.T) {
	p := NewPushSource(time.Second)
	defer p.Close()

	first := detector.PointingLandmarks(0.2)
	second := detector.ScissorsLandmarks()
	p.Push(&first)
	p.Push(&second)
	assert.True(t, p.Pending())

	f, err := p.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, p.Pending())
	require.NotNil(t, f.Hand)
	assert.Equal(t, second.Points, f.Hand.Points)
	assert.False(t, f.Timestamp.IsZero())
}

func TestPushSource_StaleFrame(t *testing.T) {
	p := NewPushSource(20 * time.Millisecond)
	defer p.Close()

	start := time.Now()
	f, err := p.Next(context.Background())
	require.NoError(t, err)
	assert.Nil(t, f.Hand)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestPushSource_PushPoints(t *testing.T) {
	p := NewPushSource(time.Second)
	defer p.Close()

	fist := detector.FistLandmarks()
	require.NoError(t, p.PushPoints(fist.Points[:], "Right", 0.9))
	f, err := p.Next(context.Background())
	require.NoError(t, err)
	require.NotNil(t, f.Hand)
	assert.Equal(t, "Right", f.Hand.Handedness)

	t.Run("short list fails closed", func(t *testing.T) {
		err := p.PushPoints(fist.Points[:5], "Right", 0.9)
		assert.True(t, errors.Is(err, detector.ErrMalformedFrame))
		f, err := p.Next(context.Background())
		require.NoError(t, err)
		assert.Nil(t, f.Hand)
	})

	t.Run("nan fails closed", func(t *testing.T) {
		bad := fist.Points
		bad[3].X = math.NaN()
		assert.Error(t, p.PushPoints(bad[:], "Left", 1))
		f, _ := p.Next(context.Background())
		assert.Nil(t, f.Hand)
	})

	t.Run("empty list is no hand", func(t *testing.T) {
		assert.NoError(t, p.PushPoints(nil, "", 0))
		f, _ := p.Next(context.Background())
		assert.Nil(t, f.Hand)
	})
}

func TestPushSource_CloseAndCancel(t *testing.T) {
	p := NewPushSource(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	errCh := make(chan error, 1)
	go func() {
		_, err := p.Next(context.Background())
		errCh <- err
	}()
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not return after Close")
	}
}

func TestBestHand(t *testing.T) {
	low := detector.FistLandmarks()
	low.Score = 0.4
	high := detector.OpenPalmLandmarks()
	high.Score = 0.95
	mid := detector.ScissorsLandmarks()
	mid.Score = 0.8

	got := bestHand([]detector.HandLandmarks{low, high, mid}, 0.5)
	require.NotNil(t, got)
	assert.Equal(t, 0.95, got.Score)

	assert.Nil(t, bestHand([]detector.HandLandmarks{low}, 0.5))
	assert.Nil(t, bestHand(nil, 0))
}
