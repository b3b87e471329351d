package audio

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"go.uber.org/zap"

	"github.com/ayusman/yuletide/internal/scene"
)

// SampleRate of the output device.
const SampleRate = beep.SampleRate(48000)

// Config holds player settings.
type Config struct {
	// Volume is a base-2 gain offset; 0 plays cues unchanged.
	Volume float64
}

// Player plays event cues on the default output device. It implements
// scene.EventSink; HandleEvent returns immediately.
type Player struct {
	config Config
	log    *zap.SugaredLogger
	mu     sync.Mutex
	rng    *rand.Rand
}

// NewPlayer opens the speaker.
func NewPlayer(config Config, log *zap.SugaredLogger) (*Player, error) {
	if err := speaker.Init(SampleRate, SampleRate.N(time.Second/20)); err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}
	return &Player{
		config: config,
		log:    log,
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}, nil
}

// HandleEvent queues the cue for ev.
func (p *Player) HandleEvent(ev scene.Event) {
	p.mu.Lock()
	cue := Cue(ev.Kind, SampleRate, p.rng)
	p.mu.Unlock()
	if cue == nil {
		return
	}
	speaker.Play(&effects.Volume{
		Streamer: cue,
		Base:     2,
		Volume:   p.config.Volume,
	})
	p.log.Debugf("Playing %s cue", ev.Kind)
}

// Close releases the output device.
func (p *Player) Close() {
	speaker.Clear()
	speaker.Close()
}
