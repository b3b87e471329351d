// Package app runs the gesture-to-scene loop. A tracker goroutine classifies
// landmark frames into a single-slot mailbox and a tick goroutine, the only
// writer of scene state, advances the scene and fans out its events.
package app

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/yuletide/internal/gesture"
	"github.com/ayusman/yuletide/internal/greeting"
	"github.com/ayusman/yuletide/internal/scene"
	"github.com/ayusman/yuletide/internal/store"
	"github.com/ayusman/yuletide/internal/tracker"
)

// DefaultTickRate is the scene update rate in Hz.
const DefaultTickRate = 60

// disabledPoll is how often a disabled tracker loop rechecks the switch.
const disabledPoll = 100 * time.Millisecond

// Config holds configuration options for the application.
type Config struct {
	Store  *store.Store
	Source tracker.Source
	// TickRate is the render tick frequency in Hz.
	TickRate int
	// Scene carries themes, light count and randomness. Textures and the
	// greeting come from the active session.
	Scene scene.Config
	// Sinks receive every scene event after it is recorded.
	Sinks []scene.EventSink
	Log   *zap.SugaredLogger
}

type sessionSwap struct {
	session  *store.Session
	textures []scene.Texture
}

// App is the main application that turns gestures into scene changes.
type App struct {
	config     Config
	log        *zap.SugaredLogger
	classifier *gesture.Classifier
	slot       *signalSlot
	recorder   *eventRecorder
	swaps      chan sessionSwap

	mu       sync.RWMutex
	enabled  bool
	session  *store.Session
	textures []scene.Texture
	snapshot scene.Snapshot
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a new App instance with the given configuration. Detection
// starts enabled unless a stored setting says otherwise.
func New(config Config) *App {
	if config.TickRate <= 0 {
		config.TickRate = DefaultTickRate
	}
	if config.Log == nil {
		config.Log = zap.NewNop().Sugar()
	}

	a := &App{
		config:     config,
		log:        config.Log,
		classifier: gesture.NewClassifier(),
		slot:       newSignalSlot(),
		swaps:      make(chan sessionSwap, 1),
		enabled:    true,
	}

	if config.Store != nil {
		a.recorder = newEventRecorder(config.Store.Events(), a.SessionID, a.log)
		if v, err := config.Store.Settings().Get(store.SettingDetectionEnabled); err == nil {
			if enabled, err := strconv.ParseBool(v); err == nil {
				a.enabled = enabled
			}
		}
	}
	return a
}

// Start restores the last session (or creates a default one) and starts the
// tracker and tick goroutines. Starting a running App is a no-op.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}
	if a.config.Source == nil {
		return errors.New("app: no landmark source configured")
	}

	if a.session == nil {
		sess, textures, err := a.restoreSession()
		if err != nil {
			return err
		}
		a.session, a.textures = sess, textures
	}

	machine := scene.NewMachine(a.sceneConfig(a.session, a.textures))
	a.snapshot = machine.Snapshot()

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.wg.Add(2)
	go a.runTracker(ctx)
	go a.runTicks(ctx, machine)

	a.log.Infof("Scene started for %q at %d Hz", a.session.Name, a.config.TickRate)
	return nil
}

// Stop halts both loops. The scene resumes from a fresh machine on the next
// Start.
func (a *App) Stop() {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	a.wg.Wait()
	a.log.Info("Scene stopped")
}

// Close stops the App, flushes the event log and closes the source.
func (a *App) Close() error {
	a.Stop()
	if a.recorder != nil {
		a.recorder.Close()
		a.recorder = nil
	}
	if a.config.Source != nil {
		return a.config.Source.Close()
	}
	return nil
}

// Running reports whether the loops are active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cancel != nil
}

// SetEnabled turns gesture detection on or off. While off, the scene keeps
// animating but sees only neutral signals.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()

	if a.config.Store != nil {
		if err := a.config.Store.Settings().Set(store.SettingDetectionEnabled, strconv.FormatBool(enabled)); err != nil {
			a.log.Warnf("Failed to persist detection setting: %v", err)
		}
	}
	a.log.Infof("Detection enabled: %v", enabled)
}

// IsEnabled returns whether gesture detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Snapshot returns the scene as of the last tick.
func (a *App) Snapshot() scene.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot
}

// Status returns the classifier's latest status label.
func (a *App) Status() string {
	return a.Snapshot().Status
}

// Session returns the active session, or nil before Start.
func (a *App) Session() *store.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// SessionID returns the active session's ID, or "" if there is none.
func (a *App) SessionID() string {
	if sess := a.Session(); sess != nil {
		return sess.ID
	}
	return ""
}

// UseSession restarts the scene with sess and its stored photos. The swap
// happens on the tick goroutine so events are never attributed to the
// wrong session.
func (a *App) UseSession(ctx context.Context, sess *store.Session) error {
	textures, err := a.sessionTextures(sess.ID)
	if err != nil {
		return err
	}
	if a.config.Store != nil {
		if err := a.config.Store.Settings().Set(store.SettingLastSession, sess.ID); err != nil {
			a.log.Warnf("Failed to remember session: %v", err)
		}
	}

	swap := sessionSwap{session: sess, textures: textures}

	a.mu.Lock()
	if a.cancel == nil {
		a.session, a.textures = sess, textures
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	select {
	case a.swaps <- swap:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runTracker is the landmark loop: read a frame, classify it, publish the
// signal. Tracker errors yield a neutral frame; only cancellation or a
// closed source ends the loop. The classifier belongs to this goroutine; a
// new slot generation resets its latch.
func (a *App) runTracker(ctx context.Context) {
	defer a.wg.Done()

	seen := a.slot.Generation()
	for {
		gen := a.slot.Generation()
		if gen != seen {
			a.classifier.Reset()
			seen = gen
		}

		if !a.IsEnabled() {
			a.classifier.Reset()
			a.slot.Put(gesture.Neutral(), gen)
			select {
			case <-ctx.Done():
				return
			case <-time.After(disabledPoll):
			}
			continue
		}

		frame, err := a.config.Source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, tracker.ErrClosed) {
				return
			}
			a.log.Warnf("Tracker error: %v", err)
			frame.Hand = nil
		}
		// Dropped by the slot if a session swap happened during Next.
		a.slot.Put(a.classifier.Process(frame.Hand), gen)
	}
}

// runTicks owns the machine. Each tick it steps the scene by the measured
// wall-clock delta and publishes a snapshot.
func (a *App) runTicks(ctx context.Context, m *scene.Machine) {
	defer a.wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.TickRate))
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return

		case swap := <-a.swaps:
			m = scene.NewMachine(a.sceneConfig(swap.session, swap.textures))
			a.slot.Advance()
			a.mu.Lock()
			a.session, a.textures = swap.session, swap.textures
			a.snapshot = m.Snapshot()
			a.mu.Unlock()
			last = time.Now()
			a.log.Infof("Scene restarted for %q with %d photos", swap.session.Name, len(swap.textures))

		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now

			events := m.Step(a.slot.Take(), dt)
			for _, ev := range events {
				a.dispatch(ev)
			}

			snap := m.Snapshot()
			a.mu.Lock()
			a.snapshot = snap
			a.mu.Unlock()
		}
	}
}

func (a *App) dispatch(ev scene.Event) {
	a.log.Infof("Scene event %s at tick %d (theme %d)", ev.Kind, ev.Tick, ev.ThemeIndex)
	if a.recorder != nil {
		a.recorder.HandleEvent(ev)
	}
	for _, sink := range a.config.Sinks {
		sink.HandleEvent(ev)
	}
}

func (a *App) sceneConfig(sess *store.Session, textures []scene.Texture) scene.Config {
	cfg := a.config.Scene
	cfg.Textures = textures
	cfg.Greeting = sess.Greeting
	return cfg
}

// restoreSession loads the last used session, or creates a default one with
// placeholder photos and the fallback greeting.
func (a *App) restoreSession() (*store.Session, []scene.Texture, error) {
	def := &store.Session{Name: greeting.DefaultName, Greeting: greeting.Fallback}
	if a.config.Store == nil {
		return def, nil, nil
	}

	if id, err := a.config.Store.Settings().Get(store.SettingLastSession); err == nil {
		sess, err := a.config.Store.Sessions().GetByID(id)
		if err == nil {
			textures, err := a.sessionTextures(sess.ID)
			if err != nil {
				return nil, nil, err
			}
			return sess, textures, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, nil, err
		}
	}

	if err := a.config.Store.Sessions().Create(def); err != nil {
		return nil, nil, err
	}
	if err := a.config.Store.Settings().Set(store.SettingLastSession, def.ID); err != nil {
		a.log.Warnf("Failed to remember session: %v", err)
	}
	return def, nil, nil
}

// sessionTextures returns the texture handles of a session's photos.
func (a *App) sessionTextures(sessionID string) ([]scene.Texture, error) {
	if a.config.Store == nil {
		return nil, nil
	}
	images, err := a.config.Store.Images().ListBySession(sessionID)
	if err != nil {
		return nil, err
	}
	textures := make([]scene.Texture, len(images))
	for i, img := range images {
		textures[i] = scene.Texture(img.ID)
	}
	return textures, nil
}
