package app

import (
	"go.uber.org/zap"

	"github.com/ayusman/yuletide/internal/scene"
	"github.com/ayusman/yuletide/internal/store"
)

const recorderBuffer = 64

type recorded struct {
	sessionID string
	event     scene.Event
}

// eventRecorder persists scene events off the tick goroutine.
type eventRecorder struct {
	events  *store.EventRepository
	session func() string
	log     *zap.SugaredLogger
	queue   chan recorded
	done    chan struct{}
}

func newEventRecorder(events *store.EventRepository, session func() string, log *zap.SugaredLogger) *eventRecorder {
	r := &eventRecorder{
		events:  events,
		session: session,
		log:     log,
		queue:   make(chan recorded, recorderBuffer),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// HandleEvent queues ev under the current session. A full queue drops it.
func (r *eventRecorder) HandleEvent(ev scene.Event) {
	select {
	case r.queue <- recorded{sessionID: r.session(), event: ev}:
	default:
		r.log.Warnf("event log full, dropping %s at tick %d", ev.Kind, ev.Tick)
	}
}

func (r *eventRecorder) run() {
	defer close(r.done)
	for rec := range r.queue {
		if rec.sessionID == "" {
			continue
		}
		err := r.events.Record(&store.Event{
			SessionID:  rec.sessionID,
			Kind:       string(rec.event.Kind),
			Tick:       rec.event.Tick,
			ThemeIndex: rec.event.ThemeIndex,
			CreatedAt:  rec.event.At,
		})
		if err != nil {
			r.log.Errorf("Failed to record %s event: %v", rec.event.Kind, err)
		}
	}
}

// Close flushes queued events and stops the writer.
func (r *eventRecorder) Close() {
	close(r.queue)
	<-r.done
}
