package plugin

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/yuletide/internal/scene"
)

// maxInFlight bounds concurrently running plugin processes.
const maxInFlight = 4

// Dispatcher runs subscribed plugins for each scene event. It implements
// scene.EventSink and never blocks the caller; events arriving while
// maxInFlight plugins are already running are dropped with a warning.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	session  func() string
	log      *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
	slots  chan struct{}
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher. session reports the active session id
// at the time an event is handled.
func NewDispatcher(manager *Manager, executor *Executor, session func() string, log *zap.SugaredLogger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		manager:  manager,
		executor: executor,
		session:  session,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		slots:    make(chan struct{}, maxInFlight),
	}
}

// HandleEvent starts every subscribed plugin for ev.
func (d *Dispatcher) HandleEvent(ev scene.Event) {
	subs := d.manager.Subscribers(string(ev.Kind))
	if len(subs) == 0 {
		return
	}
	sessionID := ""
	if d.session != nil {
		sessionID = d.session()
	}

	for _, p := range subs {
		select {
		case d.slots <- struct{}{}:
		default:
			d.log.Warnf("Plugin %s skipped for %s: too many plugins running", p.Manifest.Name, ev.Kind)
			continue
		}

		req := &Request{
			Event:      string(ev.Kind),
			SessionID:  sessionID,
			Tick:       ev.Tick,
			ThemeIndex: ev.ThemeIndex,
			At:         ev.At,
		}
		d.wg.Add(1)
		go func(p *Plugin) {
			defer d.wg.Done()
			defer func() { <-d.slots }()
			d.run(p, req)
		}(p)
	}
}

func (d *Dispatcher) run(p *Plugin, req *Request) {
	resp, err := d.executor.Execute(d.ctx, p, req)
	if err != nil {
		d.log.Warnf("Plugin %s failed on %s: %v", p.Manifest.Name, req.Event, err)
		return
	}
	if !resp.Success {
		d.log.Warnf("Plugin %s reported error on %s: %s", p.Manifest.Name, req.Event, resp.Error)
		return
	}
	d.log.Debugf("Plugin %s handled %s", p.Manifest.Name, req.Event)
}

// Close cancels running plugins and waits for them to exit.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}

// Wait blocks until all started plugins have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
