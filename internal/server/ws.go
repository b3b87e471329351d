package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/yuletide/internal/detector"
	"github.com/ayusman/yuletide/internal/tracker"
)

// DefaultSceneRate paces scene broadcasts (~30 FPS).
const DefaultSceneRate = 33 * time.Millisecond

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// SceneHub broadcasts scene snapshots to websocket clients whenever the
// tick advances.
type SceneHub struct {
	source   SceneSource
	interval time.Duration
	log      *zap.SugaredLogger

	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
	done    chan struct{}
	once    sync.Once
}

// NewSceneHub creates a SceneHub and starts its broadcast loop.
func NewSceneHub(source SceneSource, interval time.Duration, log *zap.SugaredLogger) *SceneHub {
	if interval <= 0 {
		interval = DefaultSceneRate
	}
	h := &SceneHub{
		source:   source,
		interval: interval,
		log:      log,
		clients:  make(map[*websocket.Conn]bool),
		done:     make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *SceneHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected viewers.
func (h *SceneHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcast sends each new snapshot to all connected clients.
func (h *SceneHub) broadcast() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var lastTick uint64
	sent := false

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
		}

		if h.Clients() == 0 {
			continue
		}

		snap := h.source.Snapshot()
		if sent && snap.Tick == lastTick {
			continue
		}
		lastTick, sent = snap.Tick, true

		msg, err := json.Marshal(snap)
		if err != nil {
			h.log.Errorf("encode snapshot: %v", err)
			continue
		}

		h.mu.RLock()
		for conn := range h.clients {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				conn.Close()
			}
		}
		h.mu.RUnlock()
	}
}

// Close stops the broadcast loop.
func (h *SceneHub) Close() {
	h.once.Do(func() { close(h.done) })
}

// landmarkMessage is what a browser-side tracker sends: the hands it saw in
// one video frame, in the same shape the hand service emits.
type landmarkMessage struct {
	Hands []struct {
		Points     []detector.Point3D `json:"points"`
		Handedness string             `json:"handedness"`
		Score      float64            `json:"score"`
	} `json:"hands"`
}

// LandmarksHandler ingests landmark frames over WebSocket into a PushSource.
type LandmarksHandler struct {
	push *tracker.PushSource
	log  *zap.SugaredLogger
}

// NewLandmarksHandler creates a LandmarksHandler feeding push.
func NewLandmarksHandler(push *tracker.PushSource, log *zap.SugaredLogger) *LandmarksHandler {
	return &LandmarksHandler{push: push, log: log}
}

// ServeHTTP upgrades the connection and reads one frame per message. The
// most confident hand is used; malformed frames count as no hand.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()
	h.log.Info("Landmark tracker connected")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			h.log.Info("Landmark tracker disconnected")
			h.push.Push(nil)
			return
		}

		var msg landmarkMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.push.Push(nil)
			conn.WriteJSON(map[string]string{"error": "invalid landmark frame"})
			continue
		}

		best := -1
		for i, hand := range msg.Hands {
			if best < 0 || hand.Score > msg.Hands[best].Score {
				best = i
			}
		}
		if best < 0 {
			h.push.Push(nil)
			continue
		}

		hand := msg.Hands[best]
		if err := h.push.PushPoints(hand.Points, hand.Handedness, hand.Score); err != nil {
			h.log.Debugf("dropping landmark frame: %v", err)
		}
	}
}
