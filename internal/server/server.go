// Package server provides the HTTP surface of the scene daemon: the REST
// API, the scene and landmark websockets and the camera preview stream.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/yuletide/internal/capture"
	"github.com/ayusman/yuletide/internal/greeting"
	"github.com/ayusman/yuletide/internal/scene"
	"github.com/ayusman/yuletide/internal/server/api"
	"github.com/ayusman/yuletide/internal/store"
	"github.com/ayusman/yuletide/internal/tracker"
)

// SceneSource provides the latest scene snapshot.
type SceneSource interface {
	Snapshot() scene.Snapshot
}

// Config holds the server configuration. Every dependency is optional; the
// matching routes are only registered when it is set.
type Config struct {
	StaticDir string
	Store     *store.Store
	Scene     SceneSource
	Sessions  api.SessionStarter
	Greeter   greeting.Generator
	// Preview feeds /api/stream when the camera tracker is active.
	Preview *capture.Preview
	// Push receives landmarks posted to /api/landmarks.
	Push *tracker.PushSource
	// SceneRate is how often /api/scene/ws pushes snapshots.
	SceneRate time.Duration
	Log       *zap.SugaredLogger
}

// Server represents the HTTP server for the scene daemon.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	hub    *SceneHub

	mu   sync.Mutex
	http *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Log == nil {
		config.Log = zap.NewNop().Sugar()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Scene != nil {
		s.mux.HandleFunc("/api/scene", s.handleScene)
		s.hub = NewSceneHub(s.config.Scene, s.config.SceneRate, s.config.Log)
		s.mux.Handle("/api/scene/ws", s.hub)
	}

	if s.config.Store != nil {
		sessions := api.NewSessionHandler(s.config.Store, s.config.Greeter, s.config.Sessions, s.config.Log)
		s.mux.Handle("/api/sessions", sessions)
		s.mux.Handle("/api/sessions/", sessions)
	}

	// Placeholders are served even without a store.
	s.mux.Handle("/api/images/", api.NewImageHandler(s.config.Store))

	if s.config.Preview != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Preview))
	}

	if s.config.Push != nil {
		s.mux.Handle("/api/landmarks", NewLandmarksHandler(s.config.Push, s.config.Log))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Scene != nil {
		snap := s.config.Scene.Snapshot()
		response["tick"] = snap.Tick
		response["gesture_status"] = snap.Status
	}

	writeJSON(w, response)
}

// handleScene handles GET /api/scene with the current snapshot.
func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.config.Scene.Snapshot())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe starts the HTTP server on the given address and blocks
// until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the scene hub and gracefully stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Close()
	}
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
