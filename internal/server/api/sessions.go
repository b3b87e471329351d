package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/yuletide/internal/gallery"
	"github.com/ayusman/yuletide/internal/greeting"
	"github.com/ayusman/yuletide/internal/scene"
	"github.com/ayusman/yuletide/internal/store"
)

// maxFormMemory is how much of a multipart upload is held in memory before
// spilling to temp files.
const maxFormMemory = 32 << 20

// SessionStarter restarts the scene with a session's photos and greeting.
type SessionStarter interface {
	UseSession(ctx context.Context, sess *store.Session) error
}

// SessionHandler handles HTTP requests for session resources.
type SessionHandler struct {
	store   *store.Store
	greeter greeting.Generator
	starter SessionStarter
	log     *zap.SugaredLogger
}

// NewSessionHandler creates a SessionHandler. greeter and starter may be nil:
// sessions then get the fallback greeting and are not activated.
func NewSessionHandler(s *store.Store, greeter greeting.Generator, starter SessionStarter, log *zap.SugaredLogger) *SessionHandler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SessionHandler{store: s, greeter: greeter, starter: starter, log: log}
}

// ServeHTTP routes /api/sessions, /api/sessions/{id},
// /api/sessions/{id}/events and /api/sessions/{id}/activate.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	parts := strings.Split(path, "/")
	id := parts[0]

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 2 && parts[1] == "events":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.events(w, r, id)
	case len(parts) == 2 && parts[1] == "activate":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.activate(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// Response types

type imageResponse struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	URL      string `json:"url"`
}

type sessionResponse struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Greeting   string          `json:"greeting"`
	PhotoCount int             `json:"photo_count"`
	Images     []imageResponse `json:"images,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type eventsResponse struct {
	Events []*store.Event `json:"events"`
	Counts map[string]int `json:"counts"`
}

func toSessionResponse(sess *store.Session, images []*store.Image) sessionResponse {
	resp := sessionResponse{
		ID:         sess.ID,
		Name:       sess.Name,
		Greeting:   sess.Greeting,
		PhotoCount: sess.PhotoCount,
		CreatedAt:  sess.CreatedAt.Format(time.RFC3339),
	}
	for _, img := range images {
		resp.Images = append(resp.Images, imageResponse{
			ID:       img.ID,
			Position: img.Position,
			URL:      ImageURL(scene.Texture(img.ID)),
		})
	}
	return resp
}

// ImageURL is where a texture handle is served.
func ImageURL(tex scene.Texture) string {
	return "/api/images/" + string(tex)
}

// list handles GET /api/sessions.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.Sessions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	response := listSessionsResponse{Sessions: make([]sessionResponse, 0, len(sessions))}
	for _, sess := range sessions {
		response.Sessions = append(response.Sessions, toSessionResponse(sess, nil))
	}
	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/sessions: a multipart form with an optional
// "name" and up to scene.MaxPhotos "photos". Extra photos are ignored.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, gallery.MaxUploadBytes*(scene.MaxPhotos+1))
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = greeting.DefaultName
	}

	images, err := h.readPhotos(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := &store.Session{
		Name:     name,
		Greeting: greeting.Resolve(r.Context(), h.greeter, name, h.log),
	}
	if err := h.store.Sessions().Create(sess); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	if err := h.store.Images().CreateBatch(sess.ID, images); err != nil {
		h.log.Errorf("Failed to store photos for session %s: %v", sess.ID, err)
		h.discardSession(sess.ID)
		writeError(w, http.StatusInternalServerError, "Failed to store photos")
		return
	}
	sess.PhotoCount = len(images)

	if h.starter != nil {
		if err := h.starter.UseSession(r.Context(), sess); err != nil {
			h.log.Errorf("Failed to start session %s: %v", sess.ID, err)
			writeError(w, http.StatusInternalServerError, "Failed to start session")
			return
		}
	}

	h.log.Infof("Created session %s for %q with %d photos", sess.ID, sess.Name, len(images))
	writeJSON(w, http.StatusCreated, toSessionResponse(sess, images))
}

// readPhotos decodes and resizes the uploaded photos in form order.
func (h *SessionHandler) readPhotos(r *http.Request) ([]*store.Image, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	files := r.MultipartForm.File["photos"]
	if len(files) > scene.MaxPhotos {
		files = files[:scene.MaxPhotos]
	}

	images := make([]*store.Image, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		tex, err := gallery.Prepare(f)
		f.Close()
		if err != nil {
			if errors.Is(err, gallery.ErrUnsupported) {
				return nil, fmt.Errorf("%s: unsupported image format", fh.Filename)
			}
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		images = append(images, &store.Image{
			ContentType: tex.ContentType,
			Width:       tex.Width,
			Height:      tex.Height,
			Data:        tex.Data,
		})
	}
	return images, nil
}

// get handles GET /api/sessions/{id}.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := h.store.Sessions().GetByID(id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	images, err := h.store.Images().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list photos")
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess, images))
}

// delete handles DELETE /api/sessions/{id}. Photos and events go with it.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Sessions().Delete(id); err != nil {
		h.writeLookupError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// events handles GET /api/sessions/{id}/events?limit=N.
func (h *SessionHandler) events(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Sessions().GetByID(id); err != nil {
		h.writeLookupError(w, err)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	events, err := h.store.Events().ListBySession(id, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}
	counts, err := h.store.Events().CountByKind(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count events")
		return
	}
	if events == nil {
		events = []*store.Event{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events, Counts: counts})
}

// activate handles POST /api/sessions/{id}/activate.
func (h *SessionHandler) activate(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := h.store.Sessions().GetByID(id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	if h.starter == nil {
		writeError(w, http.StatusServiceUnavailable, "Scene is not running")
		return
	}
	if err := h.starter.UseSession(r.Context(), sess); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess, nil))
}

// discardSession rolls back a half-created session.
func (h *SessionHandler) discardSession(id string) {
	if err := h.store.Sessions().Delete(id); err != nil {
		h.log.Warnf("Failed to roll back session %s, row left behind: %v", id, err)
	}
}

func (h *SessionHandler) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "Failed to load session")
}
