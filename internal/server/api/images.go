package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/yuletide/internal/gallery"
	"github.com/ayusman/yuletide/internal/scene"
	"github.com/ayusman/yuletide/internal/store"
)

// ImageHandler serves gallery textures by handle: stored photos by ID and
// the built-in placeholder cards by their placeholder handle.
type ImageHandler struct {
	store *store.Store
}

// NewImageHandler creates an ImageHandler. s may be nil, in which case only
// placeholders are served.
func NewImageHandler(s *store.Store) *ImageHandler {
	return &ImageHandler{store: s}
}

// ServeHTTP handles GET /api/images/{handle}.
func (h *ImageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	handle := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/images"), "/")
	if handle == "" || strings.Contains(handle, "/") {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	tex := scene.Texture(handle)

	if gallery.IsPlaceholder(tex) {
		data, err := gallery.PlaceholderPNG(tex)
		if errors.Is(err, gallery.ErrUnknownPlaceholder) {
			writeError(w, http.StatusNotFound, "Image not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to render placeholder")
			return
		}
		writeImage(w, gallery.ContentType, data)
		return
	}

	if h.store == nil {
		writeError(w, http.StatusNotFound, "Image not found")
		return
	}
	img, err := h.store.Images().GetByID(handle)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Image not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load image")
		return
	}
	writeImage(w, img.ContentType, img.Data)
}

// writeImage serves texture bytes, which never change once stored.
func writeImage(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
