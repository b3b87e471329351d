package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ayusman/yuletide/internal/greeting"
	"github.com/ayusman/yuletide/internal/logging"
	"github.com/ayusman/yuletide/internal/scene"
	"github.com/ayusman/yuletide/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

// fakeStarter records activated sessions.
type fakeStarter struct {
	started []*store.Session
	err     error
}

func (f *fakeStarter) UseSession(ctx context.Context, sess *store.Session) error {
	if f.err != nil {
		return f.err
	}
	f.started = append(f.started, sess)
	return nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0x80, 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// uploadRequest builds a multipart POST /api/sessions request.
func uploadRequest(t *testing.T, name string, photos ...[]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if name != "" {
		mw.WriteField("name", name)
	}
	for i, p := range photos {
		fw, err := mw.CreateFormFile("photos", "photo"+string(rune('a'+i))+".png")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		fw.Write(p)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) sessionResponse {
	t.Helper()
	var resp sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestSessionHandler_Create(t *testing.T) {
	s := newTestStore(t)
	starter := &fakeStarter{}
	greeter := greeting.GeneratorFunc(func(ctx context.Context, name string) (string, error) {
		return "Magic for " + name, nil
	})
	handler := NewSessionHandler(s, greeter, starter, logging.Nop())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, uploadRequest(t, "Ana", pngBytes(t, 40, 20), pngBytes(t, 10, 10)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeSession(t, rec)
	if resp.Name != "Ana" || resp.Greeting != "Magic for Ana" {
		t.Errorf("unexpected session %+v", resp)
	}
	if resp.PhotoCount != 2 || len(resp.Images) != 2 {
		t.Fatalf("expected 2 photos, got count=%d images=%d", resp.PhotoCount, len(resp.Images))
	}
	if resp.Images[0].URL != "/api/images/"+resp.Images[0].ID {
		t.Errorf("unexpected image URL %q", resp.Images[0].URL)
	}

	if len(starter.started) != 1 || starter.started[0].ID != resp.ID {
		t.Errorf("session was not started: %+v", starter.started)
	}

	img, err := s.Images().GetByID(resp.Images[0].ID)
	if err != nil {
		t.Fatalf("stored image missing: %v", err)
	}
	if img.Width != 256 || img.Height != 256 || img.ContentType != "image/png" {
		t.Errorf("image not resized to a texture: %dx%d %s", img.Width, img.Height, img.ContentType)
	}
}

func TestSessionHandler_Create_Defaults(t *testing.T) {
	s := newTestStore(t)
	failing := greeting.GeneratorFunc(func(ctx context.Context, name string) (string, error) {
		return "", errors.New("quota exceeded")
	})
	handler := NewSessionHandler(s, failing, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, uploadRequest(t, ""))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeSession(t, rec)
	if resp.Name != greeting.DefaultName {
		t.Errorf("Name = %q, want %q", resp.Name, greeting.DefaultName)
	}
	if resp.Greeting != greeting.Fallback {
		t.Errorf("Greeting = %q, want fallback", resp.Greeting)
	}
	if resp.PhotoCount != 0 {
		t.Errorf("PhotoCount = %d, want 0", resp.PhotoCount)
	}
}

func TestSessionHandler_Create_TruncatesPhotos(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s, nil, nil, nil)

	photo := pngBytes(t, 4, 4)
	photos := make([][]byte, scene.MaxPhotos+3)
	for i := range photos {
		photos[i] = photo
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, uploadRequest(t, "Many", photos...))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp := decodeSession(t, rec); resp.PhotoCount != scene.MaxPhotos {
		t.Errorf("PhotoCount = %d, want %d", resp.PhotoCount, scene.MaxPhotos)
	}
}

func TestSessionHandler_Create_Errors(t *testing.T) {
	tests := []struct {
		name     string
		starter  *fakeStarter
		photos   [][]byte
		wantCode int
	}{
		{"unsupported photo", &fakeStarter{}, [][]byte{[]byte("not an image")}, http.StatusBadRequest},
		{"start fails", &fakeStarter{err: errors.New("stopped")}, nil, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			handler := NewSessionHandler(s, nil, tt.starter, nil)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, uploadRequest(t, "X", tt.photos...))
			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSessionHandler_ListAndGet(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s, nil, nil, nil)

	sess := &store.Session{Name: "Bo", Greeting: "Hi Bo"}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if err := s.Images().CreateBatch(sess.ID, []*store.Image{{ContentType: "image/png", Data: []byte{1}}}); err != nil {
		t.Fatalf("failed to create images: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected status 200, got %d", rec.Code)
	}
	var list listSessionsResponse
	json.NewDecoder(rec.Body).Decode(&list)
	if len(list.Sessions) != 1 || list.Sessions[0].ID != sess.ID {
		t.Errorf("unexpected list %+v", list)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected status 200, got %d", rec.Code)
	}
	got := decodeSession(t, rec)
	if got.Greeting != "Hi Bo" || len(got.Images) != 1 || got.PhotoCount != 1 {
		t.Errorf("unexpected session %+v", got)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing: expected status 404, got %d", rec.Code)
	}
}

func TestSessionHandler_Events(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s, nil, nil, nil)

	sess := &store.Session{Name: "Cy"}
	s.Sessions().Create(sess)
	for i, kind := range []scene.EventKind{scene.EventJumpStarted, scene.EventLightsSwitched, scene.EventJumpStarted} {
		if err := s.Events().Record(&store.Event{SessionID: sess.ID, Kind: string(kind), Tick: uint64(i + 1)}); err != nil {
			t.Fatalf("failed to record event: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID+"/events?limit=2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp eventsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(resp.Events) != 2 || resp.Events[0].Tick != 1 {
		t.Errorf("unexpected events %+v", resp.Events)
	}
	if resp.Counts["jump-started"] != 2 || resp.Counts["lights-switched"] != 1 {
		t.Errorf("unexpected counts %+v", resp.Counts)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID+"/events?limit=x", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit: expected status 400, got %d", rec.Code)
	}
}

func TestSessionHandler_ActivateAndDelete(t *testing.T) {
	s := newTestStore(t)
	starter := &fakeStarter{}
	handler := NewSessionHandler(s, nil, starter, nil)

	sess := &store.Session{Name: "Di"}
	s.Sessions().Create(sess)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions/"+sess.ID+"/activate", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("activate: expected status 200, got %d", rec.Code)
	}
	if len(starter.started) != 1 {
		t.Errorf("expected session to be started")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+sess.ID, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected status 204, got %d", rec.Code)
	}
	if _, err := s.Sessions().GetByID(sess.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("session still present: %v", err)
	}
}

func TestSessionHandler_Routing(t *testing.T) {
	handler := NewSessionHandler(newTestStore(t), nil, nil, nil)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodPut, "/api/sessions", http.StatusMethodNotAllowed},
		{http.MethodPatch, "/api/sessions/abc", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/sessions/abc/events", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/sessions/abc/activate", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/sessions/abc/photos", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestImageURL(t *testing.T) {
	if got := ImageURL("placeholder:red"); !strings.HasSuffix(got, "/placeholder:red") {
		t.Errorf("ImageURL() = %q", got)
	}
}

func TestSessionHandler_DiscardSessionLogsFailedRollback(t *testing.T) {
	s := newTestStore(t)
	core, logs := observer.New(zap.WarnLevel)
	handler := NewSessionHandler(s, nil, nil, zap.New(core).Sugar())

	sess := &store.Session{Name: "Ada"}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	handler.discardSession(sess.ID)
	if _, err := s.Sessions().GetByID(sess.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected session to be removed, got %v", err)
	}
	if logs.Len() != 0 {
		t.Errorf("expected no warnings for a clean rollback, got %d", logs.Len())
	}

	s.Close()
	handler.discardSession("orphan")
	warned := logs.FilterMessageSnippet("row left behind").All()
	if len(warned) != 1 {
		t.Fatalf("expected 1 rollback warning, got %d", len(warned))
	}
	if !strings.Contains(warned[0].Message, "orphan") {
		t.Errorf("warning should name the session: %q", warned[0].Message)
	}
}
