package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"originwidget/apps"
	"originwidget/config"
	"originwidget/core"
	"originwidget/database"
	"originwidget/service"
)

type testServer struct {
	router *gin.Engine
	svc    *service.Services
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	settings := &config.Config{
		LogLevel:             "INFO",
		DatabaseURL:          filepath.Join(t.TempDir(), "user.db"),
		SQLitePragmasEnabled: true,
		SQLiteBusyTimeoutMS:  1000,
		SQLiteJournalMode:    "WAL",
		SQLiteSynchronous:    "NORMAL",
		SQLiteMaxOpenConns:   1,
		SQLiteMaxIdleConns:   1,
		UpdateWorkers:        1,
		UpdateQueueSize:      16,
		UpdateTimeoutMS:      5000,
		MaxErrorLogs:         10,
		RenderMaxDimension:   512,
	}
	db, err := database.Open(settings)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	icon := image.NewNRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			icon.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 5), G: 120, B: uint8(y * 5), A: 255})
		}
	}
	catalog := apps.NewMemoryCatalog(
		apps.AppInfo{PackageName: "com.example.mail", Name: "Mail", Icon: icon},
		apps.AppInfo{PackageName: "com.example.camera", Name: "Camera", Icon: icon},
	)

	svc := service.New(db, catalog, settings)
	svc.Start()
	t.Cleanup(svc.Stop)

	return &testServer{router: NewRouter(New(svc, settings)), svc: svc}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return resp
}

func decodePNG(t *testing.T, w *httptest.ResponseRecorder) image.Image {
	t.Helper()
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q, body %s", ct, w.Body.String())
	}
	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("png decode: %v", err)
	}
	return img
}

func TestListApps(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/apps", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var payload struct {
		Data []apps.AppInfo `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.Data) != 2 || payload.Data[0].Name != "Camera" {
		t.Fatalf("apps = %+v", payload.Data)
	}
}

func TestAppIcon(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/apps/com.example.mail/icon.png", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if img := decodePNG(t, w); img.Bounds().Dx() != 48 {
		t.Fatalf("icon width = %d", img.Bounds().Dx())
	}

	w = s.do(t, http.MethodGet, "/api/apps/com.example.gone/icon.png", nil)
	if w.Code != http.StatusNotFound || decode(t, w).Code != CodeNotFound {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
}

func TestWidgetLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/widgets/9", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing widget status = %d", w.Code)
	}

	w = s.do(t, http.MethodPut, "/api/widgets/9", map[string]interface{}{
		"package_name":      "com.example.mail",
		"background_kind":   "icon",
		"icon_kind":         "icon",
		"radius":            6,
		"margin_horizontal": 2,
		"margin_vertical":   3,
		"margin_icon":       4,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("save status = %d body %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/api/widgets/9", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"package_name":"com.example.mail"`) {
		t.Fatalf("get status = %d body %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/api/defaults", nil)
	if !strings.Contains(w.Body.String(), `"radius":6`) {
		t.Fatalf("defaults not written back: %s", w.Body.String())
	}
	w = s.do(t, http.MethodGet, "/api/session", nil)
	if !strings.Contains(w.Body.String(), `"margin_icon":4`) {
		t.Fatalf("session not pre-filled: %s", w.Body.String())
	}

	w = s.do(t, http.MethodPut, "/api/widgets/9/size", SizeRequest{Width: 80, Height: 120})
	if w.Code != http.StatusOK {
		t.Fatalf("size status = %d body %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodPost, "/api/widgets/9/refresh?wait=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh status = %d body %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/api/widgets/9/frame/background.png", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("frame status = %d body %s", w.Code, w.Body.String())
	}
	if b := decodePNG(t, w).Bounds(); b.Dx() != 80 || b.Dy() != 120 {
		t.Fatalf("frame size = %v", b)
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/widgets/9/frame/background.png", nil)
	req.Header.Set("If-None-Match", etag)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotModified {
		t.Fatalf("conditional status = %d", rec.Code)
	}

	w = s.do(t, http.MethodGet, "/api/widgets/9/frame", nil)
	body := w.Body.String()
	if !strings.Contains(body, `"click_target":"com.example.mail"`) || !strings.Contains(body, `"background_padding":{"left":2,"top":3,"right":2,"bottom":3}`) {
		t.Fatalf("frame metadata = %s", body)
	}

	w = s.do(t, http.MethodDelete, "/api/widgets/9", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	if w = s.do(t, http.MethodGet, "/api/widgets/9", nil); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", w.Code)
	}
	if w = s.do(t, http.MethodGet, "/api/widgets/9/frame/background.png", nil); w.Code != http.StatusNotFound {
		t.Fatalf("frame after delete status = %d", w.Code)
	}
}

func TestSaveWidgetValidation(t *testing.T) {
	s := newTestServer(t)

	if w := s.do(t, http.MethodPut, "/api/widgets/abc", map[string]int{}); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", w.Code)
	}
	if w := s.do(t, http.MethodPut, "/api/widgets/1", map[string]int{"radius": -2}); w.Code != http.StatusBadRequest {
		t.Fatalf("negative radius status = %d", w.Code)
	}
	if w := s.do(t, http.MethodPut, "/api/widgets/1", map[string]string{"background_kind": "gradient"}); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown kind status = %d", w.Code)
	}
	if w := s.do(t, http.MethodPut, "/api/widgets/1/size", SizeRequest{Width: 0, Height: 10}); w.Code != http.StatusBadRequest {
		t.Fatalf("zero size status = %d", w.Code)
	}
	if w := s.do(t, http.MethodPut, "/api/widgets/1/size", SizeRequest{Width: 10000, Height: 10}); w.Code != http.StatusBadRequest {
		t.Fatalf("oversized status = %d", w.Code)
	}
}

func TestRefreshMissingWidget(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/widgets/44/refresh?wait=true", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	w = s.do(t, http.MethodPost, "/api/widgets/44/refresh", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("async status = %d", w.Code)
	}
	if s.svc.Surfaces.Exists(44) {
		t.Fatalf("refresh must not register a surface for an unconfigured widget")
	}
	if w := s.do(t, http.MethodGet, "/api/widgets/44/frame", nil); w.Code != http.StatusNotFound {
		t.Fatalf("frame status = %d", w.Code)
	}
}

func TestRefreshAllWidgets(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPut, "/api/widgets/1", map[string]string{"package_name": "com.example.mail"})
	s.do(t, http.MethodPut, "/api/widgets/2", map[string]string{"package_name": "com.example.camera"})

	w := s.do(t, http.MethodPost, "/api/widgets/refresh", nil)
	if w.Code != http.StatusAccepted || !strings.Contains(w.Body.String(), `"queued":2`) {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/api/widgets", nil)
	if !strings.Contains(w.Body.String(), `"id":1`) || !strings.Contains(w.Body.String(), `"id":2`) {
		t.Fatalf("list = %s", w.Body.String())
	}
}

func TestRenderEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/render/background?package=com.example.mail&width=80&height=120&radius=10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("background status = %d body %s", w.Code, w.Body.String())
	}
	img := decodePNG(t, w)
	if b := img.Bounds(); b.Dx() != 80 || b.Dy() != 120 {
		t.Fatalf("background size = %v", b)
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
		t.Fatalf("corner alpha = %d, want 0", a)
	}

	w = s.do(t, http.MethodGet, "/api/render/preview?package=com.example.mail", nil)
	if w.Code != http.StatusOK || decodePNG(t, w).Bounds().Dx() != 48 {
		t.Fatalf("preview status = %d", w.Code)
	}

	w = s.do(t, http.MethodGet, "/api/render/source?package=com.example.mail", nil)
	if w.Code != http.StatusOK || decodePNG(t, w).Bounds().Dx() != 48 {
		t.Fatalf("source status = %d", w.Code)
	}
}

func TestRenderErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		path string
		want int
	}{
		{"/api/render/background?package=com.example.mail&width=0&height=10", http.StatusBadRequest},
		{"/api/render/background?package=com.example.mail&width=x&height=10", http.StatusBadRequest},
		{"/api/render/background?package=com.example.mail&width=10&height=10&radius=-1", http.StatusBadRequest},
		{"/api/render/background?package=com.example.gone&width=10&height=10", http.StatusNotFound},
		{"/api/render/background?package=com.example.mail&kind=color&width=10&height=10", http.StatusBadRequest},
		{"/api/render/preview?package=com.example.mail&kind=picture", http.StatusBadRequest},
		{"/api/render/source?package=com.example.mail&kind=bogus", http.StatusBadRequest},
		{"/api/render/source?package=com.example.gone", http.StatusNotFound},
	}
	for _, tt := range tests {
		if w := s.do(t, http.MethodGet, tt.path, nil); w.Code != tt.want {
			t.Fatalf("%s: status = %d, want %d (body %s)", tt.path, w.Code, tt.want, w.Body.String())
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"db_healthy":true`) {
		t.Fatalf("health = %d %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/api/metrics", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"dropped_total"`) {
		t.Fatalf("metrics = %d %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/api/metrics/prometheus", nil)
	body := w.Body.String()
	for _, want := range []string{"originwidget_build_info{", "originwidget_sqlite_up 1", "originwidget_updates_dropped_total 0"} {
		if !strings.Contains(body, want) {
			t.Fatalf("prometheus output missing %q:\n%s", want, body)
		}
	}
}

func TestHealthDegradedWhenUpdaterStopped(t *testing.T) {
	s := newTestServer(t)
	s.svc.Stop()
	if w := s.do(t, http.MethodGet, "/api/health", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestErrorLogs(t *testing.T) {
	s := newTestServer(t)
	s.svc.ErrorLog.Error(core.ErrorEvent{Source: "test", WidgetID: 5, Message: "boom"})
	s.svc.ErrorLog.Error(core.ErrorEvent{Source: "test", WidgetID: 6, Message: "bang"})

	w := s.do(t, http.MethodGet, "/api/error-logs", nil)
	if !strings.Contains(w.Body.String(), `"boom"`) || !strings.Contains(w.Body.String(), `"bang"`) {
		t.Fatalf("error logs = %s", w.Body.String())
	}
	w = s.do(t, http.MethodGet, "/api/error-logs?widget=5", nil)
	if !strings.Contains(w.Body.String(), `"boom"`) || strings.Contains(w.Body.String(), `"bang"`) {
		t.Fatalf("filtered error logs = %s", w.Body.String())
	}
	if w := s.do(t, http.MethodGet, "/api/error-logs?widget=x", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	s.do(t, http.MethodDelete, "/api/error-logs", nil)
	if s.svc.ErrorLog.Count() != 0 {
		t.Fatalf("expected error logs to be cleared")
	}
}

func TestPromLabelEscape(t *testing.T) {
	if got := promLabelEscape("a\"b\\c\nd"); got != `a\"b\\c\nd` {
		t.Fatalf("promLabelEscape = %q", got)
	}
}
