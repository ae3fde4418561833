package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"cubecubic/admin"
	"cubecubic/catalog"
	"cubecubic/config"
	"cubecubic/controller"
	"cubecubic/database"
	"cubecubic/view"
)

const testCatalog = `{
  "albums": [
    {"id": "1", "name": "Rock", "parentId": null},
    {"id": "2", "name": "Indie", "parentId": "1"},
    {"id": "3", "name": "Jazz", "parentId": null}
  ],
  "tracks": [
    {"id": "t1", "title": "Song A", "albumId": "2", "filename": "a.mp3"},
    {"id": 1700000000001, "title": "Blue", "artist": "Miles", "albumId": "3", "audioUrl": "https://cdn.example/blue.mp3"}
  ]
}`

const testPassword = "secret"

type testEnv struct {
	dir     string
	manager *Manager
	router  *gin.Engine
	store   *catalog.Store
	cookies []*http.Cookie
}

func writeFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(name), 0755))
	require.NoError(t, os.WriteFile(name, []byte(content), 0644))
}

func newTestEnv(t *testing.T, mode config.SaveMode) *testEnv {
	t.Helper()
	return newTestEnvWithDB(t, mode, filepath.Join("data", "test.db"))
}

// newTestEnvWithDB places the listener database at dbPath, relative to the
// public directory.
func newTestEnvWithDB(t *testing.T, mode config.SaveMode, dbPath string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tracks.json"), testCatalog)
	writeFile(t, filepath.Join(dir, "media", "a.mp3"), "0123456789")
	writeFile(t, filepath.Join(dir, "index.html"), "<html>index</html>")
	writeFile(t, filepath.Join(dir, "css", "style.css"), "body{}")
	writeFile(t, filepath.Join(dir, ".env"), "ADMIN_PASSWORD=secret")

	store := catalog.NewStore(filepath.Join(dir, "tracks.json"))
	require.NoError(t, store.Load())

	dbFile := filepath.Join(dir, dbPath)
	db, err := database.New(dbFile)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	paths := view.Paths{MediaPrefix: "media", CoverPrefix: "uploads", DefaultCover: "images/midcube.png"}
	ctrl := controller.NewController(store, db, paths, 10*time.Millisecond, time.Minute)
	editor := admin.NewController(store, mode)
	gate := admin.NewGate(testPassword, 600)

	m := NewManager(store, ctrl, editor, gate, db, catalog.NewAlbumSorter(nil), Options{
		PublicDir:   dir,
		IndexFile:   "index.html",
		MediaPrefix: "media",
		MediaDir:    filepath.Join(dir, "media"),
		PostEnabled: mode == config.SavePost,
		Private:     database.Files(dbFile),
	})
	router := gin.New()
	m.Register(router)

	return &testEnv{dir: dir, manager: m, router: router, store: store}
}

// do sends a request, carrying cookies between calls like a browser.
func (e *testEnv) do(t *testing.T, method, target string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for _, c := range e.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		e.setCookie(c)
	}
	return w
}

func (e *testEnv) setCookie(c *http.Cookie) {
	for i, existing := range e.cookies {
		if existing.Name == c.Name {
			if c.MaxAge < 0 {
				e.cookies = append(e.cookies[:i], e.cookies[i+1:]...)
				return
			}
			e.cookies[i] = c
			return
		}
	}
	if c.MaxAge >= 0 {
		e.cookies = append(e.cookies, c)
	}
}

func (e *testEnv) get(t *testing.T, target string) *httptest.ResponseRecorder {
	return e.do(t, http.MethodGet, target, nil, nil)
}

func (e *testEnv) sendJSON(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	return e.do(t, method, target, strings.NewReader(body), map[string]string{"Content-Type": "application/json"})
}

func (e *testEnv) adminJSON(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return e.do(t, method, target, r, map[string]string{
		"Content-Type":      "application/json",
		adminPasswordHeader: testPassword,
	})
}

func (e *testEnv) postForm(t *testing.T, target, form string) *httptest.ResponseRecorder {
	return e.do(t, http.MethodPost, target, strings.NewReader(form), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	})
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
