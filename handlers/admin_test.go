package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cubecubic/admin"
	"cubecubic/config"
	"cubecubic/models"
)

func TestAdminRequiresLogin(t *testing.T) {
	env := newTestEnv(t, config.SaveDownload)

	w := env.sendJSON(t, http.MethodPost, "/api/admin/albums", `{"name": "Pop"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decode[ErrorResponse](t, w).Code)

	w = env.do(t, http.MethodGet, "/api/admin/status", nil, map[string]string{adminPasswordHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.postForm(t, "/api/admin/albums", "name=Pop")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, adminPage, w.Header().Get("Location"))

	assert.False(t, env.store.Dirty())
}

func TestAdminLoginForm(t *testing.T) {
	env := newTestEnv(t, config.SaveDownload)

	w := env.postForm(t, "/admin/login", "password=wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	assert.Contains(t, doc.Find("#login-form .error").Text(), "Wrong password")

	w = env.postForm(t, "/admin/login", "password="+testPassword)
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = env.get(t, "/admin")
	require.Equal(t, http.StatusOK, w.Code)
	doc, err = goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Find("#login-form").Length())
	assert.Equal(t, 3, doc.Find(".album-item").Length())
	assert.Equal(t, 2, doc.Find(".track-item").Length())

	w = env.postForm(t, "/api/admin/albums", "name=Pop&parentId=")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "msg=Album+created")
	assert.True(t, env.store.Dirty())

	w = env.postForm(t, "/admin/logout", "")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, http.StatusUnauthorized, env.sendJSON(t, http.MethodGet, "/api/admin/status", "").Code)
}

func TestAdminAlbumRules(t *testing.T) {
	env := newTestEnv(t, config.SaveDownload)

	w := env.adminJSON(t, http.MethodPost, "/api/admin/albums", `{"name": "Pop", "parentId": "1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	pop := decode[models.Album](t, w)
	assert.Equal(t, models.ID("1"), pop.ParentID)

	w = env.adminJSON(t, http.MethodPost, "/api/admin/albums", `{"name": "Pop", "parentId": "1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.adminJSON(t, http.MethodPost, "/api/admin/albums", `{"name": "  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.adminJSON(t, http.MethodPut, "/api/admin/albums/1", `{"name": "Rock", "parentId": "2"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[ErrorResponse](t, w).Code)

	w = env.adminJSON(t, http.MethodGet, "/api/admin/albums/1/parents", "")
	require.Equal(t, http.StatusOK, w.Code)
	var names []string
	for _, a := range decode[[]models.Album](t, w) {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"Jazz"}, names)

	w = env.adminJSON(t, http.MethodDelete, "/api/admin/albums/1", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.adminJSON(t, http.MethodDelete, "/api/admin/albums/"+string(pop.ID), "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.adminJSON(t, http.MethodDelete, "/api/admin/albums/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminTracks(t *testing.T) {
	env := newTestEnv(t, config.SaveDownload)

	w := env.adminJSON(t, http.MethodPost, "/api/admin/tracks", `{"title": "", "artist": "Nina", "albumId": "3"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[models.Track](t, w)
	assert.Equal(t, "Untitled", created.Title)

	w = env.adminJSON(t, http.MethodPut, "/api/admin/tracks/"+string(created.ID), `{"title": ""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.adminJSON(t, http.MethodPut, "/api/admin/tracks/"+string(created.ID), `{"title": "Feeling Good", "albumId": ""}`)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[models.Track](t, w)
	assert.Equal(t, "Feeling Good", updated.Title)
	assert.Equal(t, "Nina", updated.Artist)
	assert.Equal(t, models.ID(""), updated.AlbumID)

	w = env.adminJSON(t, http.MethodGet, "/api/admin/tracks?q=indie", "")
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[[]adminTrackResponse](t, w)
	require.Len(t, found, 1)
	assert.Equal(t, models.ID("t1"), found[0].ID)
	assert.Equal(t, "Indie", found[0].AlbumName)

	// listeners see the new track without a reload
	cards := decode[[]struct {
		ID models.ID `json:"id"`
	}](t, env.get(t, "/api/tracks?q=feeling"))
	require.Len(t, cards, 1)

	w = env.adminJSON(t, http.MethodDelete, "/api/admin/tracks/"+string(created.ID), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.adminJSON(t, http.MethodDelete, "/api/admin/tracks/"+string(created.ID), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminTrackForm(t *testing.T) {
	env := newTestEnv(t, config.SaveDownload)
	require.Equal(t, http.StatusSeeOther, env.postForm(t, "/admin/login", "password="+testPassword).Code)

	w := env.postForm(t, "/api/admin/tracks/t1", "title=Song+B&artist=Ann&albumId=3")
	require.Equal(t, http.StatusSeeOther, w.Code)
	track, ok := env.store.Snapshot().TrackByID("t1")
	require.True(t, ok)
	assert.Equal(t, "Song B", track.Title)
	assert.Equal(t, models.ID("3"), track.AlbumID)
	assert.Equal(t, "a.mp3", track.Filename)

	w = env.postForm(t, "/api/admin/tracks/t1", "title=")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "err=")

	w = env.postForm(t, "/api/admin/tracks/t1/delete", "")
	require.Equal(t, http.StatusSeeOther, w.Code)
	_, ok = env.store.Snapshot().TrackByID("t1")
	assert.False(t, ok)
}

func TestSaveDownload(t *testing.T) {
	env := newTestEnv(t, config.SaveDownload)

	w := env.adminJSON(t, http.MethodPost, "/api/admin/save", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	require.Equal(t, http.StatusCreated, env.adminJSON(t, http.MethodPost, "/api/admin/albums", `{"name": "Pop"}`).Code)
	before, err := os.ReadFile(filepath.Join(env.dir, "tracks.json"))
	require.NoError(t, err)

	w = env.adminJSON(t, http.MethodPost, "/api/admin/save", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "tracks.json")
	assert.Contains(t, w.Body.String(), `"Pop"`)
	assert.False(t, env.store.Dirty())

	after, err := os.ReadFile(filepath.Join(env.dir, "tracks.json"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSavePost(t *testing.T) {
	env := newTestEnv(t, config.SavePost)

	require.Equal(t, http.StatusCreated, env.adminJSON(t, http.MethodPost, "/api/admin/albums", `{"name": "Pop"}`).Code)
	w := env.adminJSON(t, http.MethodPost, "/api/admin/save", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, env.store.Dirty())

	w = env.get(t, "/tracks.json")
	assert.Contains(t, w.Body.String(), `"Pop"`)
}

func TestCatalogPost(t *testing.T) {
	env := newTestEnv(t, config.SavePost)

	w := env.sendJSON(t, http.MethodPost, "/tracks.json", `{"albums":[],"tracks":[]}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.adminJSON(t, http.MethodPost, "/tracks.json", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.adminJSON(t, http.MethodPost, "/tracks.json", `{"albums":[{"id":"9","name":"Solo","parentId":null}],"tracks":[]}`)
	require.Equal(t, http.StatusOK, w.Code)

	doc := env.store.Snapshot()
	require.Len(t, doc.Albums, 1)
	assert.Equal(t, "Solo", doc.Albums[0].Name)

	data, err := os.ReadFile(filepath.Join(env.dir, "tracks.json"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"Solo"`))
}

func TestReloadRefusedWhenDirty(t *testing.T) {
	env := newTestEnv(t, config.SaveDownload)

	require.Equal(t, http.StatusOK, env.sendJSON(t, http.MethodPost, "/api/catalog/reload", "").Code)
	require.Equal(t, http.StatusCreated, env.adminJSON(t, http.MethodPost, "/api/admin/albums", `{"name": "Pop"}`).Code)

	w := env.sendJSON(t, http.MethodPost, "/api/catalog/reload", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestExportClearsDirty(t *testing.T) {
	env := newTestEnv(t, config.SaveDownload)
	require.Equal(t, http.StatusCreated, env.adminJSON(t, http.MethodPost, "/api/admin/albums", `{"name": "Pop"}`).Code)

	w := env.adminJSON(t, http.MethodGet, "/api/admin/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, noStore, w.Header().Get("Cache-Control"))
	assert.False(t, env.store.Dirty())
}

func TestMediaListing(t *testing.T) {
	env := newTestEnv(t, config.SaveDownload)
	writeFile(t, filepath.Join(env.dir, "media", "new song.mp3"), "not really audio")

	w := env.adminJSON(t, http.MethodGet, "/api/admin/media", "")
	require.Equal(t, http.StatusOK, w.Code)
	files := decode[[]struct {
		Filename string `json:"filename"`
		Used     bool   `json:"used"`
	}](t, w)
	require.Len(t, files, 2)
	assert.Equal(t, "a.mp3", files[0].Filename)
	assert.True(t, files[0].Used)
	assert.Equal(t, "new song.mp3", files[1].Filename)
	assert.False(t, files[1].Used)

	w = env.adminJSON(t, http.MethodPost, "/api/admin/media/import", `{"filename": "new song.mp3", "albumId": "3"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	track := decode[models.Track](t, w)
	assert.Equal(t, "new song", track.Title)
	assert.Equal(t, "new song.mp3", track.Filename)
	assert.Equal(t, models.ID("3"), track.AlbumID)

	w = env.adminJSON(t, http.MethodPost, "/api/admin/media/import", `{"filename": "missing.mp3"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t, config.SaveDownload)
	w := env.adminJSON(t, http.MethodGet, "/api/admin/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mostPlayed"`)
}

func TestLoginLockout(t *testing.T) {
	env := newTestEnv(t, config.SaveDownload)
	env.manager.Gate = admin.NewGate(testPassword, 1)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusUnauthorized, env.sendJSON(t, http.MethodPost, "/admin/login", `{"password": "guess"}`).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, env.sendJSON(t, http.MethodPost, "/admin/login", `{"password": "guess"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.sendJSON(t, http.MethodPost, "/admin/login", `{"password": "secret"}`).Code)
}
