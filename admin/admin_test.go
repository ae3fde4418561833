package admin

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cubecubic/catalog"
	"cubecubic/config"
	"cubecubic/models"
)

func strPtr(s string) *string { return &s }

func idPtr(id models.ID) *models.ID { return &id }

func newTestController(t *testing.T, mode config.SaveMode) *Controller {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracks.json")
	store := catalog.NewStore(path)
	store.Replace(models.Document{
		Albums: []models.Album{
			{ID: "1", Name: "Rock"},
			{ID: "2", Name: "Indie", ParentID: "1"},
			{ID: "3", Name: "Deep", ParentID: "2"},
			{ID: "4", Name: "Jazz"},
		},
		Tracks: []models.Track{
			{ID: "t1", Title: "Song A", AlbumID: "3"},
		},
	})

	c := NewController(store, mode)
	base := time.UnixMilli(1700000000000)
	c.now = func() time.Time { return base }
	return c
}

func TestCreateAlbum(t *testing.T) {
	c := newTestController(t, config.SaveDownload)

	a, err := c.CreateAlbum("  Punk ", "1")
	require.NoError(t, err)
	assert.Equal(t, "Punk", a.Name)
	assert.Equal(t, models.ID("1700000000000"), a.ID)
	assert.True(t, c.Store().Dirty())

	b, err := c.CreateAlbum("Metal", "")
	require.NoError(t, err)
	assert.Equal(t, models.ID("1700000000001"), b.ID, "ids must stay unique within the same millisecond")
}

func TestCreateAlbumValidation(t *testing.T) {
	tests := []struct {
		name   string
		album  string
		parent models.ID
		want   error
	}{
		{"blank", "  ", "", catalog.ErrNameRequired},
		{"sibling", "Indie", "1", catalog.ErrSiblingConflict},
		{"root_sibling", "Jazz", "", catalog.ErrSiblingConflict},
		{"missing_parent", "New", "999", catalog.ErrParentNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(t, config.SaveDownload)
			_, err := c.CreateAlbum(tt.album, tt.parent)
			assert.ErrorIs(t, err, tt.want)

			var verr *catalog.ValidationError
			assert.ErrorAs(t, err, &verr)
			assert.False(t, c.Store().Dirty(), "failed edit must leave the store clean")
			assert.Len(t, c.Store().Snapshot().Albums, 4)
		})
	}
}

func TestSameNameUnderDifferentParents(t *testing.T) {
	c := newTestController(t, config.SaveDownload)
	_, err := c.CreateAlbum("Indie", "4")
	assert.NoError(t, err)
}

func TestUpdateAlbum(t *testing.T) {
	tests := []struct {
		name   string
		id     models.ID
		album  string
		parent models.ID
		want   error
	}{
		{"rename", "2", "Alt", "1", nil},
		{"move_to_root", "2", "Indie", "", nil},
		{"move_under_sibling", "4", "Jazz", "1", nil},
		{"self_parent", "2", "Indie", "2", catalog.ErrParentCycle},
		{"descendant_parent", "1", "Rock", "3", catalog.ErrParentCycle},
		{"blank", "2", "", "1", catalog.ErrNameRequired},
		{"conflict", "4", "Rock", "", catalog.ErrSiblingConflict},
		{"missing", "404", "X", "", catalog.ErrNotFound},
		{"missing_parent", "2", "Indie", "404", catalog.ErrParentNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(t, config.SaveDownload)
			a, err := c.UpdateAlbum(tt.id, tt.album, tt.parent)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				assert.False(t, c.Store().Dirty())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.parent, a.ParentID)
			assert.Equal(t, tt.album, a.Name)
			assert.True(t, c.Store().Dirty())
		})
	}
}

func TestRenameKeepingNameIsNotAConflict(t *testing.T) {
	c := newTestController(t, config.SaveDownload)
	_, err := c.UpdateAlbum("2", "Indie", "1")
	assert.NoError(t, err)
}

func TestDeleteAlbum(t *testing.T) {
	c := newTestController(t, config.SaveDownload)

	assert.ErrorIs(t, c.DeleteAlbum("1"), catalog.ErrAlbumInUse, "nested track reference must block delete")
	assert.ErrorIs(t, c.DeleteAlbum("3"), catalog.ErrAlbumInUse)
	assert.ErrorIs(t, c.DeleteAlbum("404"), catalog.ErrNotFound)
	assert.False(t, c.Store().Dirty())

	require.NoError(t, c.DeleteTrack("t1"))
	require.NoError(t, c.DeleteAlbum("1"))

	doc := c.Store().Snapshot()
	indie, ok := doc.AlbumByID("2")
	require.True(t, ok)
	assert.True(t, indie.IsRoot(), "children move to the top level")
	deep, _ := doc.AlbumByID("3")
	assert.Equal(t, models.ID("2"), deep.ParentID)
}

func TestDeleteEmptyAlbum(t *testing.T) {
	c := newTestController(t, config.SaveDownload)
	require.NoError(t, c.DeleteAlbum("4"))
	_, ok := c.Store().Snapshot().AlbumByID("4")
	assert.False(t, ok)
}

func TestCreateTrack(t *testing.T) {
	c := newTestController(t, config.SaveDownload)

	tr, err := c.CreateTrack(TrackInput{
		Artist:   strPtr(" Someone "),
		AlbumID:  idPtr("2"),
		AudioURL: strPtr(" https://cdn.example/a.mp3 "),
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultTrackTitle, tr.Title)
	assert.Equal(t, "Someone", tr.Artist)
	assert.Equal(t, "https://cdn.example/a.mp3", tr.AudioURL)
	assert.Equal(t, models.ID("1700000000000"), tr.ID)
	assert.True(t, c.Store().Dirty())
	assert.Len(t, c.Store().Snapshot().Tracks, 2)
}

func TestUpdateTrack(t *testing.T) {
	c := newTestController(t, config.SaveDownload)

	_, err := c.UpdateTrack("t1", TrackInput{Title: strPtr("   ")})
	assert.ErrorIs(t, err, catalog.ErrTitleRequired)
	assert.False(t, c.Store().Dirty())

	tr, err := c.UpdateTrack("t1", TrackInput{Title: strPtr("Song B"), Lyrics: strPtr("line\n")})
	require.NoError(t, err)
	assert.Equal(t, "Song B", tr.Title)
	assert.Equal(t, "line\n", tr.Lyrics)
	assert.Equal(t, models.ID("3"), tr.AlbumID, "nil fields are kept")

	_, err = c.UpdateTrack("nope", TrackInput{})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestDeleteTrackMissing(t *testing.T) {
	c := newTestController(t, config.SaveDownload)
	assert.ErrorIs(t, c.DeleteTrack("nope"), catalog.ErrNotFound)
}

func TestParentChoices(t *testing.T) {
	c := newTestController(t, config.SaveDownload)
	choices, err := c.ParentChoices("2")
	require.NoError(t, err)

	var ids []models.ID
	for _, a := range choices {
		ids = append(ids, a.ID)
	}
	assert.ElementsMatch(t, []models.ID{"1", "4"}, ids)

	_, err = c.ParentChoices("404")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestSearchTracks(t *testing.T) {
	c := newTestController(t, config.SaveDownload)
	assert.Len(t, c.SearchTracks(""), 1)
	assert.Len(t, c.SearchTracks("DEEP"), 1)
	assert.Len(t, c.SearchTracks("song a"), 1)
	assert.Empty(t, c.SearchTracks("jazz"))
}

func TestSaveAllDownload(t *testing.T) {
	c := newTestController(t, config.SaveDownload)

	_, err := c.SaveAll(context.Background())
	assert.ErrorIs(t, err, catalog.ErrNothingToSave)

	_, err = c.CreateAlbum("Punk", "")
	require.NoError(t, err)

	data, err := c.SaveAll(context.Background())
	require.NoError(t, err)
	assert.False(t, c.Store().Dirty())

	doc, err := catalog.Deserialize(data)
	require.NoError(t, err)
	assert.Len(t, doc.Albums, 5)

	_, err = os.Stat(c.Store().Path())
	assert.True(t, os.IsNotExist(err), "download mode must not write the file")
}

func TestSaveAllPost(t *testing.T) {
	c := newTestController(t, config.SavePost)
	_, err := c.CreateTrack(TrackInput{Title: strPtr("New")})
	require.NoError(t, err)

	data, err := c.SaveAll(context.Background())
	require.NoError(t, err)

	onDisk, err := os.ReadFile(c.Store().Path())
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)
	assert.False(t, c.Store().Dirty())
}

func TestSaveAllPostFailureKeepsDirty(t *testing.T) {
	store := catalog.NewStore(filepath.Join(t.TempDir(), "gone", "tracks.json"))
	c := NewController(store, config.SavePost)
	_, err := c.CreateAlbum("Rock", "")
	require.NoError(t, err)

	_, err = c.SaveAll(context.Background())
	var perr *catalog.PersistenceError
	assert.ErrorAs(t, err, &perr)
	assert.True(t, store.Dirty())
	assert.Len(t, store.Snapshot().Albums, 1)
}

func TestReplaceDocument(t *testing.T) {
	c := newTestController(t, config.SavePost)
	_, err := c.CreateAlbum("Punk", "")
	require.NoError(t, err)

	err = c.ReplaceDocument(context.Background(), []byte("not json"))
	var verr *catalog.ValidationError
	assert.ErrorAs(t, err, &verr)

	require.NoError(t, c.ReplaceDocument(context.Background(), []byte(`{"albums":[{"id":1,"name":"Only","parentId":null}],"tracks":[]}`)))
	doc := c.Store().Snapshot()
	require.Len(t, doc.Albums, 1)
	assert.Equal(t, models.ID("1"), doc.Albums[0].ID)
	assert.False(t, c.Store().Dirty())

	_, err = os.Stat(c.Store().Path())
	assert.NoError(t, err)
}

func TestReload(t *testing.T) {
	c := newTestController(t, config.SaveDownload)
	_, err := c.CreateAlbum("Punk", "")
	require.NoError(t, err)
	assert.ErrorIs(t, c.Reload(), catalog.ErrDirty)

	c.Store().MarkClean()
	err = c.Reload()
	var lerr *catalog.LoadError
	assert.ErrorAs(t, err, &lerr)
}

func TestExport(t *testing.T) {
	c := newTestController(t, config.SaveDownload)
	c.Store().MarkDirty()
	data, err := c.Export()
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.False(t, c.Store().Dirty())
}

func TestGate(t *testing.T) {
	g := NewGate("230470", 60)
	assert.True(t, g.Check("230470"))
	assert.False(t, g.Check("230471"))
	assert.False(t, g.Check(""))
	assert.False(t, NewGate("", 60).Check(""))
}

func TestLoginLimiter(t *testing.T) {
	l := NewLoginLimiter(1, 2)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "limits are per address")
}

func TestGateLocksAfterFailedAttempts(t *testing.T) {
	g := NewGate("230470", 1)
	assert.False(t, g.Locked("10.0.0.1"))
	for i := 0; i < 3; i++ {
		assert.True(t, g.AllowAttempt("10.0.0.1"))
	}
	assert.True(t, g.Locked("10.0.0.1"))
	assert.False(t, g.Locked("10.0.0.2"))
}
