package pages

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cubecubic/models"
	"cubecubic/view"
)

func paint(t *testing.T, fn func(*bytes.Buffer) error) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, fn(&buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func browse(t *testing.T, p BrowsePage) *goquery.Document {
	return paint(t, func(b *bytes.Buffer) error { return PaintBrowse(b, p) })
}

func admin(t *testing.T, p AdminPage) *goquery.Document {
	return paint(t, func(b *bytes.Buffer) error { return PaintAdmin(b, p) })
}

func TestBrowseCards(t *testing.T) {
	doc := browse(t, BrowsePage{
		Cards: []view.TrackCard{
			{ID: "t1", Index: 0, Title: "Song A", AlbumName: "Indie", Cover: "covers/a.jpg", Stream: "media/a.mp3",
				HasLyrics: true, Lyrics: "la la", CanDownload: true, DownloadName: "a.mp3", Likes: 2},
			{ID: "t2", Index: 1, Title: "Song B", Playing: true},
		},
		Player: PlayerBar{Title: "Song B", State: "playing", Progress: 25, Volume: 80},
	})

	cards := doc.Find("#tracks .card")
	require.Equal(t, 2, cards.Length())

	first := cards.First()
	id, _ := first.Attr("data-track-id")
	assert.Equal(t, "t1", id)
	assert.Equal(t, "Song A", first.Find("h4").Text())
	assert.Equal(t, "la la", first.Find("details.lyrics pre").Text())
	name, ok := first.Find("a.download-button").Attr("download")
	assert.True(t, ok)
	assert.Equal(t, "a.mp3", name)
	assert.Equal(t, "2", first.Find(".like-count").Text())
	idx, _ := first.Find("input[name=index]").Attr("value")
	assert.Equal(t, "0", idx)

	second := cards.Eq(1)
	assert.True(t, second.HasClass("playing-track"))
	assert.Equal(t, 0, second.Find("details.lyrics").Length())
	_, disabled := second.Find("button.download-button").Attr("disabled")
	assert.True(t, disabled)

	assert.True(t, doc.Find("#header-player").HasClass("playing"))
	style, _ := doc.Find(".progress .fill").Attr("style")
	assert.Contains(t, style, "25.0%")
}

func TestBrowsePlaceholders(t *testing.T) {
	doc := browse(t, BrowsePage{})
	assert.Equal(t, "No tracks found", strings.TrimSpace(doc.Find("#tracks .empty").Text()))
	assert.Equal(t, "Choose a track", doc.Find("#player-title").Text())
	assert.Equal(t, 0, doc.Find("audio").Length())

	doc = browse(t, BrowsePage{LoadError: "boom"})
	assert.Equal(t, 1, doc.Find("#tracks .load-error").Length())
	assert.Equal(t, 0, doc.Find("#tracks .empty").Length())
}

func TestBrowseMenu(t *testing.T) {
	doc := browse(t, BrowsePage{
		SelectedAlbum: "a1",
		OpenAlbum:     "a1",
		Menu: []view.AlbumRow{
			{ID: "a1", Name: "Rock", Count: 3, Selected: true, Open: true, Children: []view.AlbumRow{
				{ID: "a2", Name: "Indie", Count: 1},
			}},
			{ID: "a3", Name: "Jazz", Count: 0, Children: []view.AlbumRow{
				{ID: "a4", Name: "Bebop"},
			}},
		},
		SubAlbums: []view.Option{{ID: "a2", Label: "Indie"}},
		SelectedSub: "a2",
	})

	groups := doc.Find(".album-group")
	require.Equal(t, 2, groups.Length())
	rock := groups.First()
	assert.True(t, rock.HasClass("open"))
	assert.Equal(t, "(3)", rock.Find(".album-list-button .track-count").Text())
	assert.True(t, rock.Find(".album-list-button").HasClass("selected"))

	sub := rock.Find(".sub-album")
	require.Equal(t, 1, sub.Length())
	href, _ := sub.Attr("href")
	assert.Equal(t, "/browse?album=a1&sub=a2&open=a1", href)

	assert.Equal(t, 0, groups.Eq(1).Find(".sub-album").Length())
	assert.False(t, doc.Find("a[href='/browse']").HasClass("selected"))

	selected, _ := doc.Find("#subalbum-select option[selected]").Attr("value")
	assert.Equal(t, "a2", selected)
}

func TestBrowseEscapesContent(t *testing.T) {
	doc := browse(t, BrowsePage{
		Query: `"><script>`,
		Cards: []view.TrackCard{{ID: "t1", Title: "<b>bold</b>"}},
	})
	assert.Equal(t, 0, doc.Find("#tracks b").Length())
	assert.Equal(t, "<b>bold</b>", doc.Find("#tracks h4").Text())
	q, _ := doc.Find("#global-search").Attr("value")
	assert.Equal(t, `"><script>`, q)
}

func TestAdminLogin(t *testing.T) {
	doc := admin(t, AdminPage{LoginError: "Wrong password"})
	assert.Equal(t, 1, doc.Find("#login-form").Length())
	assert.Contains(t, doc.Find("#login-form .error").Text(), "Wrong password")
	assert.Equal(t, 0, doc.Find("#albums").Length())
}

func TestAdminCatalog(t *testing.T) {
	doc := admin(t, AdminPage{
		LoggedIn: true,
		Dirty:    true,
		SaveMode: "download",
		Albums: []AdminAlbum{{
			ID: "a2", Name: "Indie", ParentID: "a1", Count: 1,
			ParentChoices: []view.Option{{ID: "a1", Label: "Rock"}},
		}},
		AlbumOptions: []view.Option{{ID: "a1", Label: "Rock"}, {ID: "a2", Label: "Indie"}},
		Tracks: []AdminTrack{
			{Track: models.Track{ID: "t1", Title: "Song A", AlbumID: "a2"}, AlbumName: "Indie"},
			{Track: models.Track{ID: "t2"}},
		},
	})

	assert.Equal(t, 1, doc.Find("#unsaved").Length())
	_, disabled := doc.Find("#btn-save-all").Attr("disabled")
	assert.False(t, disabled)

	album := doc.Find(".album-item")
	require.Equal(t, 1, album.Length())
	parent, _ := album.Find("select[name=parentId] option[selected]").Attr("value")
	assert.Equal(t, "a1", parent)
	action, _ := album.Find("form").Last().Attr("action")
	assert.Equal(t, "/api/admin/albums/a2/delete", action)

	tracks := doc.Find(".track-item")
	require.Equal(t, 2, tracks.Length())
	assert.Contains(t, tracks.First().Find(".meta").Text(), "album: Indie")
	chosen, _ := tracks.First().Find("select[name=albumId] option[selected]").Attr("value")
	assert.Equal(t, "a2", chosen)
	assert.Equal(t, "Untitled", tracks.Eq(1).Find("strong").Text())
	assert.Contains(t, tracks.Eq(1).Find(".meta").Text(), "(no album)")
}

func TestAdminCleanDisablesSave(t *testing.T) {
	doc := admin(t, AdminPage{LoggedIn: true, Query: "zzz"})
	_, disabled := doc.Find("#btn-save-all").Attr("disabled")
	assert.True(t, disabled)
	assert.Equal(t, 0, doc.Find("#unsaved").Length())
	assert.Contains(t, doc.Find("#tracks .muted").Text(), "No tracks match your search")
}

func TestFormatPct(t *testing.T) {
	assert.Equal(t, "0.0%", formatPct(-3))
	assert.Equal(t, "50.0%", formatPct(50))
	assert.Equal(t, "100.0%", formatPct(250))
}
