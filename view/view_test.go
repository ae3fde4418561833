package view

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cubecubic/catalog"
	"cubecubic/models"
)

func menuDoc() models.Document {
	return models.Document{
		Albums: []models.Album{
			{ID: "1", Name: "Rock"},
			{ID: "2", Name: "Indie", ParentID: "1"},
			{ID: "3", Name: "Britpop", ParentID: "1"},
			{ID: "4", Name: "ambient"},
			{ID: "5", Name: "Deep", ParentID: "2"},
		},
		Tracks: []models.Track{
			{ID: "t1", Title: "Song A", AlbumID: "2"},
			{ID: "t2", Title: "Song B", AlbumID: "1"},
			{ID: "t3", Title: "Song C", AlbumID: "5"},
			{ID: "t4", Title: "Loose"},
		},
	}
}

func TestAlbumMenu(t *testing.T) {
	rows := AlbumMenu(menuDoc(), catalog.NewAlbumSorter(nil), "2", "1")
	require.Len(t, rows, 2)

	assert.Equal(t, "ambient", rows[0].Name)
	assert.Equal(t, 0, rows[0].Count)
	assert.False(t, rows[0].Open)

	rock := rows[1]
	assert.Equal(t, "Rock", rock.Name)
	assert.Equal(t, 3, rock.Count)
	assert.True(t, rock.Open)
	require.Len(t, rock.Children, 2)
	assert.Equal(t, "Britpop", rock.Children[0].Name)
	assert.Equal(t, "Indie", rock.Children[1].Name)
	assert.Equal(t, 2, rock.Children[1].Count)
	assert.True(t, rock.Children[1].Selected)
}

func TestAccordionToggle(t *testing.T) {
	var a Accordion
	a.Toggle("1")
	assert.Equal(t, models.ID("1"), a.Open)
	a.Toggle("4")
	assert.Equal(t, models.ID("4"), a.Open)
	a.Toggle("4")
	assert.Equal(t, models.ID(""), a.Open)
}

func TestTrackCards(t *testing.T) {
	doc := menuDoc()
	doc.Tracks[0].Filename = "song a.mp3"
	doc.Tracks[0].Lyrics = "la la"
	doc.Tracks[1].CoverURL = "https://img.example/c.png"

	paths := Paths{MediaPrefix: "media", CoverPrefix: "uploads", DefaultCover: "images/midcube.png"}
	cards := TrackCards(doc, doc.Tracks[:2], paths, CardState{
		PlayingID: "t2",
		Liked:     map[models.ID]bool{"t1": true},
		Likes:     map[models.ID]int{"t1": 4},
	})
	require.Len(t, cards, 2)

	a := cards[0]
	assert.Equal(t, "Indie", a.AlbumName)
	assert.True(t, a.HasLyrics)
	assert.True(t, a.CanDownload)
	assert.Equal(t, "media/song a.mp3", a.Stream)
	assert.Equal(t, "song a.mp3", a.DownloadName)
	assert.Equal(t, "images/midcube.png", a.Cover)
	assert.True(t, a.Liked)
	assert.Equal(t, 4, a.Likes)
	assert.False(t, a.Playing)

	b := cards[1]
	assert.Equal(t, 1, b.Index)
	assert.False(t, b.CanDownload)
	assert.Equal(t, DefaultDownloadName, b.DownloadName)
	assert.Equal(t, "https://img.example/c.png", b.Cover)
	assert.True(t, b.Playing)
}

func TestDownloadName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "track.mp3"},
		{"https://cdn.example/files/My%20Song.mp3?x=1", "My Song.mp3"},
		{"media/track.ogg", "track.ogg"},
		{"https://cdn.example/", "track.mp3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DownloadName(tt.in), tt.in)
	}
}

func TestParentChoicesExcludesSubtree(t *testing.T) {
	doc := menuDoc()
	got := ParentChoices(doc.Albums, catalog.NewAlbumSorter(nil), "2")

	var ids []models.ID
	for _, o := range got {
		ids = append(ids, o.ID)
	}
	assert.ElementsMatch(t, []models.ID{"1", "3", "4"}, ids)

	all := ParentChoices(doc.Albums, catalog.NewAlbumSorter(nil), "")
	assert.Len(t, all, 5)
}

func TestSubAlbumOptions(t *testing.T) {
	doc := menuDoc()
	got := SubAlbumOptions(doc.Albums, catalog.NewAlbumSorter(nil), "1")
	require.Len(t, got, 2)
	assert.Equal(t, "Britpop", got[0].Label)
	assert.Nil(t, SubAlbumOptions(doc.Albums, catalog.NewAlbumSorter(nil), ""))
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{-time.Second, "0:00"},
		{9 * time.Second, "0:09"},
		{65 * time.Second, "1:05"},
		{61*time.Minute + 1500*time.Millisecond, "61:01"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTime(tt.in))
	}
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0.0, Progress(time.Second, 0))
	assert.Equal(t, 50.0, Progress(30*time.Second, time.Minute))
	assert.Equal(t, 100.0, Progress(2*time.Minute, time.Minute))
}

func TestSecondsToDuration(t *testing.T) {
	assert.Equal(t, time.Duration(0), SecondsToDuration(math.NaN()))
	assert.Equal(t, time.Duration(0), SecondsToDuration(math.Inf(1)))
	assert.Equal(t, 1500*time.Millisecond, SecondsToDuration(1.5))
}
