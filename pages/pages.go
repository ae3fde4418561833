package pages

import (
	"html/template"
	"io"
	"math"
	"strconv"

	"cubecubic/models"
	"cubecubic/view"
)

// PlayerBar is the header player.
type PlayerBar struct {
	Title    string
	Artist   string
	Cover    string
	Stream   string
	State    string
	Elapsed  string
	Total    string
	Progress float64
	Volume   int
	Index    int
}

func (p PlayerBar) Playing() bool {
	return p.State == "playing" || p.State == "loading"
}

type BrowsePage struct {
	Query         string
	Menu          []view.AlbumRow
	SelectedAlbum models.ID
	SelectedSub   models.ID
	OpenAlbum     models.ID
	SubAlbums     []view.Option
	LikedOnly     bool
	PlaylistID    string
	Playlists     []models.Playlist
	Cards         []view.TrackCard
	Player        PlayerBar
	Toasts        []string
	LoadError     string
}

type AdminAlbum struct {
	ID            models.ID
	Name          string
	ParentID      models.ID
	ParentName    string
	Count         int
	ParentChoices []view.Option
}

type AdminTrack struct {
	Track     models.Track
	AlbumName string
}

type AdminPage struct {
	LoggedIn     bool
	LoginError   string
	Message      string
	Error        string
	Dirty        bool
	SaveMode     string
	Query        string
	Albums       []AdminAlbum
	AlbumOptions []view.Option
	Tracks       []AdminTrack
}

var funcs = template.FuncMap{
	"pct": formatPct,
}

var (
	browseTemplate = template.Must(template.New("browse").Funcs(funcs).Parse(Browse))
	adminTemplate  = template.Must(template.New("admin").Funcs(funcs).Parse(Admin))
)

func PaintBrowse(w io.Writer, p BrowsePage) error {
	return browseTemplate.Execute(w, p)
}

func PaintAdmin(w io.Writer, p AdminPage) error {
	return adminTemplate.Execute(w, p)
}

func formatPct(f float64) string {
	if f < 0 || math.IsNaN(f) {
		f = 0
	}
	if f > 100 {
		f = 100
	}
	return strconv.FormatFloat(f, 'f', 1, 64) + "%"
}
