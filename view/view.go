// Package view computes what the listener and admin pages show. Nothing here
// touches the store or HTTP; pages turns these values into HTML.
package view

import (
	"fmt"
	"math"
	"net/url"
	"path"
	"strings"
	"time"

	"cubecubic/catalog"
	"cubecubic/models"
)

const DefaultDownloadName = "track.mp3"

// Paths carries the URL prefixes used to resolve streams and covers.
type Paths struct {
	MediaPrefix  string
	CoverPrefix  string
	DefaultCover string
}

// AlbumRow is one top-level entry of the sidebar.
type AlbumRow struct {
	ID       models.ID  `json:"id"`
	Name     string     `json:"name"`
	Count    int        `json:"count"`
	Selected bool       `json:"selected"`
	Open     bool       `json:"open"`
	Children []AlbumRow `json:"children,omitempty"`
}

// AlbumMenu builds the sidebar: top-level albums with transitive track counts,
// each listing its direct sub-albums. Only the row matching openID is open.
func AlbumMenu(doc models.Document, sorter catalog.AlbumSorter, selectedID, openID models.ID) []AlbumRow {
	tree := catalog.NewTree(doc.Albums)
	roots := sorter.Sorted(tree.Roots())

	rows := make([]AlbumRow, 0, len(roots))
	for _, a := range roots {
		row := AlbumRow{
			ID:       a.ID,
			Name:     displayName(a.Name),
			Count:    tree.TrackCount(doc.Tracks, a.ID),
			Selected: a.ID == selectedID,
			Open:     openID != "" && a.ID == openID,
		}
		for _, c := range sorter.Sorted(tree.Children(a.ID)) {
			row.Children = append(row.Children, AlbumRow{
				ID:       c.ID,
				Name:     displayName(c.Name),
				Count:    tree.TrackCount(doc.Tracks, c.ID),
				Selected: c.ID == selectedID,
			})
		}
		rows = append(rows, row)
	}
	return rows
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Unnamed"
	}
	return name
}

// Accordion tracks the single open group of the album menu.
type Accordion struct {
	Open models.ID
}

// Toggle opens id and closes any other group, or closes id if it was open.
func (a *Accordion) Toggle(id models.ID) {
	if a.Open == id {
		a.Open = ""
		return
	}
	a.Open = id
}

// TrackCard is one entry of the track list.
type TrackCard struct {
	ID           models.ID `json:"id"`
	Index        int       `json:"index"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist,omitempty"`
	AlbumName    string    `json:"albumName"`
	Cover        string    `json:"cover"`
	Stream       string    `json:"stream"`
	HasLyrics    bool      `json:"hasLyrics"`
	Lyrics       string    `json:"lyrics,omitempty"`
	CanDownload  bool      `json:"canDownload"`
	DownloadName string    `json:"downloadName,omitempty"`
	Playing      bool      `json:"playing"`
	Liked        bool      `json:"liked"`
	Likes        int       `json:"likes"`
}

// CardState is per-listener decoration for track cards.
type CardState struct {
	PlayingID models.ID
	Liked     map[models.ID]bool
	Likes     map[models.ID]int
}

func TrackCards(doc models.Document, tracks []models.Track, paths Paths, state CardState) []TrackCard {
	tree := catalog.NewTree(doc.Albums)

	cards := make([]TrackCard, 0, len(tracks))
	for i, t := range tracks {
		stream := t.ResolveStream(paths.MediaPrefix)
		albumName := ""
		if a, ok := tree.Album(t.AlbumID); ok {
			albumName = a.Name
		}
		cards = append(cards, TrackCard{
			ID:           t.ID,
			Index:        i,
			Title:        t.Title,
			Artist:       t.Artist,
			AlbumName:    albumName,
			Cover:        t.ResolveCover(paths.CoverPrefix, paths.DefaultCover),
			Stream:       stream,
			HasLyrics:    t.HasLyrics(),
			Lyrics:       t.Lyrics,
			CanDownload:  stream != "",
			DownloadName: DownloadName(stream),
			Playing:      state.PlayingID != "" && t.ID == state.PlayingID,
			Liked:        state.Liked[t.ID],
			Likes:        state.Likes[t.ID],
		})
	}
	return cards
}

// DownloadName guesses a file name from the last path segment of a stream
// URL.
func DownloadName(stream string) string {
	stream = strings.TrimSpace(stream)
	if stream == "" {
		return DefaultDownloadName
	}
	p := stream
	if u, err := url.Parse(stream); err == nil {
		p = u.Path
	}
	name := path.Base(p)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if name == "" || name == "." || name == "/" {
		return DefaultDownloadName
	}
	return name
}

// Option is one entry of an album <select>.
type Option struct {
	ID    models.ID `json:"id"`
	Label string    `json:"label"`
}

// AlbumOptions lists every album sorted by name.
func AlbumOptions(albums []models.Album, sorter catalog.AlbumSorter) []Option {
	sorted := sorter.Sorted(albums)
	out := make([]Option, 0, len(sorted))
	for _, a := range sorted {
		out = append(out, Option{ID: a.ID, Label: a.Name})
	}
	return out
}

// ParentChoices lists the albums that id may be moved under: everything
// except id itself and its descendants.
func ParentChoices(albums []models.Album, sorter catalog.AlbumSorter, id models.ID) []Option {
	tree := catalog.NewTree(albums)
	exclude := tree.SubtreeIDs(id)

	var allowed []models.Album
	for _, a := range albums {
		if !exclude[a.ID] {
			allowed = append(allowed, a)
		}
	}
	return AlbumOptions(allowed, sorter)
}

// SubAlbumOptions lists the direct children of the selected top-level album.
func SubAlbumOptions(albums []models.Album, sorter catalog.AlbumSorter, parentID models.ID) []Option {
	if parentID == "" {
		return nil
	}
	return AlbumOptions(catalog.NewTree(albums).Children(parentID), sorter)
}

// FormatTime renders a playback position as m:ss.
func FormatTime(d time.Duration) string {
	secs := d.Seconds()
	if math.IsNaN(secs) || math.IsInf(secs, 0) || secs < 0 {
		secs = 0
	}
	total := int(secs)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Progress returns position as a percentage of duration.
func Progress(position, duration time.Duration) float64 {
	if duration <= 0 || position <= 0 {
		return 0
	}
	p := float64(position) / float64(duration) * 100
	if p > 100 {
		return 100
	}
	return p
}

// SecondsToDuration converts a media element time, which may be NaN before
// metadata loads.
func SecondsToDuration(secs float64) time.Duration {
	if math.IsNaN(secs) || math.IsInf(secs, 0) || secs < 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}
