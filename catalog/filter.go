package catalog

import (
	"strings"

	"golang.org/x/text/cases"

	"cubecubic/models"
)

// Matches reports whether query is a case-insensitive substring of the
// track's title, artist, lyrics or album name. An empty query matches.
func Matches(t models.Track, query, albumName string) bool {
	q := strings.TrimSpace(query)
	if q == "" {
		return true
	}
	fold := cases.Fold()
	q = fold.String(q)

	for _, field := range []string{t.Title, t.Artist, t.Lyrics, albumName} {
		if field != "" && strings.Contains(fold.String(field), q) {
			return true
		}
	}
	return false
}

// Filter combines every listener-side narrowing with AND.
type Filter struct {
	Query string `json:"q"`
	// AlbumID selects an album and everything beneath it.
	AlbumID models.ID `json:"album"`
	// SubAlbumID selects exactly one album and wins over AlbumID.
	SubAlbumID models.ID `json:"sub"`
	LikedOnly  bool      `json:"liked"`
	PlaylistID string    `json:"playlist"`

	Liked          map[models.ID]bool `json:"-"`
	PlaylistTracks map[models.ID]bool `json:"-"`
}

func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Query) == "" && f.AlbumID == "" && f.SubAlbumID == "" &&
		!f.LikedOnly && f.PlaylistID == ""
}

// Apply returns the matching tracks, newest first. Selecting an album id that
// does not exist yields an empty list.
func Apply(doc models.Document, f Filter) []models.Track {
	tree := NewTree(doc.Albums)

	var albumSet map[models.ID]bool
	switch {
	case f.SubAlbumID != "":
		if !tree.Has(f.SubAlbumID) {
			return []models.Track{}
		}
		albumSet = map[models.ID]bool{f.SubAlbumID: true}
	case f.AlbumID != "":
		if !tree.Has(f.AlbumID) {
			return []models.Track{}
		}
		albumSet = tree.SubtreeIDs(f.AlbumID)
	}

	out := make([]models.Track, 0, len(doc.Tracks))
	for _, t := range doc.Tracks {
		if albumSet != nil && (t.AlbumID == "" || !albumSet[t.AlbumID]) {
			continue
		}
		if f.LikedOnly && !f.Liked[t.ID] {
			continue
		}
		if f.PlaylistID != "" && !f.PlaylistTracks[t.ID] {
			continue
		}
		name := ""
		if a, ok := tree.Album(t.AlbumID); ok {
			name = a.Name
		}
		if !Matches(t, f.Query, name) {
			continue
		}
		out = append(out, t)
	}

	SortTracksNewestFirst(out)
	return out
}
