package catalog

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"cubecubic/models"
)

// AlbumSorter orders albums by name, case-insensitively, with a configurable
// list of names pinned to the front in the given order.
type AlbumSorter struct {
	priority map[string]int
}

func NewAlbumSorter(priorityNames []string) AlbumSorter {
	p := make(map[string]int, len(priorityNames))
	for i, name := range priorityNames {
		if _, ok := p[name]; !ok {
			p[name] = i
		}
	}
	return AlbumSorter{priority: p}
}

// Sort sorts albums in place.
func (s AlbumSorter) Sort(albums []models.Album) {
	// collators keep internal buffers and must not be shared across goroutines
	coll := collate.New(language.Und, collate.IgnoreCase)

	sort.SliceStable(albums, func(i, j int) bool {
		pi, iok := s.priority[albums[i].Name]
		pj, jok := s.priority[albums[j].Name]
		switch {
		case iok && jok:
			return pi < pj
		case iok:
			return true
		case jok:
			return false
		}
		return coll.CompareString(albums[i].Name, albums[j].Name) < 0
	})
}

// Sorted returns a sorted copy.
func (s AlbumSorter) Sorted(albums []models.Album) []models.Album {
	out := make([]models.Album, len(albums))
	copy(out, albums)
	s.Sort(out)
	return out
}

// SortTracksNewestFirst orders tracks by their numeric id, largest first.
// Tracks with non-numeric ids keep their relative order at the end.
func SortTracksNewestFirst(tracks []models.Track) {
	sort.SliceStable(tracks, func(i, j int) bool {
		return tracks[i].ID.Numeric() > tracks[j].ID.Numeric()
	})
}
