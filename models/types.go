package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"strings"
)

// ID is an opaque identifier. Hand-authored documents carry string ids while
// older admin saves wrote numeric timestamps, so both decode to the same
// decimal string.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes an empty id as null, which is how the document spells
// "top-level album" and "no album".
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(id))
}

// Numeric returns the id as a number, or 0 when it is not one.
func (id ID) Numeric() int64 {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func (id ID) String() string {
	return string(id)
}

type Album struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	ParentID ID     `json:"parentId"`
}

func (a Album) IsRoot() bool {
	return a.ParentID == ""
}

type Track struct {
	ID          ID     `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist,omitempty"`
	Lyrics      string `json:"lyrics,omitempty"`
	AlbumID     ID     `json:"albumId"`
	AudioURL    string `json:"audioUrl,omitempty"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	Filename    string `json:"filename,omitempty"`
	CoverURL    string `json:"coverUrl,omitempty"`
	Cover       string `json:"cover,omitempty"`
}

// ResolveStream picks the playable source: explicit audio URL, then download
// URL, then the file under the media prefix. Empty when none is set.
func (t Track) ResolveStream(mediaPrefix string) string {
	if s := strings.TrimSpace(t.AudioURL); s != "" {
		return s
	}
	if s := strings.TrimSpace(t.DownloadURL); s != "" {
		return s
	}
	if s := strings.TrimSpace(t.Filename); s != "" {
		return joinPrefix(mediaPrefix, s)
	}
	return ""
}

// ResolveCover picks the artwork: explicit cover URL, then the uploaded cover
// file, then fallback.
func (t Track) ResolveCover(coverPrefix, fallback string) string {
	if s := strings.TrimSpace(t.CoverURL); s != "" {
		return s
	}
	if s := strings.TrimSpace(t.Cover); s != "" {
		return joinPrefix(coverPrefix, s)
	}
	return fallback
}

func (t Track) HasLyrics() bool {
	return strings.TrimSpace(t.Lyrics) != ""
}

func joinPrefix(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// Document is the whole catalog as persisted in tracks.json.
type Document struct {
	Albums []Album `json:"albums"`
	Tracks []Track `json:"tracks"`
}

// Normalize replaces nil slices so the document always serializes as arrays.
func (d *Document) Normalize() {
	if d.Albums == nil {
		d.Albums = []Album{}
	}
	if d.Tracks == nil {
		d.Tracks = []Track{}
	}
}

// Clone returns a copy that shares no slices with d.
func (d Document) Clone() Document {
	out := Document{
		Albums: make([]Album, len(d.Albums)),
		Tracks: make([]Track, len(d.Tracks)),
	}
	copy(out.Albums, d.Albums)
	copy(out.Tracks, d.Tracks)
	return out
}

func (d Document) AlbumByID(id ID) (Album, bool) {
	if id == "" {
		return Album{}, false
	}
	for _, a := range d.Albums {
		if a.ID == id {
			return a, true
		}
	}
	return Album{}, false
}

func (d Document) TrackByID(id ID) (Track, bool) {
	for _, t := range d.Tracks {
		if t.ID == id {
			return t, true
		}
	}
	return Track{}, false
}

// AlbumName resolves the display name of a track's album, empty when the
// track is unassigned or the album is gone.
func (d Document) AlbumName(t Track) string {
	a, ok := d.AlbumByID(t.AlbumID)
	if !ok {
		return ""
	}
	return a.Name
}

// Playlist is a named, ordered list of track ids owned by one listener.
type Playlist struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tracks []ID   `json:"tracks"`
}
