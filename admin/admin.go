package admin

import (
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/cases"

	"cubecubic/catalog"
	"cubecubic/config"
	"cubecubic/models"
)

const DefaultTrackTitle = "Untitled"

// TrackInput carries the editable fields of a track. Nil fields are left
// unchanged on update and empty on create.
type TrackInput struct {
	Title       *string    `json:"title" form:"title"`
	Artist      *string    `json:"artist" form:"artist"`
	Lyrics      *string    `json:"lyrics" form:"lyrics"`
	AlbumID     *models.ID `json:"albumId" form:"albumId"`
	AudioURL    *string    `json:"audioUrl" form:"audioUrl"`
	DownloadURL *string    `json:"downloadUrl" form:"downloadUrl"`
	Filename    *string    `json:"filename" form:"filename"`
	CoverURL    *string    `json:"coverUrl" form:"coverUrl"`
	Cover       *string    `json:"cover" form:"cover"`
}

// Controller applies admin edits to the catalog store. Every successful edit
// marks the store dirty; nothing is written until SaveAll.
type Controller struct {
	store    *catalog.Store
	saveMode config.SaveMode
	logger   *log.Entry

	idMutex sync.Mutex
	lastID  int64
	now     func() time.Time
}

func NewController(store *catalog.Store, saveMode config.SaveMode) *Controller {
	return &Controller{
		store:    store,
		saveMode: saveMode,
		logger:   log.WithFields(log.Fields{"module": "admin"}),
		now:      time.Now,
	}
}

func (c *Controller) Store() *catalog.Store {
	return c.store
}

func (c *Controller) SaveMode() config.SaveMode {
	return c.saveMode
}

// CreateAlbum adds an album under parentID, or at the top level when parentID
// is empty.
func (c *Controller) CreateAlbum(name string, parentID models.ID) (models.Album, error) {
	name = strings.TrimSpace(name)
	var album models.Album

	err := c.store.Mutate(func(doc *models.Document) error {
		if name == "" {
			return invalid("name", catalog.ErrNameRequired)
		}
		tree := catalog.NewTree(doc.Albums)
		if parentID != "" && !tree.Has(parentID) {
			return invalid("parentId", catalog.ErrParentNotFound)
		}
		if catalog.SiblingNameConflict(doc.Albums, name, parentID, "") {
			return invalid("name", catalog.ErrSiblingConflict)
		}

		album = models.Album{ID: c.nextID(*doc), Name: name, ParentID: parentID}
		doc.Albums = append(doc.Albums, album)
		return nil
	})
	if err != nil {
		return models.Album{}, err
	}

	c.logger.WithFields(log.Fields{"albumID": album.ID, "name": name}).Info("Album created")
	return album, nil
}

// UpdateAlbum renames and re-parents an album. The new parent may not be the
// album itself or any of its descendants.
func (c *Controller) UpdateAlbum(id models.ID, name string, parentID models.ID) (models.Album, error) {
	name = strings.TrimSpace(name)
	var album models.Album

	err := c.store.Mutate(func(doc *models.Document) error {
		idx := albumIndex(doc.Albums, id)
		if idx < 0 {
			return catalog.ErrNotFound
		}
		if name == "" {
			return invalid("name", catalog.ErrNameRequired)
		}
		tree := catalog.NewTree(doc.Albums)
		if parentID != "" && parentID != id && !tree.Has(parentID) {
			return invalid("parentId", catalog.ErrParentNotFound)
		}
		if !tree.IsValidParent(id, parentID) {
			return invalid("parentId", catalog.ErrParentCycle)
		}
		if catalog.SiblingNameConflict(doc.Albums, name, parentID, id) {
			return invalid("name", catalog.ErrSiblingConflict)
		}

		doc.Albums[idx].Name = name
		doc.Albums[idx].ParentID = parentID
		album = doc.Albums[idx]
		return nil
	})
	if err != nil {
		return models.Album{}, err
	}

	c.logger.WithFields(log.Fields{"albumID": id, "name": name, "parentID": parentID}).Info("Album updated")
	return album, nil
}

// DeleteAlbum removes an album that no track references, directly or through
// a descendant. Its direct sub-albums move to the top level.
func (c *Controller) DeleteAlbum(id models.ID) error {
	var moved int
	err := c.store.Mutate(func(doc *models.Document) error {
		idx := albumIndex(doc.Albums, id)
		if idx < 0 {
			return catalog.ErrNotFound
		}
		if n := catalog.NewTree(doc.Albums).TrackCount(doc.Tracks, id); n > 0 {
			return invalid("album", catalog.ErrAlbumInUse)
		}

		albums := make([]models.Album, 0, len(doc.Albums)-1)
		for _, a := range doc.Albums {
			if a.ID == id {
				continue
			}
			if a.ParentID == id {
				a.ParentID = ""
				moved++
			}
			albums = append(albums, a)
		}
		doc.Albums = albums
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.WithFields(log.Fields{"albumID": id, "reparented": moved}).Info("Album deleted")
	return nil
}

// CreateTrack adds a track. A blank title becomes "Untitled".
func (c *Controller) CreateTrack(in TrackInput) (models.Track, error) {
	var track models.Track
	err := c.store.Mutate(func(doc *models.Document) error {
		track = models.Track{ID: c.nextID(*doc)}
		in.apply(&track)
		if strings.TrimSpace(track.Title) == "" {
			track.Title = DefaultTrackTitle
		}
		doc.Tracks = append(doc.Tracks, track)
		return nil
	})
	if err != nil {
		return models.Track{}, err
	}

	c.logger.WithFields(log.Fields{"trackID": track.ID, "title": track.Title}).Info("Track created")
	return track, nil
}

// UpdateTrack applies the non-nil fields of in. The title may not be blanked.
func (c *Controller) UpdateTrack(id models.ID, in TrackInput) (models.Track, error) {
	var track models.Track
	err := c.store.Mutate(func(doc *models.Document) error {
		idx := trackIndex(doc.Tracks, id)
		if idx < 0 {
			return catalog.ErrNotFound
		}
		if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
			return invalid("title", catalog.ErrTitleRequired)
		}
		in.apply(&doc.Tracks[idx])
		track = doc.Tracks[idx]
		return nil
	})
	if err != nil {
		return models.Track{}, err
	}

	c.logger.WithFields(log.Fields{"trackID": id}).Info("Track updated")
	return track, nil
}

func (c *Controller) DeleteTrack(id models.ID) error {
	err := c.store.Mutate(func(doc *models.Document) error {
		idx := trackIndex(doc.Tracks, id)
		if idx < 0 {
			return catalog.ErrNotFound
		}
		doc.Tracks = append(doc.Tracks[:idx], doc.Tracks[idx+1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.WithFields(log.Fields{"trackID": id}).Info("Track deleted")
	return nil
}

// ParentChoices returns the albums id may be moved under.
func (c *Controller) ParentChoices(id models.ID) ([]models.Album, error) {
	doc := c.store.Snapshot()
	if _, ok := doc.AlbumByID(id); !ok {
		return nil, catalog.ErrNotFound
	}
	exclude := catalog.NewTree(doc.Albums).SubtreeIDs(id)

	out := []models.Album{}
	for _, a := range doc.Albums {
		if !exclude[a.ID] {
			out = append(out, a)
		}
	}
	return out, nil
}

// SearchTracks filters the admin track list by title, artist or album name.
func (c *Controller) SearchTracks(query string) []models.Track {
	doc := c.store.Snapshot()
	q := strings.TrimSpace(query)
	if q == "" {
		return doc.Tracks
	}

	fold := cases.Fold()
	q = fold.String(q)
	out := []models.Track{}
	for _, t := range doc.Tracks {
		for _, field := range []string{t.Title, t.Artist, doc.AlbumName(t)} {
			if strings.Contains(fold.String(field), q) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func (in TrackInput) apply(t *models.Track) {
	setTrimmed := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setTrimmed(&t.Title, in.Title)
	setTrimmed(&t.Artist, in.Artist)
	if in.Lyrics != nil {
		t.Lyrics = *in.Lyrics
	}
	if in.AlbumID != nil {
		t.AlbumID = models.ID(strings.TrimSpace(string(*in.AlbumID)))
	}
	setTrimmed(&t.AudioURL, in.AudioURL)
	setTrimmed(&t.DownloadURL, in.DownloadURL)
	setTrimmed(&t.Filename, in.Filename)
	setTrimmed(&t.CoverURL, in.CoverURL)
	setTrimmed(&t.Cover, in.Cover)
}

// nextID returns the current time in milliseconds, bumped until it collides
// with no existing album or track id.
func (c *Controller) nextID(doc models.Document) models.ID {
	c.idMutex.Lock()
	defer c.idMutex.Unlock()

	used := make(map[models.ID]bool, len(doc.Albums)+len(doc.Tracks))
	for _, a := range doc.Albums {
		used[a.ID] = true
	}
	for _, t := range doc.Tracks {
		used[t.ID] = true
	}

	n := c.now().UnixMilli()
	if n <= c.lastID {
		n = c.lastID + 1
	}
	for used[models.ID(strconv.FormatInt(n, 10))] {
		n++
	}
	c.lastID = n
	return models.ID(strconv.FormatInt(n, 10))
}

func albumIndex(albums []models.Album, id models.ID) int {
	for i, a := range albums {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func trackIndex(tracks []models.Track, id models.ID) int {
	for i, t := range tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func invalid(field string, err error) error {
	return &catalog.ValidationError{Field: field, Err: err}
}
