package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cubecubic/catalog"
	"cubecubic/metrics"
	"cubecubic/models"
	"cubecubic/view"
)

type albumResponse struct {
	ID         models.ID `json:"id"`
	Name       string    `json:"name"`
	ParentID   models.ID `json:"parentId"`
	TrackCount int       `json:"trackCount"`
}

// filterRequest is the listener's filter as sent by the page, either as a
// query string or a JSON body.
type filterRequest struct {
	Query      string    `json:"query" form:"q"`
	AlbumID    models.ID `json:"albumId" form:"album"`
	SubAlbumID models.ID `json:"subAlbumId" form:"sub"`
	LikedOnly  bool      `json:"likedOnly" form:"liked"`
	PlaylistID string    `json:"playlistId" form:"playlist"`
}

func (r filterRequest) filter() catalog.Filter {
	return catalog.Filter{
		Query:      r.Query,
		AlbumID:    r.AlbumID,
		SubAlbumID: r.SubAlbumID,
		LikedOnly:  r.LikedOnly,
		PlaylistID: r.PlaylistID,
	}
}

func (m *Manager) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"loaded":    m.Store.Loaded(),
		"dirty":     m.Store.Dirty(),
		"listeners": m.Controller.SessionCount(),
	})
}

// catalogReady answers 503 while the document has never loaded.
func (m *Manager) catalogReady(c *gin.Context) bool {
	if m.Store.Loaded() {
		return true
	}
	err := m.Store.LoadErr()
	if err == nil {
		err = &catalog.LoadError{Path: m.Store.Path(), Err: catalog.ErrNotFound}
	}
	respondWithDomainError(c, err)
	return false
}

func (m *Manager) handleAlbums(c *gin.Context) {
	if !m.catalogReady(c) {
		return
	}
	doc := m.Store.Snapshot()
	tree := catalog.NewTree(doc.Albums)

	albums := m.Sorter.Sorted(doc.Albums)
	out := make([]albumResponse, 0, len(albums))
	for _, a := range albums {
		out = append(out, albumResponse{
			ID:         a.ID,
			Name:       a.Name,
			ParentID:   a.ParentID,
			TrackCount: tree.TrackCount(doc.Tracks, a.ID),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (m *Manager) handleAlbumMenu(c *gin.Context) {
	if !m.catalogReady(c) {
		return
	}
	doc := m.Store.Snapshot()
	selected := models.ID(c.Query("selected"))
	open := models.ID(c.Query("open"))
	c.JSON(http.StatusOK, gin.H{
		"albums":    view.AlbumMenu(doc, m.Sorter, selected, open),
		"subAlbums": view.SubAlbumOptions(doc.Albums, m.Sorter, selected),
	})
}

// handleTracks lists matching tracks without touching the listener's player.
func (m *Manager) handleTracks(c *gin.Context) {
	if !m.catalogReady(c) {
		return
	}
	var req filterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondWithBadRequest(c, "Invalid filter: "+err.Error())
		return
	}
	listenerID := m.listenerID(c)
	f := req.filter()

	if f.LikedOnly {
		liked, err := m.DB.LikedTrackIDs(listenerID)
		if err != nil {
			respondWithDomainError(c, err)
			return
		}
		f.Liked = liked
	}
	if f.PlaylistID != "" {
		p, err := m.DB.Playlist(listenerID, f.PlaylistID)
		if err != nil {
			respondWithDomainError(c, err)
			return
		}
		f.PlaylistTracks = make(map[models.ID]bool, len(p.Tracks))
		for _, id := range p.Tracks {
			f.PlaylistTracks[id] = true
		}
	}

	doc := m.Store.Snapshot()
	state, err := m.cardState(listenerID, "")
	if err != nil {
		respondWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view.TrackCards(doc, catalog.Apply(doc, f), m.Controller.Paths(), state))
}

func (m *Manager) cardState(listenerID string, playing models.ID) (view.CardState, error) {
	liked, err := m.DB.LikedTrackIDs(listenerID)
	if err != nil {
		return view.CardState{}, err
	}
	counts, err := m.DB.LikeCounts()
	if err != nil {
		return view.CardState{}, err
	}
	return view.CardState{PlayingID: playing, Liked: liked, Likes: counts}, nil
}

// handleReload re-reads the catalog file. Unsaved edits block it.
func (m *Manager) handleReload(c *gin.Context) {
	err := m.Admin.Reload()
	if err != nil {
		metrics.IncCatalogLoad("error")
		respondWithDomainError(c, err)
		return
	}
	metrics.IncCatalogLoad("ok")
	m.afterCatalogChange()
	doc := m.Store.Snapshot()
	c.JSON(http.StatusOK, gin.H{"albums": len(doc.Albums), "tracks": len(doc.Tracks)})
}

// afterCatalogChange updates gauges and every listener's track list.
func (m *Manager) afterCatalogChange() {
	doc := m.Store.Snapshot()
	metrics.SetCatalogSize(len(doc.Albums), len(doc.Tracks))
	metrics.SetDirty(m.Store.Dirty())
	m.Controller.Refresh()
}
