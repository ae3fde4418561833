package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cubecubic/catalog"
	"cubecubic/models"
)

type playlistRequest struct {
	Name string `json:"name" form:"name" binding:"required"`
}

// knownTrack rejects ids that are not in the catalog.
func (m *Manager) knownTrack(c *gin.Context, param string) (models.ID, bool) {
	id := models.ID(c.Param(param))
	if _, ok := m.Store.Snapshot().TrackByID(id); !ok {
		respondWithDomainError(c, catalog.ErrNotFound)
		return "", false
	}
	return id, true
}

func (m *Manager) likeResponse(c *gin.Context, id models.ID, liked bool) {
	counts, err := m.DB.LikeCounts()
	if err != nil {
		respondWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trackId": id, "liked": liked, "likes": counts[id]})
}

func (m *Manager) handleLikes(c *gin.Context) {
	liked, err := m.DB.LikedTrackIDs(m.listenerID(c))
	if err != nil {
		respondWithDomainError(c, err)
		return
	}
	counts, err := m.DB.LikeCounts()
	if err != nil {
		respondWithDomainError(c, err)
		return
	}
	ids := make([]models.ID, 0, len(liked))
	for id := range liked {
		ids = append(ids, id)
	}
	c.JSON(http.StatusOK, gin.H{"liked": ids, "counts": counts})
}

func (m *Manager) handleLike(c *gin.Context) {
	id, ok := m.knownTrack(c, "id")
	if !ok {
		return
	}
	if err := m.DB.Like(m.listenerID(c), id); err != nil {
		respondWithDomainError(c, err)
		return
	}
	m.likeResponse(c, id, true)
}

func (m *Manager) handleUnlike(c *gin.Context) {
	id := models.ID(c.Param("id"))
	if err := m.DB.Unlike(m.listenerID(c), id); err != nil {
		respondWithDomainError(c, err)
		return
	}
	m.likeResponse(c, id, false)
}

func (m *Manager) handlePlaylists(c *gin.Context) {
	playlists, err := m.DB.Playlists(m.listenerID(c))
	if err != nil {
		respondWithDomainError(c, err)
		return
	}
	if playlists == nil {
		playlists = []models.Playlist{}
	}
	c.JSON(http.StatusOK, playlists)
}

func (m *Manager) handleCreatePlaylist(c *gin.Context) {
	var req playlistRequest
	if err := c.ShouldBind(&req); err != nil {
		respondWithBadRequest(c, "name is required")
		return
	}
	p, err := m.DB.CreatePlaylist(m.listenerID(c), req.Name)
	if err != nil {
		respondWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (m *Manager) handleDeletePlaylist(c *gin.Context) {
	if err := m.DB.DeletePlaylist(m.listenerID(c), c.Param("id")); err != nil {
		respondWithDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (m *Manager) handleAddToPlaylist(c *gin.Context) {
	trackID, ok := m.knownTrack(c, "trackId")
	if !ok {
		return
	}
	m.editPlaylist(c, func(listenerID, id string) error {
		return m.DB.AddToPlaylist(listenerID, id, trackID)
	})
}

func (m *Manager) handleRemoveFromPlaylist(c *gin.Context) {
	trackID := models.ID(c.Param("trackId"))
	m.editPlaylist(c, func(listenerID, id string) error {
		return m.DB.RemoveFromPlaylist(listenerID, id, trackID)
	})
}

func (m *Manager) editPlaylist(c *gin.Context, edit func(listenerID, id string) error) {
	listenerID := m.listenerID(c)
	id := c.Param("id")
	if err := edit(listenerID, id); err != nil {
		respondWithDomainError(c, err)
		return
	}
	p, err := m.DB.Playlist(listenerID, id)
	if err != nil {
		respondWithDomainError(c, err)
		return
	}
	// a listener filtering by this playlist sees the change immediately
	s := m.Controller.GetSession(listenerID)
	if f := s.Filter(); f.PlaylistID == id {
		if err := s.ApplyFilter(f); err != nil {
			m.logger.WithError(err).Warn("Failed to refresh playlist filter")
		}
	}
	c.JSON(http.StatusOK, p)
}
