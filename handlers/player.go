package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cubecubic/controller"
	"cubecubic/models"
	"cubecubic/player"
	"cubecubic/view"
)

type playerResponse struct {
	player.PlaybackState
	Position  float64   `json:"position"`
	Duration  float64   `json:"duration"`
	Elapsed   string    `json:"elapsed"`
	Total     string    `json:"total"`
	Progress  float64   `json:"progress"`
	OpenAlbum models.ID `json:"openAlbum"`
	Toasts    []string  `json:"toasts"`
}

type indexRequest struct {
	Index *int `json:"index" form:"index"`
}

type seekRequest struct {
	Position float64 `json:"position" form:"position"`
}

type volumeRequest struct {
	Volume *float64 `json:"volume" form:"volume"`
}

type mediaEventRequest struct {
	Type     string  `json:"type" binding:"required"`
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
	Error    string  `json:"error"`
}

func (m *Manager) session(c *gin.Context) *controller.ListenerSession {
	return m.Controller.GetSession(m.listenerID(c))
}

func playerSnapshot(s *controller.ListenerSession) playerResponse {
	state := s.Player.Snapshot()
	toasts := s.TakeToasts()
	if toasts == nil {
		toasts = []string{}
	}
	return playerResponse{
		PlaybackState: state,
		Position:      state.Position.Seconds(),
		Duration:      state.Duration.Seconds(),
		Elapsed:       view.FormatTime(state.Position),
		Total:         view.FormatTime(state.Duration),
		Progress:      view.Progress(state.Position, state.Duration),
		OpenAlbum:     s.OpenAlbumGroup(),
		Toasts:        toasts,
	}
}

func (m *Manager) respondWithPlayer(c *gin.Context, s *controller.ListenerSession, err error) {
	if err != nil {
		respondWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, playerSnapshot(s))
}

func (m *Manager) handlePlayerState(c *gin.Context) {
	s := m.session(c)
	c.JSON(http.StatusOK, playerSnapshot(s))
}

func (m *Manager) handlePlay(c *gin.Context) {
	var req indexRequest
	if err := c.ShouldBind(&req); err != nil || req.Index == nil {
		respondWithBadRequest(c, "index is required")
		return
	}
	s := m.session(c)
	m.respondWithPlayer(c, s, s.Player.PlayByIndex(*req.Index))
}

func (m *Manager) handleToggle(c *gin.Context) {
	s := m.session(c)
	m.respondWithPlayer(c, s, s.Player.TogglePlay())
}

func (m *Manager) handleNext(c *gin.Context) {
	s := m.session(c)
	m.respondWithPlayer(c, s, s.Player.Next())
}

func (m *Manager) handlePrev(c *gin.Context) {
	s := m.session(c)
	m.respondWithPlayer(c, s, s.Player.Prev())
}

func (m *Manager) handleSeek(c *gin.Context) {
	var req seekRequest
	if err := c.ShouldBind(&req); err != nil {
		respondWithBadRequest(c, "position must be a number of seconds")
		return
	}
	s := m.session(c)
	s.Player.Seek(view.SecondsToDuration(req.Position))
	c.JSON(http.StatusOK, playerSnapshot(s))
}

func (m *Manager) handleVolume(c *gin.Context) {
	var req volumeRequest
	if err := c.ShouldBind(&req); err != nil || req.Volume == nil {
		respondWithBadRequest(c, "volume is required")
		return
	}
	s := m.session(c)
	s.Player.SetVolume(*req.Volume)
	c.JSON(http.StatusOK, playerSnapshot(s))
}

// handleMediaEvent receives what the page's audio element reported.
func (m *Manager) handleMediaEvent(c *gin.Context) {
	var req mediaEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBadRequest(c, "type is required")
		return
	}
	s := m.session(c)
	err := s.HandleMediaEvent(req.Type,
		view.SecondsToDuration(req.Position),
		view.SecondsToDuration(req.Duration),
		req.Error)
	m.respondWithPlayer(c, s, err)
}

func (m *Manager) handleFilter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBadRequest(c, "Invalid filter: "+err.Error())
		return
	}
	s := m.session(c)
	if err := s.ApplyFilter(req.filter()); err != nil {
		respondWithDomainError(c, err)
		return
	}

	doc := m.Store.Snapshot()
	state, err := m.cardState(s.ListenerID, currentTrackID(s))
	if err != nil {
		respondWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"player": playerSnapshot(s),
		"tracks": view.TrackCards(doc, s.Player.Queue(), m.Controller.Paths(), state),
	})
}

func (m *Manager) handleToggleAlbumGroup(c *gin.Context) {
	s := m.session(c)
	open := s.ToggleAlbumGroup(models.ID(c.Param("id")))
	c.JSON(http.StatusOK, gin.H{"openAlbum": open})
}

func (m *Manager) handleListenerHistory(c *gin.Context) {
	s := m.session(c)
	c.JSON(http.StatusOK, s.History.Recent(20))
}

func currentTrackID(s *controller.ListenerSession) models.ID {
	if t := s.Player.Snapshot().Track; t != nil {
		return t.ID
	}
	return ""
}
