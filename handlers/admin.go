package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"cubecubic/admin"
	"cubecubic/catalog"
	"cubecubic/config"
	"cubecubic/media"
	"cubecubic/metrics"
	"cubecubic/models"
)

const (
	adminCookie         = "cc_admin"
	adminPasswordHeader = "X-Admin-Password"
	adminPage           = "/admin"
)

type loginRequest struct {
	Password string `json:"password" form:"password"`
}

type albumRequest struct {
	Name     string    `json:"name" form:"name"`
	ParentID models.ID `json:"parentId" form:"parentId"`
}

type adminTrackResponse struct {
	models.Track
	AlbumName string `json:"albumName"`
}

type importRequest struct {
	Filename string    `json:"filename" form:"filename" binding:"required"`
	AlbumID  models.ID `json:"albumId" form:"albumId"`
}

func (m *Manager) isAdmin(c *gin.Context) bool {
	token, err := c.Cookie(adminCookie)
	if err != nil || token == "" {
		return false
	}
	m.adminMutex.Lock()
	defer m.adminMutex.Unlock()
	return m.adminSessions[token]
}

// requireAdmin lets through requests carrying the admin cookie or the
// password header. Wrong header passwords count against the login limiter.
func (m *Manager) requireAdmin(c *gin.Context) {
	if m.isAdmin(c) {
		c.Next()
		return
	}
	if password := c.GetHeader(adminPasswordHeader); password != "" {
		if m.Gate.Locked(c.ClientIP()) {
			respondWithError(c, http.StatusTooManyRequests, "Too many attempts", "RATE_LIMITED")
			return
		}
		if m.Gate.Check(password) {
			c.Next()
			return
		}
		m.Gate.AllowAttempt(c.ClientIP())
	}
	if fromForm(c) {
		c.Redirect(http.StatusSeeOther, adminPage)
		c.Abort()
		return
	}
	respondWithError(c, http.StatusUnauthorized, "Admin login required", "UNAUTHORIZED")
}

func (m *Manager) handleLogin(c *gin.Context) {
	var req loginRequest
	_ = c.ShouldBind(&req)

	if m.Gate.Locked(c.ClientIP()) {
		if fromForm(c) {
			m.paintAdmin(c, http.StatusTooManyRequests, "Too many attempts, try again in a minute")
			return
		}
		respondWithError(c, http.StatusTooManyRequests, "Too many attempts", "RATE_LIMITED")
		return
	}
	if !m.Gate.Check(req.Password) {
		m.Gate.AllowAttempt(c.ClientIP())
		m.logger.WithField("ip", c.ClientIP()).Warn("Admin login failed")
		if fromForm(c) {
			m.paintAdmin(c, http.StatusUnauthorized, "Wrong password")
			return
		}
		respondWithError(c, http.StatusUnauthorized, "Wrong password", "UNAUTHORIZED")
		return
	}

	token := uuid.NewString()
	m.adminMutex.Lock()
	m.adminSessions[token] = true
	m.adminMutex.Unlock()

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(adminCookie, token, 0, "/", "", false, true)
	m.logger.WithField("ip", c.ClientIP()).Info("Admin logged in")
	finish(c, adminPage, http.StatusOK, gin.H{"ok": true}, "", nil)
}

func (m *Manager) handleLogout(c *gin.Context) {
	if token, err := c.Cookie(adminCookie); err == nil {
		m.adminMutex.Lock()
		delete(m.adminSessions, token)
		m.adminMutex.Unlock()
	}
	c.SetCookie(adminCookie, "", -1, "/", "", false, true)
	finish(c, adminPage, http.StatusOK, gin.H{"ok": true}, "", nil)
}

// recordEdit counts the edit and, when it succeeded, pushes the change to
// gauges and listeners.
func (m *Manager) recordEdit(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.IncAdminEdit(op, result)
	if err == nil {
		m.afterCatalogChange()
	}
}

func (m *Manager) handleAdminStatus(c *gin.Context) {
	doc := m.Store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"dirty":    m.Store.Dirty(),
		"loaded":   m.Store.Loaded(),
		"saveMode": m.Admin.SaveMode(),
		"albums":   len(doc.Albums),
		"tracks":   len(doc.Tracks),
	})
}

func (m *Manager) handleStats(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	mostPlayed, err := m.DB.MostPlayed(limit)
	if err != nil {
		respondWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mostPlayed": mostPlayed,
		"listeners":  m.Controller.SessionCount(),
	})
}

func (m *Manager) handleCreateAlbum(c *gin.Context) {
	var req albumRequest
	if err := c.ShouldBind(&req); err != nil {
		respondWithBadRequest(c, "Invalid album")
		return
	}
	album, err := m.Admin.CreateAlbum(req.Name, req.ParentID)
	m.recordEdit("create_album", err)
	finish(c, adminPage, http.StatusCreated, album, "Album created", err)
}

func (m *Manager) handleUpdateAlbum(c *gin.Context) {
	var req albumRequest
	if err := c.ShouldBind(&req); err != nil {
		respondWithBadRequest(c, "Invalid album")
		return
	}
	album, err := m.Admin.UpdateAlbum(models.ID(c.Param("id")), req.Name, req.ParentID)
	m.recordEdit("update_album", err)
	finish(c, adminPage, http.StatusOK, album, "Album updated", err)
}

func (m *Manager) handleDeleteAlbum(c *gin.Context) {
	err := m.Admin.DeleteAlbum(models.ID(c.Param("id")))
	m.recordEdit("delete_album", err)
	finish(c, adminPage, http.StatusNoContent, nil, "Album deleted", err)
}

func (m *Manager) handleParentChoices(c *gin.Context) {
	albums, err := m.Admin.ParentChoices(models.ID(c.Param("id")))
	if err != nil {
		respondWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, m.Sorter.Sorted(albums))
}

func (m *Manager) handleAdminTracks(c *gin.Context) {
	doc := m.Store.Snapshot()
	tracks := m.Admin.SearchTracks(c.Query("q"))
	out := make([]adminTrackResponse, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, adminTrackResponse{Track: t, AlbumName: doc.AlbumName(t)})
	}
	c.JSON(http.StatusOK, out)
}

func (m *Manager) handleCreateTrack(c *gin.Context) {
	var in admin.TrackInput
	if err := c.ShouldBind(&in); err != nil {
		respondWithBadRequest(c, "Invalid track")
		return
	}
	track, err := m.Admin.CreateTrack(in)
	m.recordEdit("create_track", err)
	finish(c, adminPage, http.StatusCreated, track, "Track created", err)
}

func (m *Manager) handleUpdateTrack(c *gin.Context) {
	var in admin.TrackInput
	if err := c.ShouldBind(&in); err != nil {
		respondWithBadRequest(c, "Invalid track")
		return
	}
	track, err := m.Admin.UpdateTrack(models.ID(c.Param("id")), in)
	m.recordEdit("update_track", err)
	finish(c, adminPage, http.StatusOK, track, "Track updated", err)
}

func (m *Manager) handleDeleteTrack(c *gin.Context) {
	id := models.ID(c.Param("id"))
	err := m.Admin.DeleteTrack(id)
	m.recordEdit("delete_track", err)
	if err == nil {
		if err := m.DB.ForgetTrack(id); err != nil {
			m.logger.WithError(err).WithField("trackID", id).Warn("Failed to forget likes of deleted track")
		}
	}
	finish(c, adminPage, http.StatusNoContent, nil, "Track deleted", err)
}

// handleFetchLyrics suggests lyrics for a track from lrclib. Nothing is
// stored until the admin saves the track.
func (m *Manager) handleFetchLyrics(c *gin.Context) {
	track, ok := m.Store.Snapshot().TrackByID(models.ID(c.Param("id")))
	if !ok {
		respondWithDomainError(c, catalog.ErrNotFound)
		return
	}
	text, err := m.Lyrics.Search(c.Request.Context(), track.Title, track.Artist)
	if err != nil {
		respondWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trackId": track.ID, "lyrics": text})
}

func attachment(c *gin.Context, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="tracks.json"`)
	c.Header("Cache-Control", noStore)
	c.Data(http.StatusOK, "application/json", data)
}

// handleSave runs saveAll. In download mode the document comes back as an
// attachment; in post mode it has been written to disk.
func (m *Manager) handleSave(c *gin.Context) {
	data, err := m.Admin.SaveAll(c.Request.Context())
	metrics.SetDirty(m.Store.Dirty())
	if err != nil {
		finish(c, adminPage, 0, nil, "", err)
		return
	}
	if m.Admin.SaveMode() == config.SaveDownload {
		attachment(c, data)
		return
	}
	finish(c, adminPage, http.StatusOK, gin.H{"saved": true, "bytes": len(data)}, "Saved", nil)
}

func (m *Manager) handleExport(c *gin.Context) {
	data, err := m.Admin.Export()
	if err != nil {
		respondWithDomainError(c, err)
		return
	}
	metrics.SetDirty(m.Store.Dirty())
	attachment(c, data)
}

func (m *Manager) scanMedia(c *gin.Context) ([]media.File, error) {
	files, err := media.Scan(c.Request.Context(), m.options.MediaDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []media.File{}, nil
	}
	if err != nil {
		return nil, err
	}
	media.MarkUsed(files, m.Store.Snapshot().Tracks)
	return files, nil
}

func (m *Manager) handleMediaFiles(c *gin.Context) {
	files, err := m.scanMedia(c)
	if err != nil {
		respondWithDomainError(c, err)
		return
	}
	if files == nil {
		files = []media.File{}
	}
	c.JSON(http.StatusOK, files)
}

// handleMediaImport creates a track for a file in the media directory,
// prefilled from its tags.
func (m *Manager) handleMediaImport(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBind(&req); err != nil {
		respondWithBadRequest(c, "filename is required")
		return
	}
	files, err := m.scanMedia(c)
	if err != nil {
		respondWithDomainError(c, err)
		return
	}

	var found *media.File
	for i := range files {
		if files[i].Filename == req.Filename {
			found = &files[i]
			break
		}
	}
	if found == nil {
		finish(c, adminPage, 0, nil, "", catalog.ErrNotFound)
		return
	}

	title := found.TitleFor()
	in := admin.TrackInput{
		Title:    &title,
		Artist:   &found.Artist,
		Lyrics:   &found.Lyrics,
		Filename: &found.Filename,
	}
	if req.AlbumID != "" {
		in.AlbumID = &req.AlbumID
	}
	track, err := m.Admin.CreateTrack(in)
	m.recordEdit("import_track", err)
	if err == nil {
		m.logger.WithFields(log.Fields{"trackID": track.ID, "filename": found.Filename}).Info("Imported media file")
	}
	finish(c, adminPage, http.StatusCreated, track, "Track imported", err)
}
