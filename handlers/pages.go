package handlers

import (
	"bytes"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"cubecubic/catalog"
	"cubecubic/controller"
	"cubecubic/models"
	"cubecubic/pages"
	"cubecubic/view"
)

const browsePage = "/browse"

type browseAction struct {
	Action string  `form:"action"`
	Index  int     `form:"index"`
	Volume float64 `form:"volume"`
}

func paint(c *gin.Context, status int, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		respondWithError(c, http.StatusInternalServerError, "Failed to render page", "RENDER_ERROR")
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// handleBrowsePage paints the listener page. The query string is the filter;
// the listener's player queue follows it so card indexes line up.
func (m *Manager) handleBrowsePage(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		req = filterRequest{}
	}
	s := m.session(c)

	page := pages.BrowsePage{
		Query:         req.Query,
		SelectedAlbum: req.AlbumID,
		SelectedSub:   req.SubAlbumID,
		LikedOnly:     req.LikedOnly,
		PlaylistID:    req.PlaylistID,
	}

	if !m.Store.Loaded() {
		page.LoadError = "Could not load tracks"
		page.Player = playerBar(s, m.Controller.Paths())
		page.Toasts = s.TakeToasts()
		paint(c, http.StatusServiceUnavailable, func(b *bytes.Buffer) error { return pages.PaintBrowse(b, page) })
		return
	}

	if err := s.ApplyFilter(req.filter()); err != nil {
		m.logger.WithError(err).Warn("Failed to apply listener filter")
		page.Toasts = append(page.Toasts, "Could not apply this filter")
	}
	if open := models.ID(c.Query("open")); open != "" && open != s.OpenAlbumGroup() {
		s.ToggleAlbumGroup(open)
	}

	doc := m.Store.Snapshot()
	state, err := m.cardState(s.ListenerID, currentTrackID(s))
	if err != nil {
		m.logger.WithError(err).Warn("Failed to load likes for page")
	}

	page.OpenAlbum = s.OpenAlbumGroup()
	page.Menu = view.AlbumMenu(doc, m.Sorter, req.AlbumID, page.OpenAlbum)
	page.SubAlbums = view.SubAlbumOptions(doc.Albums, m.Sorter, req.AlbumID)
	page.Cards = view.TrackCards(doc, s.Player.Queue(), m.Controller.Paths(), state)
	page.Player = playerBar(s, m.Controller.Paths())
	page.Toasts = append(page.Toasts, s.TakeToasts()...)
	if playlists, err := m.DB.Playlists(s.ListenerID); err == nil {
		page.Playlists = playlists
	} else {
		m.logger.WithError(err).Warn("Failed to load playlists for page")
	}

	paint(c, http.StatusOK, func(b *bytes.Buffer) error { return pages.PaintBrowse(b, page) })
}

func playerBar(s *controller.ListenerSession, paths view.Paths) pages.PlayerBar {
	state := s.Player.Snapshot()
	bar := pages.PlayerBar{
		State:    string(state.State),
		Stream:   state.Stream,
		Elapsed:  view.FormatTime(state.Position),
		Total:    view.FormatTime(state.Duration),
		Progress: view.Progress(state.Position, state.Duration),
		Volume:   int(math.Round(state.Volume * 100)),
		Index:    state.Index,
		Cover:    paths.DefaultCover,
	}
	if t := state.Track; t != nil {
		bar.Title = t.Title
		bar.Artist = t.Artist
		bar.Cover = t.ResolveCover(paths.CoverPrefix, paths.DefaultCover)
	}
	return bar
}

// backToBrowse redirects to the page the form was posted from, keeping its
// filter.
func backToBrowse(c *gin.Context) {
	target := browsePage
	if ref, err := url.Parse(c.Request.Referer()); err == nil && ref.Path == browsePage {
		target = ref.RequestURI()
	}
	c.Redirect(http.StatusSeeOther, target)
}

func (m *Manager) handleBrowsePlayer(c *gin.Context) {
	var req browseAction
	if err := c.ShouldBind(&req); err != nil {
		respondWithBadRequest(c, "Invalid player action")
		return
	}
	s := m.session(c)

	var err error
	switch req.Action {
	case "play":
		err = s.Player.PlayByIndex(req.Index)
	case "toggle":
		err = s.Player.TogglePlay()
	case "next":
		err = s.Player.Next()
	case "prev":
		err = s.Player.Prev()
	case "volume":
		s.Player.SetVolume(req.Volume / 100)
	default:
		respondWithBadRequest(c, "Unknown player action")
		return
	}
	if err != nil {
		m.logger.WithError(err).WithField("action", req.Action).Warn("Player action failed")
	}
	backToBrowse(c)
}

func (m *Manager) handleBrowseLike(c *gin.Context) {
	id := models.ID(strings.TrimSpace(c.PostForm("track")))
	if _, ok := m.Store.Snapshot().TrackByID(id); !ok {
		respondWithDomainError(c, catalog.ErrNotFound)
		return
	}
	if _, err := m.DB.ToggleLike(m.listenerID(c), id); err != nil {
		respondWithDomainError(c, err)
		return
	}
	backToBrowse(c)
}

// handleAdminPage paints the login form or, once logged in, the editor.
func (m *Manager) handleAdminPage(c *gin.Context) {
	m.paintAdmin(c, http.StatusOK, "")
}

func (m *Manager) paintAdmin(c *gin.Context, status int, loginError string) {
	page := pages.AdminPage{LoginError: loginError}
	if loginError != "" || !m.isAdmin(c) {
		paint(c, status, func(b *bytes.Buffer) error { return pages.PaintAdmin(b, page) })
		return
	}

	doc := m.Store.Snapshot()
	tree := catalog.NewTree(doc.Albums)

	page.LoggedIn = true
	page.Message = c.Query("msg")
	page.Error = c.Query("err")
	if err := m.Store.LoadErr(); err != nil && page.Error == "" {
		page.Error = err.Error()
	}
	page.Dirty = m.Store.Dirty()
	page.SaveMode = string(m.Admin.SaveMode())
	page.Query = c.Query("q")
	page.AlbumOptions = view.AlbumOptions(doc.Albums, m.Sorter)

	for _, a := range m.Sorter.Sorted(doc.Albums) {
		row := pages.AdminAlbum{
			ID:            a.ID,
			Name:          a.Name,
			ParentID:      a.ParentID,
			Count:         tree.TrackCount(doc.Tracks, a.ID),
			ParentChoices: view.ParentChoices(doc.Albums, m.Sorter, a.ID),
		}
		if p, ok := tree.Album(a.ParentID); ok {
			row.ParentName = p.Name
		}
		page.Albums = append(page.Albums, row)
	}

	tracks := m.Admin.SearchTracks(page.Query)
	catalog.SortTracksNewestFirst(tracks)
	for _, t := range tracks {
		page.Tracks = append(page.Tracks, pages.AdminTrack{Track: t, AlbumName: doc.AlbumName(t)})
	}

	paint(c, status, func(b *bytes.Buffer) error { return pages.PaintAdmin(b, page) })
}
