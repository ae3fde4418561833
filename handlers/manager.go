// Package handlers exposes the catalog, the listener player and the admin
// editor over HTTP, and serves the static site around them.
package handlers

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"cubecubic/admin"
	"cubecubic/catalog"
	"cubecubic/controller"
	"cubecubic/database"
	"cubecubic/lyrics"
	"cubecubic/metrics"
	"cubecubic/sentry"
)

// Options are the filesystem and mode settings the handlers need.
type Options struct {
	PublicDir   string
	IndexFile   string
	MediaPrefix string
	MediaDir    string
	PostEnabled bool
	// Private files, or directories, are never served by the static handler.
	Private []string
}

type Manager struct {
	Store      *catalog.Store
	Controller *controller.Controller
	Admin      *admin.Controller
	Gate       *admin.Gate
	DB         *database.Database
	Lyrics     *lyrics.Client
	Sorter     catalog.AlbumSorter

	options Options
	private []string
	logger  *log.Entry

	adminMutex    sync.Mutex
	adminSessions map[string]bool
}

func NewManager(store *catalog.Store, ctrl *controller.Controller, editor *admin.Controller, gate *admin.Gate, db *database.Database, sorter catalog.AlbumSorter, options Options) *Manager {
	if options.IndexFile == "" {
		options.IndexFile = "index.html"
	}
	options.MediaPrefix = strings.Trim(options.MediaPrefix, "/")

	private := make([]string, 0, len(options.Private))
	for _, p := range options.Private {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			private = append(private, abs)
		}
	}

	return &Manager{
		Store:         store,
		Controller:    ctrl,
		Admin:         editor,
		Gate:          gate,
		DB:            db,
		Lyrics:        lyrics.New(),
		Sorter:        sorter,
		options:       options,
		private:       private,
		logger:        log.WithFields(log.Fields{"module": "handlers"}),
		adminSessions: make(map[string]bool),
	}
}

// Register mounts every route on router.
func (m *Manager) Register(router *gin.Engine) {
	router.Use(RequestLogger(), sentry.GetSentryGin(), SecurityHeaders(), CORS(), Compression(m.options.MediaPrefix))

	router.GET("/healthz", m.handleHealth)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.GET("/tracks.json", m.handleCatalogFile)
	router.HEAD("/tracks.json", m.handleCatalogFile)
	if m.options.PostEnabled {
		router.POST("/tracks.json", m.requireAdmin, m.handleCatalogPost)
	}

	if m.options.MediaPrefix != "" {
		router.GET("/"+m.options.MediaPrefix+"/*filepath", m.handleMedia)
		router.HEAD("/"+m.options.MediaPrefix+"/*filepath", m.handleMedia)
	}

	router.GET("/browse", m.handleBrowsePage)
	router.POST("/browse/player", m.handleBrowsePlayer)
	router.POST("/browse/like", m.handleBrowseLike)

	router.GET("/admin", m.handleAdminPage)
	router.POST("/admin/login", m.handleLogin)
	router.POST("/admin/logout", m.handleLogout)

	api := router.Group("/api")
	{
		api.GET("/albums", m.handleAlbums)
		api.GET("/albums/menu", m.handleAlbumMenu)
		api.GET("/tracks", m.handleTracks)
		api.POST("/catalog/reload", m.handleReload)

		api.GET("/player", m.handlePlayerState)
		api.POST("/player/play", m.handlePlay)
		api.POST("/player/toggle", m.handleToggle)
		api.POST("/player/next", m.handleNext)
		api.POST("/player/prev", m.handlePrev)
		api.POST("/player/seek", m.handleSeek)
		api.POST("/player/volume", m.handleVolume)
		api.POST("/player/event", m.handleMediaEvent)
		api.PUT("/player/filter", m.handleFilter)
		api.POST("/player/albums/:id/toggle", m.handleToggleAlbumGroup)
		api.GET("/player/history", m.handleListenerHistory)

		api.GET("/likes", m.handleLikes)
		api.POST("/tracks/:id/like", m.handleLike)
		api.DELETE("/tracks/:id/like", m.handleUnlike)

		api.GET("/playlists", m.handlePlaylists)
		api.POST("/playlists", m.handleCreatePlaylist)
		api.DELETE("/playlists/:id", m.handleDeletePlaylist)
		api.POST("/playlists/:id/tracks/:trackId", m.handleAddToPlaylist)
		api.DELETE("/playlists/:id/tracks/:trackId", m.handleRemoveFromPlaylist)
	}

	editor := router.Group("/api/admin", m.requireAdmin)
	{
		editor.GET("/status", m.handleAdminStatus)
		editor.GET("/stats", m.handleStats)

		editor.POST("/albums", m.handleCreateAlbum)
		editor.PUT("/albums/:id", m.handleUpdateAlbum)
		editor.POST("/albums/:id", m.handleUpdateAlbum)
		editor.DELETE("/albums/:id", m.handleDeleteAlbum)
		editor.POST("/albums/:id/delete", m.handleDeleteAlbum)
		editor.GET("/albums/:id/parents", m.handleParentChoices)

		editor.GET("/tracks", m.handleAdminTracks)
		editor.POST("/tracks", m.handleCreateTrack)
		editor.PUT("/tracks/:id", m.handleUpdateTrack)
		editor.POST("/tracks/:id", m.handleUpdateTrack)
		editor.DELETE("/tracks/:id", m.handleDeleteTrack)
		editor.POST("/tracks/:id/delete", m.handleDeleteTrack)
		editor.GET("/tracks/:id/lyrics", m.handleFetchLyrics)

		editor.POST("/save", m.handleSave)
		editor.GET("/export", m.handleExport)

		editor.GET("/media", m.handleMediaFiles)
		editor.POST("/media/import", m.handleMediaImport)
	}

	router.NoRoute(m.handleStatic)
}
