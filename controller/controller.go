package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"cubecubic/catalog"
	"cubecubic/metrics"
	"cubecubic/models"
	"cubecubic/player"
	"cubecubic/view"
)

var ErrUnknownEvent = errors.New("unknown media event")

// ListenerData is the per-listener state kept outside the catalog.
type ListenerData interface {
	LikedTrackIDs(listenerID string) (map[models.ID]bool, error)
	Playlist(listenerID, id string) (models.Playlist, error)
	RecordPlay(listenerID string, trackID models.ID, title string) error
}

// ListenerSession is one browser's player plus the filter that produced its
// track list.
type ListenerSession struct {
	ListenerID string
	Player     *player.Player
	Media      *player.RemoteMedia
	History    *History

	controller *Controller
	mutex      sync.Mutex
	filter     catalog.Filter
	accordion  view.Accordion
	lastSeen   time.Time
	toasts     []string
}

type Controller struct {
	// listener id to session
	sessions    map[string]*ListenerSession
	store       *catalog.Store
	data        ListenerData
	paths       view.Paths
	skipDelay   time.Duration
	idleTimeout time.Duration
	mutex       sync.Mutex
	now         func() time.Time
}

func NewController(store *catalog.Store, data ListenerData, paths view.Paths, skipDelay, idleTimeout time.Duration) *Controller {
	return &Controller{
		sessions:    make(map[string]*ListenerSession),
		store:       store,
		data:        data,
		paths:       paths,
		skipDelay:   skipDelay,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// GetSession returns the session for listenerID, creating it with the full
// catalog as its track list.
func (c *Controller) GetSession(listenerID string) *ListenerSession {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if session, ok := c.sessions[listenerID]; ok {
		session.touch(c.now())
		return session
	}

	media := player.NewRemoteMedia()
	session := &ListenerSession{
		ListenerID: listenerID,
		Media:      media,
		Player:     player.NewPlayer(media, c.resolveStream, c.skipDelay),
		History:    NewHistory(20),
		controller: c,
		lastSeen:   c.now(),
	}
	session.Player.SetQueue(catalog.Apply(c.store.Snapshot(), catalog.Filter{}))
	session.listenForPlaybackEvents()

	c.sessions[listenerID] = session
	metrics.SetListeners(len(c.sessions))
	return session
}

func (c *Controller) resolveStream(t models.Track) string {
	return t.ResolveStream(c.paths.MediaPrefix)
}

func (c *Controller) Paths() view.Paths {
	return c.paths
}

func (c *Controller) SessionCount() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.sessions)
}

// Refresh recomputes every session's track list, after the catalog changed.
func (c *Controller) Refresh() {
	c.mutex.Lock()
	sessions := make([]*ListenerSession, 0, len(c.sessions))
	for _, s := range c.sessions {
		sessions = append(sessions, s)
	}
	c.mutex.Unlock()

	for _, s := range sessions {
		if err := s.ApplyFilter(s.Filter()); err != nil {
			log.WithFields(log.Fields{
				"module":     "controller",
				"listenerID": s.ListenerID,
			}).WithError(err).Warn("Failed to refresh listener view")
		}
	}
}

// ReapIdle closes sessions not seen for the idle timeout until ctx is done.
func (c *Controller) ReapIdle(ctx context.Context) error {
	interval := c.idleTimeout / 4
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.closeAll()
			return nil
		case <-ticker.C:
			c.reap()
		}
	}
}

func (c *Controller) reap() int {
	cutoff := c.now().Add(-c.idleTimeout)

	c.mutex.Lock()
	var idle []*ListenerSession
	for id, s := range c.sessions {
		if s.LastSeen().Before(cutoff) {
			idle = append(idle, s)
			delete(c.sessions, id)
		}
	}
	metrics.SetListeners(len(c.sessions))
	c.mutex.Unlock()

	for _, s := range idle {
		log.WithFields(log.Fields{
			"module":     "controller",
			"listenerID": s.ListenerID,
		}).Debug("Closing idle listener session")
		s.Player.Close()
	}
	return len(idle)
}

func (c *Controller) closeAll() {
	c.mutex.Lock()
	sessions := c.sessions
	c.sessions = make(map[string]*ListenerSession)
	c.mutex.Unlock()

	for _, s := range sessions {
		s.Player.Close()
	}
}

func (s *ListenerSession) touch(now time.Time) {
	s.mutex.Lock()
	s.lastSeen = now
	s.mutex.Unlock()
}

func (s *ListenerSession) LastSeen() time.Time {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.lastSeen
}

func (s *ListenerSession) Filter() catalog.Filter {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.filter
}

// ApplyFilter narrows the session's track list. Liked and playlist sets are
// looked up here so the filter stays a plain value.
func (s *ListenerSession) ApplyFilter(f catalog.Filter) error {
	c := s.controller
	f.Liked = nil
	f.PlaylistTracks = nil

	if c.data != nil && f.LikedOnly {
		liked, err := c.data.LikedTrackIDs(s.ListenerID)
		if err != nil {
			return fmt.Errorf("failed to load likes: %w", err)
		}
		f.Liked = liked
	}
	if c.data != nil && f.PlaylistID != "" {
		p, err := c.data.Playlist(s.ListenerID, f.PlaylistID)
		if err != nil {
			return fmt.Errorf("failed to load playlist: %w", err)
		}
		f.PlaylistTracks = make(map[models.ID]bool, len(p.Tracks))
		for _, id := range p.Tracks {
			f.PlaylistTracks[id] = true
		}
	}

	tracks := catalog.Apply(c.store.Snapshot(), f)

	s.mutex.Lock()
	s.filter = f
	if f.SubAlbumID == "" && f.AlbumID != "" {
		s.accordion.Open = f.AlbumID
	}
	s.mutex.Unlock()

	s.Player.SetQueue(tracks)
	return nil
}

// ToggleAlbumGroup opens or closes one group of the album menu.
func (s *ListenerSession) ToggleAlbumGroup(id models.ID) models.ID {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.accordion.Toggle(id)
	return s.accordion.Open
}

func (s *ListenerSession) OpenAlbumGroup() models.ID {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.accordion.Open
}

// HandleMediaEvent feeds an event reported by the browser's audio element
// into the player.
func (s *ListenerSession) HandleMediaEvent(event string, position, duration time.Duration, message string) error {
	switch event {
	case "timeupdate", "loadedmetadata", "durationchange":
		s.Media.Report(position, duration)
	case "playing":
		s.Media.Report(position, duration)
		s.Player.HandlePlaying()
	case "pause":
		s.Media.Report(position, duration)
		s.Player.HandlePaused()
	case "ended":
		return s.Player.HandleEnded()
	case "blocked":
		s.Player.HandleBlocked()
	case "error":
		if message == "" {
			message = "media error"
		}
		s.Player.HandleError(errors.New(message))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
	return nil
}

func (s *ListenerSession) pushToast(msg string) {
	if msg == "" {
		return
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	// the page shows one toast at a time; keep only the recent few
	if len(s.toasts) >= 5 {
		s.toasts = s.toasts[1:]
	}
	s.toasts = append(s.toasts, msg)
}

// TakeToasts returns and clears pending toast messages.
func (s *ListenerSession) TakeToasts() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	out := s.toasts
	s.toasts = nil
	return out
}

func (s *ListenerSession) listenForPlaybackEvents() {
	logger := log.WithFields(log.Fields{
		"module":     "controller",
		"listenerID": s.ListenerID,
	})
	data := s.controller.data

	go func() {
		for event := range s.Player.Notifications {
			logger.Tracef("Playback event: %s", event.Event)
			metrics.IncPlaybackEvent(string(event.Event))

			switch event.Event {
			case player.PlaybackStarted:
				track, ok := s.trackAt(event.Index, event.TrackID)
				if !ok {
					continue
				}
				s.History.Add(HistoryEntry{TrackID: track.ID, Title: track.Title, PlayedAt: time.Now()})
				if data != nil {
					if err := data.RecordPlay(s.ListenerID, track.ID, track.Title); err != nil {
						logger.WithError(err).Warn("Failed to record play")
					}
				}
			case player.PlaybackBlocked, player.PlaybackError:
				s.pushToast(event.Message)
			case player.PlaybackLoading, player.PlaybackPaused, player.PlaybackResumed,
				player.PlaybackCompleted, player.PlaybackStopped, player.PlaybackSkipped:
			default:
				logger.Warnf("Unknown playback event: %s", event.Event)
			}
		}
	}()
}

func (s *ListenerSession) trackAt(index int, id models.ID) (models.Track, bool) {
	queue := s.Player.Queue()
	if index >= 0 && index < len(queue) && queue[index].ID == id {
		return queue[index], true
	}
	for _, t := range queue {
		if t.ID == id {
			return t, true
		}
	}
	return models.Track{}, false
}
