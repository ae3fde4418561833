package player

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"cubecubic/models"
)

const (
	ToastPressPlay  = "Press ▶ to start playback"
	ToastLoadFailed = "Could not load this track"
)

// StreamResolver maps a track to the URL the audio element should load.
type StreamResolver func(models.Track) string

// Player keeps the current index into the listener's filtered track list and
// drives a single Media through the playback states.
type Player struct {
	Notifications chan PlaybackNotification
	logger        *log.Entry
	media         Media
	resolve       StreamResolver
	skipDelay     time.Duration

	mutex     sync.Mutex
	queue     []models.Track
	index     int
	current   *models.Track
	state     State
	volume    float64
	stream    string
	skipTimer *time.Timer
	skipGen   uint64
	stopped   atomic.Bool
}

func NewPlayer(media Media, resolve StreamResolver, skipDelay time.Duration) *Player {
	return &Player{
		Notifications: make(chan PlaybackNotification, 100),
		logger: log.WithFields(log.Fields{
			"module": "player",
		}),
		media:     media,
		resolve:   resolve,
		skipDelay: skipDelay,
		index:     -1,
		state:     StateIdle,
		volume:    1,
	}
}

// SetQueue replaces the list the player indexes into. If the current track is
// still part of the new list the index follows it. Otherwise the index drops
// to -1 and the track keeps playing; next starts the new list from the top.
func (p *Player) SetQueue(tracks []models.Track) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.queue = make([]models.Track, len(tracks))
	copy(p.queue, tracks)

	p.index = -1
	if p.current == nil {
		return
	}
	for i, t := range p.queue {
		if t.ID == p.current.ID {
			p.index = i
			return
		}
	}
}

func (p *Player) Queue() []models.Track {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	out := make([]models.Track, len(p.queue))
	copy(out, p.queue)
	return out
}

// PlayByIndex loads and starts the track at i. An index outside the list
// stops playback.
func (p *Player) PlayByIndex(i int) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.cancelSkipLocked()
	return p.playLocked(i)
}

func (p *Player) playLocked(i int) error {
	if i < 0 || i >= len(p.queue) {
		p.stopLocked()
		return nil
	}

	p.index = i
	track := p.queue[i]
	p.current = &track
	p.stream = p.resolve(track)
	p.setState(StateLoading)
	p.notify(PlaybackNotification{Event: PlaybackLoading, TrackID: track.ID, Index: i})

	if p.stream == "" {
		p.failLocked(fmt.Errorf("track %s has no playable source", track.ID))
		return nil
	}
	if err := p.media.Load(p.stream); err != nil {
		p.failLocked(err)
		return nil
	}

	if err := p.media.Play(); err != nil {
		if errors.Is(err, ErrAutoplayBlocked) {
			p.blockedLocked()
			return nil
		}
		p.failLocked(err)
		return nil
	}

	p.setState(StatePlaying)
	p.notify(PlaybackNotification{Event: PlaybackStarted, TrackID: track.ID, Index: i})
	return nil
}

// TogglePlay pauses a playing track or resumes a paused or ended one. With
// nothing loaded it starts the first track of the list.
func (p *Player) TogglePlay() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.cancelSkipLocked()

	switch p.state {
	case StatePlaying, StateLoading:
		p.media.Pause()
		p.setState(StatePaused)
		p.notify(PlaybackNotification{Event: PlaybackPaused, TrackID: p.currentID(), Index: p.index})
		return nil
	case StatePaused, StateEnded:
		if p.state == StateEnded {
			p.media.Seek(0)
		}
		if err := p.media.Play(); err != nil {
			if errors.Is(err, ErrAutoplayBlocked) {
				p.blockedLocked()
				return nil
			}
			p.failLocked(err)
			return nil
		}
		p.setState(StatePlaying)
		p.notify(PlaybackNotification{Event: PlaybackResumed, TrackID: p.currentID(), Index: p.index})
		return nil
	}

	if len(p.queue) == 0 {
		return nil
	}
	if p.index >= 0 && p.index < len(p.queue) {
		return p.playLocked(p.index)
	}
	return p.playLocked(0)
}

// Next advances one track, wrapping to the start. A no-op on an empty list.
func (p *Player) Next() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.cancelSkipLocked()
	return p.nextLocked()
}

func (p *Player) nextLocked() error {
	if len(p.queue) == 0 {
		return nil
	}
	n := p.index + 1
	if n >= len(p.queue) {
		n = 0
	}
	return p.playLocked(n)
}

// Prev goes back one track, wrapping to the end. A no-op on an empty list.
func (p *Player) Prev() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.cancelSkipLocked()

	if len(p.queue) == 0 {
		return nil
	}
	n := p.index - 1
	if n < 0 {
		n = len(p.queue) - 1
	}
	return p.playLocked(n)
}

// HandleEnded is called when the media element finishes the track.
func (p *Player) HandleEnded() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.cancelSkipLocked()

	if p.current == nil {
		return nil
	}
	p.setState(StateEnded)
	p.notify(PlaybackNotification{Event: PlaybackCompleted, TrackID: p.currentID(), Index: p.index})
	return p.nextLocked()
}

// HandleError resets to idle and, when there is another track to go to,
// schedules a skip after the configured delay.
func (p *Player) HandleError(err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.failLocked(err)
}

// HandleBlocked is called when the media element refused to start without a
// user gesture.
func (p *Player) HandleBlocked() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.blockedLocked()
}

// HandlePlaying and HandlePaused keep the state in line with a media element
// that was started or paused outside of the player.
func (p *Player) HandlePlaying() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.current == nil || p.state == StatePlaying {
		return
	}
	p.setState(StatePlaying)
}

func (p *Player) HandlePaused() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.state == StatePlaying || p.state == StateLoading {
		p.setState(StatePaused)
	}
}

func (p *Player) Seek(position time.Duration) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.current == nil {
		return
	}
	if d := p.media.Duration(); d > 0 && position > d {
		position = d
	}
	if position < 0 {
		position = 0
	}
	p.media.Seek(position)
}

// SetVolume clamps volume to [0, 1].
func (p *Player) SetVolume(volume float64) float64 {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	switch {
	case volume < 0 || math.IsNaN(volume):
		volume = 0
	case volume > 1:
		volume = 1
	}
	p.volume = volume
	p.media.SetVolume(volume)
	return volume
}

func (p *Player) State() State {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.state
}

func (p *Player) Index() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.index
}

func (p *Player) Snapshot() PlaybackState {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	s := PlaybackState{
		State:       p.state,
		Index:       p.index,
		Volume:      p.volume,
		QueueLength: len(p.queue),
	}
	if p.current != nil {
		t := *p.current
		s.Track = &t
		s.Stream = p.stream
		s.Position = p.media.Position()
		s.Duration = p.media.Duration()
	}
	return s
}

// Close stops pending skips and closes Notifications. The player must not be
// used afterwards.
func (p *Player) Close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.stopped.Swap(true) {
		return
	}
	p.cancelSkipLocked()
	p.media.Pause()
	close(p.Notifications)
}

func (p *Player) currentID() models.ID {
	if p.current != nil {
		return p.current.ID
	}
	return ""
}

func (p *Player) stopLocked() {
	p.cancelSkipLocked()
	p.media.Pause()
	p.index = -1
	p.current = nil
	p.stream = ""
	p.setState(StateIdle)
	p.notify(PlaybackNotification{Event: PlaybackStopped, Index: -1})
}

func (p *Player) blockedLocked() {
	p.setState(StatePaused)
	p.notify(PlaybackNotification{
		Event:   PlaybackBlocked,
		TrackID: p.currentID(),
		Index:   p.index,
		Message: ToastPressPlay,
		Error:   ErrAutoplayBlocked,
	})
}

func (p *Player) failLocked(err error) {
	p.cancelSkipLocked()
	p.media.Pause()
	p.setState(StateIdle)

	p.logger.WithFields(log.Fields{
		"trackID": p.currentID(),
		"index":   p.index,
	}).WithError(err).Warn("Playback failed")

	p.notify(PlaybackNotification{
		Event:   PlaybackError,
		TrackID: p.currentID(),
		Index:   p.index,
		Message: ToastLoadFailed,
		Error:   err,
	})

	if len(p.queue) < 2 || p.stopped.Load() {
		return
	}

	gen := p.skipGen
	p.skipTimer = time.AfterFunc(p.skipDelay, func() {
		p.skipAfterError(gen)
	})
}

func (p *Player) skipAfterError(gen uint64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.stopped.Load() || gen != p.skipGen || p.state != StateIdle {
		return
	}
	p.skipTimer = nil
	p.notify(PlaybackNotification{Event: PlaybackSkipped, TrackID: p.currentID(), Index: p.index})
	if err := p.nextLocked(); err != nil {
		p.logger.WithError(err).Warn("Failed to skip after playback error")
	}
}

func (p *Player) cancelSkipLocked() {
	p.skipGen++
	if p.skipTimer != nil {
		p.skipTimer.Stop()
		p.skipTimer = nil
	}
}

func (p *Player) setState(s State) {
	if p.state == s {
		return
	}
	p.logger.WithFields(log.Fields{"from": p.state, "to": s}).Trace("State change")
	p.state = s
}

func (p *Player) notify(n PlaybackNotification) {
	if p.stopped.Load() {
		return
	}
	select {
	case p.Notifications <- n:
	default:
		p.logger.Warn("Notification channel full, dropping event")
	}
}
