package player

import (
	"time"

	"cubecubic/models"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateEnded   State = "ended"
)

type PlaybackNotificationType string

const (
	PlaybackLoading   PlaybackNotificationType = "loading"
	PlaybackStarted   PlaybackNotificationType = "started"
	PlaybackPaused    PlaybackNotificationType = "paused"
	PlaybackResumed   PlaybackNotificationType = "resumed"
	PlaybackCompleted PlaybackNotificationType = "completed"
	PlaybackStopped   PlaybackNotificationType = "stopped"
	PlaybackBlocked   PlaybackNotificationType = "blocked"
	PlaybackError     PlaybackNotificationType = "error"
	PlaybackSkipped   PlaybackNotificationType = "skipped"
)

type PlaybackNotification struct {
	Event   PlaybackNotificationType
	TrackID models.ID
	Index   int
	Message string
	Error   error
}

// PlaybackState is what the listener page paints into the header player.
type PlaybackState struct {
	State       State         `json:"state"`
	Index       int           `json:"index"`
	Track       *models.Track `json:"track"`
	Stream      string        `json:"stream"`
	Position    time.Duration `json:"-"`
	Duration    time.Duration `json:"-"`
	Volume      float64       `json:"volume"`
	QueueLength int           `json:"queueLength"`
}
