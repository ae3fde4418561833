package player

import (
	"errors"
	"sync"
	"time"
)

// ErrAutoplayBlocked is returned by Media.Play when playback needs a user
// gesture first.
var ErrAutoplayBlocked = errors.New("autoplay blocked")

// Media is the single audio element a Player drives.
type Media interface {
	Load(src string) error
	Play() error
	Pause()
	Seek(position time.Duration)
	SetVolume(volume float64)
	Position() time.Duration
	Duration() time.Duration
}

// RemoteMedia mirrors the audio element living in a listener's browser. The
// browser reports progress back through Report and the Player's Handle*
// methods; the server only keeps the last known values.
type RemoteMedia struct {
	mu       sync.Mutex
	src      string
	playing  bool
	position time.Duration
	duration time.Duration
	volume   float64
}

func NewRemoteMedia() *RemoteMedia {
	return &RemoteMedia{volume: 1}
}

func (m *RemoteMedia) Load(src string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.src = src
	m.playing = false
	m.position = 0
	m.duration = 0
	return nil
}

func (m *RemoteMedia) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = true
	return nil
}

func (m *RemoteMedia) Pause() {
	m.mu.Lock()
	m.playing = false
	m.mu.Unlock()
}

func (m *RemoteMedia) Seek(position time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if position < 0 {
		position = 0
	}
	if m.duration > 0 && position > m.duration {
		position = m.duration
	}
	m.position = position
}

func (m *RemoteMedia) SetVolume(volume float64) {
	m.mu.Lock()
	m.volume = volume
	m.mu.Unlock()
}

func (m *RemoteMedia) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *RemoteMedia) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *RemoteMedia) Source() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.src
}

func (m *RemoteMedia) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// Report records the browser's current time and duration. Negative values
// are ignored.
func (m *RemoteMedia) Report(position, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if duration > 0 {
		m.duration = duration
	}
	if position >= 0 {
		m.position = position
	}
}
