package controller

import (
	"sync"
	"time"

	"cubecubic/models"
)

type HistoryEntry struct {
	TrackID  models.ID `json:"trackId"`
	Title    string    `json:"title"`
	PlayedAt time.Time `json:"playedAt"`
}

// History is a fixed size ring of recently played tracks.
type History struct {
	mutex   sync.Mutex
	entries []HistoryEntry
	next    int
	full    bool
}

func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{entries: make([]HistoryEntry, size)}
}

func (h *History) Add(e HistoryEntry) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.entries[h.next] = e
	h.next = (h.next + 1) % len(h.entries)
	if h.next == 0 {
		h.full = true
	}
}

func (h *History) Len() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.lenLocked()
}

func (h *History) lenLocked() int {
	if h.full {
		return len(h.entries)
	}
	return h.next
}

// Recent returns up to n entries, oldest first.
func (h *History) Recent(n int) []HistoryEntry {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	size := h.lenLocked()
	if n > size {
		n = size
	}
	out := make([]HistoryEntry, 0, n)
	start := h.next - n
	if start < 0 {
		start += len(h.entries)
	}
	for i := 0; i < n; i++ {
		out = append(out, h.entries[(start+i)%len(h.entries)])
	}
	return out
}
