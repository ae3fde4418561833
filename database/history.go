package database

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"cubecubic/models"
)

type MostPlayedRecord struct {
	TrackID    models.ID `json:"trackId"`
	Title      string    `json:"title"`
	PlayCount  int       `json:"playCount"`
	LastPlayed time.Time `json:"lastPlayed"`
}

// playedAtLayout is fixed width so MAX and ORDER BY on the text column follow
// time order.
const playedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RecordPlay inserts a play record.
func (d *Database) RecordPlay(listenerID string, trackID models.ID, title string) error {
	return d.recordPlayAt(listenerID, trackID, title, time.Now())
}

func (d *Database) recordPlayAt(listenerID string, trackID models.ID, title string, at time.Time) error {
	_, err := d.db.Exec(
		`INSERT INTO play_history (listener_id, track_id, title, played_at) VALUES (?, ?, ?, ?)`,
		listenerID, string(trackID), title, at.UTC().Format(playedAtLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}
	return nil
}

// MostPlayed returns the most played tracks across all listeners.
func (d *Database) MostPlayed(limit int) ([]MostPlayedRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := d.db.Query(
		`SELECT track_id, MAX(title), COUNT(*) AS play_count, MAX(played_at) AS last_played
		 FROM play_history
		 GROUP BY track_id
		 ORDER BY play_count DESC, last_played DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query most played: %w", err)
	}
	defer rows.Close()

	var records []MostPlayedRecord
	for rows.Next() {
		var r MostPlayedRecord
		var id, lastPlayedStr string
		if err := rows.Scan(&id, &r.Title, &r.PlayCount, &lastPlayedStr); err != nil {
			return nil, fmt.Errorf("failed to scan most played row: %w", err)
		}
		r.TrackID = models.ID(id)

		lastPlayed, err := time.Parse(playedAtLayout, lastPlayedStr)
		if err != nil {
			log.Warnf("failed to parse last_played timestamp '%s'", lastPlayedStr)
			lastPlayed = time.Now()
		}
		r.LastPlayed = lastPlayed
		records = append(records, r)
	}
	return records, rows.Err()
}
