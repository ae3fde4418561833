package database

import (
	"fmt"

	"cubecubic/models"
)

// Like marks a track as liked by a listener. Liking twice is a no-op.
func (d *Database) Like(listenerID string, trackID models.ID) error {
	_, err := d.db.Exec(
		`INSERT OR IGNORE INTO track_likes (listener_id, track_id) VALUES (?, ?)`,
		listenerID, string(trackID),
	)
	if err != nil {
		return fmt.Errorf("failed to like track: %w", err)
	}
	return nil
}

func (d *Database) Unlike(listenerID string, trackID models.ID) error {
	_, err := d.db.Exec(
		`DELETE FROM track_likes WHERE listener_id = ? AND track_id = ?`,
		listenerID, string(trackID),
	)
	if err != nil {
		return fmt.Errorf("failed to unlike track: %w", err)
	}
	return nil
}

// ToggleLike flips the like and returns the new value.
func (d *Database) ToggleLike(listenerID string, trackID models.ID) (bool, error) {
	liked, err := d.LikedTrackIDs(listenerID)
	if err != nil {
		return false, err
	}
	if liked[trackID] {
		return false, d.Unlike(listenerID, trackID)
	}
	return true, d.Like(listenerID, trackID)
}

// LikedTrackIDs returns the set of tracks the listener liked.
func (d *Database) LikedTrackIDs(listenerID string) (map[models.ID]bool, error) {
	rows, err := d.db.Query(`SELECT track_id FROM track_likes WHERE listener_id = ?`, listenerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query likes: %w", err)
	}
	defer rows.Close()

	liked := make(map[models.ID]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan like row: %w", err)
		}
		liked[models.ID(id)] = true
	}
	return liked, rows.Err()
}

// LikeCounts returns how many listeners liked each track.
func (d *Database) LikeCounts() (map[models.ID]int, error) {
	rows, err := d.db.Query(`SELECT track_id, COUNT(*) FROM track_likes GROUP BY track_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query like counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ID]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan like count row: %w", err)
		}
		counts[models.ID(id)] = n
	}
	return counts, rows.Err()
}

// ForgetTrack drops likes and playlist entries for a deleted track.
func (d *Database) ForgetTrack(trackID models.ID) error {
	if _, err := d.db.Exec(`DELETE FROM track_likes WHERE track_id = ?`, string(trackID)); err != nil {
		return fmt.Errorf("failed to delete likes: %w", err)
	}
	if _, err := d.db.Exec(`DELETE FROM playlist_tracks WHERE track_id = ?`, string(trackID)); err != nil {
		return fmt.Errorf("failed to delete playlist entries: %w", err)
	}
	return nil
}
