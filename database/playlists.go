package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"

	"cubecubic/models"
)

// CreatePlaylist stores an empty playlist and returns it.
func (d *Database) CreatePlaylist(listenerID, name string) (models.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Playlist{}, ErrNameRequired
	}

	p := models.Playlist{
		ID:     ulid.Make().String(),
		Name:   name,
		Tracks: []models.ID{},
	}
	_, err := d.db.Exec(
		`INSERT INTO playlists (id, listener_id, name) VALUES (?, ?, ?)`,
		p.ID, listenerID, p.Name,
	)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("failed to create playlist: %w", err)
	}
	return p, nil
}

// Playlists returns the listener's playlists, oldest first, with their tracks.
func (d *Database) Playlists(listenerID string) ([]models.Playlist, error) {
	rows, err := d.db.Query(
		`SELECT id, name FROM playlists WHERE listener_id = ? ORDER BY created_at, id`,
		listenerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}

	var out []models.Playlist
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan playlist row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range out {
		tracks, err := d.playlistTracks(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Tracks = tracks
	}
	return out, nil
}

// Playlist returns one playlist owned by the listener.
func (d *Database) Playlist(listenerID, id string) (models.Playlist, error) {
	var p models.Playlist
	err := d.db.QueryRow(
		`SELECT id, name FROM playlists WHERE id = ? AND listener_id = ?`,
		id, listenerID,
	).Scan(&p.ID, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, fmt.Errorf("failed to query playlist: %w", err)
	}

	p.Tracks, err = d.playlistTracks(p.ID)
	return p, err
}

func (d *Database) playlistTracks(id string) ([]models.ID, error) {
	rows, err := d.db.Query(
		`SELECT track_id FROM playlist_tracks WHERE playlist_id = ? ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer rows.Close()

	tracks := []models.ID{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan playlist track: %w", err)
		}
		tracks = append(tracks, models.ID(t))
	}
	return tracks, rows.Err()
}

func (d *Database) DeletePlaylist(listenerID, id string) error {
	res, err := d.db.Exec(`DELETE FROM playlists WHERE id = ? AND listener_id = ?`, id, listenerID)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddToPlaylist appends a track. Adding a track already present is a no-op.
func (d *Database) AddToPlaylist(listenerID, id string, trackID models.ID) error {
	if _, err := d.Playlist(listenerID, id); err != nil {
		return err
	}
	_, err := d.db.Exec(
		`INSERT OR IGNORE INTO playlist_tracks (playlist_id, track_id, position)
		 VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM playlist_tracks WHERE playlist_id = ?))`,
		id, string(trackID), id,
	)
	if err != nil {
		return fmt.Errorf("failed to add to playlist: %w", err)
	}
	return nil
}

func (d *Database) RemoveFromPlaylist(listenerID, id string, trackID models.ID) error {
	if _, err := d.Playlist(listenerID, id); err != nil {
		return err
	}
	_, err := d.db.Exec(
		`DELETE FROM playlist_tracks WHERE playlist_id = ? AND track_id = ?`,
		id, string(trackID),
	)
	if err != nil {
		return fmt.Errorf("failed to remove from playlist: %w", err)
	}
	return nil
}
