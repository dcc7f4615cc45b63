package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"mixvault/model"
)

// PlaylistEntry pairs a mix with its position inside a playlist.
type PlaylistEntry struct {
	Mix      *model.Mix `json:"mix"`
	Position int        `json:"position"`
}

// PlaylistRepository defines the interface for playlist data operations.
type PlaylistRepository interface {
	Create(p *model.Playlist) (int64, error)
	GetByID(id int64) (*model.Playlist, error)
	// ListVisible returns the viewer's own playlists plus public ones.
	ListVisible(viewerID int64) ([]*model.Playlist, error)
	Update(p *model.Playlist) error
	Delete(id int64) error

	AddMix(playlistID, mixID int64) (int, error)
	RemoveMix(playlistID, mixID int64) error
	MoveMix(playlistID, mixID int64, position int) error
	ListEntries(playlistID int64) ([]PlaylistEntry, error)
}

type mysqlPlaylistRepository struct {
	db *sql.DB
}

// NewMySQLPlaylistRepository creates a new mysqlPlaylistRepository.
func NewMySQLPlaylistRepository(db *sql.DB) PlaylistRepository {
	return &mysqlPlaylistRepository{db: db}
}

const playlistColumns = "id, user_id, name, description, is_public, created_at, updated_at"

func scanPlaylist(row interface{ Scan(...interface{}) error }) (*model.Playlist, error) {
	p := &model.Playlist{}
	var description sql.NullString
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &description, &p.IsPublic, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Description = description.String
	return p, nil
}

// Create adds a new playlist.
func (r *mysqlPlaylistRepository) Create(p *model.Playlist) (int64, error) {
	res, err := r.db.Exec("INSERT INTO playlists (user_id, name, description, is_public) VALUES (?, ?, ?, ?)",
		p.UserID, p.Name, nullable(p.Description), p.IsPublic)
	if err != nil {
		return 0, fmt.Errorf("failed to insert playlist: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for playlist: %w", err)
	}
	return id, nil
}

// GetByID retrieves a playlist by ID.
func (r *mysqlPlaylistRepository) GetByID(id int64) (*model.Playlist, error) {
	row := r.db.QueryRow("SELECT "+playlistColumns+" FROM playlists WHERE id = ?", id)
	p, err := scanPlaylist(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan playlist row for ID %d: %w", id, err)
	}
	return p, nil
}

// ListVisible returns the viewer's own playlists plus all public ones.
func (r *mysqlPlaylistRepository) ListVisible(viewerID int64) ([]*model.Playlist, error) {
	rows, err := r.db.Query(
		"SELECT "+playlistColumns+" FROM playlists WHERE is_public = 1 OR user_id = ? ORDER BY created_at DESC",
		viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*model.Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist row: %w", err)
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// Update persists mutable playlist fields.
func (r *mysqlPlaylistRepository) Update(p *model.Playlist) error {
	res, err := r.db.Exec("UPDATE playlists SET name = ?, description = ?, is_public = ? WHERE id = ?",
		p.Name, nullable(p.Description), p.IsPublic, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update playlist %d: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(p.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a playlist. Membership rows cascade at the schema level.
func (r *mysqlPlaylistRepository) Delete(id int64) error {
	res, err := r.db.Exec("DELETE FROM playlists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMix appends a mix at max(position)+1. The (playlist_id, mix_id) primary
// key rejects duplicate membership.
func (r *mysqlPlaylistRepository) AddMix(playlistID, mixID int64) (int, error) {
	var position int
	err := r.db.QueryRow("SELECT COALESCE(MAX(position), -1) + 1 FROM playlist_mixes WHERE playlist_id = ?",
		playlistID).Scan(&position)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next position: %w", err)
	}

	_, err = r.db.Exec("INSERT INTO playlist_mixes (playlist_id, mix_id, position) VALUES (?, ?, ?)",
		playlistID, mixID, position)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "duplicate entry") {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("failed to insert playlist entry: %w", err)
	}
	return position, nil
}

// RemoveMix removes a membership row and renumbers the remainder.
func (r *mysqlPlaylistRepository) RemoveMix(playlistID, mixID int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM playlist_mixes WHERE playlist_id = ? AND mix_id = ?", playlistID, mixID)
	if err != nil {
		return fmt.Errorf("failed to delete playlist entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := renumber(tx, playlistID); err != nil {
		return err
	}
	return tx.Commit()
}

// MoveMix places a mix at the target position and renumbers around it.
func (r *mysqlPlaylistRepository) MoveMix(playlistID, mixID int64, position int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRow("SELECT position FROM playlist_mixes WHERE playlist_id = ? AND mix_id = ?",
		playlistID, mixID).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read current position: %w", err)
	}
	if current == position {
		return tx.Commit()
	}

	// Shift the gap, then drop the row into place.
	if position > current {
		_, err = tx.Exec("UPDATE playlist_mixes SET position = position - 1 WHERE playlist_id = ? AND position > ? AND position <= ?",
			playlistID, current, position)
	} else {
		_, err = tx.Exec("UPDATE playlist_mixes SET position = position + 1 WHERE playlist_id = ? AND position >= ? AND position < ?",
			playlistID, position, current)
	}
	if err != nil {
		return fmt.Errorf("failed to shift positions: %w", err)
	}
	if _, err := tx.Exec("UPDATE playlist_mixes SET position = ? WHERE playlist_id = ? AND mix_id = ?",
		position, playlistID, mixID); err != nil {
		return fmt.Errorf("failed to move playlist entry: %w", err)
	}
	return tx.Commit()
}

// ListEntries returns a playlist's mixes in position order.
func (r *mysqlPlaylistRepository) ListEntries(playlistID int64) ([]PlaylistEntry, error) {
	query := `SELECT m.` + strings.ReplaceAll(mixColumns, ", ", ", m.") + `, pm.position
		FROM playlist_mixes pm
		JOIN mixes m ON m.id = pm.mix_id
		WHERE pm.playlist_id = ?
		ORDER BY pm.position ASC`
	rows, err := r.db.Query(query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist entries: %w", err)
	}
	defer rows.Close()

	var entries []PlaylistEntry
	for rows.Next() {
		mix := &model.Mix{}
		var description, coverKey, peaks sql.NullString
		var position int
		err := rows.Scan(&mix.ID, &mix.UserID, &mix.Title, &mix.Artist, &description,
			&mix.Duration, &mix.FileSize, &mix.StorageKey, &coverKey, &peaks,
			&mix.IsPublic, &mix.CreatedAt, &mix.UpdatedAt, &position)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist entry: %w", err)
		}
		mix.Description = description.String
		mix.CoverKey = coverKey.String
		mix.WaveformPeaks = peaks.String
		entries = append(entries, PlaylistEntry{Mix: mix, Position: position})
	}
	return entries, rows.Err()
}

// renumber rewrites positions as a dense 0..n-1 sequence.
func renumber(tx *sql.Tx, playlistID int64) error {
	rows, err := tx.Query("SELECT mix_id FROM playlist_mixes WHERE playlist_id = ? ORDER BY position ASC", playlistID)
	if err != nil {
		return fmt.Errorf("failed to list entries for renumber: %w", err)
	}
	var mixIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan entry for renumber: %w", err)
		}
		mixIDs = append(mixIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for i, id := range mixIDs {
		if _, err := tx.Exec("UPDATE playlist_mixes SET position = ? WHERE playlist_id = ? AND mix_id = ?",
			i, playlistID, id); err != nil {
			return fmt.Errorf("failed to renumber entry: %w", err)
		}
	}
	return nil
}
