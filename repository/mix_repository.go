package repository

import (
	"database/sql"
	"fmt"

	"mixvault/model"
)

// MixRepository defines the interface for mix data operations.
type MixRepository interface {
	Create(mix *model.Mix) (int64, error)
	GetByID(id int64) (*model.Mix, error)
	// List returns one feed page. publicOnly restricts to public mixes
	// (anonymous view); otherwise the viewer sees their own private mixes
	// plus everything public.
	List(page, perPage int, publicOnly bool, viewerID int64) ([]*model.Mix, error)
	// ListAll returns one page across all mixes regardless of visibility.
	// Callers apply per-viewer filtering; this exists so one cached page can
	// serve every authenticated viewer.
	ListAll(page, perPage int) ([]*model.Mix, error)
	UpdateMetadata(mix *model.Mix) error
	Delete(id int64) error
}

type mysqlMixRepository struct {
	db *sql.DB
}

// NewMySQLMixRepository creates a new mysqlMixRepository.
func NewMySQLMixRepository(db *sql.DB) MixRepository {
	return &mysqlMixRepository{db: db}
}

const mixColumns = "id, user_id, title, artist, description, duration, file_size, storage_key, cover_key, waveform_peaks, is_public, created_at, updated_at"

func scanMix(row interface{ Scan(...interface{}) error }) (*model.Mix, error) {
	mix := &model.Mix{}
	var description, coverKey, peaks sql.NullString
	err := row.Scan(&mix.ID, &mix.UserID, &mix.Title, &mix.Artist, &description,
		&mix.Duration, &mix.FileSize, &mix.StorageKey, &coverKey, &peaks,
		&mix.IsPublic, &mix.CreatedAt, &mix.UpdatedAt)
	if err != nil {
		return nil, err
	}
	mix.Description = description.String
	mix.CoverKey = coverKey.String
	mix.WaveformPeaks = peaks.String
	return mix, nil
}

// Create adds a new mix row.
func (r *mysqlMixRepository) Create(mix *model.Mix) (int64, error) {
	query := `INSERT INTO mixes
		(user_id, title, artist, description, duration, file_size, storage_key, cover_key, waveform_peaks, is_public)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.Exec(query, mix.UserID, mix.Title, mix.Artist, nullable(mix.Description),
		mix.Duration, mix.FileSize, mix.StorageKey, nullable(mix.CoverKey),
		nullable(mix.WaveformPeaks), mix.IsPublic)
	if err != nil {
		return 0, fmt.Errorf("failed to insert mix: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for mix: %w", err)
	}
	return id, nil
}

// GetByID retrieves a mix by ID.
func (r *mysqlMixRepository) GetByID(id int64) (*model.Mix, error) {
	row := r.db.QueryRow("SELECT "+mixColumns+" FROM mixes WHERE id = ?", id)
	mix, err := scanMix(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan mix row for ID %d: %w", id, err)
	}
	return mix, nil
}

// List returns one page of the feed, newest first.
func (r *mysqlMixRepository) List(page, perPage int, publicOnly bool, viewerID int64) ([]*model.Mix, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	var rows *sql.Rows
	var err error
	if publicOnly {
		rows, err = r.db.Query(
			"SELECT "+mixColumns+" FROM mixes WHERE is_public = 1 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
			perPage, offset)
	} else {
		rows, err = r.db.Query(
			"SELECT "+mixColumns+" FROM mixes WHERE is_public = 1 OR user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
			viewerID, perPage, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query mixes: %w", err)
	}
	defer rows.Close()

	var mixes []*model.Mix
	for rows.Next() {
		mix, err := scanMix(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mix row: %w", err)
		}
		mixes = append(mixes, mix)
	}
	return mixes, rows.Err()
}

// ListAll returns one page over every mix, newest first.
func (r *mysqlMixRepository) ListAll(page, perPage int) ([]*model.Mix, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	rows, err := r.db.Query(
		"SELECT "+mixColumns+" FROM mixes ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		perPage, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query mixes: %w", err)
	}
	defer rows.Close()

	var mixes []*model.Mix
	for rows.Next() {
		mix, err := scanMix(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mix row: %w", err)
		}
		mixes = append(mixes, mix)
	}
	return mixes, rows.Err()
}

// UpdateMetadata persists the mutable metadata fields of a mix.
func (r *mysqlMixRepository) UpdateMetadata(mix *model.Mix) error {
	query := "UPDATE mixes SET title = ?, artist = ?, description = ?, is_public = ? WHERE id = ?"
	res, err := r.db.Exec(query, mix.Title, mix.Artist, nullable(mix.Description), mix.IsPublic, mix.ID)
	if err != nil {
		return fmt.Errorf("failed to update mix %d: %w", mix.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(mix.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a mix row. Playlist membership cascades at the schema level.
func (r *mysqlMixRepository) Delete(id int64) error {
	res, err := r.db.Exec("DELETE FROM mixes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete mix %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// nullable converts "" to NULL for optional text columns.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
