package repository

import (
	"database/sql"
	"fmt"

	"mixvault/model"
)

// SettingRepository defines the interface for site settings.
type SettingRepository interface {
	GetAll() ([]*model.SiteSetting, error)
	GetPublic() ([]*model.SiteSetting, error)
	Upsert(setting *model.SiteSetting) error
}

type mysqlSettingRepository struct {
	db *sql.DB
}

// NewMySQLSettingRepository creates a new mysqlSettingRepository.
func NewMySQLSettingRepository(db *sql.DB) SettingRepository {
	return &mysqlSettingRepository{db: db}
}

func (r *mysqlSettingRepository) query(where string) ([]*model.SiteSetting, error) {
	rows, err := r.db.Query("SELECT setting_key, setting_value, is_public, updated_at FROM site_settings" + where + " ORDER BY setting_key")
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	var settings []*model.SiteSetting
	for rows.Next() {
		s := &model.SiteSetting{}
		if err := rows.Scan(&s.Key, &s.Value, &s.IsPublic, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting row: %w", err)
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// GetAll returns every setting (admin view).
func (r *mysqlSettingRepository) GetAll() ([]*model.SiteSetting, error) {
	return r.query("")
}

// GetPublic returns only the publicly exposed subset.
func (r *mysqlSettingRepository) GetPublic() ([]*model.SiteSetting, error) {
	return r.query(" WHERE is_public = 1")
}

// Upsert inserts or replaces a setting row.
func (r *mysqlSettingRepository) Upsert(setting *model.SiteSetting) error {
	_, err := r.db.Exec(
		`INSERT INTO site_settings (setting_key, setting_value, is_public) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE setting_value = VALUES(setting_value), is_public = VALUES(is_public)`,
		setting.Key, setting.Value, setting.IsPublic)
	if err != nil {
		return fmt.Errorf("failed to upsert setting %s: %w", setting.Key, err)
	}
	return nil
}
