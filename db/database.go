package db

import (
	"database/sql"
	"fmt"

	"mixvault/config"
	"mixvault/logger"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Successfully connected to the database")
	return nil
}

// CloseDB closes the database connection.
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
func InitDB() error {
	for name, query := range schemaStatements {
		if _, err := DB.Exec(query); err != nil {
			return fmt.Errorf("failed to create %s table: %w", name, err)
		}
	}
	logger.Info("Database schema initialized")
	return nil
}

var schemaStatements = map[string]string{
	"users": `
	CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		provider VARCHAR(50) NOT NULL,
		provider_id VARCHAR(191) NOT NULL,
		username VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL,
		avatar_url VARCHAR(767),
		role VARCHAR(20) NOT NULL DEFAULT 'user',
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT uq_provider_subject UNIQUE (provider, provider_id),
		CONSTRAINT uq_users_email UNIQUE (email)
	);`,

	"mixes": `
	CREATE TABLE IF NOT EXISTS mixes (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		title VARCHAR(255) NOT NULL,
		artist VARCHAR(255) NOT NULL,
		description TEXT,
		duration DOUBLE NOT NULL DEFAULT 0,
		file_size BIGINT NOT NULL DEFAULT 0,
		storage_key VARCHAR(767) NOT NULL,
		cover_key VARCHAR(767),
		waveform_peaks MEDIUMTEXT,
		is_public TINYINT(1) NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_mixes_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);`,

	"playlists": `
	CREATE TABLE IF NOT EXISTS playlists (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		is_public TINYINT(1) NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_playlists_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);`,

	"playlist_mixes": `
	CREATE TABLE IF NOT EXISTS playlist_mixes (
		playlist_id BIGINT NOT NULL,
		mix_id BIGINT NOT NULL,
		position INT NOT NULL,
		added_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (playlist_id, mix_id),
		CONSTRAINT fk_pm_playlist FOREIGN KEY (playlist_id) REFERENCES playlists(id) ON DELETE CASCADE,
		CONSTRAINT fk_pm_mix FOREIGN KEY (mix_id) REFERENCES mixes(id) ON DELETE CASCADE
	);`,

	"audit_logs": `
	CREATE TABLE IF NOT EXISTS audit_logs (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		actor_id BIGINT NOT NULL,
		action VARCHAR(100) NOT NULL,
		target_type VARCHAR(50),
		target_id BIGINT,
		details TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`,

	"site_settings": `
	CREATE TABLE IF NOT EXISTS site_settings (
		setting_key VARCHAR(100) PRIMARY KEY,
		setting_value TEXT NOT NULL,
		is_public TINYINT(1) NOT NULL DEFAULT 0,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);`,
}
