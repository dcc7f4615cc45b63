package repository

import (
	"database/sql"
	"fmt"

	"mixvault/model"
)

// AuditRepository defines the interface for audit log writes and reads. The
// log is append-only; rows are never updated or deleted.
type AuditRepository interface {
	Create(entry *model.AuditLog) error
	ListRecent(limit int) ([]*model.AuditLog, error)
}

type mysqlAuditRepository struct {
	db *sql.DB
}

// NewMySQLAuditRepository creates a new mysqlAuditRepository.
func NewMySQLAuditRepository(db *sql.DB) AuditRepository {
	return &mysqlAuditRepository{db: db}
}

// Create appends an audit entry.
func (r *mysqlAuditRepository) Create(entry *model.AuditLog) error {
	_, err := r.db.Exec(
		"INSERT INTO audit_logs (actor_id, action, target_type, target_id, details) VALUES (?, ?, ?, ?, ?)",
		entry.ActorID, entry.Action, nullable(entry.TargetType),
		sql.NullInt64{Int64: entry.TargetID, Valid: entry.TargetID != 0},
		nullable(entry.Details))
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// ListRecent returns the newest entries, for the admin dashboard.
func (r *mysqlAuditRepository) ListRecent(limit int) ([]*model.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.Query(
		"SELECT id, actor_id, action, target_type, target_id, details, created_at FROM audit_logs ORDER BY id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.AuditLog
	for rows.Next() {
		entry := &model.AuditLog{}
		var targetType, details sql.NullString
		var targetID sql.NullInt64
		if err := rows.Scan(&entry.ID, &entry.ActorID, &entry.Action, &targetType,
			&targetID, &details, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		entry.TargetType = targetType.String
		entry.TargetID = targetID.Int64
		entry.Details = details.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
