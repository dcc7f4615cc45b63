package model

import "time"

// AuditLog is an immutable record of a privileged action. Writes are
// best-effort; a failed audit write never fails the triggering operation.
type AuditLog struct {
	ID         int64     `json:"id"`
	ActorID    int64     `json:"actorId"`
	Action     string    `json:"action"`
	TargetType string    `json:"targetType,omitempty"`
	TargetID   int64     `json:"targetId,omitempty"`
	Details    string    `json:"details,omitempty"` // JSON blob
	CreatedAt  time.Time `json:"createdAt"`
}
