package model

import "time"

// SiteSetting is a key/value configuration row. The public subset is exposed
// without authentication and cached separately from the admin-only full set.
type SiteSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	IsPublic  bool      `json:"isPublic"`
	UpdatedAt time.Time `json:"updatedAt"`
}
