package model

import "time"

// Playlist is a user-owned ordered collection of mixes.
type Playlist struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsPublic    bool      `json:"isPublic"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlaylistMix is the join row carrying an explicit position for sequencing.
// (playlist_id, mix_id) is unique; new entries append at max(position)+1.
type PlaylistMix struct {
	PlaylistID int64     `json:"playlistId"`
	MixID      int64     `json:"mixId"`
	Position   int       `json:"position"`
	AddedAt    time.Time `json:"addedAt"`
}
