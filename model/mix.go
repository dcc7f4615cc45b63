package model

import "time"

// Mix represents an uploaded audio asset with its metadata and storage pointers.
type Mix struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"userId"`
	Title         string    `json:"title"`
	Artist        string    `json:"artist"`
	Description   string    `json:"description,omitempty"`
	Duration      float64   `json:"duration"` // seconds; 0 when extraction failed
	FileSize      int64     `json:"fileSize"`
	StorageKey    string    `json:"-"` // audio object key, never exposed directly
	CoverKey      string    `json:"-"` // optional cover art object key
	WaveformPeaks string    `json:"waveformPeaks,omitempty"` // JSON: [[...],[...]] two channels
	IsPublic      bool      `json:"isPublic"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// HasCover reports whether cover art was uploaded for this mix.
func (m *Mix) HasCover() bool {
	return m.CoverKey != ""
}
