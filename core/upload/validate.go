package upload

import (
	"fmt"
	"strings"

	"mixvault/config"
)

// ValidationError carries one or more user-safe messages. All violations for
// a request are collected and reported together rather than one at a time.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Metadata is the sanitized text metadata for a mix.
type Metadata struct {
	Title       string
	Artist      string
	Description string
}

// sanitizeText trims whitespace and enforces the maximum length. An
// empty-after-trim value is returned as "" and treated as absent.
func sanitizeText(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) > max {
		s = s[:max]
	}
	return s
}

// ValidateMetadata sanitizes text fields and requires a non-empty title and
// artist. Every violation is collected before returning.
func ValidateMetadata(title, artist, description string) (Metadata, error) {
	meta := Metadata{
		Title:       sanitizeText(title, config.MaxTitleLength),
		Artist:      sanitizeText(artist, config.MaxArtistLength),
		Description: sanitizeText(description, config.MaxDescriptionLength),
	}

	var messages []string
	if meta.Title == "" {
		messages = append(messages, "title is required")
	}
	if meta.Artist == "" {
		messages = append(messages, "artist is required")
	}
	if len(messages) > 0 {
		return Metadata{}, &ValidationError{Messages: messages}
	}
	return meta, nil
}

// ValidateAudioFile checks the audio upload: size against the ceiling first,
// then the MIME allow-list.
func ValidateAudioFile(size int64, contentType string) error {
	if size <= 0 {
		return &ValidationError{Messages: []string{"audio file is empty"}}
	}
	if size > config.MaxAudioFileSize {
		return &ValidationError{Messages: []string{
			fmt.Sprintf("audio file too large, maximum is %d MB", config.MaxAudioFileSize>>20),
		}}
	}
	if !typeAllowed(contentType, config.AllowedAudioTypes) {
		return &ValidationError{Messages: []string{"unsupported audio type, expected MP3, WAV, FLAC, AAC or M4A"}}
	}
	return nil
}

// ValidateCoverFile checks optional cover art: size first, then type.
func ValidateCoverFile(size int64, contentType string) error {
	if size <= 0 {
		return &ValidationError{Messages: []string{"cover file is empty"}}
	}
	if size > config.MaxCoverFileSize {
		return &ValidationError{Messages: []string{
			fmt.Sprintf("cover file too large, maximum is %d MB", config.MaxCoverFileSize>>20),
		}}
	}
	if !typeAllowed(contentType, config.AllowedCoverTypes) {
		return &ValidationError{Messages: []string{"unsupported cover type, expected JPEG, PNG or WebP"}}
	}
	return nil
}

func typeAllowed(contentType string, allowed []string) bool {
	for _, t := range allowed {
		if contentType == t {
			return true
		}
	}
	return false
}
