package config

import "time"

// Upload ceilings and rate-limit quotas are deliberately compile-time
// constants rather than environment configuration.
const (
	// MaxAudioFileSize is the ceiling for uploaded audio files.
	MaxAudioFileSize int64 = 200 << 20 // 200MB
	// MaxCoverFileSize is the ceiling for uploaded cover art.
	MaxCoverFileSize int64 = 10 << 20 // 10MB

	// MaxTitleLength bounds sanitized text metadata fields.
	MaxTitleLength       = 200
	MaxArtistLength      = 200
	MaxDescriptionLength = 2000

	// WaveformSamples is the number of peaks extracted per channel.
	WaveformSamples = 500

	// Upload rate limit: a small fixed hourly quota per user.
	UploadRateLimit  = 5
	UploadRateWindow = time.Hour

	// General API rate limit per user.
	APIRateLimit  = 100
	APIRateWindow = time.Minute
)

// AllowedAudioTypes lists accepted audio MIME types.
var AllowedAudioTypes = []string{
	"audio/mpeg", "audio/mp3",
	"audio/wav", "audio/x-wav",
	"audio/flac", "audio/x-flac",
	"audio/aac",
	"audio/mp4",
}

// AllowedCoverTypes lists accepted cover art MIME types.
var AllowedCoverTypes = []string{
	"image/jpeg", "image/png", "image/webp",
}
