package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Object key prefixes.
const (
	PrefixMixes  = "mixes"
	PrefixCovers = "covers"
)

// ObjectKey builds a deterministic object key of the form
// {prefix}/{userId}/{timestamp}-{random}.{ext}. The random component keeps
// same-second uploads from colliding.
func ObjectKey(prefix string, userID int64, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "bin"
	}
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s/%d/%d-%s.%s", prefix, userID, time.Now().Unix(), random, ext)
}

// ExtForContentType maps an allowed MIME type to a file extension.
func ExtForContentType(contentType string) string {
	switch contentType {
	case "audio/mpeg", "audio/mp3":
		return "mp3"
	case "audio/wav", "audio/x-wav":
		return "wav"
	case "audio/flac", "audio/x-flac":
		return "flac"
	case "audio/aac":
		return "aac"
	case "audio/mp4":
		return "m4a"
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	default:
		return "bin"
	}
}
