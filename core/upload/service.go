package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"mixvault/cache"
	"mixvault/config"
	"mixvault/core/audio"
	"mixvault/logger"
	"mixvault/model"
	"mixvault/repository"
	"mixvault/storage"

	"github.com/goccy/go-json"
)

// ObjectStore is the slice of the storage client the service needs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// Invalidator is the slice of the cache client the service needs.
type Invalidator interface {
	DeletePattern(ctx context.Context, pattern string)
}

// Request describes one upload: sanitizable metadata plus the raw file
// buffers. Cover is optional (nil).
type Request struct {
	UserID           int64
	Title            string
	Artist           string
	Description      string
	IsPublic         bool
	Audio            []byte
	AudioContentType string
	Cover            []byte
	CoverContentType string
}

// Service orchestrates a mix upload: validation, object-storage writes,
// waveform and duration extraction, database persistence, cache invalidation
// and the audit side channel.
type Service struct {
	mixes repository.MixRepository
	audit repository.AuditRepository
	store ObjectStore
	inval Invalidator
}

// NewService creates an upload service.
func NewService(mixes repository.MixRepository, auditRepo repository.AuditRepository, store ObjectStore, inval Invalidator) *Service {
	return &Service{mixes: mixes, audit: auditRepo, store: store, inval: inval}
}

// Upload runs the full pipeline. Every validation failure surfaces before any
// storage write; a database failure after the storage writes triggers a
// best-effort compensating delete of the uploaded objects.
func (s *Service) Upload(ctx context.Context, req Request) (*model.Mix, error) {
	meta, err := ValidateMetadata(req.Title, req.Artist, req.Description)
	if err != nil {
		return nil, err
	}
	if err := ValidateAudioFile(int64(len(req.Audio)), req.AudioContentType); err != nil {
		return nil, err
	}
	hasCover := len(req.Cover) > 0
	if hasCover {
		if err := ValidateCoverFile(int64(len(req.Cover)), req.CoverContentType); err != nil {
			return nil, err
		}
	}

	audioKey := storage.ObjectKey(storage.PrefixMixes, req.UserID,
		storage.ExtForContentType(req.AudioContentType))
	if err := s.store.Upload(ctx, audioKey, readerOf(req.Audio), int64(len(req.Audio)), req.AudioContentType); err != nil {
		return nil, fmt.Errorf("failed to store audio: %w", err)
	}

	var coverKey string
	if hasCover {
		coverKey = storage.ObjectKey(storage.PrefixCovers, req.UserID,
			storage.ExtForContentType(req.CoverContentType))
		if err := s.store.Upload(ctx, coverKey, readerOf(req.Cover), int64(len(req.Cover)), req.CoverContentType); err != nil {
			s.cleanup(ctx, audioKey)
			return nil, fmt.Errorf("failed to store cover: %w", err)
		}
	}

	peaks := audio.GeneratePeaks(req.Audio, config.WaveformSamples)
	peaksJSON, err := json.Marshal(peaks)
	if err != nil {
		// Peaks are plain float slices; this cannot realistically fail.
		s.cleanup(ctx, audioKey, coverKey)
		return nil, fmt.Errorf("failed to encode waveform: %w", err)
	}

	// Duration extraction is best-effort: the upload must not fail solely
	// because the container metadata was unreadable.
	duration, err := audio.ExtractDuration(req.Audio)
	if err != nil {
		logger.Warn("duration extraction failed, defaulting to 0",
			logger.Int64("userId", req.UserID), logger.ErrorField(err))
		duration = 0
	}

	mix := &model.Mix{
		UserID:        req.UserID,
		Title:         meta.Title,
		Artist:        meta.Artist,
		Description:   meta.Description,
		Duration:      duration,
		FileSize:      int64(len(req.Audio)),
		StorageKey:    audioKey,
		CoverKey:      coverKey,
		WaveformPeaks: string(peaksJSON),
		IsPublic:      req.IsPublic,
	}

	id, err := s.mixes.Create(mix)
	if err != nil {
		// The objects are already durable; try not to leak them, but the
		// original failure is what the caller sees.
		s.cleanup(ctx, audioKey, coverKey)
		return nil, fmt.Errorf("failed to persist mix: %w", err)
	}
	mix.ID = id

	s.inval.DeletePattern(ctx, cache.MixListPattern)

	if err := s.audit.Create(&model.AuditLog{
		ActorID:    req.UserID,
		Action:     "mix.upload",
		TargetType: "mix",
		TargetID:   id,
		Details:    fmt.Sprintf(`{"title":%q,"fileSize":%d}`, meta.Title, mix.FileSize),
	}); err != nil {
		logger.Warn("audit write failed", logger.Int64("mixId", id), logger.ErrorField(err))
	}

	logger.Info("mix uploaded",
		logger.Int64("mixId", id),
		logger.Int64("userId", req.UserID),
		logger.String("title", meta.Title),
		logger.Int64("fileSize", mix.FileSize),
		logger.Float64("duration", duration))

	return mix, nil
}

// cleanup deletes uploaded objects after a downstream failure. Failures here
// are logged, not retried; a reconciliation pass would be the real fix.
func (s *Service) cleanup(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			logger.Error("compensating delete failed, object orphaned",
				logger.String("key", key), logger.ErrorField(err))
		}
	}
}

func readerOf(b []byte) io.Reader {
	return bytes.NewReader(b)
}
