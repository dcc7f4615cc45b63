package server

import (
	"errors"
	"net/http"
	"time"

	"mixvault/cache"
	"mixvault/core/upload"
	"mixvault/logger"
	"mixvault/model"
	"mixvault/repository"

	"github.com/goccy/go-json"
)

const (
	feedPageSize = 20

	// Presigned URLs outlive their cache entry so a URL served from cache
	// right before eviction is still valid for the player.
	streamURLExpiry   = time.Hour
	streamURLCacheTTL = 50 * time.Minute

	feedCacheTTL = 5 * time.Minute
)

// handleListMixes serves one feed page. Only the unfiltered first page is
// cached; the authenticated entry stores a visibility-agnostic superset that
// is filtered per viewer at read time, so one cache entry serves everyone
// without leaking private mixes across accounts.
func (h *APIHandler) handleListMixes(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	viewer := currentUser(r)
	publicOnly := viewer == nil

	if page == 1 {
		key := cache.MixListKey(1, publicOnly)
		var cached []*model.Mix
		if h.cache.GetJSON(r.Context(), key, &cached) {
			respondJSON(w, http.StatusOK, feedResponse(filterVisible(cached, viewer), page))
			return
		}
	}

	var (
		mixes []*model.Mix
		err   error
	)
	if publicOnly {
		mixes, err = h.mixes.List(page, feedPageSize, true, 0)
	} else {
		mixes, err = h.mixes.ListAll(page, feedPageSize)
	}
	if err != nil {
		logger.Error("failed to list mixes", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to load feed")
		return
	}

	if page == 1 {
		h.cache.SetJSON(r.Context(), cache.MixListKey(1, publicOnly), mixes, feedCacheTTL)
	}
	respondJSON(w, http.StatusOK, feedResponse(filterVisible(mixes, viewer), page))
}

func feedResponse(mixes []*model.Mix, page int) map[string]interface{} {
	if mixes == nil {
		mixes = []*model.Mix{}
	}
	return map[string]interface{}{"mixes": mixes, "page": page}
}

// filterVisible drops mixes the viewer may not see. Admins see everything.
func filterVisible(mixes []*model.Mix, viewer *model.User) []*model.Mix {
	visible := make([]*model.Mix, 0, len(mixes))
	for _, mix := range mixes {
		if mix.IsPublic || canManage(viewer, mix.UserID) {
			visible = append(visible, mix)
		}
	}
	return visible
}

// loadVisibleMix fetches a mix through the entity cache and applies the
// visibility rule. A private mix reads as missing to viewers without access.
func (h *APIHandler) loadVisibleMix(w http.ResponseWriter, r *http.Request) *model.Mix {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid mix id")
		return nil
	}

	mix := &model.Mix{}
	if !h.cache.GetJSON(r.Context(), cache.MixKey(id), mix) {
		var err error
		mix, err = h.mixes.GetByID(id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				respondError(w, http.StatusNotFound, "mix not found")
			} else {
				logger.Error("failed to load mix", logger.Int64("mixId", id), logger.ErrorField(err))
				respondError(w, http.StatusInternalServerError, "failed to load mix")
			}
			return nil
		}
		h.cache.SetJSON(r.Context(), cache.MixKey(id), mix, 0)
	}

	if !mix.IsPublic && !canManage(currentUser(r), mix.UserID) {
		respondError(w, http.StatusNotFound, "mix not found")
		return nil
	}
	return mix
}

// handleGetMix serves one mix.
func (h *APIHandler) handleGetMix(w http.ResponseWriter, r *http.Request) {
	if mix := h.loadVisibleMix(w, r); mix != nil {
		respondJSON(w, http.StatusOK, mix)
	}
}

// handleUpdateMix patches a mix's metadata. Owner or admin only.
func (h *APIHandler) handleUpdateMix(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid mix id")
		return
	}
	mix, err := h.mixes.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "mix not found")
		} else {
			respondError(w, http.StatusInternalServerError, "failed to load mix")
		}
		return
	}
	user := currentUser(r)
	if !canManage(user, mix.UserID) {
		respondError(w, http.StatusForbidden, "not your mix")
		return
	}

	var body struct {
		Title       *string `json:"title"`
		Artist      *string `json:"artist"`
		Description *string `json:"description"`
		IsPublic    *bool   `json:"isPublic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if body.Title != nil {
		mix.Title = *body.Title
	}
	if body.Artist != nil {
		mix.Artist = *body.Artist
	}
	if body.Description != nil {
		mix.Description = *body.Description
	}
	if body.IsPublic != nil {
		mix.IsPublic = *body.IsPublic
	}

	meta, err := upload.ValidateMetadata(mix.Title, mix.Artist, mix.Description)
	if err != nil {
		var verr *upload.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, verr.Error())
			return
		}
		respondError(w, http.StatusBadRequest, "invalid metadata")
		return
	}
	mix.Title, mix.Artist, mix.Description = meta.Title, meta.Artist, meta.Description

	if err := h.mixes.UpdateMetadata(mix); err != nil {
		logger.Error("failed to update mix", logger.Int64("mixId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to update mix")
		return
	}

	h.cache.Delete(r.Context(), cache.MixKey(id))
	h.cache.DeletePattern(r.Context(), cache.MixListPattern)

	if user.ID != mix.UserID {
		h.writeAudit(user.ID, "mix.update", "mix", id, "")
	}
	respondJSON(w, http.StatusOK, mix)
}

// handleDeleteMix removes a mix and its stored objects. Owner or admin only.
// Storage objects go first, then the database row; a crash in between leaves
// a row whose objects are gone, surfaced as 404s on playback.
func (h *APIHandler) handleDeleteMix(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid mix id")
		return
	}
	mix, err := h.mixes.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "mix not found")
		} else {
			respondError(w, http.StatusInternalServerError, "failed to load mix")
		}
		return
	}
	user := currentUser(r)
	if !canManage(user, mix.UserID) {
		respondError(w, http.StatusForbidden, "not your mix")
		return
	}

	if err := h.store.Delete(r.Context(), mix.StorageKey); err != nil {
		logger.Warn("audio object delete failed", logger.String("key", mix.StorageKey), logger.ErrorField(err))
	}
	if mix.HasCover() {
		if err := h.store.Delete(r.Context(), mix.CoverKey); err != nil {
			logger.Warn("cover object delete failed", logger.String("key", mix.CoverKey), logger.ErrorField(err))
		}
	}

	if err := h.mixes.Delete(id); err != nil {
		logger.Error("failed to delete mix", logger.Int64("mixId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to delete mix")
		return
	}

	ctx := r.Context()
	h.cache.Delete(ctx, cache.MixKey(id))
	h.cache.Delete(ctx, cache.StreamKey(id, "audio"))
	h.cache.Delete(ctx, cache.StreamKey(id, "cover"))
	h.cache.Delete(ctx, cache.WaveformKey(id))
	h.cache.DeletePattern(ctx, cache.MixListPattern)

	h.writeAudit(user.ID, "mix.delete", "mix", id, "")
	h.hub.BroadcastMixDeleted(id)

	logger.Info("mix deleted", logger.Int64("mixId", id), logger.Int64("actorId", user.ID))
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// presignCached serves a presigned URL for an object, cache-aside. The cache
// TTL is shorter than the URL expiry so cached URLs never arrive already dead.
func (h *APIHandler) presignCached(w http.ResponseWriter, r *http.Request, mixID int64, urlType, key string) {
	cacheKey := cache.StreamKey(mixID, urlType)
	if url := h.cache.Get(r.Context(), cacheKey); url != "" {
		respondJSON(w, http.StatusOK, map[string]string{"url": url})
		return
	}

	url, err := h.store.PresignedGetURL(r.Context(), key, streamURLExpiry)
	if err != nil {
		logger.Error("presign failed", logger.String("key", key), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to generate URL")
		return
	}
	h.cache.Set(r.Context(), cacheKey, url, streamURLCacheTTL)
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// handleStreamURL hands the player a time-limited URL for the audio object.
func (h *APIHandler) handleStreamURL(w http.ResponseWriter, r *http.Request) {
	mix := h.loadVisibleMix(w, r)
	if mix == nil {
		return
	}
	h.presignCached(w, r, mix.ID, "audio", mix.StorageKey)
}

// handleCoverURL hands out a time-limited URL for the cover image.
func (h *APIHandler) handleCoverURL(w http.ResponseWriter, r *http.Request) {
	mix := h.loadVisibleMix(w, r)
	if mix == nil {
		return
	}
	if !mix.HasCover() {
		respondError(w, http.StatusNotFound, "mix has no cover")
		return
	}
	h.presignCached(w, r, mix.ID, "cover", mix.CoverKey)
}

// handleWaveform serves the precomputed waveform peaks.
func (h *APIHandler) handleWaveform(w http.ResponseWriter, r *http.Request) {
	mix := h.loadVisibleMix(w, r)
	if mix == nil {
		return
	}

	key := cache.WaveformKey(mix.ID)
	peaks := h.cache.Get(r.Context(), key)
	if peaks == "" {
		peaks = mix.WaveformPeaks
		if peaks == "" {
			peaks = "[]"
		}
		h.cache.Set(r.Context(), key, peaks, 0)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"peaks": json.RawMessage(peaks)})
}
