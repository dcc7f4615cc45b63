package server

import (
	"errors"
	"net/http"
	"strings"

	"mixvault/logger"
	"mixvault/model"
	"mixvault/repository"

	"github.com/goccy/go-json"
)

const maxPlaylistNameLength = 100

// handleListPlaylists returns the viewer's own playlists plus public ones.
func (h *APIHandler) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	var viewerID int64
	if user := currentUser(r); user != nil {
		viewerID = user.ID
	}
	playlists, err := h.playlists.ListVisible(viewerID)
	if err != nil {
		logger.Error("failed to list playlists", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to load playlists")
		return
	}
	if playlists == nil {
		playlists = []*model.Playlist{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"playlists": playlists})
}

// handleCreatePlaylist creates an empty playlist for the caller.
func (h *APIHandler) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		IsPublic    bool   `json:"isPublic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" || len(body.Name) > maxPlaylistNameLength {
		respondError(w, http.StatusBadRequest, "playlist name is required")
		return
	}

	playlist := &model.Playlist{
		UserID:      currentUser(r).ID,
		Name:        body.Name,
		Description: strings.TrimSpace(body.Description),
		IsPublic:    body.IsPublic,
	}
	id, err := h.playlists.Create(playlist)
	if err != nil {
		logger.Error("failed to create playlist", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to create playlist")
		return
	}
	playlist.ID = id
	respondJSON(w, http.StatusCreated, playlist)
}

// loadPlaylist fetches a playlist and applies the visibility rule. When
// mutate is set the caller must own it or be an admin.
func (h *APIHandler) loadPlaylist(w http.ResponseWriter, r *http.Request, mutate bool) *model.Playlist {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid playlist id")
		return nil
	}
	playlist, err := h.playlists.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "playlist not found")
		} else {
			logger.Error("failed to load playlist", logger.Int64("playlistId", id), logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, "failed to load playlist")
		}
		return nil
	}

	user := currentUser(r)
	if mutate {
		if !canManage(user, playlist.UserID) {
			respondError(w, http.StatusForbidden, "not your playlist")
			return nil
		}
		return playlist
	}
	if !playlist.IsPublic && !canManage(user, playlist.UserID) {
		respondError(w, http.StatusNotFound, "playlist not found")
		return nil
	}
	return playlist
}

// handleGetPlaylist returns a playlist with its entries in position order.
func (h *APIHandler) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	playlist := h.loadPlaylist(w, r, false)
	if playlist == nil {
		return
	}
	entries, err := h.playlists.ListEntries(playlist.ID)
	if err != nil {
		logger.Error("failed to list playlist entries", logger.Int64("playlistId", playlist.ID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to load playlist")
		return
	}
	if entries == nil {
		entries = []repository.PlaylistEntry{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"playlist": playlist,
		"entries":  entries,
	})
}

// handleUpdatePlaylist patches name, description or visibility.
func (h *APIHandler) handleUpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	playlist := h.loadPlaylist(w, r, true)
	if playlist == nil {
		return
	}

	var body struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		IsPublic    *bool   `json:"isPublic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Name != nil {
		name := strings.TrimSpace(*body.Name)
		if name == "" || len(name) > maxPlaylistNameLength {
			respondError(w, http.StatusBadRequest, "playlist name is required")
			return
		}
		playlist.Name = name
	}
	if body.Description != nil {
		playlist.Description = strings.TrimSpace(*body.Description)
	}
	if body.IsPublic != nil {
		playlist.IsPublic = *body.IsPublic
	}

	if err := h.playlists.Update(playlist); err != nil {
		logger.Error("failed to update playlist", logger.Int64("playlistId", playlist.ID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to update playlist")
		return
	}
	respondJSON(w, http.StatusOK, playlist)
}

// handleDeletePlaylist removes a playlist. Membership rows cascade; the mixes
// themselves are untouched.
func (h *APIHandler) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	playlist := h.loadPlaylist(w, r, true)
	if playlist == nil {
		return
	}
	if err := h.playlists.Delete(playlist.ID); err != nil {
		logger.Error("failed to delete playlist", logger.Int64("playlistId", playlist.ID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to delete playlist")
		return
	}
	if user := currentUser(r); user.ID != playlist.UserID {
		h.writeAudit(user.ID, "playlist.delete", "playlist", playlist.ID, "")
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleAddPlaylistMix appends a mix to the end of a playlist. The mix must
// be visible to the caller; duplicates are rejected.
func (h *APIHandler) handleAddPlaylistMix(w http.ResponseWriter, r *http.Request) {
	playlist := h.loadPlaylist(w, r, true)
	if playlist == nil {
		return
	}

	var body struct {
		MixID int64 `json:"mixId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.MixID <= 0 {
		respondError(w, http.StatusBadRequest, "mixId is required")
		return
	}

	mix, err := h.mixes.GetByID(body.MixID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "mix not found")
		} else {
			respondError(w, http.StatusInternalServerError, "failed to load mix")
		}
		return
	}
	if !mix.IsPublic && !canManage(currentUser(r), mix.UserID) {
		respondError(w, http.StatusNotFound, "mix not found")
		return
	}

	position, err := h.playlists.AddMix(playlist.ID, mix.ID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			respondError(w, http.StatusBadRequest, "mix already in playlist")
			return
		}
		logger.Error("failed to add playlist entry",
			logger.Int64("playlistId", playlist.ID), logger.Int64("mixId", mix.ID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to add mix")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"mixId": mix.ID, "position": position})
}

// handleRemovePlaylistMix drops a mix from a playlist and renumbers.
func (h *APIHandler) handleRemovePlaylistMix(w http.ResponseWriter, r *http.Request) {
	playlist := h.loadPlaylist(w, r, true)
	if playlist == nil {
		return
	}
	mixID, ok := pathID(r, "mixId")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid mix id")
		return
	}
	if err := h.playlists.RemoveMix(playlist.ID, mixID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "mix not in playlist")
			return
		}
		logger.Error("failed to remove playlist entry",
			logger.Int64("playlistId", playlist.ID), logger.Int64("mixId", mixID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to remove mix")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// handleMovePlaylistMix reorders a playlist entry to the target position.
func (h *APIHandler) handleMovePlaylistMix(w http.ResponseWriter, r *http.Request) {
	playlist := h.loadPlaylist(w, r, true)
	if playlist == nil {
		return
	}
	mixID, ok := pathID(r, "mixId")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid mix id")
		return
	}

	var body struct {
		Position *int `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Position == nil || *body.Position < 0 {
		respondError(w, http.StatusBadRequest, "position is required")
		return
	}

	if err := h.playlists.MoveMix(playlist.ID, mixID, *body.Position); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "mix not in playlist")
			return
		}
		logger.Error("failed to move playlist entry",
			logger.Int64("playlistId", playlist.ID), logger.Int64("mixId", mixID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to move mix")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "moved"})
}
