package server

import (
	"net/http"
	"strings"

	"mixvault/cache"
	"mixvault/logger"
	"mixvault/model"

	"github.com/goccy/go-json"
)

// settingsToMap flattens setting rows into a key/value object for clients.
func settingsToMap(settings []*model.SiteSetting) map[string]string {
	out := make(map[string]string, len(settings))
	for _, s := range settings {
		out[s.Key] = s.Value
	}
	return out
}

// handlePublicSettings serves the publicly exposed settings subset,
// cache-aside under a single key.
func (h *APIHandler) handlePublicSettings(w http.ResponseWriter, r *http.Request) {
	var cached map[string]string
	if h.cache.GetJSON(r.Context(), cache.SettingsPublicKey, &cached) {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	settings, err := h.settings.GetPublic()
	if err != nil {
		logger.Error("failed to load public settings", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	out := settingsToMap(settings)
	h.cache.SetJSON(r.Context(), cache.SettingsPublicKey, out, 0)
	respondJSON(w, http.StatusOK, out)
}

// handleAdminSettings returns every setting row, including private ones.
func (h *APIHandler) handleAdminSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.GetAll()
	if err != nil {
		logger.Error("failed to load settings", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	if settings == nil {
		settings = []*model.SiteSetting{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"settings": settings})
}

// handleUpdateSettings upserts one or more settings and drops the public
// cache entry so the change is visible immediately.
func (h *APIHandler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Settings []struct {
			Key      string `json:"key"`
			Value    string `json:"value"`
			IsPublic bool   `json:"isPublic"`
		} `json:"settings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Settings) == 0 {
		respondError(w, http.StatusBadRequest, "settings are required")
		return
	}

	for _, s := range body.Settings {
		key := strings.TrimSpace(s.Key)
		if key == "" {
			respondError(w, http.StatusBadRequest, "setting key is required")
			return
		}
		if err := h.settings.Upsert(&model.SiteSetting{Key: key, Value: s.Value, IsPublic: s.IsPublic}); err != nil {
			logger.Error("failed to upsert setting", logger.String("key", key), logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}

	h.cache.Delete(r.Context(), cache.SettingsPublicKey)
	h.writeAudit(currentUser(r).ID, "settings.update", "settings", 0, "")
	respondJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}
