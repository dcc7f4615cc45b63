package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"mixvault/cache"
	"mixvault/config"
	"mixvault/core/auth"
	"mixvault/core/upload"
	"mixvault/logger"
	"mixvault/model"
	"mixvault/repository"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

// ObjectStore is the slice of the storage client the handlers need.
// *storage.Client satisfies it.
type ObjectStore interface {
	Delete(ctx context.Context, key string) error
	PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// APIHandler carries the dependencies shared by all route handlers.
type APIHandler struct {
	users     repository.UserRepository
	mixes     repository.MixRepository
	playlists repository.PlaylistRepository
	settings  repository.SettingRepository
	audits    repository.AuditRepository

	cache     *cache.Client
	limiter   *cache.RateLimiter
	store     ObjectStore
	uploadSvc *upload.Service
	tokens    *auth.TokenManager
	oauth     *auth.OAuthClient
	hub       *EventHub
	cfg       *config.Config
}

// NewAPIHandler creates the API handler with its dependencies.
func NewAPIHandler(
	users repository.UserRepository,
	mixes repository.MixRepository,
	playlists repository.PlaylistRepository,
	settings repository.SettingRepository,
	audits repository.AuditRepository,
	cacheClient *cache.Client,
	limiter *cache.RateLimiter,
	store ObjectStore,
	uploadSvc *upload.Service,
	tokens *auth.TokenManager,
	oauth *auth.OAuthClient,
	hub *EventHub,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		users:     users,
		mixes:     mixes,
		playlists: playlists,
		settings:  settings,
		audits:    audits,
		cache:     cacheClient,
		limiter:   limiter,
		store:     store,
		uploadSvc: uploadSvc,
		tokens:    tokens,
		oauth:     oauth,
		hub:       hub,
		cfg:       cfg,
	}
}

// respondJSON writes a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("failed to encode response", logger.ErrorField(err))
		}
	}
}

// respondError writes the uniform {"error": "..."} body.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// pathID extracts a numeric {id}-style path variable.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryInt reads an integer query parameter with a default.
func queryInt(r *http.Request, name string, fallback int) int {
	if raw := r.URL.Query().Get(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}

// canManage reports whether the user may mutate a resource owned by ownerID.
func canManage(user *model.User, ownerID int64) bool {
	return user != nil && (user.ID == ownerID || user.IsAdmin())
}

// writeAudit records a privileged action. Failure is logged and swallowed;
// the audit log is a best-effort side channel.
func (h *APIHandler) writeAudit(actorID int64, action, targetType string, targetID int64, details string) {
	err := h.audits.Create(&model.AuditLog{
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
	})
	if err != nil {
		logger.Warn("audit write failed",
			logger.String("action", action), logger.ErrorField(err))
	}
}
