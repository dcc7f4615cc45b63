package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mixvault/cache"
	"mixvault/config"
	"mixvault/core/auth"
	"mixvault/core/importer"
	"mixvault/core/upload"
	"mixvault/db"
	"mixvault/logger"
	"mixvault/repository"
	"mixvault/storage"

	"github.com/gorilla/mux"
)

// Start wires every component together and runs the HTTP server until an
// interrupt arrives, then shuts down gracefully.
func Start(cfg *config.Config) error {
	if err := db.ConnectDB(cfg); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.CloseDB()

	if err := db.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := db.ConnectRedis(cfg); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer db.CloseRedis()

	store, err := storage.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to object storage: %w", err)
	}

	userRepo := repository.NewMySQLUserRepository(db.DB)
	mixRepo := repository.NewMySQLMixRepository(db.DB)
	playlistRepo := repository.NewMySQLPlaylistRepository(db.DB)
	settingRepo := repository.NewMySQLSettingRepository(db.DB)
	auditRepo := repository.NewMySQLAuditRepository(db.DB)

	cacheClient := cache.NewClient(db.RedisClient)
	limiter := cache.NewRateLimiter(db.RedisClient)
	tokens := auth.NewTokenManager(cfg.JWTSecret)
	oauthClient := auth.NewOAuthClient(cfg)
	uploadSvc := upload.NewService(mixRepo, auditRepo, store, cacheClient)

	hub := NewEventHub()
	go hub.Run()
	defer hub.Stop()

	if cfg.ImportDir != "" {
		imp := importer.New(uploadSvc, cfg.ImportDir, cfg.ImportUserID)
		if err := imp.Start(); err != nil {
			return fmt.Errorf("failed to start import watcher: %w", err)
		}
		defer imp.Stop()
	}

	handler := NewAPIHandler(userRepo, mixRepo, playlistRepo, settingRepo, auditRepo,
		cacheClient, limiter, store, uploadSvc, tokens, oauthClient, hub, cfg)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      handler.Router(),
		ReadTimeout:  5 * time.Minute, // large multipart uploads
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", logger.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", logger.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// Router builds the route table with the shared middleware chain applied.
func (h *APIHandler) Router() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)

	// Auth.
	api.HandleFunc("/auth/login", h.handleLogin).Methods(http.MethodGet)
	api.HandleFunc("/auth/callback", h.handleCallback).Methods(http.MethodGet)
	api.HandleFunc("/auth/me", h.requireAuth(h.handleMe)).Methods(http.MethodGet)
	api.HandleFunc("/auth/logout", h.handleLogout).Methods(http.MethodPost)

	// Mixes and the feed.
	api.HandleFunc("/mixes", h.optionalAuth(h.handleListMixes)).Methods(http.MethodGet)
	api.HandleFunc("/mixes/{id}", h.optionalAuth(h.handleGetMix)).Methods(http.MethodGet)
	api.HandleFunc("/mixes/{id}", h.requireWriter(h.apiLimited(h.handleUpdateMix))).Methods(http.MethodPatch)
	api.HandleFunc("/mixes/{id}", h.requireWriter(h.apiLimited(h.handleDeleteMix))).Methods(http.MethodDelete)
	api.HandleFunc("/mixes/{id}/stream", h.optionalAuth(h.handleStreamURL)).Methods(http.MethodGet)
	api.HandleFunc("/mixes/{id}/cover", h.optionalAuth(h.handleCoverURL)).Methods(http.MethodGet)
	api.HandleFunc("/mixes/{id}/waveform", h.optionalAuth(h.handleWaveform)).Methods(http.MethodGet)

	// Uploads get their own, much tighter quota.
	api.HandleFunc("/upload", h.requireWriter(h.rateLimited(cache.ActionUpload, h.handleUpload))).Methods(http.MethodPost)

	// Playlists.
	api.HandleFunc("/playlists", h.optionalAuth(h.handleListPlaylists)).Methods(http.MethodGet)
	api.HandleFunc("/playlists", h.requireWriter(h.apiLimited(h.handleCreatePlaylist))).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}", h.optionalAuth(h.handleGetPlaylist)).Methods(http.MethodGet)
	api.HandleFunc("/playlists/{id}", h.requireWriter(h.apiLimited(h.handleUpdatePlaylist))).Methods(http.MethodPatch)
	api.HandleFunc("/playlists/{id}", h.requireWriter(h.apiLimited(h.handleDeletePlaylist))).Methods(http.MethodDelete)
	api.HandleFunc("/playlists/{id}/mixes", h.requireWriter(h.apiLimited(h.handleAddPlaylistMix))).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}/mixes/{mixId}", h.requireWriter(h.apiLimited(h.handleRemovePlaylistMix))).Methods(http.MethodDelete)
	api.HandleFunc("/playlists/{id}/mixes/{mixId}/position", h.requireWriter(h.apiLimited(h.handleMovePlaylistMix))).Methods(http.MethodPut)

	// Settings.
	api.HandleFunc("/settings", h.handlePublicSettings).Methods(http.MethodGet)

	// Admin.
	api.HandleFunc("/users", h.requireAdmin(h.handleListUsers)).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", h.requireAdmin(h.handleUpdateUser)).Methods(http.MethodPatch)
	api.HandleFunc("/users/{id}", h.requireAdmin(h.handleDeleteUser)).Methods(http.MethodDelete)
	api.HandleFunc("/admin/settings", h.requireAdmin(h.handleAdminSettings)).Methods(http.MethodGet)
	api.HandleFunc("/admin/settings", h.requireAdmin(h.handleUpdateSettings)).Methods(http.MethodPut)
	api.HandleFunc("/admin/audit", h.requireAdmin(h.handleAuditLog)).Methods(http.MethodGet)

	// Live feed events.
	api.HandleFunc("/events", h.optionalAuth(h.handleEvents)).Methods(http.MethodGet)

	var handler http.Handler = r
	handler = loggingMiddleware(handler)
	handler = corsMiddleware(handler)
	handler = recoverMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

// handleHealth is the liveness probe.
func (h *APIHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
