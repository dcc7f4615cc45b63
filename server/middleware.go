package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mixvault/cache"
	"mixvault/logger"
	"mixvault/model"

	"github.com/google/uuid"
)

type ctxKey int

const userContextKey ctxKey = iota

// sessionCookieName is the cookie the browser client authenticates with.
const sessionCookieName = "mixvault_session"

// currentUser returns the authenticated user attached by the auth middleware,
// or nil for anonymous requests.
func currentUser(r *http.Request) *model.User {
	user, _ := r.Context().Value(userContextKey).(*model.User)
	return user
}

func withUser(r *http.Request, user *model.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userContextKey, user))
}

// requestIDMiddleware tags every request with an ID for log correlation.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// recoverMiddleware converts handler panics into 500 responses instead of
// tearing down the connection.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("handler panic",
					logger.String("path", r.URL.Path),
					logger.Any("panic", rec))
				respondError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware handles cross-origin requests from the web client.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs one line per request.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.status),
			logger.Duration("elapsed", time.Since(start)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrade reach the underlying connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// extractToken pulls the session token from the Authorization header or the
// session cookie.
func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(sessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// resolveUser validates the request's session token and loads the live user
// row, so role or status changes take effect without waiting for the token to
// expire.
func (h *APIHandler) resolveUser(r *http.Request) *model.User {
	token := extractToken(r)
	if token == "" {
		return nil
	}
	claims, err := h.tokens.Parse(token)
	if err != nil {
		return nil
	}
	user, err := h.users.GetByID(claims.UserID)
	if err != nil {
		return nil
	}
	return user
}

// optionalAuth attaches the user when a valid session is present but lets
// anonymous requests through.
func (h *APIHandler) optionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if user := h.resolveUser(r); user != nil && user.Status != model.StatusBanned {
			r = withUser(r, user)
		}
		next(w, r)
	}
}

// requireAuth rejects anonymous and banned callers.
func (h *APIHandler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := h.resolveUser(r)
		if user == nil {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if user.Status == model.StatusBanned {
			respondError(w, http.StatusForbidden, "account banned")
			return
		}
		next(w, withUser(r, user))
	}
}

// requireWriter additionally rejects suspended accounts, which keep read
// access but lose all mutating endpoints.
func (h *APIHandler) requireWriter(next http.HandlerFunc) http.HandlerFunc {
	return h.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		if !currentUser(r).CanWrite() {
			respondError(w, http.StatusForbidden, "account suspended")
			return
		}
		next(w, r)
	})
}

// requireAdmin rejects everyone but active admins.
func (h *APIHandler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return h.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		if !currentUser(r).IsAdmin() {
			respondError(w, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r)
	})
}

// rateLimited enforces a fixed-window quota for the given action class. Must
// run after an auth middleware so the counter is keyed per user. A denial
// carries a Retry-After header and a retryAfter field in the body.
func (h *APIHandler) rateLimited(action string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		if user == nil {
			next(w, r)
			return
		}
		res := h.limiter.Check(r.Context(), action, user.ID)
		if !res.Allowed {
			retryAfter := res.RetryAfter(time.Now())
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			respondJSON(w, http.StatusTooManyRequests, map[string]interface{}{
				"error":      "rate limit exceeded",
				"retryAfter": retryAfter,
			})
			return
		}
		next(w, r)
	}
}

// apiLimited is the quota wrapper for regular authenticated API mutations.
func (h *APIHandler) apiLimited(next http.HandlerFunc) http.HandlerFunc {
	return h.rateLimited(cache.ActionAPI, next)
}
