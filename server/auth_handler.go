package server

import (
	"errors"
	"net/http"
	"time"

	"mixvault/logger"
	"mixvault/model"
	"mixvault/repository"

	"github.com/google/uuid"
)

const stateCookieName = "mixvault_oauth_state"

// handleLogin starts the OAuth authorization-code flow. The random state is
// pinned in a short-lived cookie and verified on callback.
func (h *APIHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusFound)
}

// handleCallback finishes the OAuth flow: verify state, exchange the code,
// fetch the provider identity and sign the browser in. The account is created
// on first sign-in; the very first account and allow-listed emails become
// admins.
func (h *APIHandler) handleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		respondError(w, http.StatusBadRequest, "invalid oauth state")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	oauthToken, err := h.oauth.Exchange(r.Context(), code)
	if err != nil {
		logger.Error("oauth exchange failed", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "sign-in failed")
		return
	}
	identity, err := h.oauth.FetchIdentity(r.Context(), oauthToken)
	if err != nil {
		logger.Error("oauth userinfo failed", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "sign-in failed")
		return
	}

	user, err := h.upsertUser(identity.Provider, identity.SubjectID, identity.Username, identity.Email, identity.AvatarURL)
	if err != nil {
		logger.Error("failed to upsert user", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "sign-in failed")
		return
	}
	if user.Status == model.StatusBanned {
		respondError(w, http.StatusForbidden, "account banned")
		return
	}

	token, err := h.tokens.Generate(user.ID, user.Username, user.Role)
	if err != nil {
		logger.Error("failed to mint session token", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "sign-in failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int((7 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

// upsertUser finds the account for an OAuth identity, creating it on first
// sign-in. The first account ever created, and accounts whose email is on the
// admin allow-list, get the admin role.
func (h *APIHandler) upsertUser(provider, subjectID, username, email, avatarURL string) (*model.User, error) {
	if provider == "" {
		provider = "oauth"
	}
	user, err := h.users.GetByProviderSubject(provider, subjectID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	role := model.RoleUser
	if total, err := h.users.CountUsers(); err == nil && total == 0 {
		role = model.RoleAdmin
	}
	if h.cfg.IsAdminEmail(email) {
		role = model.RoleAdmin
	}

	user = &model.User{
		Provider:   provider,
		ProviderID: subjectID,
		Username:   username,
		Email:      email,
		AvatarURL:  avatarURL,
		Role:       role,
		Status:     model.StatusActive,
	}
	id, err := h.users.Create(user)
	if err != nil {
		// A concurrent callback for the same identity may have won the race.
		if errors.Is(err, repository.ErrDuplicate) {
			return h.users.GetByProviderSubject(provider, subjectID)
		}
		return nil, err
	}
	user.ID = id

	logger.Info("user created",
		logger.Int64("userId", id),
		logger.String("username", username),
		logger.String("role", role))
	return user, nil
}

// handleMe returns the signed-in user's profile.
func (h *APIHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, currentUser(r))
}

// handleLogout clears the session cookie. The token itself stays valid until
// expiry; there is no server-side revocation list.
func (h *APIHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}
