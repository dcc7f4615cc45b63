package server

import (
	"errors"
	"fmt"
	"net/http"

	"mixvault/logger"
	"mixvault/model"
	"mixvault/repository"

	"github.com/goccy/go-json"
)

// handleListUsers returns every account, newest first. Admin only.
func (h *APIHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List()
	if err != nil {
		logger.Error("failed to list users", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to load users")
		return
	}
	if users == nil {
		users = []*model.User{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func validRole(role string) bool {
	return role == model.RoleUser || role == model.RoleAdmin
}

func validStatus(status string) bool {
	return status == model.StatusActive || status == model.StatusSuspended || status == model.StatusBanned
}

// handleUpdateUser changes a user's role or status. Demoting the last
// remaining admin is rejected so the instance cannot lock itself out.
func (h *APIHandler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	target, err := h.users.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
		} else {
			respondError(w, http.StatusInternalServerError, "failed to load user")
		}
		return
	}

	var body struct {
		Role   *string `json:"role"`
		Status *string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, status := target.Role, target.Status
	if body.Role != nil {
		if !validRole(*body.Role) {
			respondError(w, http.StatusBadRequest, "invalid role")
			return
		}
		role = *body.Role
	}
	if body.Status != nil {
		if !validStatus(*body.Status) {
			respondError(w, http.StatusBadRequest, "invalid status")
			return
		}
		status = *body.Status
	}

	demoting := target.IsAdmin() && role != model.RoleAdmin
	if demoting {
		if err := h.ensureNotLastAdmin(w); err != nil {
			return
		}
	}

	if err := h.users.UpdateRoleStatus(id, role, status); err != nil {
		logger.Error("failed to update user", logger.Int64("userId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	target.Role, target.Status = role, status

	h.writeAudit(currentUser(r).ID, "user.update", "user", id,
		fmt.Sprintf(`{"role":%q,"status":%q}`, role, status))
	respondJSON(w, http.StatusOK, target)
}

// handleDeleteUser removes an account. Owned mixes and playlists cascade at
// the schema level; their stored objects are reaped separately. The last
// remaining admin cannot be deleted.
func (h *APIHandler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	target, err := h.users.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
		} else {
			respondError(w, http.StatusInternalServerError, "failed to load user")
		}
		return
	}

	if target.IsAdmin() {
		if err := h.ensureNotLastAdmin(w); err != nil {
			return
		}
	}

	if err := h.users.Delete(id); err != nil {
		logger.Error("failed to delete user", logger.Int64("userId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	h.writeAudit(currentUser(r).ID, "user.delete", "user", id, "")
	logger.Info("user deleted", logger.Int64("userId", id), logger.Int64("actorId", currentUser(r).ID))
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ensureNotLastAdmin rejects the request when only one admin remains. The
// count-then-write is not atomic; two racing demotions can still slip
// through, which is accepted for a single-instance deployment.
func (h *APIHandler) ensureNotLastAdmin(w http.ResponseWriter) error {
	admins, err := h.users.CountAdmins()
	if err != nil {
		logger.Error("failed to count admins", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to update user")
		return err
	}
	if admins <= 1 {
		respondError(w, http.StatusBadRequest, "cannot remove the last admin")
		return repository.ErrLastAdmin
	}
	return nil
}

// handleAuditLog returns the newest audit entries. Admin only.
func (h *APIHandler) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.audits.ListRecent(queryInt(r, "limit", 100))
	if err != nil {
		logger.Error("failed to list audit entries", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to load audit log")
		return
	}
	if entries == nil {
		entries = []*model.AuditLog{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}
