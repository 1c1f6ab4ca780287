package authapi

import (
	"net/http"
	"strconv"
)

// handleGetUser serves a user profile by id. Callers may only read their
// own profile.
func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, _, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid user id")
		return
	}

	if id != u.ID {
		writeError(w, http.StatusForbidden, "forbidden", "cannot access another user's profile")
		return
	}

	writeJSON(w, http.StatusOK, meResponse{User: toUserResponse(u)})
}
