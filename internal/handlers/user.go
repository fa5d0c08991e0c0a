package handlers

import (
	"net/http"
)

// GetAllUsers lists every other user with the summary of the 1:1 conversation
// they share with the caller.
func (h *AuthHandler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	users, err := h.users.ListUsersWithConversations(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Users fetched successfully", "users": users})
}
