package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"varta/server/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("error encoding response")
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// respondError converts service errors to their HTTP status. Anything outside
// the known taxonomy becomes a plain 500.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrInvalidOtp):
		writeMessage(w, http.StatusBadRequest, "Invalid or expired OTP")
	case errors.Is(err, models.ErrUnsupportedMediaType):
		writeMessage(w, http.StatusBadRequest, "Unsupported media type")
	case errors.Is(err, models.ErrUserNotFound):
		writeMessage(w, http.StatusNotFound, "User not found")
	case errors.Is(err, models.ErrConversationNotFound):
		writeMessage(w, http.StatusNotFound, "Conversation not found")
	case errors.Is(err, models.ErrMessageNotFound):
		writeMessage(w, http.StatusNotFound, "No messages found for the user")
	case errors.Is(err, models.ErrStatusNotFound):
		writeMessage(w, http.StatusNotFound, "Status not found or expired")
	case errors.Is(err, models.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, models.ErrUploadFailed):
		writeMessage(w, http.StatusInternalServerError, "Failed to upload media")
	default:
		log.Error().Err(err).Msg("unhandled error")
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

func requireUserID(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return 0, false
	}
	return userID, true
}
