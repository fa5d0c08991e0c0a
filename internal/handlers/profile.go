package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"varta/server/internal/models"
)

// UpdateProfile applies a partial update of the caller's profile. Only the
// supplied fields are written; an attached media file becomes the new profile
// picture only after a successful upload.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	upd, file, err := parseProfileUpdate(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if file != nil {
		// Profile pictures skip content type classification; anything the
		// media host accepts is fine.
		mediaURL, err := h.media.Upload(r.Context(), file.Path, file.MimeType)
		file.Remove()
		if err != nil {
			respondError(w, models.ErrUploadFailed)
			return
		}
		upd.ProfilePic = &mediaURL
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, upd)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Profile updated successfully", "user": user})
}

func parseProfileUpdate(r *http.Request) (models.ProfileUpdate, *uploadedFile, error) {
	var upd models.ProfileUpdate

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, err := receiveUpload(r, "media")
		if err != nil {
			return upd, nil, err
		}
		form := r.MultipartForm.Value
		if values, ok := form["username"]; ok && len(values) > 0 {
			upd.Username = &values[0]
		}
		if values, ok := form["about"]; ok && len(values) > 0 {
			upd.About = &values[0]
		}
		if values, ok := form["agreedToTerms"]; ok && len(values) > 0 {
			agreed, err := strconv.ParseBool(values[0])
			if err != nil {
				file.Remove()
				return upd, nil, models.ErrValidation
			}
			upd.AgreedToTerms = &agreed
		}
		return upd, file, nil
	}

	var body struct {
		Username      *string `json:"username"`
		About         *string `json:"about"`
		AgreedToTerms *bool   `json:"agreedToTerms"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return upd, nil, models.ErrValidation
	}
	upd.Username = body.Username
	upd.About = body.About
	upd.AgreedToTerms = body.AgreedToTerms
	return upd, nil, nil
}

// CheckAuth returns the caller's full user row, proving the session is live.
func (h *AuthHandler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetUserById(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Authenticated", "user": user})
}

// ViewProfile returns the fixed profile projection. OTP fields never appear.
func (h *AuthHandler) ViewProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetUserById(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	profile := models.Profile{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		ProfilePic:  user.ProfilePic,
		About:       user.About,
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Profile fetched successfully", "profile": profile})
}
