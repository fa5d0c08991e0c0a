package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"varta/server/internal/models"
	"varta/server/internal/providers"
	"varta/server/internal/services"
)

type StatusHandler struct {
	statuses services.StatusService
	media    providers.MediaUploader
}

func NewStatusHandler(statuses services.StatusService, media providers.MediaUploader) *StatusHandler {
	return &StatusHandler{statuses: statuses, media: media}
}

// CreateStatus publishes an ephemeral post that expires 24 hours from now.
func (h *StatusHandler) CreateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	file, err := receiveUpload(r, "media")
	if err != nil {
		respondError(w, err)
		return
	}
	defer file.Remove()

	content := strings.TrimSpace(r.FormValue("content"))

	in := services.CreateStatusInput{UserID: userID}
	if content != "" {
		in.Content = &content
	}

	switch {
	case file != nil:
		mediaURL, contentType, err := pushToMediaHost(r.Context(), h.media, file)
		if err != nil {
			respondError(w, err)
			return
		}
		in.MediaURL = &mediaURL
		in.ContentType = contentType
	case content != "":
		in.ContentType = models.ContentTypeText
	default:
		writeMessage(w, http.StatusBadRequest, "Either content or media file is required")
		return
	}

	status, err := h.statuses.CreateStatus(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Status created successfully", "status": status})
}

// GetStatuses lists every non-expired status with its nested viewer list.
func (h *StatusHandler) GetStatuses(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	statuses, err := h.statuses.GetActiveStatuses(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Statuses fetched successfully", "statuses": statuses})
}

// ViewStatus records the caller's view receipt; repeat views are no-ops.
func (h *StatusHandler) ViewStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	statusID, err := strconv.Atoi(chi.URLParam(r, "statusId"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid status id")
		return
	}

	view, err := h.statuses.ViewStatus(r.Context(), statusID, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Status viewed successfully", "view": view})
}

// GetStatusViewers lists who viewed a status; owner only.
func (h *StatusHandler) GetStatusViewers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	statusID, err := strconv.Atoi(chi.URLParam(r, "statusId"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid status id")
		return
	}

	viewers, err := h.statuses.GetStatusViewers(r.Context(), statusID, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Viewers fetched successfully", "viewers": viewers})
}

// DeleteStatus hard-deletes a status; owner only. View receipts cascade.
func (h *StatusHandler) DeleteStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	statusID, err := strconv.Atoi(chi.URLParam(r, "statusId"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid status id")
		return
	}

	if err := h.statuses.DeleteStatus(r.Context(), statusID, userID); err != nil {
		respondError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Status deleted successfully")
}
